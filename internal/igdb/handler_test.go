package igdb

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(client *Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(client).RegisterRoutes(router.Group("/api/igdb"))
	return router
}

func TestCoverRequiresTitle(t *testing.T) {
	router := setupRouter(NewClient(NewTokenCache("", "")))

	for _, body := range []string{``, `{}`, `{"title":"  "}`, `not json`} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/igdb/cover", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}
}

func TestCoverDegradesToNullWithoutCredentials(t *testing.T) {
	// no credentials configured: the token cache short-circuits and the
	// lookup degrades to a null payload instead of an error status
	router := setupRouter(NewClient(NewTokenCache("", "")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/igdb/cover", strings.NewReader(`{"title":"Hades"}`)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"imageUrl":null}`, w.Body.String())
}

func TestGameDegradesToNullWithoutCredentials(t *testing.T) {
	router := setupRouter(NewClient(NewTokenCache("", "")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/igdb/game", strings.NewReader(`{"title":"Hades"}`)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"game":null}`, w.Body.String())
}

func TestTopThisYearDegradesToEmptyList(t *testing.T) {
	router := setupRouter(NewClient(NewTokenCache("", "")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/igdb/top-this-year", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"games":[]`)
}
