package scrape

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"gamewrapped/internal/ingest"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	steamIDRe  = regexp.MustCompile(`^[0-9]{17}$`)
)

type Handler struct {
	Engine    *Engine
	Backloggd *Backloggd
	Steam     *Steam
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{
		Engine:    engine,
		Backloggd: NewBackloggd(),
		Steam:     NewSteam(),
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/backloggd", h.backloggd)
	rg.GET("/steam", h.steam)
	rg.GET("/scrape/ws", h.websocket)
}

// Identifiers are validated before any fetch: the profile id is spliced
// into a URL path, so anything outside the allowed alphabet is rejected.

func (h *Handler) backloggd(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username required"})
		return
	}
	if !usernameRe.MatchString(username) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username"})
		return
	}
	h.serve(c, h.Backloggd, username)
}

func (h *Handler) steam(c *gin.Context) {
	steamID := c.Query("steamId")
	if steamID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "steamId required"})
		return
	}
	if !steamIDRe.MatchString(steamID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid steamId"})
		return
	}
	h.serve(c, h.Steam, steamID)
}

func (h *Handler) serve(c *gin.Context, src Source, profile string) {
	if c.Query("stream") == "true" {
		h.streamSSE(c, src, profile)
		return
	}

	result, err := h.Engine.Run(c.Request.Context(), src, profile, nil)
	if err != nil {
		status, msg := statusForError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	csvText := ingest.EntriesToCSV(result.Entries, src.Columns(), src.Quote)
	c.JSON(http.StatusOK, gin.H{"csv": csvText, "total": len(result.Entries)})
}

// streamSSE writes the event sequence as data-only server-sent events.
func (h *Handler) streamSSE(c *gin.Context, src Source, profile string) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	h.Engine.Stream(c.Request.Context(), src, profile, func(event any) {
		payload, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
		flusher.Flush()
	})
}

func statusForError(err error) (int, string) {
	var (
		rl *RateLimitError
		to *TimeoutError
		up *UpstreamError
	)
	switch {
	case errors.Is(err, ErrNoData):
		return http.StatusNotFound, "no games found for this profile"
	case errors.As(err, &rl):
		return http.StatusTooManyRequests, "rate limited by the site, try again later"
	case errors.As(err, &to):
		return http.StatusGatewayTimeout, err.Error()
	case errors.As(err, &up):
		return http.StatusBadGateway, err.Error()
	}
	return http.StatusBadGateway, err.Error()
}
