package wrapped

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gamewrapped/internal/ingest"
	"gamewrapped/pkg/models"
)

type Handler struct {
	Service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/wrapped", h.create)
	rg.GET("/wrapped/:id", h.get)
}

type createReq struct {
	Records []models.GameRecord `json:"records"`
	CSV     string              `json:"csv"`
}

// create accepts either pre-normalized records or raw CSV text. CSV goes
// through the same normalizer as every other ingest path.
func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	records := req.Records
	if len(records) == 0 && strings.TrimSpace(req.CSV) != "" {
		parsed, err := ingest.ParseCSV(req.CSV)
		if err != nil {
			var fe *ingest.FormatError
			if errors.As(err, &fe) {
				c.JSON(http.StatusBadRequest, gin.H{"error": fe.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not parse csv"})
			return
		}
		records = parsed
	}

	if len(records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "records or csv required"})
		return
	}

	w, err := h.Service.Create(c.Request.Context(), records)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	c.JSON(http.StatusCreated, w)
}

func (h *Handler) get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id required"})
		return
	}

	w, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if w == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	c.JSON(http.StatusOK, w)
}
