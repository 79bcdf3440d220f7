package igdb

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// topThisYearLimit is how many ranked games the UI carousel shows.
const topThisYearLimit = 8

type Handler struct {
	Client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{Client: client}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/cover", h.cover)
	rg.POST("/game", h.game)
	rg.GET("/top-this-year", h.topThisYear)
}

type titleReq struct {
	Title string `json:"title"`
}

// Metadata lookups always answer 200 after validation: a missing or broken
// upstream degrades to a null payload so the UI can render placeholders.

func (h *Handler) cover(c *gin.Context) {
	var req titleReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}

	imageURL := h.Client.SearchCoverByTitle(c.Request.Context(), req.Title)
	if imageURL == "" {
		c.JSON(http.StatusOK, gin.H{"imageUrl": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imageUrl": imageURL})
}

func (h *Handler) game(c *gin.Context) {
	var req titleReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}

	link := h.Client.SearchGameByTitle(c.Request.Context(), req.Title)
	if link == nil {
		c.JSON(http.StatusOK, gin.H{"game": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": link})
}

func (h *Handler) topThisYear(c *gin.Context) {
	year := time.Now().UTC().Year()

	games := h.Client.TopGamesOfYear(c.Request.Context(), year, topThisYearLimit)
	if games == nil {
		games = []TopGame{}
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "games": games})
}
