package scrape

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // OK for demo; restrict in production
	},
}

// websocket streams the same event sequence as the SSE mode over a
// websocket, one JSON message per event.
func (h *Handler) websocket(c *gin.Context) {
	var src Source
	profile := c.Query("id")

	switch c.Query("source") {
	case "backloggd":
		if !usernameRe.MatchString(profile) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username"})
			return
		}
		src = h.Backloggd
	case "steam":
		if !steamIDRe.MatchString(profile) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid steamId"})
			return
		}
		src = h.Steam
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "source must be backloggd or steam"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer ws.Close()
	log.Printf("[scrape] ws client connected for %s/%s", src.Name(), profile)

	h.Engine.Stream(c.Request.Context(), src, profile, func(event any) {
		_ = ws.WriteJSON(event)
	})
}
