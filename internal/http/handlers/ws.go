package handlers

import (
	"net/http"

	"rps_webapp/internal/logger"
	"rps_webapp/internal/service"
	"rps_webapp/internal/ws"

	"github.com/gin-gonic/gin"
)

// WS upgrades /ws?token=<session token> and attaches the socket to the
// session's room
func (h *Handler) WS(hub *ws.Hub, allowedOrigin string) gin.HandlerFunc {
	upgrader := ws.NewUpgrader(allowedOrigin)

	return func(c *gin.Context) {
		// JWT from query
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		sid, err := service.ParseJWT(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if _, err := h.Sessions.Get(sid); err != nil {
			writeServiceError(c, err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade error", "error", err)
			return
		}

		client := ws.NewClient(sid, conn, hub)
		go client.Run()
	}
}
