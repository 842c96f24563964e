package middleware

import (
	"net/http"
	"strings"

	"rps_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session_id"

// JWT requires "Authorization: Bearer <token>" and stores the session id
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		sid, err := service.ParseJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(sessionKey, sid)
		c.Next()
	}
}

// SessionID returns the id stored by JWT
func SessionID(c *gin.Context) (string, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return "", false
	}
	sid, ok := v.(string)
	return sid, ok && sid != ""
}
