package handlers

import (
	"errors"
	"net/http"

	"rps_webapp/internal/http/middleware"
	"rps_webapp/internal/repository"
	"rps_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Sessions *service.SessionService
	// Rounds is nil when no archive is configured
	Rounds repository.RoundStore
}

func NewHandler(sessions *service.SessionService, rounds repository.RoundStore) *Handler {
	return &Handler{
		Sessions: sessions,
		Rounds:   rounds,
	}
}

// getSessionID извлекает session_id из контекста Gin
func getSessionID(c *gin.Context) (string, bool) {
	return middleware.SessionID(c)
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, service.ErrInvalidMove):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid move"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
