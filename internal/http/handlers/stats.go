package handlers

import (
	"net/http"
	"time"

	"rps_webapp/internal/logger"

	"github.com/gin-gonic/gin"
)

const maxStatsWindow = 90 * 24 * time.Hour

// Stats aggregates archived rounds; ?since=<duration>, default 24h
func (h *Handler) Stats(c *gin.Context) {
	if h.Rounds == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "round archive disabled"})
		return
	}

	window := 24 * time.Hour
	if v := c.Query("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 || d > maxStatsWindow {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a positive duration up to 2160h"})
			return
		}
		window = d
	}

	stats, err := h.Rounds.Stats(c.Request.Context(), time.Now().Add(-window))
	if err != nil {
		logger.Error("round stats failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
