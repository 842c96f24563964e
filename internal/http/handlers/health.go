package handlers

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"rps_webapp/internal/http/middleware"
	"rps_webapp/internal/repository"
	"rps_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	rounds    repository.RoundStore
	sessions  *service.SessionService
	startTime time.Time
	version   string
}

func NewHealthHandler(rounds repository.RoundStore, sessions *service.SessionService, version string) *HealthHandler {
	return &HealthHandler{
		rounds:    rounds,
		sessions:  sessions,
		startTime: time.Now(),
		version:   version,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime,omitempty"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Liveness returns simple alive status (k8s liveness check)
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness returns detailed health status (k8s readiness check)
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if h.rounds == nil {
		checks["round_archive"] = "disabled"
	} else if err := h.rounds.Ping(ctx); err != nil {
		checks["round_archive"] = "unhealthy: " + err.Error()
		allHealthy = false
	} else {
		checks["round_archive"] = "healthy"
	}

	// Redis is optional; the limiter falls back to memory
	if rc := middleware.RedisClient(); rc == nil {
		checks["redis"] = "disabled"
	} else if err := rc.Ping(ctx).Err(); err != nil {
		checks["redis"] = "degraded: " + err.Error()
	} else {
		checks["redis"] = "healthy"
	}

	if h.sessions != nil {
		checks["sessions"] = strconv.Itoa(h.sessions.Count())
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	checks["memory_alloc_mb"] = formatMB(m.Alloc)

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    status,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// Health is a combined endpoint for basic health checks
func (h *HealthHandler) Health(c *gin.Context) {
	if h.rounds != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := h.rounds.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "round archive unavailable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}

func formatMB(bytes uint64) string {
	mb := float64(bytes) / 1024 / 1024
	return fmt.Sprintf("%.2f", mb)
}
