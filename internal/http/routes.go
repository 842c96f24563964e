package http

import (
	"rps_webapp/internal/config"
	"rps_webapp/internal/http/handlers"
	"rps_webapp/internal/http/middleware"
	"rps_webapp/internal/repository"
	"rps_webapp/internal/service"
	"rps_webapp/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Config   *config.Config
	Sessions *service.SessionService
	// Rounds is nil when no archive is configured
	Rounds repository.RoundStore
}

// RegisterRoutes wires every HTTP and websocket endpoint and returns the hub
// that owns live sockets.
func RegisterRoutes(r *gin.Engine, deps Deps) *ws.Hub {
	cfg := deps.Config
	h := handlers.NewHandler(deps.Sessions, deps.Rounds)
	healthHandler := handlers.NewHealthHandler(deps.Rounds, deps.Sessions, cfg.Version)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(cfg.APIRateLimit, cfg.APIRateWindow))
	registerAPIRoutes(v1, h, cfg)

	hub := ws.NewHub(deps.Sessions)
	r.GET("/ws", h.WS(hub, cfg.AllowedOrigin))

	// Frontend static files
	if cfg.StaticDir != "" {
		r.StaticFS("/assets", gin.Dir(cfg.StaticDir, false))
		r.NoRoute(func(c *gin.Context) {
			c.File(cfg.StaticDir + "/index.html")
		})
	}

	return hub
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, cfg *config.Config) {
	// Session
	api.POST("/session", h.CreateSession)
	api.DELETE("/session", middleware.JWT(), h.CloseSession)

	// Game; play limiter is per session, not per IP
	playRL := middleware.PlayRateLimit(cfg.PlayRateLimit, cfg.PlayRateWindow)

	api.GET("/game/config", h.GameConfig)
	api.GET("/game/state", middleware.JWT(), h.GameState)
	api.POST("/game/play", middleware.JWT(), playRL, h.Play)
	api.POST("/game/simulate", middleware.JWT(), playRL, h.Simulate)
	api.POST("/game/reset", middleware.JWT(), h.Reset)

	// Archive
	api.GET("/stats", h.Stats)
}
