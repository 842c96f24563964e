package handlers

import (
	"net/http"

	"rps_webapp/internal/game"
	"rps_webapp/internal/logger"
	"rps_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

type PlayRequest struct {
	Move string `json:"move" binding:"required"`
}

type ActionResponse struct {
	Accepted bool              `json:"accepted"`
	State    service.StateView `json:"state"`
}

type SessionResponse struct {
	SessionID string            `json:"session_id"`
	Token     string            `json:"token"`
	Elements  []string          `json:"elements"`
	State     service.StateView `json:"state"`
}

// CreateSession starts a new game and returns its bearer token
func (h *Handler) CreateSession(c *gin.Context) {
	sess, err := h.Sessions.Create()
	if err != nil {
		logger.Error("create session failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	token, err := service.GenerateJWT(sess.ID)
	if err != nil {
		_ = h.Sessions.Close(sess.ID)
		logger.Error("sign session token failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, SessionResponse{
		SessionID: sess.ID,
		Token:     token,
		Elements:  sess.Engine.Elements(),
		State:     h.Sessions.View(sess.Engine.State()),
	})
}

func (h *Handler) CloseSession(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.Sessions.Close(sid); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GameConfig describes the move set so clients can render buttons
func (h *Handler) GameConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"variant":  h.Sessions.Variant(),
		"elements": h.Sessions.Elements(),
		"delay_ms": h.Sessions.Delay().Milliseconds(),
		"labels": gin.H{
			game.Draw.String(): h.Sessions.Translate(game.Draw),
			game.Win.String():  h.Sessions.Translate(game.Win),
			game.Loss.String(): h.Sessions.Translate(game.Loss),
		},
	})
}

func (h *Handler) GameState(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	st, err := h.Sessions.State(sid)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Sessions.View(st))
}

// Play starts a round with the chosen move against a random opponent
func (h *Handler) Play(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req PlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	res, err := h.Sessions.Play(sid, req.Move)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	h.writeAction(c, res)
}

// Simulate starts a round with both moves drawn at random
func (h *Handler) Simulate(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	res, err := h.Sessions.Simulate(sid)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	h.writeAction(c, res)
}

func (h *Handler) Reset(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	res, err := h.Sessions.Reset(sid)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	h.writeAction(c, res)
}

// writeAction answers 202 when the action was applied. Actions ignored while a
// round is animating are not errors: 200 with accepted=false.
func (h *Handler) writeAction(c *gin.Context, res service.ActionResult) {
	status := http.StatusOK
	if res.Accepted {
		status = http.StatusAccepted
	}
	c.JSON(status, ActionResponse{
		Accepted: res.Accepted,
		State:    h.Sessions.View(res.State),
	})
}
