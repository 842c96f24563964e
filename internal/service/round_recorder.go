package service

import (
	"context"
	"sync"
	"time"

	"rps_webapp/internal/domain"
	"rps_webapp/internal/game"
	"rps_webapp/internal/logger"
	"rps_webapp/internal/repository"
)

const recordTimeout = 5 * time.Second

// RoundRecorder archives committed rounds without blocking the engine
type RoundRecorder struct {
	store   repository.RoundStore
	variant string

	// mu orders wg.Add against Wait; closed is set by Wait
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewRoundRecorder returns nil when store is nil; a nil recorder drops rounds
func NewRoundRecorder(store repository.RoundStore, variant string) *RoundRecorder {
	if store == nil {
		return nil
	}
	return &RoundRecorder{store: store, variant: variant}
}

func ResultOf(o game.Outcome) domain.RoundResult {
	switch o {
	case game.Win:
		return domain.RoundResultWin
	case game.Loss:
		return domain.RoundResultLoss
	default:
		return domain.RoundResultDraw
	}
}

// Record stores the round in the background
func (r *RoundRecorder) Record(sessionID string, mode domain.RoundMode, round game.Round) {
	if r == nil {
		return
	}

	rec := &domain.RoundRecord{
		SessionID:    sessionID,
		Variant:      r.variant,
		Mode:         mode,
		Result:       ResultOf(round.Outcome),
		PlayerMove:   round.Moves[game.PlayerIndex],
		OpponentMove: round.Moves[game.OpponentIndex],
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		logger.Warn("round dropped, archive closed", "session_id", sessionID)
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := r.store.Create(ctx, rec); err != nil {
			logger.Error("failed to archive round", "error", err, "session_id", sessionID)
		}
	}()
}

// Wait stops accepting rounds and blocks until in-flight writes finish
func (r *RoundRecorder) Wait() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.wg.Wait()
}
