package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"rps_webapp/internal/domain"
	"rps_webapp/internal/game"
	"rps_webapp/internal/logger"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidMove     = errors.New("invalid move")
)

// SessionConfig holds the game settings shared by every session
type SessionConfig struct {
	Variant  string
	Elements []string
	Delay    time.Duration
	TTL      time.Duration

	Compare   game.CompareFunc
	Translate game.TranslateFunc
	// NewSource and Scheduler override randomness and timing, mostly for tests
	NewSource func() game.Source
	Scheduler game.Scheduler
}

// Session is one browser's game
type Session struct {
	ID        string
	Engine    *game.Engine
	CreatedAt time.Time

	actionMu  sync.Mutex
	simulated atomic.Bool
	lastSeen  atomic.Int64
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// ActionResult reports whether a play or reset was applied and the state
// right after it
type ActionResult struct {
	Accepted bool
	State    game.State
}

type SessionService struct {
	cfg      SessionConfig
	recorder *RoundRecorder
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionService(cfg SessionConfig, recorder *RoundRecorder) *SessionService {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &SessionService{
		cfg:      cfg,
		recorder: recorder,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Elements returns the configured move set, classic when unset
func (s *SessionService) Elements() []string {
	if len(s.cfg.Elements) == 0 {
		els, _ := game.Variant(game.VariantClassic)
		return els
	}
	return append([]string(nil), s.cfg.Elements...)
}

func (s *SessionService) Variant() string {
	if s.cfg.Variant == "" {
		return string(game.VariantClassic)
	}
	return s.cfg.Variant
}

func (s *SessionService) Delay() time.Duration {
	if s.cfg.Delay <= 0 {
		return game.DefaultDelay
	}
	return s.cfg.Delay
}

func (s *SessionService) Translate(o game.Outcome) string {
	if s.cfg.Translate == nil {
		return game.DefaultTranslate(o)
	}
	return s.cfg.Translate(o)
}

// Create starts a session with a fresh engine
func (s *SessionService) Create() (*Session, error) {
	opts := game.Options{
		Elements:  s.Elements(),
		Compare:   s.cfg.Compare,
		Translate: s.cfg.Translate,
		Delay:     s.cfg.Delay,
		Scheduler: s.cfg.Scheduler,
	}
	if s.cfg.NewSource != nil {
		opts.Source = s.cfg.NewSource()
	}

	eng, err := game.New(opts)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Engine:    eng,
		CreatedAt: now,
	}
	sess.touch(now)

	eng.Subscribe(func(ev game.Event) {
		if ev.Kind != game.EventRoundCommitted || ev.Round == nil {
			return
		}
		mode := domain.RoundModeManual
		if sess.simulated.Load() {
			mode = domain.RoundModeSimulated
		}
		RoundsCommitted.WithLabelValues(ev.Round.Outcome.String(), string(mode)).Inc()
		s.recorder.Record(sess.ID, mode, *ev.Round)
	})

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	count := len(s.sessions)
	s.mu.Unlock()

	ActiveSessions.Set(float64(count))
	logger.Debug("session created", "session_id", sess.ID)
	return sess, nil
}

func (s *SessionService) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(s.now())
	return sess, nil
}

// Play starts a round with the player's move against a random opponent
func (s *SessionService) Play(id, move string) (ActionResult, error) {
	sess, err := s.Get(id)
	if err != nil {
		return ActionResult{}, err
	}
	if !game.Contains(sess.Engine.Elements(), move) {
		return ActionResult{}, ErrInvalidMove
	}

	return s.play(sess, "play", false, func(e *game.Engine) bool {
		return e.RequestPlay(move, e.SampleRandomMove())
	}), nil
}

// Simulate starts a round where both moves are random
func (s *SessionService) Simulate(id string) (ActionResult, error) {
	sess, err := s.Get(id)
	if err != nil {
		return ActionResult{}, err
	}

	return s.play(sess, "simulate", true, func(e *game.Engine) bool {
		return e.SimulateRound()
	}), nil
}

func (s *SessionService) play(sess *Session, action string, simulated bool, start func(*game.Engine) bool) ActionResult {
	sess.actionMu.Lock()
	defer sess.actionMu.Unlock()

	// the mode flag may only change when no commit is pending
	if sess.Engine.Animating() {
		ActionsRejected.WithLabelValues(action).Inc()
		return ActionResult{Accepted: false, State: sess.Engine.State()}
	}
	sess.simulated.Store(simulated)

	accepted := start(sess.Engine)
	if !accepted {
		ActionsRejected.WithLabelValues(action).Inc()
	}
	return ActionResult{Accepted: accepted, State: sess.Engine.State()}
}

func (s *SessionService) Reset(id string) (ActionResult, error) {
	sess, err := s.Get(id)
	if err != nil {
		return ActionResult{}, err
	}

	sess.actionMu.Lock()
	defer sess.actionMu.Unlock()

	accepted := sess.Engine.RequestReset()
	if !accepted {
		ActionsRejected.WithLabelValues("reset").Inc()
	}
	return ActionResult{Accepted: accepted, State: sess.Engine.State()}, nil
}

func (s *SessionService) State(id string) (game.State, error) {
	sess, err := s.Get(id)
	if err != nil {
		return game.State{}, err
	}
	return sess.Engine.State(), nil
}

// Close drops the session; a pending commit is discarded
func (s *SessionService) Close(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.Engine.Close()
	ActiveSessions.Set(float64(count))
	return nil
}

func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// StartCleanup sweeps idle sessions every interval until ctx is done
func (s *SessionService) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.cleanupIdle(); n > 0 {
					logger.Info("cleaned up idle sessions", "count", n)
				}
			}
		}
	}()
}

func (s *SessionService) cleanupIdle() int {
	cutoff := s.now().Add(-s.cfg.TTL)

	s.mu.Lock()
	var stale []*Session
	for id, sess := range s.sessions {
		if sess.LastSeen().Before(cutoff) {
			stale = append(stale, sess)
			delete(s.sessions, id)
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()

	for _, sess := range stale {
		sess.Engine.Close()
	}
	ActiveSessions.Set(float64(count))
	return len(stale)
}

// Shutdown closes every session and waits for archive writes
func (s *SessionService) Shutdown() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range all {
		sess.Engine.Close()
	}
	ActiveSessions.Set(0)
	s.recorder.Wait()
}
