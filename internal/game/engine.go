package game

import (
	"math/rand/v2"
	"sync"
	"time"
)

// DefaultDelay is how long a play stays in the animating state before its
// round is committed to history.
const DefaultDelay = time.Second

// Source is the random source used to draw moves. *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

// Timer is a pending single-shot commit.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Options configures an Engine. Zero fields fall back to the classic
// three-element game with the stock comparator, wording and one second delay.
type Options struct {
	Elements  []string
	Compare   CompareFunc
	Translate TranslateFunc
	Delay     time.Duration
	Source    Source
	Scheduler Scheduler
}

type EventKind string

const (
	EventPlayStarted    EventKind = "play_started"
	EventRoundCommitted EventKind = "round_committed"
	EventReset          EventKind = "reset"
	// EventClosed is the last event an engine delivers
	EventClosed EventKind = "closed"
)

// Event is delivered to subscribers after every state transition.
type Event struct {
	Kind  EventKind
	State State
	Round *Round
}

// State is an immutable snapshot of the engine. History is newest-first.
type State struct {
	History   []Round
	Animating bool
}

// Score counts the rounds won by the given player index.
func (s State) Score(index int) int {
	n := 0
	for _, r := range s.History {
		if int(r.Outcome) == index {
			n++
		}
	}
	return n
}

// Engine owns the round history of one game and serializes plays into state
// transitions. It is safe for concurrent use.
type Engine struct {
	mu        sync.Mutex
	notifyMu  sync.Mutex
	elements  []string
	compare   CompareFunc
	translate TranslateFunc
	delay     time.Duration
	source    Source
	sched     Scheduler

	history   []Round
	animating bool
	pending   Timer
	gen       uint64
	closed    bool

	nextSub   int
	listeners map[int]func(Event)
}

// New builds an Engine. The element list must pass ValidateElements.
func New(opts Options) (*Engine, error) {
	elements := opts.Elements
	if len(elements) == 0 {
		elements, _ = Variant(VariantClassic)
	}
	if err := ValidateElements(elements); err != nil {
		return nil, err
	}

	e := &Engine{
		elements:  append([]string(nil), elements...),
		compare:   opts.Compare,
		translate: opts.Translate,
		delay:     opts.Delay,
		source:    opts.Source,
		sched:     opts.Scheduler,
		listeners: make(map[int]func(Event)),
	}
	if e.compare == nil {
		e.compare = Compare
	}
	if e.translate == nil {
		e.translate = DefaultTranslate
	}
	if e.delay <= 0 {
		e.delay = DefaultDelay
	}
	if e.source == nil {
		e.source = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if e.sched == nil {
		e.sched = timeScheduler{}
	}
	return e, nil
}

func (e *Engine) Elements() []string {
	return append([]string(nil), e.elements...)
}

func (e *Engine) Delay() time.Duration {
	return e.delay
}

func (e *Engine) Translate(o Outcome) string {
	return e.translate(o)
}

// RequestPlay starts a round between player and opponent. It returns false
// and changes nothing while a previous play is still animating or after
// Close.
func (e *Engine) RequestPlay(player, opponent string) bool {
	e.mu.Lock()
	if e.animating || e.closed {
		e.mu.Unlock()
		return false
	}

	round := Round{
		Outcome: e.compare(e.elements, player, opponent),
		Moves:   [2]string{player, opponent},
	}
	e.animating = true
	e.gen++
	gen := e.gen
	e.pending = e.sched.AfterFunc(e.delay, func() {
		e.commit(gen, round)
	})

	e.publishLocked(Event{Kind: EventPlayStarted})
	return true
}

func (e *Engine) commit(gen uint64, round Round) {
	e.mu.Lock()
	if e.closed || gen != e.gen || !e.animating {
		e.mu.Unlock()
		return
	}

	history := make([]Round, 0, len(e.history)+1)
	history = append(history, round)
	history = append(history, e.history...)
	e.history = history
	e.animating = false
	e.pending = nil

	e.publishLocked(Event{Kind: EventRoundCommitted, Round: &round})
}

// RequestReset clears the history. It returns false and changes nothing
// while a play is animating.
func (e *Engine) RequestReset() bool {
	e.mu.Lock()
	if e.animating || e.closed {
		e.mu.Unlock()
		return false
	}

	e.history = nil
	e.publishLocked(Event{Kind: EventReset})
	return true
}

// SampleRandomMove draws one element uniformly at random.
func (e *Engine) SampleRandomMove() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elements[e.source.IntN(len(e.elements))]
}

// SimulateRound plays a round where both sides are drawn at random.
func (e *Engine) SimulateRound() bool {
	return e.RequestPlay(e.SampleRandomMove(), e.SampleRandomMove())
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) Animating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.animating
}

func (e *Engine) History() []Round {
	return e.State().History
}

func (e *Engine) Score(index int) int {
	return e.State().Score(index)
}

// Subscribe registers fn for every subsequent transition. Events arrive in
// transition order. fn must not call back into the engine.
func (e *Engine) Subscribe(fn func(Event)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.listeners[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

// Close discards a pending commit and rejects all further actions. It
// delivers EventClosed and returns only after deliveries already in flight
// have finished.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.animating = false
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
	e.publishLocked(Event{Kind: EventClosed})

	e.mu.Lock()
	clear(e.listeners)
	e.mu.Unlock()
}

func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Engine) snapshotLocked() State {
	return State{
		History:   append([]Round(nil), e.history...),
		Animating: e.animating,
	}
}

// publishLocked releases e.mu and delivers ev. notifyMu is taken before e.mu
// is released so concurrent transitions are delivered in the order they
// happened.
func (e *Engine) publishLocked(ev Event) {
	ev.State = e.snapshotLocked()
	fns := make([]func(Event), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}

	e.notifyMu.Lock()
	e.mu.Unlock()
	defer e.notifyMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
