package game

import (
	"sync"
	"testing"
	"time"
)

type manualTimer struct {
	fn      func()
	delay   time.Duration
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// manualScheduler records scheduled commits; tests fire them explicitly.
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{fn: f, delay: d}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) fire(t *testing.T) {
	t.Helper()
	s.mu.Lock()
	if len(s.timers) == 0 {
		s.mu.Unlock()
		t.Fatalf("no pending timer")
	}
	tm := s.timers[0]
	s.timers = s.timers[1:]
	s.mu.Unlock()

	if !tm.stopped {
		tm.fn()
	}
}

func (s *manualScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

type seqSource struct {
	vals []int
	i    int
}

func (s *seqSource) IntN(n int) int {
	v := s.vals[s.i%len(s.vals)] % n
	s.i++
	return v
}

func newTestEngine(t *testing.T, src Source) (*Engine, *manualScheduler) {
	t.Helper()
	sched := &manualScheduler{}
	e, err := New(Options{Scheduler: sched, Source: src})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e, sched
}

func TestNewDefaults(t *testing.T) {
	e, err := New(Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer e.Close()

	if got := e.Elements(); len(got) != 3 || got[0] != "Rock" || got[2] != "Scissors" {
		t.Fatalf("elements = %v", got)
	}
	if e.Delay() != DefaultDelay {
		t.Fatalf("delay = %v; want %v", e.Delay(), DefaultDelay)
	}
	if e.Translate(Loss) != "You lost" {
		t.Fatalf("translate = %q", e.Translate(Loss))
	}
	st := e.State()
	if st.Animating || len(st.History) != 0 {
		t.Fatalf("fresh engine state = %+v", st)
	}
}

func TestNewRejectsEvenElements(t *testing.T) {
	if _, err := New(Options{Elements: []string{"a", "b", "c", "d"}}); err == nil {
		t.Fatalf("expected error for even element count")
	}
}

func TestRequestPlayCommitsAfterDelay(t *testing.T) {
	e, sched := newTestEngine(t, nil)

	if !e.RequestPlay("Rock", "Scissors") {
		t.Fatalf("play rejected on fresh engine")
	}

	st := e.State()
	if !st.Animating {
		t.Fatalf("expected animating right after play")
	}
	if len(st.History) != 0 {
		t.Fatalf("history changed before commit: %v", st.History)
	}
	if sched.timers[0].delay != DefaultDelay {
		t.Fatalf("scheduled delay = %v", sched.timers[0].delay)
	}

	sched.fire(t)

	st = e.State()
	if st.Animating {
		t.Fatalf("still animating after commit")
	}
	if len(st.History) != 1 {
		t.Fatalf("history len = %d; want 1", len(st.History))
	}
	want := Round{Outcome: Win, Moves: [2]string{"Rock", "Scissors"}}
	if st.History[0] != want {
		t.Fatalf("round = %+v; want %+v", st.History[0], want)
	}
}

func TestHistoryIsNewestFirst(t *testing.T) {
	e, sched := newTestEngine(t, nil)

	e.RequestPlay("Rock", "Paper")
	sched.fire(t)
	e.RequestPlay("Paper", "Rock")
	sched.fire(t)

	h := e.History()
	if len(h) != 2 {
		t.Fatalf("history len = %d", len(h))
	}
	if h[0].Moves[0] != "Paper" || h[1].Moves[0] != "Rock" {
		t.Fatalf("history order = %+v", h)
	}
}

func TestPlayWhileAnimatingIsIgnored(t *testing.T) {
	e, sched := newTestEngine(t, nil)

	e.RequestPlay("Rock", "Paper")
	before := e.State()

	if e.RequestPlay("Scissors", "Paper") {
		t.Fatalf("second play accepted while animating")
	}
	if e.SimulateRound() {
		t.Fatalf("simulate accepted while animating")
	}
	if e.RequestReset() {
		t.Fatalf("reset accepted while animating")
	}
	if sched.pending() != 1 {
		t.Fatalf("pending timers = %d; want 1", sched.pending())
	}

	after := e.State()
	if after.Animating != before.Animating || len(after.History) != len(before.History) {
		t.Fatalf("state changed: %+v -> %+v", before, after)
	}

	sched.fire(t)
	if got := e.History(); len(got) != 1 || got[0].Moves[0] != "Rock" {
		t.Fatalf("history = %+v", got)
	}
}

func TestRequestReset(t *testing.T) {
	e, sched := newTestEngine(t, nil)

	for i := 0; i < 3; i++ {
		e.RequestPlay("Rock", "Rock")
		sched.fire(t)
	}
	if len(e.History()) != 3 {
		t.Fatalf("history len = %d", len(e.History()))
	}

	if !e.RequestReset() {
		t.Fatalf("reset rejected")
	}
	if len(e.History()) != 0 {
		t.Fatalf("history not cleared")
	}
}

func TestScore(t *testing.T) {
	e, sched := newTestEngine(t, nil)

	// LOSS, WIN, WIN once committed newest-first.
	for _, p := range [][2]string{{"Paper", "Rock"}, {"Scissors", "Paper"}, {"Rock", "Paper"}} {
		e.RequestPlay(p[0], p[1])
		sched.fire(t)
	}

	if got := e.Score(PlayerIndex); got != 2 {
		t.Fatalf("player score = %d; want 2", got)
	}
	if got := e.Score(OpponentIndex); got != 1 {
		t.Fatalf("opponent score = %d; want 1", got)
	}
}

func TestSimulateRoundUsesSource(t *testing.T) {
	e, sched := newTestEngine(t, &seqSource{vals: []int{2, 1}})

	if !e.SimulateRound() {
		t.Fatalf("simulate rejected")
	}
	sched.fire(t)

	got := e.History()[0]
	want := Round{Outcome: Win, Moves: [2]string{"Scissors", "Paper"}}
	if got != want {
		t.Fatalf("simulated round = %+v; want %+v", got, want)
	}
}

func TestSampleRandomMoveCoversSet(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		m := e.SampleRandomMove()
		if !Contains(e.Elements(), m) {
			t.Fatalf("sampled %q outside move set", m)
		}
		seen[m] = true
	}
	if len(seen) != 3 {
		t.Fatalf("sampled moves = %v", seen)
	}
}

func TestCustomCompareAndTranslate(t *testing.T) {
	sched := &manualScheduler{}
	e, err := New(Options{
		Scheduler: sched,
		Compare:   func([]string, string, string) Outcome { return Draw },
		Translate: func(Outcome) string { return "meh" },
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	e.RequestPlay("Rock", "Scissors")
	sched.fire(t)
	if got := e.History()[0].Outcome; got != Draw {
		t.Fatalf("outcome = %v; want draw", got)
	}
	if e.Translate(Win) != "meh" {
		t.Fatalf("custom translate ignored")
	}
}

func TestCloseDiscardsPendingCommit(t *testing.T) {
	e, sched := newTestEngine(t, nil)

	e.RequestPlay("Rock", "Paper")
	e.Close()
	if !sched.timers[0].stopped {
		t.Fatalf("pending timer not stopped")
	}

	// a timer that already fired still must not commit
	sched.timers[0].fn()
	if len(e.History()) != 0 {
		t.Fatalf("commit applied after close")
	}
	if e.RequestPlay("Rock", "Rock") {
		t.Fatalf("play accepted after close")
	}
}

func TestSubscribeEvents(t *testing.T) {
	e, sched := newTestEngine(t, nil)

	var kinds []EventKind
	var last Event
	unsub := e.Subscribe(func(ev Event) {
		kinds = append(kinds, ev.Kind)
		last = ev
	})

	e.RequestPlay("Rock", "Scissors")
	if !last.State.Animating {
		t.Fatalf("play_started snapshot not animating")
	}
	sched.fire(t)
	if last.Round == nil || last.Round.Outcome != Win || len(last.State.History) != 1 {
		t.Fatalf("commit event = %+v", last)
	}
	e.RequestReset()

	want := []EventKind{EventPlayStarted, EventRoundCommitted, EventReset}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v; want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("events = %v; want %v", kinds, want)
		}
	}

	unsub()
	e.RequestPlay("Rock", "Rock")
	if len(kinds) != 3 {
		t.Fatalf("event delivered after unsubscribe")
	}
}

func TestCloseDeliversClosedEvent(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	var kinds []EventKind
	e.Subscribe(func(ev Event) { kinds = append(kinds, ev.Kind) })

	e.RequestPlay("Rock", "Paper")
	e.Close()
	e.Close()

	if len(kinds) != 2 || kinds[0] != EventPlayStarted || kinds[1] != EventClosed {
		t.Fatalf("events = %v; want [play_started closed]", kinds)
	}
	if !e.Closed() || e.Animating() {
		t.Fatalf("closed=%v animating=%v", e.Closed(), e.Animating())
	}
}

func TestCloseWaitsForInFlightDelivery(t *testing.T) {
	e, sched := newTestEngine(t, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var kinds []EventKind
	e.Subscribe(func(ev Event) {
		if ev.Kind == EventRoundCommitted {
			close(entered)
			<-release
		}
		mu.Lock()
		kinds = append(kinds, ev.Kind)
		mu.Unlock()
	})

	e.RequestPlay("Rock", "Scissors")
	go sched.timers[0].fn()
	<-entered

	closed := make(chan struct{})
	go func() {
		e.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatalf("Close returned while a commit was still being delivered")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatalf("Close never returned")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []EventKind{EventPlayStarted, EventRoundCommitted, EventClosed}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v; want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("events = %v; want %v", kinds, want)
		}
	}
}

func TestRealSchedulerCommits(t *testing.T) {
	e, err := New(Options{Delay: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer e.Close()

	done := make(chan Event, 1)
	e.Subscribe(func(ev Event) {
		if ev.Kind == EventRoundCommitted {
			done <- ev
		}
	})

	e.RequestPlay("Paper", "Rock")
	select {
	case ev := <-done:
		if ev.State.Animating || ev.State.History[0].Outcome != Win {
			t.Fatalf("commit state = %+v", ev.State)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("commit never happened")
	}
}
