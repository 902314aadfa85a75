package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lamumu/trivia/internal/fallback"
	"github.com/lamumu/trivia/internal/leaderboard"
	"github.com/lamumu/trivia/internal/words"
)

type fixedDealer struct{}

func (fixedDealer) Deck(n int) []words.Entry { return testDeck(n) }

type fakeRecorder struct {
	mu   sync.Mutex
	runs []leaderboard.Run
	dest fallback.Destination
}

func (f *fakeRecorder) Record(_ context.Context, run leaderboard.Run) fallback.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return fallback.Result{Run: run, Destination: f.dest}
}

func (f *fakeRecorder) recorded() []leaderboard.Run {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]leaderboard.Run(nil), f.runs...)
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.WinDelay = 5 * time.Millisecond
	cfg.LoseDelay = 5 * time.Millisecond
	return cfg
}

func waitFor(t *testing.T, events <-chan Event, kind EventKind) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-events:
			if !ok {
				t.Fatalf("event stream closed waiting for %s", kind)
			}
			if e.Kind == kind {
				return e
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", kind)
		}
	}
}

func TestControllerAutoAdvancesAfterWin(t *testing.T) {
	c := NewController("s1", fastConfig(), fixedDealer{}, nil)
	defer c.Close()
	events, cancel := c.Subscribe()
	defer cancel()

	outcome, snap := c.Guess("answer01")
	if outcome != OutcomeWin || snap.Score != 100 || snap.Phase != PhaseRoundResolved {
		t.Fatalf("outcome=%q snap=%+v", outcome, snap)
	}
	if e := waitFor(t, events, EventRoundStarted); e.Round != 2 {
		t.Fatalf("auto-advance started round %d, want 2", e.Round)
	}
	if got := c.Snapshot(); got.Round != 2 || got.ID != "s1" {
		t.Fatalf("snapshot after advance = %+v", got)
	}
}

func TestControllerManualAdvanceCancelsTimer(t *testing.T) {
	cfg := fastConfig()
	cfg.WinDelay = 20 * time.Millisecond
	c := NewController("s1", cfg, fixedDealer{}, nil)
	defer c.Close()

	c.Guess("answer01")
	if ok, snap := c.Advance(); !ok || snap.Round != 2 {
		t.Fatalf("Advance = %v, round %d", ok, snap.Round)
	}
	c.Guess("answer02")
	if ok, _ := c.Advance(); !ok {
		t.Fatal("second Advance did nothing")
	}

	time.Sleep(60 * time.Millisecond)
	if got := c.Snapshot().Round; got != 3 {
		t.Fatalf("round = %d, want 3", got)
	}
	if ok, _ := c.Advance(); ok {
		t.Fatal("Advance on an active round reported progress")
	}
}

func TestControllerWithoutAutoAdvance(t *testing.T) {
	cfg := fastConfig()
	cfg.AutoAdvance = false
	c := NewController("s1", cfg, fixedDealer{}, nil)
	defer c.Close()

	for i := 0; i < DefaultGuessLimit; i++ {
		c.Guess("cow")
	}
	time.Sleep(20 * time.Millisecond)
	snap := c.Snapshot()
	if snap.Phase != PhaseRoundResolved || snap.Secret != "answer01" || snap.Streak != 0 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestControllerFinalizeRecordsOnce(t *testing.T) {
	cfg := fastConfig()
	cfg.AutoAdvance = false
	cfg.Rounds = 2
	rec := &fakeRecorder{dest: fallback.Remote}
	c := NewController("s1", cfg, fixedDealer{}, rec)
	events, cancel := c.Subscribe()
	defer cancel()

	if _, err := c.Finalize("early"); !errors.Is(err, ErrNotFinalizing) {
		t.Fatalf("Finalize mid-session err = %v", err)
	}
	c.Guess("answer01")
	c.Advance()
	c.Guess("answer02")
	c.Advance()
	waitFor(t, events, EventSessionComplete)

	run, err := c.Finalize("moo")
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if run.Score != 220 || run.Streak != 2 {
		t.Fatalf("run = %+v", run)
	}
	if _, err := c.Finalize("moo"); err == nil {
		t.Fatal("second Finalize succeeded")
	}

	e := waitFor(t, events, EventRunRecorded)
	if e.Destination != string(fallback.Remote) || e.Run == nil || e.Run.Name != "moo" {
		t.Fatalf("run_recorded = %+v", e)
	}
	c.Close()
	if got := rec.recorded(); len(got) != 1 {
		t.Fatalf("recorded %d runs, want 1", len(got))
	}
	if snap := c.Snapshot(); snap.Phase != PhaseRoundActive || snap.Round != 1 || snap.Score != 0 {
		t.Fatalf("auto-restart snapshot = %+v", snap)
	}
}

func TestControllerFinalizeWithoutRestart(t *testing.T) {
	cfg := fastConfig()
	cfg.AutoAdvance = false
	cfg.AutoRestart = false
	cfg.Rounds = 1
	c := NewController("s1", cfg, fixedDealer{}, nil)
	defer c.Close()

	c.Guess("answer01")
	c.Advance()
	if _, err := c.Finalize(""); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if snap := c.Snapshot(); snap.Phase != PhaseAwaitingStart {
		t.Fatalf("phase = %s, want awaiting_start", snap.Phase)
	}
	if outcome, _ := c.Guess("answer01"); outcome != OutcomeStartRequired {
		t.Fatalf("outcome = %q, want start_required", outcome)
	}
	if snap := c.Start(); snap.Phase != PhaseRoundActive {
		t.Fatalf("phase after Start = %s", snap.Phase)
	}
}

func TestControllerEndEarlyRestarts(t *testing.T) {
	cfg := fastConfig()
	cfg.AutoRestart = false
	rec := &fakeRecorder{dest: fallback.Local}
	c := NewController("s1", cfg, fixedDealer{}, rec)

	c.Guess("answer01")
	run, err := c.EndEarly("quitter")
	if err != nil {
		t.Fatalf("EndEarly: %v", err)
	}
	if run.Score != 100 || run.Name != "quitter" {
		t.Fatalf("run = %+v", run)
	}
	c.Close()
	if snap := c.Snapshot(); snap.Phase != PhaseRoundActive || snap.Score != 0 {
		t.Fatalf("snapshot after EndEarly = %+v", snap)
	}
	if got := rec.recorded(); len(got) != 1 {
		t.Fatalf("recorded %d runs, want 1", len(got))
	}
}

func TestControllerStartGated(t *testing.T) {
	cfg := fastConfig()
	cfg.StartGated = true
	c := NewController("s1", cfg, fixedDealer{}, nil)
	defer c.Close()

	if snap := c.Snapshot(); snap.Phase != PhaseAwaitingStart {
		t.Fatalf("phase = %s, want awaiting_start", snap.Phase)
	}
	if outcome, _ := c.Guess("answer01"); outcome != OutcomeStartRequired {
		t.Fatalf("outcome = %q", outcome)
	}
	c.Start()
	if outcome, _ := c.Guess("answer01"); outcome != OutcomeWin {
		t.Fatalf("outcome after Start = %q", outcome)
	}
}

func TestControllerCloseEndsSubscriptions(t *testing.T) {
	c := NewController("s1", fastConfig(), fixedDealer{}, nil)
	events, cancel := c.Subscribe()
	c.Close()
	cancel()
	for range events {
	}
	late, _ := c.Subscribe()
	if _, ok := <-late; ok {
		t.Fatal("subscription after Close delivered an event")
	}
}

func TestControllerConcludeAfterClose(t *testing.T) {
	rec := &fakeRecorder{dest: fallback.Remote}
	c := NewController("s1", fastConfig(), fixedDealer{}, rec)
	c.Guess("answer01")
	c.Close()

	if _, err := c.EndEarly("bessie"); !errors.Is(err, ErrClosed) {
		t.Fatalf("EndEarly after Close err = %v, want ErrClosed", err)
	}
	if _, err := c.Finalize("bessie"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Finalize after Close err = %v, want ErrClosed", err)
	}
	if got := rec.recorded(); len(got) != 0 {
		t.Fatalf("closed controller recorded %+v", got)
	}
}

func TestControllerCloseDuringConclude(t *testing.T) {
	rec := &fakeRecorder{dest: fallback.Remote}
	c := NewController("s1", fastConfig(), fixedDealer{}, rec)
	c.Guess("answer01")

	done := make(chan error, 1)
	go func() {
		_, err := c.EndEarly("bessie")
		done <- err
	}()
	c.Close()

	err := <-done
	got := rec.recorded()
	switch {
	case err == nil && len(got) != 1:
		t.Fatalf("saved run recorded %d times, want 1", len(got))
	case errors.Is(err, ErrClosed) && len(got) != 0:
		t.Fatalf("rejected run recorded %+v", got)
	case err != nil && !errors.Is(err, ErrClosed):
		t.Fatalf("EndEarly err = %v", err)
	}
}
