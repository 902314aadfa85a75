// internal/game/controller.go
//
// Controller owns one Session and serializes every transition on it.
// Responsibilities:
//   - Deal decks from a Dealer on every session start.
//   - Auto-advance after a win or loss with a single-shot timer.
//   - Fan events out to subscribers (never blocking the game).
//   - Record finished runs asynchronously through a Recorder.
//
// Auto-advance guard: every resolution, manual advance and restart bumps a
// generation counter. A timer only advances when its generation is still
// current and the round is still resolved, so it can fire late or race a
// manual advance without skipping a round.

package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lamumu/trivia/internal/fallback"
	"github.com/lamumu/trivia/internal/leaderboard"
	"github.com/lamumu/trivia/internal/words"
)

const (
	DefaultWinDelay      = 900 * time.Millisecond
	DefaultLoseDelay     = 600 * time.Millisecond
	DefaultRecordTimeout = 10 * time.Second

	subscriberBuffer = 32
)

// Dealer hands out session decks. *words.Bank satisfies it.
type Dealer interface {
	Deck(n int) []words.Entry
}

// Recorder stores a finished run. *fallback.Recorder satisfies it.
type Recorder interface {
	Record(ctx context.Context, run leaderboard.Run) fallback.Result
}

// Config is Rules plus timing.
type Config struct {
	Rules
	AutoAdvance   bool
	WinDelay      time.Duration
	LoseDelay     time.Duration
	RecordTimeout time.Duration
}

// DefaultConfig returns DefaultRules with auto-advance enabled.
func DefaultConfig() Config {
	return Config{
		Rules:         DefaultRules(),
		AutoAdvance:   true,
		WinDelay:      DefaultWinDelay,
		LoseDelay:     DefaultLoseDelay,
		RecordTimeout: DefaultRecordTimeout,
	}
}

// Controller drives a Session. All methods are safe for concurrent use.
type Controller struct {
	id     string
	cfg    Config
	dealer Dealer
	rec    Recorder

	mu         sync.Mutex
	sess       *Session
	gen        uint64
	timer      *time.Timer
	subs       map[int]chan Event
	nextSub    int
	lastActive time.Time
	closed     bool

	recording sync.WaitGroup
}

// NewController builds a controller. Unless cfg.StartGated is set the first
// session starts immediately. rec may be nil, in which case runs are only
// reported through events.
func NewController(id string, cfg Config, dealer Dealer, rec Recorder) *Controller {
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = DefaultRecordTimeout
	}
	c := &Controller{
		id:         id,
		cfg:        cfg,
		dealer:     dealer,
		rec:        rec,
		sess:       NewSession(cfg.Rules),
		subs:       make(map[int]chan Event),
		lastActive: time.Now(),
	}
	c.cfg.Rules = c.sess.Rules()
	if !cfg.StartGated {
		c.startLocked()
	}
	return c
}

// ID returns the controller's session identifier.
func (c *Controller) ID() string { return c.id }

// LastActive reports when a player last touched this controller.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Start begins a fresh session, discarding any session in progress.
func (c *Controller) Start() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	c.startLocked()
	return c.snapshotLocked()
}

// Guess submits a guess for the current round.
func (c *Controller) Guess(text string) (Outcome, Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	outcome, events := c.sess.Guess(text)
	c.publish(events...)
	switch outcome {
	case OutcomeWin:
		c.scheduleAdvance(c.cfg.WinDelay)
	case OutcomeLose:
		c.scheduleAdvance(c.cfg.LoseDelay)
	}
	return outcome, c.snapshotLocked()
}

// Advance moves to the next round if the current one is resolved. It
// reports whether anything happened.
func (c *Controller) Advance() (bool, Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.sess.Phase != PhaseRoundResolved {
		return false, c.snapshotLocked()
	}
	c.cancelAdvance()
	c.publish(c.sess.Advance()...)
	return true, c.snapshotLocked()
}

// Finalize saves the run of a completed session under name. It fails with
// ErrNotFinalizing while rounds remain, which also makes a second call for
// the same session fail, and with ErrClosed once Close has been called.
func (c *Controller) Finalize(name string) (leaderboard.Run, error) {
	return c.conclude(name, false)
}

// EndEarly saves the run of the session in progress under name and always
// starts a new session.
func (c *Controller) EndEarly(name string) (leaderboard.Run, error) {
	return c.conclude(name, true)
}

func (c *Controller) conclude(name string, early bool) (leaderboard.Run, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return leaderboard.Run{}, ErrClosed
	}
	c.touch()
	run, err := c.sess.Conclude(name, early)
	if err != nil {
		c.mu.Unlock()
		return leaderboard.Run{}, err
	}
	c.cancelAdvance()
	log.Info().Str("session", c.id).Str("name", run.Name).Int("score", run.Score).
		Int("streak", run.Streak).Bool("early", early).Msg("session saved")
	c.publish(Event{Kind: EventSessionSaved, Score: run.Score, Streak: run.Streak, Run: &run})
	if early || c.cfg.AutoRestart {
		c.startLocked()
	}
	if c.rec != nil {
		// Add before unlocking: Close may Wait as soon as closed is set.
		c.recording.Add(1)
		go c.record(run)
	}
	c.mu.Unlock()
	return run, nil
}

// record hands run to the Recorder without holding up the game. The caller
// has already added it to c.recording.
func (c *Controller) record(run leaderboard.Run) {
	defer c.recording.Done()
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.RecordTimeout)
	defer cancel()
	res := c.rec.Record(ctx, run)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.publish(Event{Kind: EventRunRecorded, Run: &res.Run, Destination: string(res.Destination)})
}

// Snapshot returns the current player-visible state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe returns a channel of future events and a function that ends the
// subscription. Slow subscribers miss events rather than stall the game.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan Event, subscriberBuffer)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// Close stops the advance timer, waits for pending run recordings and
// closes every subscription.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.cancelAdvance()
	c.mu.Unlock()

	c.recording.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *Controller) startLocked() {
	c.cancelAdvance()
	deck := c.dealer.Deck(c.cfg.Rounds)
	events := c.sess.Start(deck)
	if events == nil {
		log.Error().Str("session", c.id).Msg("dealer returned an empty deck")
		return
	}
	c.publish(events...)
}

func (c *Controller) scheduleAdvance(delay time.Duration) {
	c.cancelAdvance()
	if !c.cfg.AutoAdvance || c.closed {
		return
	}
	gen := c.gen
	c.timer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || gen != c.gen || c.sess.Phase != PhaseRoundResolved {
			return
		}
		c.timer = nil
		c.publish(c.sess.Advance()...)
	})
}

// cancelAdvance invalidates any pending auto-advance.
func (c *Controller) cancelAdvance() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) publish(events ...Event) {
	for _, e := range events {
		for _, ch := range c.subs {
			select {
			case ch <- e:
			default:
				log.Warn().Str("session", c.id).Str("event", string(e.Kind)).Msg("subscriber full, dropping event")
			}
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := c.sess.Snapshot()
	snap.ID = c.id
	return snap
}

func (c *Controller) touch() { c.lastActive = time.Now() }
