// internal/game/session.go
//
// Round/session state machine. Pure: no timers, no I/O, no locking.
// Every transition returns the events it produced; the Controller adds
// auto-advance timing, fan-out and run recording on top.
//
// Round rules:
//   - Exact guess: streak+1, score += ScoreFor(wrong, streak), round resolved.
//   - Close guess: wrong+1, no hint revealed.
//   - Other guess: wrong+1, hint for this miss revealed if there is one.
//   - wrong reaching the guess limit resolves the round as a loss, streak → 0.
//
// Session rules:
//   - A session is Rounds rounds dealt from one deck.
//   - Advancing past the last round moves to session_finalizing; the run is
//     then concluded exactly once.

package game

import (
	"strings"

	"github.com/lamumu/trivia/internal/leaderboard"
	"github.com/lamumu/trivia/internal/words"
)

const (
	DefaultGuessLimit = 5
	DefaultRounds     = 13
)

// Rules are the fixed parameters of a session.
type Rules struct {
	GuessLimit    int  // wrong guesses before a round is lost
	Rounds        int  // rounds per session
	PreRevealHint bool // show hint 0 when a round starts
	AutoRestart   bool // start a new session right after the run is saved
	StartGated    bool // require an explicit start before the first session
}

// DefaultRules matches the classic game: 5 guesses, 13 rounds, hints only
// after misses, immediate restart.
func DefaultRules() Rules {
	return Rules{
		GuessLimit:  DefaultGuessLimit,
		Rounds:      DefaultRounds,
		AutoRestart: true,
	}
}

// Round is the state of the current puzzle.
type Round struct {
	Secret     string
	Category   string
	Hints      []string
	HintIndex  int // index of the visible hint, -1 for none
	WrongCount int
	Resolved   bool
	Won        bool
}

// Hint returns the visible hint text, if any.
func (r Round) Hint() string {
	if r.HintIndex < 0 || r.HintIndex >= len(r.Hints) {
		return ""
	}
	return r.Hints[r.HintIndex]
}

// Session is one player's run through a deck.
type Session struct {
	Phase      Phase
	RoundIndex int
	Score      int
	Streak     int
	Round      Round

	rules Rules
	deck  []words.Entry
}

// NewSession returns a session awaiting its first Start.
func NewSession(rules Rules) *Session {
	if rules.GuessLimit <= 0 {
		rules.GuessLimit = DefaultGuessLimit
	}
	if rules.Rounds <= 0 {
		rules.Rounds = DefaultRounds
	}
	return &Session{
		Phase:      PhaseAwaitingStart,
		RoundIndex: 1,
		Round:      Round{HintIndex: -1},
		rules:      rules,
	}
}

// Rules returns the session's rules.
func (s *Session) Rules() Rules { return s.rules }

// Start resets score, streak and round index and enters round 1 of deck.
// An empty deck leaves the session untouched.
func (s *Session) Start(deck []words.Entry) []Event {
	if len(deck) == 0 {
		return nil
	}
	s.RoundIndex = 1
	s.Score = 0
	s.Streak = 0
	s.deck = deck
	return []Event{
		{Kind: EventSessionStarted, Round: s.RoundIndex},
		s.chooseSecret(),
	}
}

// chooseSecret loads the deck entry for the current round.
func (s *Session) chooseSecret() Event {
	pick := s.deck[(s.RoundIndex-1)%len(s.deck)]
	s.Round = Round{
		Secret:    pick.Answer,
		Category:  pick.Category,
		Hints:     pick.Hints,
		HintIndex: -1,
	}
	if s.rules.PreRevealHint && len(pick.Hints) > 0 {
		s.Round.HintIndex = 0
	}
	s.Phase = PhaseRoundActive
	return s.event(EventRoundStarted, func(e *Event) { e.Hint = s.Round.Hint() })
}

// Guess grades text against the current secret. Empty input and guesses on
// a resolved round are ignored; guesses before the first Start ask for one.
func (s *Session) Guess(text string) (Outcome, []Event) {
	if s.Phase == PhaseAwaitingStart {
		return OutcomeStartRequired, []Event{s.event(EventStartRequired, nil)}
	}
	if s.Phase != PhaseRoundActive || s.Round.Resolved {
		return OutcomeIgnored, nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return OutcomeIgnored, nil
	}

	m := Match(text, s.Round.Secret)
	if m.Exact {
		return OutcomeWin, []Event{s.win()}
	}

	s.Round.WrongCount++
	var events []Event
	outcome := OutcomeMiss
	if m.Close {
		outcome = OutcomeClose
		events = append(events, s.event(EventClose, nil))
	} else {
		events = append(events, s.event(EventMiss, nil))
		idx := s.Round.WrongCount - 1
		if s.rules.PreRevealHint {
			idx = s.Round.WrongCount
		}
		if idx < len(s.Round.Hints) {
			s.Round.HintIndex = idx
			events = append(events, s.event(EventHint, func(e *Event) { e.Hint = s.Round.Hint() }))
		}
	}
	if s.Round.WrongCount >= s.rules.GuessLimit {
		outcome = OutcomeLose
		events = append(events, s.lose())
	}
	return outcome, events
}

func (s *Session) win() Event {
	s.Streak++
	pts := ScoreFor(s.Round.WrongCount, s.Streak)
	s.Score += pts
	s.Round.Resolved, s.Round.Won = true, true
	s.Phase = PhaseRoundResolved
	return s.event(EventWin, func(e *Event) {
		e.Points = pts
		e.Secret = s.Round.Secret
	})
}

func (s *Session) lose() Event {
	s.Streak = 0
	s.Round.Resolved = true
	s.Phase = PhaseRoundResolved
	return s.event(EventLose, func(e *Event) { e.Secret = s.Round.Secret })
}

// Advance moves past a resolved round. It does nothing in any other phase,
// so a late timer and a manual advance can never skip a round.
func (s *Session) Advance() []Event {
	if s.Phase != PhaseRoundResolved {
		return nil
	}
	s.RoundIndex++
	if s.RoundIndex > s.rules.Rounds {
		s.Phase = PhaseSessionFinalizing
		return []Event{s.event(EventSessionComplete, nil)}
	}
	return []Event{s.chooseSecret()}
}

// Conclude turns the session into a run for name (sanitized) and resets the session to
// awaiting_start. Without early it is only valid once every round has been
// played; with early it is valid at any point after Start.
func (s *Session) Conclude(name string, early bool) (leaderboard.Run, error) {
	switch {
	case s.Phase == PhaseAwaitingStart:
		return leaderboard.Run{}, ErrNotStarted
	case !early && s.Phase != PhaseSessionFinalizing:
		return leaderboard.Run{}, ErrNotFinalizing
	}
	run := leaderboard.Run{Name: leaderboard.SanitizeName(name), Score: s.Score, Streak: s.Streak}

	s.Phase = PhaseAwaitingStart
	s.RoundIndex = 1
	s.Score = 0
	s.Streak = 0
	s.Round = Round{HintIndex: -1}
	s.deck = nil
	return run, nil
}

// Snapshot returns the player-visible state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:    s.Phase,
		Round:    s.RoundIndex,
		Rounds:   s.rules.Rounds,
		Score:    s.Score,
		Streak:   s.Streak,
		Used:     s.Round.WrongCount,
		Limit:    s.rules.GuessLimit,
		Category: s.Round.Category,
		Hint:     s.Round.Hint(),
		Resolved: s.Round.Resolved,
		Won:      s.Round.Won,
	}
	if s.Round.Resolved {
		snap.Secret = s.Round.Secret
	}
	return snap
}

func (s *Session) event(kind EventKind, fill func(*Event)) Event {
	e := Event{
		Kind:     kind,
		Round:    s.RoundIndex,
		Category: s.Round.Category,
		Score:    s.Score,
		Streak:   s.Streak,
		Used:     s.Round.WrongCount,
	}
	if fill != nil {
		fill(&e)
	}
	return e
}
