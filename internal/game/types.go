// internal/game/types.go
//
// Core type definitions for the trivia game engine.
// Defines:
//   - Phase:    where a session is in its round/session lifecycle.
//   - Outcome:  coarse result of a single guess.
//   - Event:    what the core emits to presentation layers.
//   - Snapshot: read-only view of a session for rendering.

package game

import (
	"errors"

	"github.com/lamumu/trivia/internal/leaderboard"
)

// Phase is the state of a session.
//
//	awaiting_start → round_active → round_resolved → round_active ...
//	                                               → session_finalizing → (reset)
type Phase string

const (
	PhaseAwaitingStart     Phase = "awaiting_start"
	PhaseRoundActive       Phase = "round_active"
	PhaseRoundResolved     Phase = "round_resolved"
	PhaseSessionFinalizing Phase = "session_finalizing"
)

// Outcome summarises what a guess did.
type Outcome string

const (
	OutcomeIgnored       Outcome = "ignored"
	OutcomeStartRequired Outcome = "start_required"
	OutcomeWin           Outcome = "win"
	OutcomeClose         Outcome = "close"
	OutcomeMiss          Outcome = "miss"
	OutcomeLose          Outcome = "lose"
)

// EventKind names an Event.
type EventKind string

const (
	EventSessionStarted  EventKind = "session_started"
	EventRoundStarted    EventKind = "round_started"
	EventWin             EventKind = "win"
	EventClose           EventKind = "close"
	EventMiss            EventKind = "miss"
	EventHint            EventKind = "hint"
	EventLose            EventKind = "lose"
	EventSessionComplete EventKind = "session_complete"
	EventSessionSaved    EventKind = "session_saved"
	EventRunRecorded     EventKind = "run_recorded"
	EventStartRequired   EventKind = "start_required"
)

var (
	ErrNotStarted    = errors.New("game: session not started")
	ErrNotFinalizing = errors.New("game: session has rounds left")
	ErrClosed        = errors.New("game: controller closed")
)

// Event is a single state change. Fields not relevant to Kind are zero.
type Event struct {
	Kind        EventKind        `json:"kind"`
	Round       int              `json:"round"`
	Category    string           `json:"category,omitempty"`
	Hint        string           `json:"hint,omitempty"`
	Secret      string           `json:"secret,omitempty"`
	Points      int              `json:"points,omitempty"`
	Score       int              `json:"score"`
	Streak      int              `json:"streak"`
	Used        int              `json:"used"`
	Run         *leaderboard.Run `json:"run,omitempty"`
	Destination string           `json:"destination,omitempty"`
}

// Snapshot is what a player may see. Secret is only set once the round is
// resolved.
type Snapshot struct {
	ID       string `json:"id,omitempty"`
	Phase    Phase  `json:"phase"`
	Round    int    `json:"round"`
	Rounds   int    `json:"rounds"`
	Score    int    `json:"score"`
	Streak   int    `json:"streak"`
	Used     int    `json:"used"`
	Limit    int    `json:"limit"`
	Category string `json:"category,omitempty"`
	Hint     string `json:"hint,omitempty"`
	Resolved bool   `json:"resolved"`
	Won      bool   `json:"won"`
	Secret   string `json:"secret,omitempty"`
}
