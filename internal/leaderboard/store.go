// internal/leaderboard/store.go
//
// Store abstraction and the validating Board facade.
//
// Stores behave like a sorted set keyed by a fixed leaderboard identifier:
// members are JSON-encoded runs ranked by score (streak breaks ties).
// Implementations: SQLStore (SQLite) and MemoryStore. The remote HTTP
// client in internal/client satisfies the same interface.

package leaderboard

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// Store persists runs and returns the top of the ranking.
type Store interface {
	// Submit adds a run to the ranking.
	Submit(ctx context.Context, run Run) error

	// Top returns up to limit entries starting at rank start (0-based),
	// ordered by score descending, then streak descending.
	Top(ctx context.Context, start, limit int) ([]Entry, error)
}

// Board validates and date-stamps runs before handing them to a Store, and
// clamps paging parameters on fetch.
type Board struct {
	store Store
	now   func() time.Time
}

// NewBoard wraps st.
func NewBoard(st Store) *Board {
	return &Board{store: st, now: time.Now}
}

// WithClock overrides the clock used for run dates.
func (b *Board) WithClock(now func() time.Time) *Board {
	b.now = now
	return b
}

// Submit validates run, stamps today's date and stores it. Validation
// failures are returned unwrapped (ErrInvalidScore, ErrInvalidStreak).
func (b *Board) Submit(ctx context.Context, run Run) error {
	v, err := Validate(run)
	if err != nil {
		return err
	}
	v.Date = DateKey(b.now())
	if err := b.store.Submit(ctx, v); err != nil {
		return fmt.Errorf("leaderboard: submit: %w", err)
	}
	return nil
}

// Top fetches a clamped page of the ranking.
func (b *Board) Top(ctx context.Context, start, limit int) ([]Entry, error) {
	start, limit = ClampPage(start, limit)
	out, err := b.store.Top(ctx, start, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: top: %w", err)
	}
	return out, nil
}

// ClampPage applies the defaults: limit 10 (max 50), start ≥ 0.
func ClampPage(start, limit int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if start < 0 {
		start = 0
	}
	return start, limit
}
