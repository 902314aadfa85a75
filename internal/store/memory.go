// internal/store/memory.go
//
// In-memory registry of live game controllers, keyed by session ID.
// Used by the HTTP server for server-side play.
//
// Characteristics:
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts; finished runs are already in
//     the leaderboard by then.
//   - Sweep closes and drops controllers nobody has touched for a while.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lamumu/trivia/internal/game"
)

// ErrNotFound is returned by Get and Delete for unknown IDs.
var ErrNotFound = errors.New("store: session not found")

// Store defines the registry interface for live sessions.
type Store interface {
	// Save adds or replaces a controller under its ID.
	Save(ctx context.Context, c *game.Controller) error

	// Get retrieves a controller by ID.
	Get(ctx context.Context, id string) (*game.Controller, error)

	// Delete closes and removes a controller.
	Delete(ctx context.Context, id string) error

	// Sweep closes and removes controllers idle for longer than maxIdle and
	// returns how many it removed.
	Sweep(ctx context.Context, maxIdle time.Duration) int

	// Len reports the number of live controllers.
	Len() int
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	sessions map[string]*game.Controller
	now      func() time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*game.Controller), now: time.Now}
}

func (m *memory) Save(ctx context.Context, c *game.Controller) error {
	m.mu.Lock()
	old := m.sessions[c.ID()]
	m.sessions[c.ID()] = c
	m.mu.Unlock()
	if old != nil && old != c {
		old.Close()
	}
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.sessions[id]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	c, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	c.Close()
	return nil
}

func (m *memory) Sweep(ctx context.Context, maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)
	var stale []*game.Controller

	m.mu.Lock()
	for id, c := range m.sessions {
		if c.LastActive().Before(cutoff) {
			stale = append(stale, c)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	// Close outside the lock: it waits for in-flight run recordings.
	for _, c := range stale {
		c.Close()
	}
	return len(stale)
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
