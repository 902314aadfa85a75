// internal/fallback/log.go
//
// Local, append-only run log used when the leaderboard cannot be reached.
//
// The log lives in a single key-value slot: a JSON array stored in
// <dir>/runs.json. It is never truncated by appends; readers decide how much
// to show (Top returns the best n by score, streak breaking ties).

package fallback

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/lamumu/trivia/internal/leaderboard"
)

// Key is the fixed slot name of the run log.
const Key = "runs"

// DisplayLimit is how many local runs are shown when falling back.
const DisplayLimit = 5

// Log is a file-backed append-only list of runs.
type Log struct {
	mu   sync.Mutex
	path string
}

// Open returns the log stored under dir. The file is created on first append.
func Open(dir string) *Log {
	return &Log{path: filepath.Join(dir, Key+".json")}
}

// Path reports the backing file.
func (l *Log) Path() string { return l.path }

// Append adds run to the end of the log.
func (l *Log) Append(run leaderboard.Run) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	runs, err := l.read()
	if err != nil {
		return err
	}
	runs = append(runs, run)

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("fallback: mkdir: %w", err)
	}
	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return err
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("fallback: write: %w", err)
	}
	return os.Rename(tmp, l.path)
}

// List returns every stored run in append order.
func (l *Log) List() ([]leaderboard.Run, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

// Top returns the n best runs by score, then streak.
func (l *Log) Top(n int) ([]leaderboard.Run, error) {
	runs, err := l.List()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Score != runs[j].Score {
			return runs[i].Score > runs[j].Score
		}
		return runs[i].Streak > runs[j].Streak
	})
	return lo.Subset(runs, 0, uint(max(n, 0))), nil
}

// Reset removes every stored run.
func (l *Log) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// read loads the log; a missing file is an empty log. Unreadable contents
// are treated as empty so a corrupted slot never blocks new runs.
func (l *Log) read() ([]leaderboard.Run, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return []leaderboard.Run{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fallback: read: %w", err)
	}
	var runs []leaderboard.Run
	if err := json.Unmarshal(data, &runs); err != nil {
		return []leaderboard.Run{}, nil
	}
	return runs, nil
}
