// internal/leaderboard/run.go
//
// Run records and their validation rules.
//
// A Run is the canonical leaderboard schema on the wire and in storage:
//
//	{"name": "anon-moo", "score": 140, "streak": 2, "date": "2025-01-31"}
//
// Validation mirrors the public submit endpoint:
//   - name defaults to "anon-moo", is cut to 24 characters, then < > " ' ` are removed.
//   - score must lie in [0, 99999], streak in [0, 999].

package leaderboard

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	DefaultName = "anon-moo"
	DefaultKey  = "lamumu:scores"

	MaxNameLen = 24
	MaxScore   = 99999
	MaxStreak  = 999
)

var (
	ErrInvalidScore  = errors.New("invalid score")
	ErrInvalidStreak = errors.New("invalid streak")
)

// Run is a finished (or ended early) session as submitted to the leaderboard.
type Run struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Streak int    `json:"streak"`
	Date   string `json:"date,omitempty"`
}

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// SanitizeName applies the default, the length cap and the character filter.
func SanitizeName(name string) string {
	if strings.TrimSpace(name) == "" {
		return DefaultName
	}
	if r := []rune(name); len(r) > MaxNameLen {
		name = string(r[:MaxNameLen])
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'', '`':
			return -1
		}
		return r
	}, name)
	if strings.TrimSpace(name) == "" {
		return DefaultName
	}
	return name
}

// Validate returns run with a sanitized name, or an error if score or
// streak are out of bounds.
func Validate(run Run) (Run, error) {
	run.Name = SanitizeName(run.Name)
	if run.Score < 0 || run.Score > MaxScore {
		return Run{}, ErrInvalidScore
	}
	if run.Streak < 0 || run.Streak > MaxStreak {
		return Run{}, ErrInvalidStreak
	}
	return run, nil
}

// Entry is one leaderboard member as returned by a fetch. Members that could
// not be decoded are kept verbatim in Raw instead of failing the whole fetch.
type Entry struct {
	Run *Run
	Raw string
}

// ParseEntry decodes a stored member.
func ParseEntry(member string) Entry {
	var r Run
	if err := json.Unmarshal([]byte(member), &r); err != nil {
		return Entry{Raw: member}
	}
	return Entry{Run: &r}
}

// MarshalJSON emits the run object, or the raw member as a JSON string.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Run != nil {
		return json.Marshal(e.Run)
	}
	return json.Marshal(e.Raw)
}

// UnmarshalJSON accepts either a run object or a bare string.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*e = Entry{Raw: raw}
		return nil
	}
	var r Run
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*e = Entry{Run: &r}
	return nil
}
