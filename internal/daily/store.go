package daily

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lamumu/trivia/internal/leaderboard"
)

// ErrNoDate is returned by Submit for runs that were never date-stamped.
var ErrNoDate = errors.New("daily: run has no date")

// Store keeps each player's best run per day in daily_runs. Recorder hands
// it validated, dated runs from daily-deck sessions.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Submit records run for run.Date, keeping the player's higher score.
func (s *Store) Submit(ctx context.Context, run leaderboard.Run) error {
	if run.Date == "" {
		return ErrNoDate
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_runs (date, name, score, streak)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (date, name) DO UPDATE
		 SET score = excluded.score, streak = excluded.streak
		 WHERE excluded.score > daily_runs.score`,
		run.Date, run.Name, run.Score, run.Streak,
	)
	return err
}

// Top returns the best runs of date, highest first.
func (s *Store) Top(ctx context.Context, date string, limit int) ([]leaderboard.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, score, streak
		 FROM daily_runs
		 WHERE date = ?
		 ORDER BY score DESC, streak DESC, created_at ASC
		 LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []leaderboard.Run{}
	for rows.Next() {
		r := leaderboard.Run{Date: date}
		if err := rows.Scan(&r.Name, &r.Score, &r.Streak); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
