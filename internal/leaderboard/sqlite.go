package leaderboard

import (
	"context"
	"database/sql"
	"encoding/json"
)

// SQLStore is a Store backed by the leaderboard_members table.
type SQLStore struct {
	db  *sql.DB
	key string
}

// NewSQLStore returns a store for the board named key (DefaultKey if empty).
func NewSQLStore(db *sql.DB, key string) *SQLStore {
	if key == "" {
		key = DefaultKey
	}
	return &SQLStore{db: db, key: key}
}

// Submit upserts the JSON member; re-adding an identical run only refreshes
// its score, like ZADD on an existing member.
func (s *SQLStore) Submit(ctx context.Context, run Run) error {
	member, err := json.Marshal(run)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leaderboard_members (board, member, score, streak)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (board, member) DO UPDATE SET score = excluded.score, streak = excluded.streak`,
		s.key, string(member), run.Score, run.Streak,
	)
	return err
}

func (s *SQLStore) Top(ctx context.Context, start, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT member
		 FROM leaderboard_members
		 WHERE board = ?
		 ORDER BY score DESC, streak DESC, id ASC
		 LIMIT ? OFFSET ?`, s.key, limit, start,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, err
		}
		out = append(out, ParseEntry(member))
	}
	return out, rows.Err()
}
