package daily

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lamumu/trivia/internal/fallback"
	"github.com/lamumu/trivia/internal/leaderboard"
)

// RunRecorder is the regular run pipeline a Recorder feeds first.
type RunRecorder interface {
	Record(ctx context.Context, run leaderboard.Run) fallback.Result
}

// Recorder files runs played on the day's deck. The run goes through next
// as usual and is then kept on the daily board for its date. next may be
// nil, making the daily board the only destination.
type Recorder struct {
	next  RunRecorder
	store *Store
	now   func() time.Time
}

func NewRecorder(next RunRecorder, store *Store) *Recorder {
	return &Recorder{next: next, store: store, now: time.Now}
}

// WithClock overrides the clock used to date runs.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// Record never fails the caller; a daily board failure is only logged unless
// the daily board was the sole destination.
func (r *Recorder) Record(ctx context.Context, run leaderboard.Run) fallback.Result {
	res := fallback.Result{Run: run, Destination: fallback.Remote}
	if r.next != nil {
		res = r.next.Record(ctx, run)
	}

	v, err := leaderboard.Validate(run)
	if err == nil {
		v.Date = res.Run.Date
		if v.Date == "" {
			v.Date = leaderboard.DateKey(r.now())
		}
		err = r.store.Submit(ctx, v)
	}
	if err != nil {
		log.Warn().Err(err).Str("name", run.Name).Int("score", run.Score).Msg("daily submit failed")
		if r.next == nil {
			return fallback.Result{Run: run, Destination: fallback.Dropped, Err: err}
		}
	}
	return res
}
