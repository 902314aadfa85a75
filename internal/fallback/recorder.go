package fallback

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lamumu/trivia/internal/leaderboard"
)

// Destination says where a recorded run ended up.
type Destination string

const (
	Remote  Destination = "remote"
	Local   Destination = "local"
	Dropped Destination = "dropped"
)

// Result is the outcome of recording one run. Err carries the primary
// failure when Destination is Local, or the local failure when Dropped.
type Result struct {
	Run         leaderboard.Run
	Destination Destination
	Err         error
}

// Recorder submits runs to a primary leaderboard and falls back to the local
// log when that fails.
type Recorder struct {
	Primary leaderboard.Store
	Local   *Log
	Now     func() time.Time
}

// NewRecorder returns a Recorder; primary may be nil for local-only play.
func NewRecorder(primary leaderboard.Store, local *Log) *Recorder {
	return &Recorder{Primary: primary, Local: local, Now: time.Now}
}

// Record submits run. It never returns an error: failures are folded into
// the Result so gameplay can carry on.
func (r *Recorder) Record(ctx context.Context, run leaderboard.Run) Result {
	var primaryErr error
	if r.Primary != nil {
		if primaryErr = r.Primary.Submit(ctx, run); primaryErr == nil {
			return Result{Run: run, Destination: Remote}
		}
		log.Warn().Err(primaryErr).Str("name", run.Name).Int("score", run.Score).Msg("leaderboard submit failed, saving locally")
	}

	if r.Local == nil {
		return Result{Run: run, Destination: Dropped, Err: primaryErr}
	}
	local := run
	local.Name = leaderboard.SanitizeName(local.Name)
	if local.Date == "" {
		local.Date = leaderboard.DateKey(r.Now())
	}
	if err := r.Local.Append(local); err != nil {
		log.Error().Err(err).Str("path", r.Local.Path()).Msg("local run log append failed")
		return Result{Run: local, Destination: Dropped, Err: err}
	}
	return Result{Run: local, Destination: Local, Err: primaryErr}
}

// Top fetches the primary ranking, or the local top runs when the primary
// is missing or failing. fromLocal reports which one answered.
func (r *Recorder) Top(ctx context.Context, limit int) (entries []leaderboard.Entry, fromLocal bool, err error) {
	if r.Primary != nil {
		entries, err = r.Primary.Top(ctx, 0, limit)
		if err == nil {
			return entries, false, nil
		}
		log.Warn().Err(err).Msg("leaderboard fetch failed, showing local runs")
	}
	if r.Local == nil {
		return nil, true, err
	}
	runs, lerr := r.Local.Top(DisplayLimit)
	if lerr != nil {
		return nil, true, lerr
	}
	entries = make([]leaderboard.Entry, len(runs))
	for i := range runs {
		entries[i] = leaderboard.Entry{Run: &runs[i]}
	}
	return entries, true, nil
}
