// internal/httpserver/routes_score.go
//
// Leaderboard endpoints:
//   - POST /api/score        → {name, score, streak}; stores a dated run
//   - GET  /api/leaderboard  → top runs, ?limit (default 10, max 50) and ?start
//
// Request fields are coerced loosely: numbers may arrive as JSON numbers,
// numeric strings or booleans, and a missing name becomes "anon-moo".

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lamumu/trivia/internal/leaderboard"
)

// scoreReq is the loosely typed body of POST /api/score.
type scoreReq struct {
	Name   any `json:"name"`
	Score  any `json:"score"`
	Streak any `json:"streak"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req scoreReq
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	score, ok := coerceInt(req.Score)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid score")
		return
	}
	streak, ok := coerceInt(req.Streak)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid streak")
		return
	}

	run := leaderboard.Run{Name: coerceName(req.Name), Score: score, Streak: streak}
	switch err := s.deps.Board.Submit(r.Context(), run); {
	case errors.Is(err, leaderboard.ErrInvalidScore):
		writeError(w, http.StatusBadRequest, "Invalid score")
	case errors.Is(err, leaderboard.ErrInvalidStreak):
		writeError(w, http.StatusBadRequest, "Invalid streak")
	case err != nil:
		log.Error().Err(err).Msg("submit score")
		writeError(w, http.StatusInternalServerError, "Server error")
	default:
		writeJSON(w, http.StatusOK, envelope{OK: true})
	}
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	start, _ := strconv.Atoi(q.Get("start"))

	entries, err := s.deps.Board.Top(r.Context(), start, limit)
	if err != nil {
		log.Error().Err(err).Msg("fetch leaderboard")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	writeOK(w, entries)
}

// coerceName turns any JSON value into a display name; Board sanitizes it.
func coerceName(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "true"
		}
	}
	return ""
}

// coerceInt reads a whole number from a JSON number, a numeric string or a
// boolean. Missing, null, false and blank values count as 0. Range checks
// are left to leaderboard.Validate.
func coerceInt(v any) (int, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case json.Number:
		var err error
		if f, err = x.Float64(); err != nil {
			return 0, false
		}
	case string:
		t := strings.TrimSpace(x)
		if t == "" {
			return 0, true
		}
		var err error
		if f, err = strconv.ParseFloat(t, 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
