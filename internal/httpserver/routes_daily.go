// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily challenge. Mounted only when a daily dealer
// and store are configured.
//   - POST /api/daily/session     → new session dealt from today's deck; its
//     runs also land on the daily board
//   - GET  /api/daily/leaderboard → best run per player for ?date (default
//     today, UTC), ?limit (default 10, max 50)

package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/lamumu/trivia/internal/daily"
	"github.com/lamumu/trivia/internal/leaderboard"
)

// dailyRes is returned by /api/daily/leaderboard.
type dailyRes struct {
	OK   bool              `json:"ok"`
	Date string            `json:"date"`
	Data []leaderboard.Run `json:"data"`
}

// mountDaily registers all /api/daily routes.
func (s *Server) mountDaily(r chi.Router) {
	if s.deps.DailyDealer == nil || s.deps.DailyStore == nil {
		return
	}
	rec := daily.NewRecorder(s.deps.Recorder, s.deps.DailyStore)
	r.Post("/api/daily/session", s.newSessionHandler(s.deps.DailyDealer, rec))
	r.Get("/api/daily/leaderboard", s.handleDailyLeaderboard)
}

func (s *Server) handleDailyLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = leaderboard.DateKey(time.Now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	_, limit = leaderboard.ClampPage(0, limit)

	runs, err := s.deps.DailyStore.Top(r.Context(), date, limit)
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("fetch daily leaderboard")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, dailyRes{OK: true, Date: date, Data: runs})
}
