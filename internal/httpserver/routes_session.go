// internal/httpserver/routes_session.go
//
// Server-side play. Each session is a game.Controller held in the session
// store; clients drive it with small POSTs and may watch its events over a
// websocket (see events.go).
//
//   - POST   /api/session               → new session (auto-started unless gated)
//   - GET    /api/session/{id}          → snapshot
//   - DELETE /api/session/{id}          → discard
//   - POST   /api/session/{id}/start    → start (or restart) a session
//   - POST   /api/session/{id}/guess    → {guess}
//   - POST   /api/session/{id}/advance  → next round after a resolution
//   - POST   /api/session/{id}/finalize → {name}; save after the last round
//   - POST   /api/session/{id}/end      → {name}; save early and restart

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lamumu/trivia/internal/game"
	"github.com/lamumu/trivia/internal/leaderboard"
	"github.com/lamumu/trivia/internal/store"
)

type guessReq struct {
	Guess string `json:"guess"`
}

type guessRes struct {
	OK      bool          `json:"ok"`
	Outcome game.Outcome  `json:"outcome"`
	Data    game.Snapshot `json:"data"`
}

type advanceRes struct {
	OK       bool          `json:"ok"`
	Advanced bool          `json:"advanced"`
	Data     game.Snapshot `json:"data"`
}

type nameReq struct {
	Name string `json:"name"`
}

type saveRes struct {
	OK   bool            `json:"ok"`
	Run  leaderboard.Run `json:"run"`
	Data game.Snapshot   `json:"data"`
}

// mountSessions registers all /api/session routes. The events route is
// registered by New outside the timeout group.
func (s *Server) mountSessions(r chi.Router) {
	r.Post("/api/session", s.newSessionHandler(s.deps.Dealer, s.deps.Recorder))
	r.Get("/api/session/{id}", s.withSession(s.handleSnapshot))
	r.Delete("/api/session/{id}", s.handleDeleteSession)
	r.Post("/api/session/{id}/start", s.withSession(s.handleStart))
	r.Post("/api/session/{id}/guess", s.withSession(s.handleGuess))
	r.Post("/api/session/{id}/advance", s.withSession(s.handleAdvance))
	r.Post("/api/session/{id}/finalize", s.withSession(s.handleFinalize))
	r.Post("/api/session/{id}/end", s.withSession(s.handleEnd))
}

// newSessionHandler creates sessions dealt by dealer whose runs go to rec.
func (s *Server) newSessionHandler(dealer game.Dealer, rec game.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := game.NewController(uuid.NewString(), s.opts.Game, dealer, rec)
		if err := s.deps.Sessions.Save(r.Context(), c); err != nil {
			c.Close()
			log.Error().Err(err).Msg("save session")
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}
		log.Info().Str("session", c.ID()).Int("live", s.deps.Sessions.Len()).Msg("session created")
		writeJSON(w, http.StatusCreated, envelope{OK: true, Data: c.Snapshot()})
	}
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, c *game.Controller)

// withSession resolves {id} to a live controller or answers 404.
func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.deps.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		h(w, r, c)
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request, c *game.Controller) {
	writeOK(w, c.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, envelope{OK: true})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request, c *game.Controller) {
	writeOK(w, c.Start())
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request, c *game.Controller) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	outcome, snap := c.Guess(req.Guess)
	writeJSON(w, http.StatusOK, guessRes{OK: true, Outcome: outcome, Data: snap})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request, c *game.Controller) {
	advanced, snap := c.Advance()
	writeJSON(w, http.StatusOK, advanceRes{OK: true, Advanced: advanced, Data: snap})
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request, c *game.Controller) {
	s.save(w, r, c.Finalize, c)
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request, c *game.Controller) {
	s.save(w, r, c.EndEarly, c)
}

// save reads {name} and concludes the session with conclude.
func (s *Server) save(w http.ResponseWriter, r *http.Request, conclude func(string) (leaderboard.Run, error), c *game.Controller) {
	var req nameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	run, err := conclude(req.Name)
	switch {
	case errors.Is(err, game.ErrClosed):
		writeError(w, http.StatusNotFound, "Session not found")
		return
	case errors.Is(err, game.ErrNotStarted):
		writeError(w, http.StatusConflict, "Session not started")
		return
	case errors.Is(err, game.ErrNotFinalizing):
		writeError(w, http.StatusConflict, "Session has rounds left")
		return
	case err != nil:
		log.Error().Err(err).Str("session", c.ID()).Msg("conclude session")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, saveRes{OK: true, Run: run, Data: c.Snapshot()})
}
