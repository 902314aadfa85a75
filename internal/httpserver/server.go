// internal/httpserver/server.go
//
// HTTP server wiring for the lamumu backend.
// Responsibilities:
//   - Router + middleware (request IDs, access log, CORS, timeouts, gzip,
//     panic recovery, per-IP rate limiting of POSTs).
//   - Public endpoints: "/", "/health".
//   - Leaderboard endpoints: POST /api/score, GET /api/leaderboard.
//   - Server-side play: /api/session/* plus a websocket event stream.
//   - Daily challenge: /api/daily/*.
//   - Idle session sweeping and graceful shutdown.
//
// Notes:
//   - Every API answer is a JSON envelope {ok, data?, error?}.
//   - The websocket route sits outside the timeout and compression group.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/lamumu/trivia/internal/daily"
	"github.com/lamumu/trivia/internal/game"
	"github.com/lamumu/trivia/internal/leaderboard"
	"github.com/lamumu/trivia/internal/store"
)

// Deps are the collaborators a Server needs. Board, Sessions and Dealer are
// required; the daily fields may be nil to disable /api/daily.
type Deps struct {
	Board       *leaderboard.Board
	Sessions    store.Store
	Dealer      game.Dealer
	Recorder    game.Recorder
	DailyDealer game.Dealer
	DailyStore  *daily.Store
}

// Options tune the server; zero values fall back to DefaultOptions.
type Options struct {
	Game           game.Config
	ClientOrigin   string
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration
	IdleTimeout    time.Duration
	SweepInterval  time.Duration
}

// DefaultOptions mirrors the documented environment defaults.
func DefaultOptions() Options {
	return Options{
		Game:           game.DefaultConfig(),
		ClientOrigin:   "http://localhost:5173",
		RateLimitRPS:   5,
		RateLimitBurst: 10,
		RequestTimeout: 10 * time.Second,
		IdleTimeout:    2 * time.Hour,
		SweepInterval:  time.Minute,
	}
}

// Server bundles the router and its dependencies.
type Server struct {
	r       *chi.Mux
	deps    Deps
	opts    Options
	limiter *ipLimiter
}

// New constructs a Server, installs middleware, and registers routes.
func New(deps Deps, opts Options) *Server {
	def := DefaultOptions()
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = def.ClientOrigin
	}
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = def.RateLimitRPS
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = def.RateLimitBurst
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = def.RequestTimeout
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = def.IdleTimeout
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = def.SweepInterval
	}

	s := &Server{
		r:       chi.NewRouter(),
		deps:    deps,
		opts:    opts,
		limiter: newIPLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(accessLog)
	s.r.Use(chimw.Recoverer)
	s.r.Use(cors(opts.ClientOrigin))

	// websocket stream: no timeout, no compression
	s.r.Get("/api/session/{id}/events", s.handleEvents)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(opts.RequestTimeout))
		r.Use(chimw.Compress(5))
		r.Use(jsonContentType)
		r.Use(s.limiter.middleware)

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"service": "lamumu-trivia",
				"endpoints": []string{
					"/health", "POST /api/score", "GET /api/leaderboard",
					"POST /api/session", "/api/session/{id}/*", "/api/daily/*",
				},
			})
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "sessions": s.deps.Sessions.Len()})
		})

		// Leaderboard (method checks live in the handlers so 405s carry Allow)
		r.HandleFunc("/api/score", s.handleScore)
		r.HandleFunc("/api/leaderboard", s.handleLeaderboard)

		s.mountSessions(r)
		s.mountDaily(r)

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "not_found", "path": r.URL.Path})
		})
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Start serves HTTP on addr until ctx is cancelled, then shuts down
// gracefully and closes every live session.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go s.sweep(ctx)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.deps.Sessions.Sweep(shutdownCtx, -time.Hour)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// sweep periodically drops idle sessions and stale rate limiters.
func (s *Server) sweep(ctx context.Context) {
	t := time.NewTicker(s.opts.SweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.deps.Sessions.Sweep(ctx, s.opts.IdleTimeout); n > 0 {
				log.Info().Int("removed", n).Int("live", s.deps.Sessions.Len()).Msg("swept idle sessions")
			}
			s.limiter.prune(s.opts.IdleTimeout)
		}
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors allows a single browser origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog writes one zerolog line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Debug().
				Str("reqId", chimw.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("took", time.Since(start)).
				Msg("http")
		}()
		next.ServeHTTP(ww, r)
	})
}

// ------------------------------ helpers ------------------------------------

// envelope is the body of every API answer.
type envelope struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write response")
	}
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{OK: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{OK: false, Error: msg})
}

// methodNotAllowed answers 405 with an Allow header.
func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
