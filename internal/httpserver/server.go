// apps/go-server/internal/httpserver/server.go
//
// HTTP server wiring for the roulette darts backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/metrics", "/ws".
//   - Stateless scoring: POST /score.
//   - Game endpoints (optional auth): /game/new, /game/{id}, /game/throw,
//     /game/crown, /game/undo, /game/submit.
//   - Daily Challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me, /games/mine.
//
// Notes:
//   - Live games are held in the store; finished-game summaries and user
//     counters go to SQLite on a best-effort basis.
//   - Game rules can be swapped at runtime (SetRules) after a config reload.
//   - Finished games are evicted from the store once their summary is written.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/roulette/apps/go-server/internal/auth"
	"github.com/robalobadob/roulette/apps/go-server/internal/board"
	"github.com/robalobadob/roulette/apps/go-server/internal/game"
	"github.com/robalobadob/roulette/apps/go-server/internal/live"
	"github.com/robalobadob/roulette/apps/go-server/internal/metrics"
	"github.com/robalobadob/roulette/apps/go-server/internal/narration"
	"github.com/robalobadob/roulette/apps/go-server/internal/score"
	"github.com/robalobadob/roulette/apps/go-server/internal/store"
)

// Options carries the server's collaborators. Nil optional fields get
// working defaults in New. Without a DB, guests can still play games and
// use /score; account and daily routes answer 503.
type Options struct {
	Store        store.Store
	DB           *sql.DB
	Issuer       *auth.Issuer
	Narrator     *narration.Narrator
	Hub          *live.Hub
	Metrics      *metrics.Game
	Rules        game.Rules
	ClientOrigin string
	DailySalt    string
	Now          func() time.Time
}

// Server bundles router, game store and DB handle.
type Server struct {
	r        *chi.Mux
	store    store.Store
	db       *sql.DB
	users    *auth.Users
	issuer   *auth.Issuer
	narrator *narration.Narrator
	hub      *live.Hub
	metrics  *metrics.Game
	origin   string
	now      func() time.Time

	dailySalt string

	rulesMu sync.RWMutex
	rules   game.Rules
}

// New constructs a Server, installs middleware and registers routes.
func New(o Options) *Server {
	if o.Store == nil {
		o.Store = store.NewMemoryStore()
	}
	if o.Narrator == nil {
		o.Narrator = narration.Default()
	}
	if o.Hub == nil {
		o.Hub = live.New(o.ClientOrigin)
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NewGame()
	}
	if o.Issuer == nil {
		o.Issuer = &auth.Issuer{Secret: []byte("dev_secret_change_me"), TTL: 14 * 24 * time.Hour}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.ClientOrigin == "" {
		o.ClientOrigin = "http://localhost:5173"
	}

	s := &Server{
		r:        chi.NewRouter(),
		store:    o.Store,
		db:       o.DB,
		users:    auth.NewUsers(o.DB),
		issuer:   o.Issuer,
		narrator: o.Narrator,
		hub:      o.Hub,
		metrics:  o.Metrics,
		origin:   o.ClientOrigin,
		now:      o.Now,
		rules:    o.Rules.Normalize(),

		dailySalt: o.DailySalt,
	}
	if err := s.metrics.GaugeFunc("roulette_live_clients", "Connected live feed clients.",
		func() float64 { return float64(s.hub.Count()) }); err != nil {
		log.Warn().Err(err).Msg("register live clients gauge")
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(accessLog)
	s.r.Use(chimw.Recoverer)
	s.r.Use(s.cors)

	// --- diagnostics / streams (no JSON default, no timeout) ---
	s.r.Get("/metrics", s.metrics.Handler().ServeHTTP)
	s.r.Get("/ws", s.hub.ServeHTTP)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		r.Get("/", s.handleIndex)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		r.Post("/score", s.handleScore)

		// Game endpoints: OPTIONAL AUTH (guests can play)
		r.Group(func(r chi.Router) {
			r.Use(s.withOptionalAuth)
			r.Post("/game/new", s.handleNewGame)
			r.Get("/game/{id}", s.handleGetGame)
			r.Post("/game/throw", s.handleThrow)
			r.Post("/game/crown", s.handleCrown)
			r.Post("/game/undo", s.handleUndo)
			r.Post("/game/submit", s.handleSubmit)

			s.mountDaily(r)
		})

		s.mountAuthRoutes(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Router exposes the internal router (useful for tests and http.Server).
func (s *Server) Router() chi.Router { return s.r }

// Rules returns the rules new games are created with.
func (s *Server) Rules() game.Rules {
	s.rulesMu.RLock()
	defer s.rulesMu.RUnlock()
	return s.rules
}

// SetRules replaces the rules for games created from now on.
func (s *Server) SetRules(r game.Rules) {
	s.rulesMu.Lock()
	s.rules = r.Normalize()
	s.rulesMu.Unlock()
}

// ----------------------------- middleware ----------------------------------

// needDB answers 503 for routes that require the SQLite handle.
func (s *Server) needDB(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.db == nil {
			writeError(w, http.StatusServiceUnavailable, "db_unavailable")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one structured line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("reqId", chimw.GetReqID(r.Context())).
			Msg("http")
	})
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// gameError maps engine/store errors to HTTP responses.
func gameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, game.ErrInvalidThrow):
		writeError(w, http.StatusBadRequest, "invalid_throw")
	case errors.Is(err, game.ErrFinished):
		writeError(w, http.StatusConflict, "game_finished")
	case errors.Is(err, game.ErrRoundFull):
		writeError(w, http.StatusConflict, "round_full")
	case errors.Is(err, game.ErrNoThrows):
		writeError(w, http.StatusConflict, "no_throws")
	case errors.Is(err, score.ErrTargetCount):
		writeError(w, http.StatusBadRequest, "target_count")
	default:
		log.Error().Err(err).Msg("game request failed")
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}

// observeRound bumps round counters.
func (s *Server) observeRound(throws int, res score.Result) {
	s.metrics.RoundsScored.Inc()
	s.metrics.Throws.Add(float64(throws))
	if res.IsPerfectMatch {
		s.metrics.PerfectMatches.Inc()
	}
}

// indexRes describes the service and the board values it accepts.
type indexRes struct {
	Service   string     `json:"service"`
	Endpoints []string   `json:"endpoints"`
	Segments  []int      `json:"segments"`
	Specials  []int      `json:"specials"`
	Rules     game.Rules `json:"rules"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, indexRes{
		Service:   "roulette-go",
		Endpoints: []string{"/health", "POST /score", "POST /game/new", "POST /game/submit", "/daily/*", "/auth/*"},
		Segments:  board.Segments(),
		Specials:  []int{board.Miss, board.OuterBull, board.Bull},
		Rules:     s.Rules(),
	})
}

// ------------------------------- SCORE -------------------------------------

type scoreReq struct {
	Targets []int `json:"targets"`
	Throws  []int `json:"throws"`
}

// handleScore runs the engine on arbitrary input. Throws are not checked
// against the board so any integers can be scored.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	targets, err := score.TargetsFrom(req.Targets)
	if err != nil {
		writeError(w, http.StatusBadRequest, "target_count")
		return
	}
	res := score.Calculate(targets, req.Throws)
	s.observeRound(len(req.Throws), res)
	writeJSON(w, http.StatusOK, res)
}
