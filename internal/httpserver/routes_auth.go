// apps/go-server/internal/httpserver/routes_auth.go
//
// Accounts, optional/required auth middleware and per-user stats.
//   - POST /auth/signup, /auth/login, /auth/logout; GET /auth/me
//   - GET /stats/me    → lifetime counters + average points per round
//   - GET /games/mine  → 50 most recent games

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/robalobadob/roulette/apps/go-server/internal/auth"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// mountAuthRoutes registers authentication + gated routes.
func (s *Server) mountAuthRoutes(r chi.Router) {
	r.Post("/auth/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.needDB)
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, auth.FromContext(r.Context()))
			})
			r.Get("/stats/me", s.handleStats)
			r.Get("/games/mine", s.handleMyGames)
		})
	})
}

// handleSignup creates a user, sets the auth cookie and claims guest history.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.users.Create(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			writeError(w, http.StatusConflict, "Username taken")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.issueSession(w, u) {
		return
	}
	s.claimAnonGames(r, s.issuer.EnsureAnonID(w, r), u.ID)
	writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt})
}

// handleLogin authenticates, sets the cookie and claims guest history.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.users.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if !s.issueSession(w, u) {
		return
	}
	s.claimAnonGames(r, s.issuer.EnsureAnonID(w, r), u.ID)
	writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "username": u.Username})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.issuer.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// issueSession signs a token and sets the cookie. On failure the error
// response is written and false returned.
func (s *Server) issueSession(w http.ResponseWriter, u *auth.User) bool {
	tok, exp, err := s.issuer.Sign(u.ID, u.Username)
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return false
	}
	s.issuer.SetCookie(w, tok, exp)
	w.Header().Set("X-Auth-Token", tok)
	return true
}

// claimAnonGames transfers guest games to a user account after auth.
func (s *Server) claimAnonGames(r *http.Request, anonID, userID string) {
	if anonID == "" || userID == "" {
		return
	}
	if _, err := s.db.ExecContext(r.Context(),
		`UPDATE games SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID); err != nil {
		log.Warn().Err(err).Msg("claim anon games")
	}
}

// statsRes is returned by GET /stats/me.
type statsRes struct {
	ID            string          `json:"id"`
	GamesPlayed   int             `json:"gamesPlayed"`
	RoundsPlayed  int             `json:"roundsPlayed"`
	Perfects      int             `json:"perfects"`
	Points        int             `json:"points"`
	BestGame      int             `json:"bestGame"`
	AvgRoundScore decimal.Decimal `json:"avgRoundScore"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	u, err := s.users.FindByID(r.Context(), me.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "not_found")
		return
	}
	avg := decimal.Zero
	if u.RoundsPlayed > 0 {
		avg = decimal.NewFromInt(int64(u.Points)).
			DivRound(decimal.NewFromInt(int64(u.RoundsPlayed)), 2)
	}
	writeJSON(w, http.StatusOK, statsRes{
		ID:            u.ID,
		GamesPlayed:   u.GamesPlayed,
		RoundsPlayed:  u.RoundsPlayed,
		Perfects:      u.Perfects,
		Points:        u.Points,
		BestGame:      u.BestGame,
		AvgRoundScore: avg,
	})
}

type gameRow struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Rounds     int    `json:"rounds"`
	Total      int    `json:"total"`
	Perfects   int    `json:"perfects"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	rows, err := s.db.QueryContext(r.Context(),
		`SELECT id, status, rounds, total, perfects, started_at, COALESCE(finished_at,'')
FROM games WHERE user_id=? ORDER BY started_at DESC, rowid DESC LIMIT 50`, me.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	defer rows.Close()

	out := []gameRow{}
	for rows.Next() {
		var gr gameRow
		if err := rows.Scan(&gr.ID, &gr.Status, &gr.Rounds, &gr.Total, &gr.Perfects, &gr.StartedAt, &gr.FinishedAt); err != nil {
			log.Warn().Err(err).Msg("scan game row")
			continue
		}
		out = append(out, gr)
	}
	writeJSON(w, http.StatusOK, out)
}

// --------------------------- auth middleware -------------------------------

// withOptionalAuth decorates requests with the principal when a valid token
// for an existing user is present. It never rejects.
func (s *Server) withOptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := s.principal(r); p != nil {
			r = r.WithContext(auth.WithPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth rejects requests without a valid token for an existing user.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.issuer.TokenFromRequest(r) == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		p := s.principal(r)
		if p == nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}

// principal parses the request token and checks the user still exists.
func (s *Server) principal(r *http.Request) *auth.Principal {
	tok := s.issuer.TokenFromRequest(r)
	if tok == "" || s.db == nil {
		return nil
	}
	p, err := s.issuer.Parse(tok)
	if err != nil {
		return nil
	}
	if _, err := s.users.FindByID(r.Context(), p.ID); err != nil {
		return nil
	}
	return p
}
