// apps/go-server/internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
//   - POST /daily/new         → today's targets + session id (or played=true)
//   - POST /daily/submit      → score today's single round and persist it
//   - GET  /daily/leaderboard → top 20 for today (or ?date=YYYY-MM-DD)
//
// Each player gets one round per day, enforced by the DB unique key and the
// in-memory session. Targets come from date + salt so everyone sees the
// same three numbers.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/roulette/apps/go-server/internal/auth"
	"github.com/robalobadob/roulette/apps/go-server/internal/board"
	"github.com/robalobadob/roulette/apps/go-server/internal/daily"
	"github.com/robalobadob/roulette/apps/go-server/internal/live"
	"github.com/robalobadob/roulette/apps/go-server/internal/narration"
	"github.com/robalobadob/roulette/apps/go-server/internal/score"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	sessions map[string]*dailySession // keyed by userID|date
	mu       sync.Mutex               // guards sessions
}

// dailySession holds transient state for today's round.
type dailySession struct {
	GameID   string
	Date     string
	Targets  score.Targets
	Finished bool
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		salt:     s.dailySalt,
		sessions: make(map[string]*dailySession),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Use(s.needDB)
		r.Post("/new", dd.handleNew)
		r.Post("/submit", dd.handleSubmit)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// today returns today's date key and targets.
func (d *dailyServer) today() (string, score.Targets) {
	now := d.srv.now()
	return daily.DateKey(now), daily.Targets(now, d.salt)
}

// playerID returns the authenticated user ID, or the guest cookie ID.
func (d *dailyServer) playerID(w http.ResponseWriter, r *http.Request) string {
	if me := auth.FromContext(r.Context()); me != nil {
		return me.ID
	}
	return d.srv.issuer.EnsureAnonID(w, r)
}

// newRes is returned by /daily/new.
type newRes struct {
	GameID  string        `json:"gameId"`
	Date    string        `json:"date"`
	Targets score.Targets `json:"targets"`
	Played  bool          `json:"played"`
}

// handleNew creates or reuses today's session. Sessions from earlier days
// are dropped.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid := d.playerID(w, r)
	date, targets := d.today()

	played, err := d.store.AlreadyPlayed(r.Context(), uid, date)
	if err != nil {
		log.Error().Err(err).Msg("daily already played")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if played {
		writeJSON(w, http.StatusOK, newRes{Date: date, Targets: targets, Played: true})
		return
	}

	key := uid + "|" + date
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, sess := range d.sessions {
		if sess.Date != date {
			delete(d.sessions, k)
		}
	}
	sess, ok := d.sessions[key]
	if !ok {
		sess = &dailySession{GameID: uuid.NewString(), Date: date, Targets: targets}
		d.sessions[key] = sess
	}
	writeJSON(w, http.StatusOK, newRes{GameID: sess.GameID, Date: date, Targets: targets, Played: sess.Finished})
}

// dailySubmitReq is the request payload for /daily/submit.
type dailySubmitReq struct {
	GameID string `json:"gameId"`
	Throws []int  `json:"throws"`
}

// dailySubmitRes is the response payload for /daily/submit.
type dailySubmitRes struct {
	Date    string        `json:"date"`
	Targets score.Targets `json:"targets"`
	Result  score.Result  `json:"result"`
	Failure bool          `json:"failure"`
	Phrase  string        `json:"phrase"`
}

// handleSubmit scores today's round once and persists it.
func (d *dailyServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	uid := d.playerID(w, r)

	var p dailySubmitReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	rules := d.srv.Rules()
	if p.GameID == "" || len(p.Throws) > rules.MaxThrows {
		writeError(w, http.StatusBadRequest, "invalid")
		return
	}
	for _, v := range p.Throws {
		if !board.ValidThrow(v) {
			writeError(w, http.StatusBadRequest, "invalid_throw")
			return
		}
	}

	date, _ := d.today()
	key := uid + "|" + date

	d.mu.Lock()
	sess, ok := d.sessions[key]
	if !ok || sess.GameID != p.GameID {
		d.mu.Unlock()
		writeError(w, http.StatusConflict, "no_session")
		return
	}
	if sess.Finished {
		d.mu.Unlock()
		writeError(w, http.StatusConflict, "already_played")
		return
	}
	sess.Finished = true
	d.mu.Unlock()

	res := score.Calculate(sess.Targets, p.Throws)
	d.srv.observeRound(len(p.Throws), res)

	inserted, err := d.store.InsertResult(r.Context(), daily.Result{
		UserID:     uid,
		Date:       date,
		Targets:    sess.Targets,
		Throws:     p.Throws,
		Score:      res.Score,
		MatchCount: res.MatchCount,
		Perfect:    res.IsPerfectMatch,
	})
	if err != nil {
		log.Error().Err(err).Str("user", uid).Msg("insert daily result")
		d.mu.Lock()
		sess.Finished = false
		d.mu.Unlock()
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	if !inserted {
		writeError(w, http.StatusConflict, "already_played")
		return
	}
	d.srv.metrics.DailySubmits.Inc()

	entry := daily.LBRow{UserID: uid, Score: res.Score, MatchCount: res.MatchCount, Perfect: res.IsPerfectMatch}
	if me := auth.FromContext(r.Context()); me != nil {
		entry.Username = me.Username
	}
	d.srv.hub.Publish(live.Event{Event: live.EventDaily, Data: entry})

	failure := res.Score < rules.PassScore
	writeJSON(w, http.StatusOK, dailySubmitRes{
		Date:    date,
		Targets: sess.Targets,
		Result:  res,
		Failure: failure,
		Phrase:  d.srv.narrator.Phrase(res.Score, narration.Options{IsFailure: failure}),
	})
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date, _ = d.today()
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		log.Error().Err(err).Msg("daily leaderboard")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
