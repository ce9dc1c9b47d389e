// apps/go-server/internal/httpserver/routes_game.go
//
// Game session endpoints. Every mutation goes through store.Update so the
// game is locked for the duration of the change.

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/roulette/apps/go-server/internal/auth"
	"github.com/robalobadob/roulette/apps/go-server/internal/game"
	"github.com/robalobadob/roulette/apps/go-server/internal/live"
	"github.com/robalobadob/roulette/apps/go-server/internal/narration"
	"github.com/robalobadob/roulette/apps/go-server/internal/score"
)

// gameView is the client-facing snapshot of a game.
type gameView struct {
	GameID   string             `json:"gameId"`
	State    game.State         `json:"state"`
	Round    int                `json:"round"`
	Rounds   int                `json:"rounds"`
	Targets  score.Targets      `json:"targets"`
	Throws   []int              `json:"throws"`
	Total    int                `json:"total"`
	Perfects int                `json:"perfects"`
	Rules    game.Rules         `json:"rules"`
	History  []game.RoundRecord `json:"history"`
}

func viewOf(g *game.Game) gameView {
	hist := g.History
	if hist == nil {
		hist = []game.RoundRecord{}
	}
	return gameView{
		GameID:   g.ID,
		State:    g.State(),
		Round:    g.Round,
		Rounds:   g.Rules.Rounds,
		Targets:  g.Targets,
		Throws:   append([]int{}, g.Throws...),
		Total:    g.Total,
		Perfects: g.Perfects,
		Rules:    g.Rules,
		History:  append([]game.RoundRecord(nil), hist...),
	}
}

// gameReq is shared by the mutation endpoints.
type gameReq struct {
	GameID string `json:"gameId"`
	Value  int    `json:"value"` // /game/throw only
}

// handleNewGame creates a game with the current rules and records an owner
// row (user_id or anonymous_id) for history.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	g := game.New(s.Rules(), nil)
	if err := s.store.Save(r.Context(), g); err != nil {
		log.Error().Err(err).Msg("save game")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	s.metrics.GamesStarted.Inc()

	if s.db != nil {
		now := s.now().UTC().Format(time.RFC3339)
		var err error
		if me := auth.FromContext(r.Context()); me != nil {
			_, err = s.db.ExecContext(r.Context(), `INSERT INTO games (id, user_id, started_at, status) VALUES (?,?,?,?)`,
				g.ID, me.ID, now, string(game.StatePlaying))
		} else {
			_, err = s.db.ExecContext(r.Context(), `INSERT INTO games (id, anonymous_id, started_at, status) VALUES (?,?,?,?)`,
				g.ID, s.issuer.EnsureAnonID(w, r), now, string(game.StatePlaying))
		}
		if err != nil {
			log.Warn().Err(err).Str("gameId", g.ID).Msg("insert game row")
		}
	}

	writeJSON(w, http.StatusOK, viewOf(g))
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		gameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(g))
}

// mutate decodes a gameReq, applies fn under the store lock and writes the
// resulting view.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(*game.Game, gameReq) error) {
	var req gameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	var v gameView
	err := s.store.Update(r.Context(), req.GameID, func(g *game.Game) error {
		if err := fn(g, req); err != nil {
			return err
		}
		v = viewOf(g)
		return nil
	})
	if err != nil {
		gameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleThrow(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(g *game.Game, req gameReq) error { return g.Throw(req.Value) })
}

func (s *Server) handleCrown(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(g *game.Game, _ gameReq) error { return g.Crown() })
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(g *game.Game, _ gameReq) error { return g.Undo() })
}

// submitRes is returned by POST /game/submit.
type submitRes struct {
	Round  game.RoundRecord `json:"round"`
	Phrase string           `json:"phrase"`
	Game   gameView         `json:"game"`
}

// roundEvent is published to the live feed for every scored round.
type roundEvent struct {
	GameID string           `json:"gameId"`
	Player string           `json:"player,omitempty"`
	Round  game.RoundRecord `json:"round"`
}

// handleSubmit scores the current round, narrates it, publishes it and,
// when the game is over, persists the summary and user counters.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req gameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	var (
		rec  game.RoundRecord
		view gameView
	)
	err := s.store.Update(r.Context(), req.GameID, func(g *game.Game) error {
		var err error
		if rec, err = g.Submit(); err != nil {
			return err
		}
		view = viewOf(g)
		return nil
	})
	if err != nil {
		gameError(w, err)
		return
	}
	s.observeRound(len(rec.Throws), rec.Result)

	me := auth.FromContext(r.Context())
	ev := roundEvent{GameID: view.GameID, Round: rec}
	if me != nil {
		ev.Player = me.Username
	}
	s.hub.Publish(live.Event{Event: live.EventRound, Data: ev})

	if view.State == game.StateFinished {
		s.finishGame(w, r, view, me)
		if err := s.store.Delete(r.Context(), view.GameID); err != nil {
			log.Warn().Err(err).Str("gameId", view.GameID).Msg("evict finished game")
		}
	}

	writeJSON(w, http.StatusOK, submitRes{
		Round:  rec,
		Phrase: s.narrator.Phrase(rec.Result.Score, narration.Options{IsFailure: rec.Failure}),
		Game:   view,
	})
}

// finishGame writes the game summary and folds it into the owner's stats.
// Only the player who started the game (user or guest cookie) can finish
// its row; anyone else's submit leaves the DB untouched. Failures are
// logged; the player's response is not affected.
func (s *Server) finishGame(w http.ResponseWriter, r *http.Request, v gameView, me *auth.Principal) {
	if s.db == nil {
		return
	}
	ctx := r.Context()
	ownerClause := `anonymous_id=?`
	ownerArg := any(s.issuer.EnsureAnonID(w, r))
	if me != nil {
		ownerClause = `user_id=?`
		ownerArg = any(me.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("begin finish tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE games SET status=?, finished_at=?, rounds=?, total=?, perfects=? WHERE id=? AND `+ownerClause,
		string(game.StateFinished), s.now().UTC().Format(time.RFC3339), len(v.History), v.Total, v.Perfects, v.GameID, ownerArg)
	if err != nil {
		log.Warn().Err(err).Str("gameId", v.GameID).Msg("finish game row")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		log.Debug().Str("gameId", v.GameID).Msg("finish by non-owner, stats untouched")
		return
	}
	if me != nil {
		if err := auth.RecordGame(ctx, tx, me.ID, len(v.History), v.Total, v.Perfects); err != nil {
			log.Warn().Err(err).Str("user", me.ID).Msg("record game stats")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Msg("commit finish tx")
		return
	}
	log.Info().Str("gameId", v.GameID).Int("total", v.Total).Int("perfects", v.Perfects).Msg("game finished")
}
