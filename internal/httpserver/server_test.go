package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/robalobadob/roulette/apps/go-server/internal/auth"
	"github.com/robalobadob/roulette/apps/go-server/internal/daily"
	"github.com/robalobadob/roulette/apps/go-server/internal/database"
	"github.com/robalobadob/roulette/apps/go-server/internal/game"
	"github.com/robalobadob/roulette/apps/go-server/internal/narration"
	"github.com/robalobadob/roulette/apps/go-server/internal/score"
	"github.com/robalobadob/roulette/apps/go-server/internal/store"
)

// --- test helpers -----------------------------------------------------------

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

const testSalt = "test_salt"

func newTestServer(t *testing.T, rules game.Rules) *Server {
	t.Helper()
	db, err := database.OpenAndMigrate(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(Options{
		DB:        db,
		Issuer:    &auth.Issuer{Secret: []byte("test"), TTL: time.Hour},
		Narrator:  narration.New([]string{"Only "}, 1),
		Rules:     rules,
		DailySalt: testSalt,
		Now:       func() time.Time { return testNow },
	})
}

type call struct {
	method, path string
	body         any
	token        string
	cookies      []*http.Cookie
}

func do(t *testing.T, s *Server, c call) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		if err := json.NewEncoder(&buf).Encode(c.body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

func wantStatus(t *testing.T, rr *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status: got %d, want %d (body: %s)", rr.Code, status, rr.Body.String())
	}
}

func wantError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	wantStatus(t, rr, status)
	var body map[string]string
	decode(t, rr, &body)
	if body["error"] != code {
		t.Errorf("error code: got %q, want %q", body["error"], code)
	}
}

func targetSum(t score.Targets) int {
	return t[0] + t[1] + t[2]
}

func signup(t *testing.T, s *Server, name string) string {
	t.Helper()
	rr := do(t, s, call{method: http.MethodPost, path: "/auth/signup",
		body: map[string]string{"username": name, "password": "password123"}})
	wantStatus(t, rr, http.StatusOK)
	tok := rr.Header().Get("X-Auth-Token")
	if tok == "" {
		t.Fatal("signup returned no token")
	}
	return tok
}

// --- diagnostics ------------------------------------------------------------

func TestHealthAndNotFound(t *testing.T) {
	s := newTestServer(t, game.Rules{})
	rr := do(t, s, call{method: http.MethodGet, path: "/health"})
	wantStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `"ok":true`) {
		t.Errorf("health body: %s", rr.Body.String())
	}
	wantError(t, do(t, s, call{method: http.MethodGet, path: "/nope"}), http.StatusNotFound, "not_found")
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, game.Rules{})
	rr := do(t, s, call{method: http.MethodOptions, path: "/score"})
	wantStatus(t, rr, http.StatusNoContent)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin: got %q", got)
	}
}

// --- /score -----------------------------------------------------------------

func TestScoreEndpoint(t *testing.T) {
	s := newTestServer(t, game.Rules{})
	tests := []struct {
		targets, throws []int
		want            score.Result
	}{
		{[]int{17, 20, 5}, []int{17, 20, 10}, score.Result{Score: 37, MatchCount: 2}},
		{[]int{17, 20, 5}, []int{17, 20, 5}, score.Result{Score: 84, IsPerfectMatch: true, MatchCount: 3}},
		{[]int{17, 17, 20}, []int{17, 17, 20}, score.Result{Score: 108, IsPerfectMatch: true, MatchCount: 3}},
		{[]int{5, 6, 6}, []int{6, 0, 0}, score.Result{Score: 6, MatchCount: 1}},
		{[]int{1, 5, 6}, []int{5, 5, 5}, score.Result{Score: 5, MatchCount: 1}},
		{[]int{17, 20, 5}, []int{17, 20, 5, 10, 11}, score.Result{Score: 84, IsPerfectMatch: true, MatchCount: 3}},
	}
	for _, tt := range tests {
		rr := do(t, s, call{method: http.MethodPost, path: "/score",
			body: map[string][]int{"targets": tt.targets, "throws": tt.throws}})
		wantStatus(t, rr, http.StatusOK)
		var got score.Result
		decode(t, rr, &got)
		if got != tt.want {
			t.Errorf("%v → %v: got %+v, want %+v", tt.targets, tt.throws, got, tt.want)
		}
	}
}

func TestScoreEndpoint_RejectsBadInput(t *testing.T) {
	s := newTestServer(t, game.Rules{})
	for _, targets := range [][]int{{1, 2}, {1, 2, 3, 4}, nil} {
		rr := do(t, s, call{method: http.MethodPost, path: "/score",
			body: map[string][]int{"targets": targets, "throws": {1}}})
		wantError(t, rr, http.StatusBadRequest, "target_count")
	}

	req := httptest.NewRequest(http.MethodPost, "/score", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	wantError(t, rr, http.StatusBadRequest, "bad_json")
}

// --- /game ------------------------------------------------------------------

func newGame(t *testing.T, s *Server, token string) gameView {
	t.Helper()
	rr := do(t, s, call{method: http.MethodPost, path: "/game/new", token: token})
	wantStatus(t, rr, http.StatusOK)
	var v gameView
	decode(t, rr, &v)
	return v
}

func throwTargets(t *testing.T, s *Server, v gameView) {
	t.Helper()
	for _, target := range v.Targets {
		rr := do(t, s, call{method: http.MethodPost, path: "/game/throw",
			body: map[string]any{"gameId": v.GameID, "value": target}})
		wantStatus(t, rr, http.StatusOK)
	}
}

func submit(t *testing.T, s *Server, id, token string) submitRes {
	t.Helper()
	rr := do(t, s, call{method: http.MethodPost, path: "/game/submit", token: token,
		body: map[string]string{"gameId": id}})
	wantStatus(t, rr, http.StatusOK)
	var res submitRes
	decode(t, rr, &res)
	return res
}

func TestGame_PerfectRound(t *testing.T) {
	s := newTestServer(t, game.Rules{Rounds: 2})
	v := newGame(t, s, "")
	if v.State != game.StatePlaying || v.Round != 1 || v.Rounds != 2 {
		t.Fatalf("new game view: %+v", v)
	}

	throwTargets(t, s, v)
	res := submit(t, s, v.GameID, "")

	want := targetSum(v.Targets) * score.PerfectMultiplier
	if res.Round.Result.Score != want || !res.Round.Result.IsPerfectMatch {
		t.Errorf("round result: got %+v, want score %d perfect", res.Round.Result, want)
	}
	if res.Phrase == "" {
		t.Error("empty phrase")
	}
	if res.Game.Round != 2 || res.Game.Total != want || res.Game.Perfects != 1 {
		t.Errorf("game after submit: %+v", res.Game)
	}

	rr := do(t, s, call{method: http.MethodGet, path: "/game/" + v.GameID})
	wantStatus(t, rr, http.StatusOK)
	var got gameView
	decode(t, rr, &got)
	if len(got.History) != 1 || got.History[0].Number != 1 {
		t.Errorf("history: %+v", got.History)
	}
}

func TestGame_FailedRoundPhrase(t *testing.T) {
	s := newTestServer(t, game.Rules{PassScore: 1000})
	v := newGame(t, s, "")
	res := submit(t, s, v.GameID, "")
	if !res.Round.Failure {
		t.Error("empty round below pass score not marked as failure")
	}
	if res.Phrase != "Only 0" {
		t.Errorf("phrase: got %q, want %q", res.Phrase, "Only 0")
	}
}

func TestGame_CrownAndUndo(t *testing.T) {
	s := newTestServer(t, game.Rules{})
	v := newGame(t, s, "")

	rr := do(t, s, call{method: http.MethodPost, path: "/game/undo", body: map[string]string{"gameId": v.GameID}})
	wantError(t, rr, http.StatusConflict, "no_throws")

	rr = do(t, s, call{method: http.MethodPost, path: "/game/crown", body: map[string]string{"gameId": v.GameID}})
	wantStatus(t, rr, http.StatusOK)
	var got gameView
	decode(t, rr, &got)
	if len(got.Throws) != 3 || got.Throws[0] != 1 || got.Throws[1] != 5 || got.Throws[2] != 20 {
		t.Fatalf("crown throws: %v", got.Throws)
	}

	rr = do(t, s, call{method: http.MethodPost, path: "/game/undo", body: map[string]string{"gameId": v.GameID}})
	wantStatus(t, rr, http.StatusOK)
	decode(t, rr, &got)
	if len(got.Throws) != 2 {
		t.Errorf("after undo: %v", got.Throws)
	}

	res := submit(t, s, v.GameID, "")
	want := score.Calculate(v.Targets, []int{1, 5})
	if res.Round.Result != want {
		t.Errorf("crown-minus-one result: got %+v, want %+v", res.Round.Result, want)
	}
}

func TestGame_Errors(t *testing.T) {
	s := newTestServer(t, game.Rules{Rounds: 1})
	v := newGame(t, s, "")

	rr := do(t, s, call{method: http.MethodPost, path: "/game/throw", body: map[string]any{"gameId": v.GameID, "value": 23}})
	wantError(t, rr, http.StatusBadRequest, "invalid_throw")

	for i := 0; i < 3; i++ {
		wantStatus(t, do(t, s, call{method: http.MethodPost, path: "/game/throw",
			body: map[string]any{"gameId": v.GameID, "value": 0}}), http.StatusOK)
	}
	rr = do(t, s, call{method: http.MethodPost, path: "/game/throw", body: map[string]any{"gameId": v.GameID, "value": 1}})
	wantError(t, rr, http.StatusConflict, "round_full")

	res := submit(t, s, v.GameID, "")
	if res.Game.State != game.StateFinished {
		t.Fatalf("state: got %s", res.Game.State)
	}
	// Finished games are evicted once persisted.
	rr = do(t, s, call{method: http.MethodPost, path: "/game/submit", body: map[string]string{"gameId": v.GameID}})
	wantError(t, rr, http.StatusNotFound, "not_found")

	rr = do(t, s, call{method: http.MethodGet, path: "/game/unknown"})
	wantError(t, rr, http.StatusNotFound, "not_found")
	rr = do(t, s, call{method: http.MethodPost, path: "/game/throw", body: map[string]any{"gameId": "unknown", "value": 1}})
	wantError(t, rr, http.StatusNotFound, "not_found")
}

func TestSetRules_AffectsNewGames(t *testing.T) {
	s := newTestServer(t, game.Rules{Rounds: 2})
	s.SetRules(game.Rules{Rounds: 7, PassScore: 5})
	v := newGame(t, s, "")
	if v.Rounds != 7 || v.Rules.PassScore != 5 || v.Rules.MaxThrows != 3 {
		t.Errorf("rules: got %+v", v.Rules)
	}
}

// --- accounts + stats -------------------------------------------------------

func TestFinishedGame_UpdatesStats(t *testing.T) {
	s := newTestServer(t, game.Rules{Rounds: 2})
	tok := signup(t, s, "dart_queen")

	v := newGame(t, s, tok)
	throwTargets(t, s, v)
	first := submit(t, s, v.GameID, tok)
	second := submit(t, s, v.GameID, tok)
	if second.Game.State != game.StateFinished {
		t.Fatalf("state: got %s", second.Game.State)
	}
	total := first.Round.Result.Score + second.Round.Result.Score

	rr := do(t, s, call{method: http.MethodGet, path: "/stats/me", token: tok})
	wantStatus(t, rr, http.StatusOK)
	var st struct {
		GamesPlayed   int    `json:"gamesPlayed"`
		RoundsPlayed  int    `json:"roundsPlayed"`
		Perfects      int    `json:"perfects"`
		Points        int    `json:"points"`
		BestGame      int    `json:"bestGame"`
		AvgRoundScore string `json:"avgRoundScore"`
	}
	decode(t, rr, &st)
	if st.GamesPlayed != 1 || st.RoundsPlayed != 2 || st.Perfects != 1 || st.Points != total || st.BestGame != total {
		t.Errorf("stats: got %+v, want total %d", st, total)
	}
	if st.AvgRoundScore == "" || st.AvgRoundScore == "0" {
		t.Errorf("avgRoundScore: got %q", st.AvgRoundScore)
	}

	rr = do(t, s, call{method: http.MethodGet, path: "/games/mine", token: tok})
	wantStatus(t, rr, http.StatusOK)
	var games []gameRow
	decode(t, rr, &games)
	if len(games) != 1 || games[0].Status != "finished" || games[0].Total != total || games[0].Rounds != 2 {
		t.Errorf("games/mine: got %+v", games)
	}
}

func TestAuth_Flow(t *testing.T) {
	s := newTestServer(t, game.Rules{})

	wantError(t, do(t, s, call{method: http.MethodGet, path: "/auth/me"}), http.StatusUnauthorized, "Unauthorized")
	wantError(t, do(t, s, call{method: http.MethodGet, path: "/auth/me", token: "bogus"}), http.StatusUnauthorized, "Invalid token")

	tok := signup(t, s, "bullseye")
	rr := do(t, s, call{method: http.MethodGet, path: "/auth/me", token: tok})
	wantStatus(t, rr, http.StatusOK)
	var me auth.Principal
	decode(t, rr, &me)
	if me.Username != "bullseye" {
		t.Errorf("me: got %+v", me)
	}

	rr = do(t, s, call{method: http.MethodPost, path: "/auth/signup",
		body: map[string]string{"username": "BULLSEYE", "password": "password123"}})
	wantError(t, rr, http.StatusConflict, "Username taken")

	rr = do(t, s, call{method: http.MethodPost, path: "/auth/login",
		body: map[string]string{"username": "bullseye", "password": "nope-nope"}})
	wantStatus(t, rr, http.StatusUnauthorized)

	rr = do(t, s, call{method: http.MethodPost, path: "/auth/login",
		body: map[string]string{"username": "bullseye", "password": "password123"}})
	wantStatus(t, rr, http.StatusOK)
	if rr.Header().Get("X-Auth-Token") == "" {
		t.Error("login returned no token")
	}
}

func TestLogin_ClaimsGuestGames(t *testing.T) {
	s := newTestServer(t, game.Rules{Rounds: 1})

	rr := do(t, s, call{method: http.MethodPost, path: "/game/new"})
	wantStatus(t, rr, http.StatusOK)
	var anon *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.AnonCookieName {
			anon = c
		}
	}
	if anon == nil {
		t.Fatal("guest cookie not set")
	}

	rr = do(t, s, call{method: http.MethodPost, path: "/auth/signup", cookies: []*http.Cookie{anon},
		body: map[string]string{"username": "guest_no_more", "password": "password123"}})
	wantStatus(t, rr, http.StatusOK)
	tok := rr.Header().Get("X-Auth-Token")

	rr = do(t, s, call{method: http.MethodGet, path: "/games/mine", token: tok})
	wantStatus(t, rr, http.StatusOK)
	var games []gameRow
	decode(t, rr, &games)
	if len(games) != 1 {
		t.Errorf("claimed games: got %d, want 1", len(games))
	}
}

// --- /daily -----------------------------------------------------------------

func TestDaily_Flow(t *testing.T) {
	s := newTestServer(t, game.Rules{})
	tok := signup(t, s, "daily_dan")

	rr := do(t, s, call{method: http.MethodPost, path: "/daily/new", token: tok})
	wantStatus(t, rr, http.StatusOK)
	var nr newRes
	decode(t, rr, &nr)
	if nr.Played || nr.GameID == "" || nr.Date != "2026-10-15" {
		t.Fatalf("daily/new: %+v", nr)
	}
	if nr.Targets != daily.Targets(testNow, testSalt) {
		t.Errorf("targets: got %v, want %v", nr.Targets, daily.Targets(testNow, testSalt))
	}

	// Same player asking again gets the same session.
	rr = do(t, s, call{method: http.MethodPost, path: "/daily/new", token: tok})
	var again newRes
	decode(t, rr, &again)
	if again.GameID != nr.GameID {
		t.Errorf("session not reused: %s vs %s", again.GameID, nr.GameID)
	}

	throws := nr.Targets[:]
	rr = do(t, s, call{method: http.MethodPost, path: "/daily/submit", token: tok,
		body: map[string]any{"gameId": nr.GameID, "throws": throws}})
	wantStatus(t, rr, http.StatusOK)
	var sr dailySubmitRes
	decode(t, rr, &sr)
	if !sr.Result.IsPerfectMatch || sr.Result.Score != targetSum(nr.Targets)*2 {
		t.Errorf("daily result: %+v", sr.Result)
	}

	rr = do(t, s, call{method: http.MethodPost, path: "/daily/submit", token: tok,
		body: map[string]any{"gameId": nr.GameID, "throws": throws}})
	wantError(t, rr, http.StatusConflict, "already_played")

	rr = do(t, s, call{method: http.MethodPost, path: "/daily/new", token: tok})
	decode(t, rr, &again)
	if !again.Played {
		t.Error("daily/new after submit should report played")
	}

	rr = do(t, s, call{method: http.MethodGet, path: "/daily/leaderboard"})
	wantStatus(t, rr, http.StatusOK)
	var lb lbRes
	decode(t, rr, &lb)
	if lb.Date != "2026-10-15" || len(lb.Top) != 1 || lb.Top[0].Username != "daily_dan" {
		t.Errorf("leaderboard: %+v", lb)
	}
}

func TestDaily_SubmitValidation(t *testing.T) {
	s := newTestServer(t, game.Rules{})
	tok := signup(t, s, "strict_sam")

	rr := do(t, s, call{method: http.MethodPost, path: "/daily/submit", token: tok,
		body: map[string]any{"gameId": "x", "throws": []int{1}}})
	wantError(t, rr, http.StatusConflict, "no_session")

	rr = do(t, s, call{method: http.MethodPost, path: "/daily/new", token: tok})
	var nr newRes
	decode(t, rr, &nr)

	rr = do(t, s, call{method: http.MethodPost, path: "/daily/submit", token: tok,
		body: map[string]any{"gameId": nr.GameID, "throws": []int{1, 2, 3, 4}}})
	wantError(t, rr, http.StatusBadRequest, "invalid")

	rr = do(t, s, call{method: http.MethodPost, path: "/daily/submit", token: tok,
		body: map[string]any{"gameId": nr.GameID, "throws": []int{99}}})
	wantError(t, rr, http.StatusBadRequest, "invalid_throw")
}

// --- metrics + live feed ----------------------------------------------------

func TestMetrics_CountRounds(t *testing.T) {
	s := newTestServer(t, game.Rules{})
	do(t, s, call{method: http.MethodPost, path: "/score",
		body: map[string][]int{"targets": {1, 5, 20}, "throws": {1, 5, 20}}})

	rr := do(t, s, call{method: http.MethodGet, path: "/metrics"})
	wantStatus(t, rr, http.StatusOK)
	body := rr.Body.String()
	for _, want := range []string{
		"roulette_rounds_scored_total 1",
		"roulette_perfect_matches_total 1",
		"roulette_throws_total 3",
		"roulette_live_clients 0",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestLiveFeed_ReceivesRound(t *testing.T) {
	s := newTestServer(t, game.Rules{})
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.hub.Count() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	v := newGame(t, s, "")
	submit(t, s, v.GameID, "")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev struct {
		Event string     `json:"event"`
		Data  roundEvent `json:"data"`
	}
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Event != "round" || ev.Data.GameID != v.GameID || ev.Data.Round.Number != 1 {
		t.Errorf("event: %+v", ev)
	}
}

// --- lifecycle + ownership --------------------------------------------------

func TestFinishedGames_EvictedFromStore(t *testing.T) {
	s := newTestServer(t, game.Rules{Rounds: 1})
	ids := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		v := newGame(t, s, "")
		submit(t, s, v.GameID, "")
		ids = append(ids, v.GameID)
	}
	for _, id := range ids {
		if _, err := s.store.Get(context.Background(), id); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("finished game %s still in memory (err %v)", id, err)
		}
		wantError(t, do(t, s, call{method: http.MethodGet, path: "/game/" + id}), http.StatusNotFound, "not_found")
	}
}

func TestFinish_OnlyOwnerGetsCredit(t *testing.T) {
	s := newTestServer(t, game.Rules{Rounds: 1})
	owner := signup(t, s, "owner_olly")
	other := signup(t, s, "sniper_sue")

	v := newGame(t, s, owner)
	throwTargets(t, s, v)
	submit(t, s, v.GameID, other)

	for _, tok := range []string{owner, other} {
		rr := do(t, s, call{method: http.MethodGet, path: "/stats/me", token: tok})
		wantStatus(t, rr, http.StatusOK)
		var st statsRes
		decode(t, rr, &st)
		if st.GamesPlayed != 0 || st.Points != 0 {
			t.Errorf("stats credited from a foreign submit: %+v", st)
		}
	}

	rr := do(t, s, call{method: http.MethodGet, path: "/games/mine", token: owner})
	var games []gameRow
	decode(t, rr, &games)
	if len(games) != 1 || games[0].Status != string(game.StatePlaying) {
		t.Errorf("owner's game row changed by another player: %+v", games)
	}
}

func TestCrown_RejectedWhenRoundTooShort(t *testing.T) {
	s := newTestServer(t, game.Rules{MaxThrows: 1})
	v := newGame(t, s, "")
	rr := do(t, s, call{method: http.MethodPost, path: "/game/crown", body: map[string]string{"gameId": v.GameID}})
	wantError(t, rr, http.StatusConflict, "round_full")
}

// --- server built from bare Options ----------------------------------------

func TestServer_DefaultOptions(t *testing.T) {
	s := New(Options{})

	rr := do(t, s, call{method: http.MethodGet, path: "/"})
	wantStatus(t, rr, http.StatusOK)
	var idx indexRes
	decode(t, rr, &idx)
	if len(idx.Segments) != 20 || idx.Segments[0] != 1 || idx.Segments[19] != 20 {
		t.Errorf("segments: %v", idx.Segments)
	}
	if idx.Rules != game.DefaultRules() {
		t.Errorf("rules: got %+v, want %+v", idx.Rules, game.DefaultRules())
	}

	// Default pass score makes an empty round a failure, so an insult leads.
	v := newGame(t, s, "")
	res := submit(t, s, v.GameID, "")
	if !res.Round.Failure {
		t.Error("empty round not a failure under default rules")
	}
	if res.Phrase == "0" || !strings.HasSuffix(res.Phrase, "0") {
		t.Errorf("phrase: got %q, want insult followed by 0", res.Phrase)
	}

	rr = do(t, s, call{method: http.MethodPost, path: "/auth/signup",
		body: map[string]string{"username": "nobody", "password": "password123"}})
	wantError(t, rr, http.StatusServiceUnavailable, "db_unavailable")
	wantError(t, do(t, s, call{method: http.MethodPost, path: "/daily/new"}), http.StatusServiceUnavailable, "db_unavailable")
	wantError(t, do(t, s, call{method: http.MethodGet, path: "/stats/me"}), http.StatusServiceUnavailable, "db_unavailable")
}
