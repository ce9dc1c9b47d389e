package daily

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/robalobadob/roulette/apps/go-server/internal/score"
)

// Result is one player's daily round.
type Result struct {
	UserID     string        `json:"userId"`
	Date       string        `json:"date"`
	Targets    score.Targets `json:"targets"`
	Throws     []int         `json:"throws"`
	Score      int           `json:"score"`
	MatchCount int           `json:"matchCount"`
	Perfect    bool          `json:"perfect"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) AlreadyPlayed(ctx context.Context, userID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM daily_results WHERE user_id=? AND date=?",
		userID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult stores r. A second result for the same user and date is
// ignored; inserted reports whether a row was written.
func (s *Store) InsertResult(ctx context.Context, r Result) (inserted bool, err error) {
	targets, err := json.Marshal(r.Targets)
	if err != nil {
		return false, err
	}
	throws, err := json.Marshal(r.Throws)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(user_id, date, targets, throws, score, match_count, perfect)
VALUES(?,?,?,?,?,?,?)`,
		r.UserID, r.Date, string(targets), string(throws), r.Score, r.MatchCount, r.Perfect,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type LBRow struct {
	UserID     string `json:"userId"`
	Username   string `json:"username,omitempty"`
	Score      int    `json:"score"`
	MatchCount int    `json:"matchCount"`
	Perfect    bool   `json:"perfect"`
}

// Leaderboard returns the best results for date: highest score first, then
// most matches, then earliest submission.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.user_id, COALESCE(u.username, ''), d.score, d.match_count, d.perfect
FROM daily_results d
LEFT JOIN users u ON u.id = d.user_id
WHERE d.date=?
ORDER BY d.score DESC, d.match_count DESC, d.created_at ASC, d.id ASC
LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LBRow{}
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.UserID, &r.Username, &r.Score, &r.MatchCount, &r.Perfect); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
