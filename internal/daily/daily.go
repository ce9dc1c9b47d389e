package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/robalobadob/roulette/apps/go-server/internal/board"
	"github.com/robalobadob/roulette/apps/go-server/internal/score"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Targets returns the day's deterministic targets using HMAC(salt, YYYY-MM-DD).
// Each slot takes two bytes of the digest modulo the number of segments.
func Targets(date time.Time, salt string) score.Targets {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)

	span := uint16(board.MaxSegment - board.MinSegment + 1)
	var t score.Targets
	for i := range t {
		n := binary.BigEndian.Uint16(sum[i*2 : i*2+2])
		t[i] = board.MinSegment + int(n%span)
	}
	return t
}
