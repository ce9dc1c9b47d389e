// apps/go-server/internal/board/board.go
//
// Dartboard value domain for the game layer.
//
// Responsibilities:
//   - Enumerate the numbered segments targets are drawn from.
//   - Validate throw values coming from the client (miss, segments, bulls).
//   - Draw random targets with crypto/rand.
//
// The scoring engine accepts any int; these rules only guard user input.

package board

import (
	"crypto/rand"
	"math/big"
)

const (
	// MinSegment and MaxSegment bound the numbered segments.
	MinSegment = 1
	MaxSegment = 20

	// Miss is the value recorded for a dart that left the board.
	Miss = 0

	OuterBull = 25
	Bull      = 50
)

// Segments returns the numbered segments in ascending order.
func Segments() []int {
	out := make([]int, 0, MaxSegment-MinSegment+1)
	for v := MinSegment; v <= MaxSegment; v++ {
		out = append(out, v)
	}
	return out
}

// ValidTarget reports whether v can be drawn as a target.
func ValidTarget(v int) bool {
	return v >= MinSegment && v <= MaxSegment
}

// ValidThrow reports whether v can be produced by a dart.
func ValidThrow(v int) bool {
	switch v {
	case Miss, OuterBull, Bull:
		return true
	}
	return ValidTarget(v)
}

// DrawTargets returns three independently drawn segments. Duplicates are
// allowed. If the system RNG fails the middle of the board is used.
func DrawTargets() [3]int {
	var out [3]int
	n := big.NewInt(int64(MaxSegment - MinSegment + 1))
	for i := range out {
		r, err := rand.Int(rand.Reader, n)
		if err != nil {
			out[i] = (MinSegment + MaxSegment) / 2
			continue
		}
		out[i] = MinSegment + int(r.Int64())
	}
	return out
}
