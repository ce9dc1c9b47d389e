// apps/go-server/internal/score/score.go
//
// Round scoring for the roulette darts game.
// Responsibilities:
//   - Match thrown values against the three target slots.
//   - Sum matched values and double the sum on a perfect match.
//
// Notes:
//   - Each target slot is consumed by at most one throw. A thrown value that
//     has no unconsumed slot left scores nothing, even if it equals a target
//     that an earlier throw already took. [1,5,6] hit by [5,5,5] is worth 5.
//   - The engine is pure: no I/O, no randomness, no shared state.
package score

import (
	"errors"
	"fmt"
)

const (
	// Slots is the number of targets in a round.
	Slots = 3

	// PerfectMultiplier is applied to the matched sum when every slot is hit.
	PerfectMultiplier = 2
)

// ErrTargetCount is returned by TargetsFrom when the input is not exactly
// Slots values long.
var ErrTargetCount = errors.New("score: exactly three targets required")

// Targets holds the three target values for a round. Duplicates are allowed
// and each one is a separate slot.
type Targets [Slots]int

// Result is the outcome of scoring one round.
type Result struct {
	Score          int  `json:"score"`
	IsPerfectMatch bool `json:"isPerfectMatch"`
	MatchCount     int  `json:"matchCount"`
}

// TargetsFrom converts a slice to Targets.
func TargetsFrom(vals []int) (Targets, error) {
	var t Targets
	if len(vals) != Slots {
		return t, fmt.Errorf("%w: got %d", ErrTargetCount, len(vals))
	}
	copy(t[:], vals)
	return t, nil
}

// Calculate scores throws against targets.
//
// Throws are processed in order. A throw equal to an unconsumed slot
// consumes that slot, adds its value to the score and counts as a match;
// any other throw contributes nothing. With all three slots matched the
// score is doubled. Throws may be fewer or more than three.
func Calculate(targets Targets, throws []int) Result {
	var (
		res      Result
		consumed [Slots]bool
	)
	for _, v := range throws {
		if res.MatchCount == Slots {
			break
		}
		for i, t := range targets {
			if !consumed[i] && t == v {
				consumed[i] = true
				res.MatchCount++
				res.Score += v
				break
			}
		}
	}
	if res.MatchCount == Slots {
		res.IsPerfectMatch = true
		res.Score *= PerfectMultiplier
	}
	return res
}

// CrownThrows returns the fixed throw sequence of the crown shortcut.
func CrownThrows() []int {
	return []int{1, 5, 20}
}
