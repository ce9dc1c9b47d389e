// apps/go-server/internal/game/types.go
//
// Core type definitions for a roulette darts session.
// Defines:
//   - Rules: round count, darts per round and the pass threshold.
//   - RoundRecord: a scored round.
//   - Game: state for a single in-progress or finished game.

package game

import "github.com/robalobadob/roulette/apps/go-server/internal/score"

// State is the coarse lifecycle of a game.
type State string

const (
	StatePlaying  State = "playing"
	StateFinished State = "finished"
)

// Rules configure a game. Zero fields take defaults in Normalize; a
// negative PassScore means no round counts as a failure.
type Rules struct {
	Rounds    int `json:"rounds" yaml:"rounds"`       // rounds per game
	MaxThrows int `json:"maxThrows" yaml:"max_throws"` // darts per round
	PassScore int `json:"passScore" yaml:"pass_score"` // below this a round is a failure
}

// RoundRecord is one scored round.
type RoundRecord struct {
	Number  int           `json:"number"`
	Targets score.Targets `json:"targets"`
	Throws  []int         `json:"throws"`
	Result  score.Result  `json:"result"`
	Failure bool          `json:"failure"`
}

// Game holds the state of a single session.
type Game struct {
	ID       string        // uuid
	Rules    Rules         // effective rules
	Round    int           // 1-based current round number
	Targets  score.Targets // targets of the current round
	Throws   []int         // throws of the current round so far
	History  []RoundRecord // scored rounds, oldest first
	Total    int           // sum of round scores
	Perfects int           // number of perfect rounds
	Finished bool          // true once the last round is scored

	draw Drawer
}
