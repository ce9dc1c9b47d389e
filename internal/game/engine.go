// apps/go-server/internal/game/engine.go
//
// Game engine for a single roulette darts session.
// Responsibilities:
//   - Create games with default or configured rules.
//   - Validate and record throws for the current round (incl. crown + undo).
//   - Score a round with the score package and advance to the next one.
//   - Track state transitions: playing → finished.
//
// Targets for new rounds come from the board package unless a drawer is
// injected (daily mode and tests pin them).
package game

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/robalobadob/roulette/apps/go-server/internal/board"
	"github.com/robalobadob/roulette/apps/go-server/internal/score"
)

const (
	defaultRounds    = 5
	defaultMaxThrows = score.Slots
	defaultPassScore = 20
)

var (
	ErrFinished     = errors.New("game finished")
	ErrRoundFull    = errors.New("round full")
	ErrInvalidThrow = errors.New("invalid throw")
	ErrNoThrows     = errors.New("no throws")
)

// DefaultRules returns the rules used when none are configured.
func DefaultRules() Rules {
	return Rules{Rounds: defaultRounds, MaxThrows: defaultMaxThrows, PassScore: defaultPassScore}
}

// Normalize fills unset fields with defaults. Rounds and MaxThrows are
// unset when zero or negative, PassScore only when zero: a negative
// PassScore is kept and turns failures off.
func (r Rules) Normalize() Rules {
	d := DefaultRules()
	if r.Rounds <= 0 {
		r.Rounds = d.Rounds
	}
	if r.MaxThrows <= 0 {
		r.MaxThrows = d.MaxThrows
	}
	if r.PassScore == 0 {
		r.PassScore = d.PassScore
	}
	return r
}

// Drawer supplies targets for each new round.
type Drawer func() score.Targets

// RandomDrawer draws targets from the board.
func RandomDrawer() score.Targets { return score.Targets(board.DrawTargets()) }

// FixedDrawer always returns t.
func FixedDrawer(t score.Targets) Drawer {
	return func() score.Targets { return t }
}

// New constructs a game. A nil drawer uses RandomDrawer.
func New(rules Rules, draw Drawer) *Game {
	if draw == nil {
		draw = RandomDrawer
	}
	g := &Game{
		ID:     uuid.NewString(),
		Rules:  rules.Normalize(),
		Round:  1,
		Throws: []int{},
		draw:   draw,
	}
	g.Targets = draw()
	return g
}

// Throw records one dart for the current round.
func (g *Game) Throw(v int) error {
	if g.Finished {
		return ErrFinished
	}
	if !board.ValidThrow(v) {
		return fmt.Errorf("%w: %d", ErrInvalidThrow, v)
	}
	if len(g.Throws) >= g.Rules.MaxThrows {
		return ErrRoundFull
	}
	g.Throws = append(g.Throws, v)
	return nil
}

// Crown replaces the current round's throws with the crown sequence.
// Rules allowing fewer darts than the sequence has reject it.
func (g *Game) Crown() error {
	if g.Finished {
		return ErrFinished
	}
	if g.Rules.MaxThrows < len(score.CrownThrows()) {
		return ErrRoundFull
	}
	g.Throws = score.CrownThrows()
	return nil
}

// Undo drops the most recent throw of the current round.
func (g *Game) Undo() error {
	if g.Finished {
		return ErrFinished
	}
	if len(g.Throws) == 0 {
		return ErrNoThrows
	}
	g.Throws = g.Throws[:len(g.Throws)-1]
	return nil
}

// Submit scores the current round and advances the game.
// An empty round is allowed and scores zero.
func (g *Game) Submit() (RoundRecord, error) {
	if g.Finished {
		return RoundRecord{}, ErrFinished
	}
	res := score.Calculate(g.Targets, g.Throws)
	rec := RoundRecord{
		Number:  g.Round,
		Targets: g.Targets,
		Throws:  append([]int(nil), g.Throws...),
		Result:  res,
		Failure: res.Score < g.Rules.PassScore,
	}
	g.History = append(g.History, rec)
	g.Total += res.Score
	if res.IsPerfectMatch {
		g.Perfects++
	}

	if g.Round >= g.Rules.Rounds {
		g.Finished = true
	} else {
		g.Round++
		g.Targets = g.draw()
	}
	g.Throws = []int{}
	return rec, nil
}

// Clone returns a copy that shares no slices with g.
func (g *Game) Clone() *Game {
	cp := *g
	cp.Throws = append([]int{}, g.Throws...)
	cp.History = append([]RoundRecord(nil), g.History...)
	for i := range cp.History {
		cp.History[i].Throws = append([]int(nil), g.History[i].Throws...)
	}
	return &cp
}

// State reports the current lifecycle state.
func (g *Game) State() State {
	if g.Finished {
		return StateFinished
	}
	return StatePlaying
}
