// apps/go-server/internal/narration/narration.go
//
// Round narration: the short phrase the client reads aloud after scoring.
// Responsibilities:
//   - Prefix failed rounds with a random insult (or a caller prefix).
//   - Append the score and an optional suffix; 69 gets ", nice!".
//   - Swap the insult list at runtime after a rules reload.

package narration

import (
	"math/rand"
	"strconv"
	"sync"
	"time"
)

// niceScore gets a special suffix when no custom suffix is given.
const niceScore = 69

// DefaultInsults are prepended to failed rounds when no prefix is given.
var DefaultInsults = []string{
	"Ha ha ha, loser. Only threw ",
	"What a weakling! Only ",
	"Pathetic. Barely ",
	"And you call yourself a player? Only ",
	"Failure! Just ",
	"Can't you count? Only ",
	"My grandma throws better! Only ",
	"What a disaster! Only ",
	"That's not how you win! Only ",
	"No chance! Merely ",
}

// Options tweak a single phrase.
type Options struct {
	IsFailure bool
	Prefix    string
	Suffix    string
}

// Narrator picks insults from its list. It is safe for concurrent use.
type Narrator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	insults []string
}

// New returns a Narrator with the given insults and RNG seed. An empty list
// falls back to DefaultInsults.
func New(insults []string, seed int64) *Narrator {
	n := &Narrator{rng: rand.New(rand.NewSource(seed))}
	n.SetInsults(insults)
	return n
}

// Default returns a Narrator with the built-in insults, seeded from the clock.
func Default() *Narrator {
	return New(nil, time.Now().UnixNano())
}

// SetInsults swaps the insult list, e.g. after a rules reload.
func (n *Narrator) SetInsults(insults []string) {
	if len(insults) == 0 {
		insults = DefaultInsults
	}
	cp := append([]string(nil), insults...)
	n.mu.Lock()
	n.insults = cp
	n.mu.Unlock()
}

// Phrase composes prefix (or a random insult on failure), the score and
// the suffix. A score of 69 without a custom suffix ends in ", nice!".
func (n *Narrator) Phrase(score int, opts Options) string {
	var msg string
	switch {
	case opts.Prefix != "":
		msg = opts.Prefix
	case opts.IsFailure:
		msg = n.insult()
	}

	msg += strconv.Itoa(score)

	if score == niceScore && opts.Suffix == "" {
		msg += ", nice!"
	} else if opts.Suffix != "" {
		msg += opts.Suffix
	}
	return msg
}

func (n *Narrator) insult() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.insults[n.rng.Intn(len(n.insults))]
}
