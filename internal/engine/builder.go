package engine

import (
	"math/rand/v2"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/arcanaland/concentration/internal/card"
)

// Rand is the source of random draws used to shuffle a deck.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// globalRand draws from the math/rand/v2 top-level source.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// IDSource hands out card identities. Implementations must never return the
// same value twice for the lifetime of an Engine.
type IDSource interface {
	NewID() string
}

// UUIDSource generates random v4 UUIDs.
type UUIDSource struct{}

func (UUIDSource) NewID() string { return uuid.NewString() }

// CounterSource generates "<prefix><n>" identities from a monotonically
// increasing counter. Useful when reproducible ids are wanted.
type CounterSource struct {
	Prefix string
	n      atomic.Uint64
}

func (c *CounterSource) NewID() string {
	return c.Prefix + strconv.FormatUint(c.n.Add(1), 10)
}

// BuildDeck doubles the image set, shuffles it and assigns every card a fresh
// identity. All flags start false. Duplicated references in images are not
// collapsed, so callers should pass distinct references.
func BuildDeck(images []card.ImageRef, rng Rand, ids IDSource) []card.Card {
	refs := make([]card.ImageRef, 0, len(images)*2)
	refs = append(refs, images...)
	refs = append(refs, images...)

	Shuffle(refs, rng)

	deck := make([]card.Card, len(refs))
	for i, ref := range refs {
		deck[i] = card.Card{
			ID:    ids.NewID(),
			Image: ref,
		}
	}
	return deck
}

// Shuffle permutes s in place, uniformly at random (Fisher-Yates).
// The window [left, len(s)-1] shrinks from the left; at each step a uniform
// index in the window is swapped into position left.
func Shuffle[T any](s []T, rng Rand) {
	for left := 0; left < len(s)-1; left++ {
		j := left + rng.IntN(len(s)-left)
		s[left], s[j] = s[j], s[left]
	}
}
