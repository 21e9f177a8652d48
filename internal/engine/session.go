package engine

import "github.com/arcanaland/concentration/internal/card"

// Effect describes what an activation did to the session.
type Effect int

const (
	// EffectIgnored means the activation was a no-op: game over, unknown id,
	// locked card, or a mismatch still waiting to be turned back.
	EffectIgnored Effect = iota
	// EffectFirstPick means the card was turned over as the first of a pair.
	EffectFirstPick
	// EffectMatch means the card completed a matching pair.
	EffectMatch
	// EffectMismatch means the card completed a non-matching pair; both cards
	// stay face up until the mismatch delay elapses.
	EffectMismatch
)

func (e Effect) String() string {
	switch e {
	case EffectIgnored:
		return "ignored"
	case EffectFirstPick:
		return "first_pick"
	case EffectMatch:
		return "match"
	case EffectMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// session is one game: a deck, the pending selection and both counters.
// It is replaced wholesale on reset.
type session struct {
	generation uint64
	deck       []card.Card
	index      map[string]int // card id -> deck position
	selection  []int          // deck positions, at most two
	failed     int
	matched    int
}

func newSession(generation uint64, deck []card.Card) *session {
	index := make(map[string]int, len(deck))
	for i, c := range deck {
		index[c.ID] = i
	}
	return &session{
		generation: generation,
		deck:       deck,
		index:      index,
		selection:  make([]int, 0, 2),
	}
}

// activate turns the card over and, once a pair is selected, judges it.
// A mismatch leaves the selection in place; resolveMismatch clears it.
func (s *session) activate(id string, maxFailed int) Effect {
	if s.failed >= maxFailed {
		return EffectIgnored
	}
	i, ok := s.index[id]
	if !ok {
		return EffectIgnored
	}
	if !s.deck[i].Selectable() || len(s.selection) == 2 {
		return EffectIgnored
	}

	s.deck[i].FaceUp = true
	s.deck[i].Locked = true
	s.selection = append(s.selection, i)

	if len(s.selection) == 1 {
		return EffectFirstPick
	}
	return s.judge()
}

func (s *session) judge() Effect {
	a, b := &s.deck[s.selection[0]], &s.deck[s.selection[1]]
	if a.Image != b.Image {
		return EffectMismatch
	}

	for _, c := range []*card.Card{a, b} {
		c.Matched = true
		c.Locked = true
		c.FaceUp = true
	}
	s.matched++
	s.selection = s.selection[:0]
	return EffectMatch
}

// resolveMismatch turns the pending pair back face down.
func (s *session) resolveMismatch() {
	for _, i := range s.selection {
		s.deck[i].FaceUp = false
		s.deck[i].Locked = false
	}
	s.failed++
	s.selection = s.selection[:0]
}

func (s *session) resolving() bool {
	return len(s.selection) == 2
}

func (s *session) pendingIDs() []string {
	ids := make([]string, len(s.selection))
	for n, i := range s.selection {
		ids[n] = s.deck[i].ID
	}
	return ids
}
