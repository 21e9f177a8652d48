package card

// ImageRef identifies the picture printed on a card. Two cards of a pair
// share the same ImageRef.
type ImageRef string

// Card represents one tile on the table
type Card struct {
	ID      string   // Unique per card instance, never equal to Image
	Image   ImageRef // Picture shared with the card's twin
	FaceUp  bool     // Currently revealed
	Locked  bool     // Not selectable (matched, or pending judgement)
	Matched bool     // Permanently resolved as part of a pair
}

// Selectable reports whether the card can be turned over.
func (c Card) Selectable() bool {
	return !c.Locked
}
