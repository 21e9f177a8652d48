// Package board draws a game snapshot as a numbered grid of cards.
package board

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/arcanaland/concentration/internal/card"
	"github.com/arcanaland/concentration/internal/engine"
)

// MaxColumns caps the grid width, like the four-column layout on wide screens.
const MaxColumns = 4

const hidden = "?"

// Labeler names the picture on a card.
type Labeler interface {
	Label(ref card.ImageRef) string
}

var (
	matchedStyle = color.New(color.FgGreen, color.Bold)
	pendingStyle = color.New(color.FgYellow, color.Bold)
	hiddenStyle  = color.New(color.FgHiBlack)
	numberStyle  = color.New(color.FgCyan)
	lostStyle    = color.New(color.FgRed, color.Bold)
	wonStyle     = color.New(color.FgGreen, color.Bold)
)

// Columns returns how many cells of cellWidth fit in termWidth, between 1 and
// MaxColumns.
func Columns(termWidth, cellWidth int) int {
	if cellWidth <= 0 {
		return MaxColumns
	}
	cols := termWidth / cellWidth
	return max(1, min(cols, MaxColumns))
}

// Render writes the grid followed by the status lines.
func Render(w io.Writer, snap engine.Snapshot, labels Labeler, termWidth int) {
	numWidth := len(fmt.Sprint(len(snap.Deck)))
	labelWidth := len(hidden)
	for _, c := range snap.Deck {
		labelWidth = max(labelWidth, len([]rune(labels.Label(c.Image))))
	}
	// "[ nn: label ]" plus one space between cells
	cellWidth := numWidth + labelWidth + 7
	cols := Columns(termWidth, cellWidth)

	for i, c := range snap.Deck {
		if i > 0 && i%cols == 0 {
			fmt.Fprintln(w)
		} else if i > 0 {
			fmt.Fprint(w, " ")
		}
		fmt.Fprint(w, cell(i+1, numWidth, labelWidth, c, labels))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	fmt.Fprintln(w, Status(snap))
}

func cell(n, numWidth, labelWidth int, c card.Card, labels Labeler) string {
	text := hidden
	style := hiddenStyle
	switch {
	case c.Matched:
		text, style = labels.Label(c.Image), matchedStyle
	case c.FaceUp:
		text, style = labels.Label(c.Image), pendingStyle
	}
	pad := strings.Repeat(" ", labelWidth-len([]rune(text)))
	return fmt.Sprintf("[ %s: %s%s ]", numberStyle.Sprintf("%*d", numWidth, n), style.Sprint(text), pad)
}

// Status returns the counters line and, once the game is decided, a banner.
func Status(snap engine.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Failed: %d / %d   Matched: %d / %d", snap.Failed, snap.MaxFailed, snap.Matched, snap.Pairs)
	if snap.Lost() {
		b.WriteString("\n")
		b.WriteString(lostStyle.Sprint("Game Over !!! Start a new game !!!"))
	}
	if snap.Won() {
		b.WriteString("\n")
		b.WriteString(wonStyle.Sprint("Good game !!! Start a new one !!!"))
	}
	return b.String()
}
