package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arcanaland/concentration/internal/art"
	"github.com/arcanaland/concentration/internal/config"
	"github.com/arcanaland/concentration/internal/deck"
)

var showCmd = &cobra.Command{
	Use:   "show [picture_id]",
	Short: "Display a picture from a deck with ANSI art",
	Long: `Show displays one picture of a deck as ANSI terminal art, with its name
and description.

You can specify a deck using the --deck flag, which will look for the deck
in your deck library (XDG_DATA_HOME/concentration/decks) or as a relative path.
If no deck is specified, the default deck from your config will be used.

Examples:
  concentration show dog-1
  concentration show --deck cats tabby
  concentration show --deck ./custom-deck owl`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deckFlag, _ := cmd.Flags().GetString("deck")

		d, err := resolveDeck(deckFlag)
		if err != nil {
			return err
		}

		img, err := d.GetImage(args[0])
		if err != nil {
			return fmt.Errorf("error getting picture: %w", err)
		}

		ansiArt := ""
		if img.File != "" {
			r := art.NewRenderer(filepath.Join(config.GetCacheDir(), "ansi_cache"), 40, 20)
			ansiArt, err = r.RenderFile(img.File)
			if err != nil {
				return fmt.Errorf("error rendering picture: %w", err)
			}
		}

		displayImage(cmd.OutOrStdout(), img, ansiArt, d.Name, terminalWidth())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(showCmd)

	showCmd.Flags().StringP("deck", "d", "", "Specify a deck from your deck library or a path to a deck")
}

// terminalWidth returns the width of stdout, or 80 when it is not a terminal
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// wrapText wraps text to a specified width
func wrapText(text string, width int) []string {
	// Ensure width is reasonable
	if width < 10 {
		width = 40
	}

	var result []string
	var currentLine string
	words := strings.Fields(text)

	if len(words) == 0 {
		return []string{""}
	}

	for _, word := range words {
		if len(currentLine) == 0 {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= width {
			currentLine += " " + word
		} else {
			result = append(result, currentLine)
			currentLine = word
		}
	}

	if currentLine != "" {
		result = append(result, currentLine)
	}

	return result
}

// displayImage prints the ANSI art on the left and the picture details on the right
func displayImage(w io.Writer, img *deck.Image, ansiArt, deckName string, width int) {
	maxAnsiWidth := 0
	for _, line := range strings.Split(ansiArt, "\n") {
		maxAnsiWidth = max(maxAnsiWidth, art.VisibleWidth(line))
	}

	var infoLines []string
	infoLines = append(infoLines, colorize.CyanString("Picture: ")+colorize.HiWhiteString("%s", img.Name))
	infoLines = append(infoLines, colorize.CyanString("Deck:    ")+colorize.HiWhiteString("%s", deckName))
	infoLines = append(infoLines, colorize.CyanString("ID:      ")+colorize.HiWhiteString("%s", img.ID))

	// Calculate available width for text, ensuring it's at least 20 characters
	infoWidth := width - maxAnsiWidth - 6
	if infoWidth < 20 {
		infoWidth = 20
	}

	if img.AltText != "" {
		infoLines = append(infoLines, "")
		infoLines = append(infoLines, colorize.CyanString("Description:"))
		infoLines = append(infoLines, wrapText(img.AltText, infoWidth)...)
	}

	info := strings.Join(infoLines, "\n")

	fmt.Fprintln(w)
	if ansiArt == "" {
		fmt.Fprint(w, indent(info, "  "))
	} else {
		fmt.Fprint(w, indent(art.SideBySide(4, ansiArt, info), "  "))
	}
	fmt.Fprintln(w)
}

// indent prefixes every line of s
func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n") + "\n"
}
