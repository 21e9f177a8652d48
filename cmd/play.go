package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arcanaland/concentration/internal/art"
	"github.com/arcanaland/concentration/internal/board"
	"github.com/arcanaland/concentration/internal/config"
	"github.com/arcanaland/concentration/internal/deck"
	"github.com/arcanaland/concentration/internal/engine"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a game",
	Long: `Play deals a new game in the terminal.

Type the number of a card to turn it over, 'n' for a new game or 'q' to quit.
A mismatched pair stays visible for the mismatch delay, then turns back.

Examples:
  concentration play
  concentration play --deck cats --art
  concentration play --max-failed 8 --delay 2s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		deckFlag, _ := flags.GetString("deck")

		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		d, err := resolveDeck(deckFlag)
		if err != nil {
			return err
		}

		rules, err := gameRules(cfg.Game, d.Len())
		if err != nil {
			return err
		}
		if flags.Changed("max-failed") {
			rules.MaxFailed, _ = flags.GetInt("max-failed")
		}
		if flags.Changed("pairs") {
			rules.Pairs, _ = flags.GetInt("pairs")
		}
		if flags.Changed("delay") {
			rules.MismatchDelay, _ = flags.GetDuration("delay")
		}

		opts := playOptions{width: terminalWidth()}
		if showArt, _ := flags.GetBool("art"); showArt {
			opts.art = art.NewRenderer(filepath.Join(config.GetCacheDir(), "ansi_cache"), 16, 8)
		}

		logger.Info("starting game",
			zap.String("deck", d.ID),
			zap.Int("max_failed", rules.MaxFailed),
			zap.Int("pairs", rules.Pairs),
			zap.Duration("mismatch_delay", rules.MismatchDelay))

		return runGame(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), d, rules, opts)
	},
}

func init() {
	RootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("deck", "d", "", "Specify a deck from your deck library or a path to a deck")
	playCmd.Flags().Bool("art", false, "Show turned pairs as ANSI art")
	playCmd.Flags().Int("max-failed", 0, "Mistakes allowed before the game is over (overrides config)")
	playCmd.Flags().Int("pairs", 0, "Pairs to find to win (overrides config)")
	playCmd.Flags().Duration("delay", 0, "How long a mismatched pair stays visible (overrides config)")
}

// gameRules converts the configured game settings into engine rules for a
// deck of n pictures. A pairs setting larger than the deck is capped.
func gameRules(g config.GameConfig, n int) (engine.Config, error) {
	delay, err := g.Delay()
	if err != nil {
		return engine.Config{}, err
	}
	rules := engine.Config{
		MismatchDelay: delay,
		MaxFailed:     g.MaxFailed,
		Pairs:         g.Pairs,
	}
	if rules.Pairs > n {
		rules.Pairs = n
	}
	return rules, nil
}

type playOptions struct {
	width  int
	art    *art.Renderer // nil disables art
	engine []engine.Option
}

// runGame plays until the input ends, the user quits or ctx is cancelled.
func runGame(ctx context.Context, in io.Reader, out io.Writer, d *deck.Deck, rules engine.Config, opts playOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes := make(chan engine.Snapshot, 16)
	engineOpts := append([]engine.Option{
		engine.WithLogger(logger),
		engine.WithOnChange(func(s engine.Snapshot) {
			// Only the latest state matters; drop if the UI is behind
			select {
			case changes <- s:
			default:
			}
		}),
	}, opts.engine...)

	eng, err := engine.New(d.Images(), rules, engineOpts...)
	if err != nil {
		return fmt.Errorf("error starting game: %w", err)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	g := &game{eng: eng, deck: d, out: out, opts: opts}
	g.draw(eng.Snapshot())

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-changes:
			g.draw(latest(snap, changes))
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := g.handle(line); quit {
				fmt.Fprintln(out, "Bye!")
				return nil
			}
			select {
			case snap := <-changes:
				g.draw(latest(snap, changes))
			default:
			}
		}
	}
}

// latest drains queued snapshots and returns the newest one.
func latest(snap engine.Snapshot, changes <-chan engine.Snapshot) engine.Snapshot {
	for {
		select {
		case s := <-changes:
			snap = s
		default:
			return snap
		}
	}
}

type game struct {
	eng       *engine.Engine
	deck      *deck.Deck
	out       io.Writer
	opts      playOptions
	firstPick string
}

// handle processes one line of input and reports whether to quit.
func (g *game) handle(line string) bool {
	switch strings.ToLower(line) {
	case "":
		return false
	case "q", "quit", "exit":
		return true
	case "n", "new":
		g.firstPick = ""
		g.eng.NewGame()
		return false
	}

	snap := g.eng.Snapshot()
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(snap.Deck) {
		fmt.Fprintf(g.out, "Type a card number between 1 and %d, 'n' for a new game or 'q' to quit.\n", len(snap.Deck))
		return false
	}

	c := snap.Deck[n-1]
	switch effect := g.eng.ActivateCard(c.ID); effect {
	case engine.EffectIgnored:
		switch {
		case snap.Lost():
			fmt.Fprintln(g.out, colorize.RedString("The game is over. Type 'n' to start a new one."))
		case snap.Resolving():
			fmt.Fprintln(g.out, "Wait for the cards to turn back.")
		default:
			fmt.Fprintf(g.out, "Card %d is already turned over.\n", n)
		}
	case engine.EffectFirstPick:
		g.firstPick = c.ID
	case engine.EffectMatch, engine.EffectMismatch:
		g.showPair(g.firstPick, c.ID)
		g.firstPick = ""
	}
	return false
}

func (g *game) draw(snap engine.Snapshot) {
	fmt.Fprintln(g.out)
	board.Render(g.out, snap, g.deck, g.opts.width)
}

// showPair prints the art of the two turned cards, when art is enabled and
// both pictures have files.
func (g *game) showPair(a, b string) {
	if g.opts.art == nil {
		return
	}

	var blocks []string
	snap := g.eng.Snapshot()
	for _, id := range []string{a, b} {
		for _, c := range snap.Deck {
			if c.ID != id {
				continue
			}
			img, err := g.deck.GetImage(string(c.Image))
			if err != nil || img.File == "" {
				return
			}
			block, err := g.opts.art.RenderFile(img.File)
			if err != nil {
				logger.Warn("cannot render picture", zap.String("file", img.File), zap.Error(err))
				return
			}
			blocks = append(blocks, block)
		}
	}
	if len(blocks) == 2 {
		fmt.Fprint(g.out, art.SideBySide(4, blocks...))
	}
}
