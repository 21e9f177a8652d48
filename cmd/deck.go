package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arcanaland/concentration/internal/config"
	"github.com/arcanaland/concentration/internal/deck"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// deckCmd represents the deck command group
var deckCmd = &cobra.Command{
	Use:   "deck",
	Short: "Manage picture decks in your deck library",
	Long:  `Commands for managing picture decks in your deck library.`,
}

// deckListCmd represents the deck list command
var deckListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List available decks in your deck library",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaultDeck, err := config.GetDefaultDeck()
		if err != nil {
			return fmt.Errorf("error getting default deck: %w", err)
		}

		printDeckLine(cmd, deck.BuiltinID, deck.Builtin(), defaultDeck)

		libraryPath := config.GetDeckLibraryPath()
		if _, err := os.Stat(libraryPath); os.IsNotExist(err) {
			fmt.Fprintf(cmd.OutOrStdout(), "\nDeck library at %s does not exist.\n", libraryPath)
			fmt.Fprintln(cmd.OutOrStdout(), "Run 'concentration deck init' to create it.")
			return nil
		}

		libraryPath, err = filepath.EvalSymlinks(libraryPath)
		if err != nil {
			return fmt.Errorf("error resolving symbolic link: %w", err)
		}

		entries, err := os.ReadDir(libraryPath)
		if err != nil {
			return fmt.Errorf("error reading deck library: %w", err)
		}

		for _, entry := range entries {
			// Resolve the symbolic link or regular entry
			entryPath := filepath.Join(libraryPath, entry.Name())
			fileInfo, err := os.Stat(entryPath)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Error resolving entry %s: %v\n", entry.Name(), err)
				continue
			}
			if !fileInfo.IsDir() {
				continue
			}

			d, err := deck.LoadDeck(entryPath)
			if err != nil {
				// Not a valid deck, skip
				logger.Debug("skipping library entry", zap.String("path", entryPath), zap.Error(err))
				continue
			}
			printDeckLine(cmd, entry.Name(), d, defaultDeck)
		}
		return nil
	},
}

func printDeckLine(cmd *cobra.Command, name string, d *deck.Deck, defaultDeck string) {
	marker, suffix := "  ", ""
	if name == defaultDeck {
		marker, suffix = "* ", " [DEFAULT]"
	}
	tags := ""
	if t := d.Tags(); len(t) > 0 {
		tags = " #" + strings.Join(t, " #")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s%s (%s, %d pictures)%s%s\n", marker, name, d.Name, d.Len(), tags, suffix)
}

// deckSetDefaultCmd represents the deck set-default command
var deckSetDefaultCmd = &cobra.Command{
	Use:   "set-default [deck_name]",
	Short: "Set the default deck",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deckName := args[0]

		// Try to load the deck to make sure it's valid
		if _, err := resolveDeck(deckName); err != nil {
			return fmt.Errorf("not a valid deck: %w", err)
		}

		if err := config.SetDefaultDeck(deckName); err != nil {
			return fmt.Errorf("error setting default deck: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Default deck set to: %s\n", deckName)
		return nil
	},
}

// deckInitCmd represents the deck init command
var deckInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the deck library",
	RunE: func(cmd *cobra.Command, args []string) error {
		libraryPath := config.GetDeckLibraryPath()

		if err := os.MkdirAll(libraryPath, 0755); err != nil {
			return fmt.Errorf("error creating deck library: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Deck library initialized at:", libraryPath)
		fmt.Fprintln(cmd.OutOrStdout(), "You can now add decks by copying them to this directory.")

		// Initialize config
		if _, err := config.LoadConfig(); err != nil {
			return fmt.Errorf("error initializing config: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Config file initialized at:", config.GetConfigFilePath())
		return nil
	},
}

// resolveDeck loads a deck by library name or path. An empty name means the
// configured default.
func resolveDeck(name string) (*deck.Deck, error) {
	if name == "" {
		defaultDeck, err := config.GetDefaultDeck()
		if err != nil {
			return nil, fmt.Errorf("error getting default deck: %w", err)
		}
		name = defaultDeck
	}

	if name == deck.BuiltinID {
		return deck.Builtin(), nil
	}

	deckPath, err := config.GetDeckPath(name)
	if err != nil {
		return nil, err
	}

	d, err := deck.LoadDeck(deckPath)
	if err != nil {
		return nil, fmt.Errorf("error loading deck: %w", err)
	}
	return d, nil
}

func init() {
	RootCmd.AddCommand(deckCmd)
	deckCmd.AddCommand(deckListCmd)
	deckCmd.AddCommand(deckSetDefaultCmd)
	deckCmd.AddCommand(deckInitCmd)
}
