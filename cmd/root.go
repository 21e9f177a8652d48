package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arcanaland/concentration/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool
	logger  = zap.NewNop()
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "concentration",
	Short: "A card-matching memory game for the terminal",
	Long: `Concentration deals a shuffled grid of face-down cards, two of each picture.
Turn over two cards at a time and find every pair before you run out of mistakes.

Picture decks live in your deck library (XDG_DATA_HOME/concentration/decks);
a builtin deck is used when none is configured.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Log to a file so the game screen stays clean
		logPath := config.GetLogFilePath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{logPath}
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l.With(zap.String("command", cmd.Name()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Write debug logs to "+config.GetLogFilePath())
	RootCmd.AddCommand(validateCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}
