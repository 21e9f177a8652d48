package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

const appName = "concentration"

// Config represents the application configuration
type Config struct {
	DefaultDeck string     `toml:"default_deck" env:"CONCENTRATION_DEFAULT_DECK"`
	Game        GameConfig `toml:"game"`
}

// GameConfig holds the rules of a game
type GameConfig struct {
	MaxFailed     int    `toml:"max_failed" env:"CONCENTRATION_MAX_FAILED"`
	Pairs         int    `toml:"pairs" env:"CONCENTRATION_PAIRS"`
	MismatchDelay string `toml:"mismatch_delay" env:"CONCENTRATION_MISMATCH_DELAY"`
}

// Default returns the configuration written on first run
func Default() *Config {
	return &Config{
		DefaultDeck: "builtin",
		Game: GameConfig{
			MaxFailed:     5,
			Pairs:         6,
			MismatchDelay: "1s",
		},
	}
}

// Delay parses MismatchDelay
func (g GameConfig) Delay() (time.Duration, error) {
	d, err := time.ParseDuration(g.MismatchDelay)
	if err != nil {
		return 0, fmt.Errorf("invalid mismatch_delay %q: %w", g.MismatchDelay, err)
	}
	return d, nil
}

// Validate checks the game settings
func (c *Config) Validate() error {
	if c.Game.MaxFailed <= 0 {
		return fmt.Errorf("game.max_failed must be positive, got %d", c.Game.MaxFailed)
	}
	if c.Game.Pairs < 0 {
		return fmt.Errorf("game.pairs must not be negative, got %d", c.Game.Pairs)
	}
	d, err := c.Game.Delay()
	if err != nil {
		return err
	}
	if d < 0 {
		return fmt.Errorf("game.mismatch_delay must not be negative, got %s", d)
	}
	return nil
}

// GetXDGDataHome returns XDG_DATA_HOME or default path
func GetXDGDataHome() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return xdgData
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".local", "share")
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or default path
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetXDGCacheHome returns XDG_CACHE_HOME or default path
func GetXDGCacheHome() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return xdgCache
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".cache")
}

// GetDeckLibraryPath returns the path to the deck library
func GetDeckLibraryPath() string {
	return filepath.Join(GetXDGDataHome(), appName, "decks")
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() string {
	return filepath.Join(GetXDGConfigHome(), appName, "config.toml")
}

// GetCacheDir returns the directory for generated files
func GetCacheDir() string {
	return filepath.Join(GetXDGCacheHome(), appName)
}

// GetLogFilePath returns the path of the log file
func GetLogFilePath() string {
	return filepath.Join(GetCacheDir(), appName+".log")
}

// LoadConfig loads the config file and applies environment overrides
func LoadConfig() (*Config, error) {
	configPath := GetConfigFilePath()

	var config *Config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Create default config if it doesn't exist
		config, err = createDefaultConfig()
		if err != nil {
			return nil, err
		}
	} else {
		config = Default()
		if _, err := toml.DecodeFile(configPath, config); err != nil {
			return nil, fmt.Errorf("error decoding config file: %w", err)
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return config, nil
}

// createDefaultConfig creates a default config file
func createDefaultConfig() (*Config, error) {
	config := Default()
	if err := saveConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func saveConfig(config *Config) error {
	configPath := GetConfigFilePath()

	// Ensure the config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("error opening config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	return nil
}

// GetDeckPath returns the path to a deck, either in the deck library or a relative path
func GetDeckPath(deckName string) (string, error) {
	// First, try to find the deck in the deck library
	deckPath := filepath.Join(GetDeckLibraryPath(), deckName)
	if _, err := os.Stat(deckPath); err == nil {
		return deckPath, nil
	}

	// If not found in the library, treat as a relative path
	if _, err := os.Stat(deckName); err == nil {
		return deckName, nil
	}

	return "", fmt.Errorf("deck not found: %s", deckName)
}

// GetDefaultDeck returns the default deck name from config
func GetDefaultDeck() (string, error) {
	config, err := LoadConfig()
	if err != nil {
		return "", err
	}

	return config.DefaultDeck, nil
}

// SetDefaultDeck sets the default deck in the config file
func SetDefaultDeck(deckName string) error {
	configPath := GetConfigFilePath()

	// Update the file as written, without environment overrides
	config := Default()
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, config); err != nil {
			return fmt.Errorf("error decoding config file: %w", err)
		}
	}

	config.DefaultDeck = deckName
	return saveConfig(config)
}
