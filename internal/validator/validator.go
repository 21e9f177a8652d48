package validator

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/arcanaland/concentration/internal/deck"
)

// SupportedSchemaVersion is the deck.toml schema this tool understands.
const SupportedSchemaVersion = "1.0"

// renderableExtensions can be decoded into ANSI art.
var renderableExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}

type ValidationResults struct {
	Errors   []string
	Warnings []string
}

type Validator struct {
	DeckPath string
	// MinImages is the number of images a game needs. Zero skips the check.
	MinImages int
	Results   ValidationResults
}

func NewValidator(deckPath string) *Validator {
	return &Validator{
		DeckPath: deckPath,
		Results:  ValidationResults{},
	}
}

func (v *Validator) Validate() (ValidationResults, error) {
	config, err := v.validateDeckToml()
	if err != nil {
		return v.Results, err
	}

	v.validateCardBack(config)
	v.validateImages(config)

	return v.Results, nil
}

func (v *Validator) errorf(format string, args ...any) {
	v.Results.Errors = append(v.Results.Errors, fmt.Sprintf(format, args...))
}

func (v *Validator) warnf(format string, args ...any) {
	v.Results.Warnings = append(v.Results.Warnings, fmt.Sprintf(format, args...))
}

func (v *Validator) validateDeckToml() (*deck.DeckConfig, error) {
	deckTomlPath := filepath.Join(v.DeckPath, "deck.toml")
	if _, err := os.Stat(deckTomlPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("deck.toml not found in %s", v.DeckPath)
	}

	var deckConfig deck.DeckConfig
	if _, err := toml.DecodeFile(deckTomlPath, &deckConfig); err != nil {
		return nil, fmt.Errorf("error parsing deck.toml: %w", err)
	}

	if deckConfig.Deck.ID == "" {
		v.errorf("deck.id is required in deck.toml")
	}

	if deckConfig.Deck.Name == "" {
		v.errorf("deck.name is required in deck.toml")
	}

	if deckConfig.Deck.Version == "" {
		v.errorf("deck.version is required in deck.toml")
	}

	if deckConfig.Deck.SchemaVersion == "" {
		v.errorf("deck.schema_version is required in deck.toml")
	} else if deckConfig.Deck.SchemaVersion != SupportedSchemaVersion {
		v.errorf("unsupported schema_version: %s (supported: %s)",
			deckConfig.Deck.SchemaVersion, SupportedSchemaVersion)
	}

	return &deckConfig, nil
}

// validateCardBack checks the card back image, if one is declared
func (v *Validator) validateCardBack(config *deck.DeckConfig) {
	if config.Deck.CardBack == "" {
		v.warnf("no card_back declared; a plain back will be drawn")
		return
	}

	v.checkImageFile("card back", config.Deck.CardBack)
}

// validateImages checks the [[images]] entries
func (v *Validator) validateImages(config *deck.DeckConfig) {
	if len(config.Images) == 0 {
		v.errorf("no [[images]] entries in deck.toml")
		return
	}

	if v.MinImages > 0 && len(config.Images) < v.MinImages {
		v.errorf("deck has %d images, the configured game needs %d", len(config.Images), v.MinImages)
	}

	ids := make(map[string]int)
	files := make(map[string]string)
	missingAltText := []string{}

	for i, img := range config.Images {
		label := img.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
			v.errorf("images[%d].id is required", i)
		} else if prev, dup := ids[img.ID]; dup {
			v.errorf("duplicate image id %q (entries %d and %d)", img.ID, prev+1, i+1)
		} else {
			ids[img.ID] = i
		}

		if img.File == "" {
			v.errorf("image %s: file is required", label)
		} else {
			clean := filepath.Clean(img.File)
			if other, dup := files[clean]; dup {
				v.errorf("images %s and %s share file %s; every image must be distinct", other, label, img.File)
			} else {
				files[clean] = label
			}
			v.checkImageFile("image "+label, img.File)
		}

		if img.AltText == "" {
			missingAltText = append(missingAltText, label)
		}
	}

	if len(missingAltText) > 0 {
		v.warnf("missing alt_text for images: %s", strings.Join(missingAltText, ", "))
	}
}

// checkImageFile verifies that a deck-relative image exists and decodes
func (v *Validator) checkImageFile(what, rel string) {
	path := filepath.Join(v.DeckPath, rel)
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		v.errorf("%s not found: %s", what, rel)
		return
	} else if err != nil {
		v.errorf("%s: error opening %s: %v", what, rel, err)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(rel))
	if !contains(renderableExtensions, ext) {
		v.warnf("%s: %s is not a raster format (%s); it cannot be shown as art",
			what, rel, strings.Join(renderableExtensions, ", "))
		return
	}

	if _, _, err := image.DecodeConfig(file); err != nil {
		v.errorf("%s: cannot decode %s: %v", what, rel, err)
	}
}

// contains checks if a string is in a slice
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
