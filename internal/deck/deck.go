package deck

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/arcanaland/concentration/internal/card"
)

// ErrImageNotFound is returned by GetImage for an unknown image id.
var ErrImageNotFound = errors.New("image not found")

// BuiltinID is the id of the deck used when the library has none.
const BuiltinID = "builtin"

// Image is one picture of a deck. Every image becomes a pair of cards.
type Image struct {
	ID      string
	Name    string
	File    string // Absolute path, empty for the builtin deck
	AltText string
}

// Deck represents a set of images to play with
type Deck struct {
	ID          string
	Name        string
	Version     string
	Author      string
	Description string
	Path        string
	CardBack    string // Absolute path to the card back image, if any

	images []*Image
	byID   map[string]*Image

	// Raw config data
	config *DeckConfig
}

// LoadDeck loads an image deck from a directory
func LoadDeck(deckPath string) (*Deck, error) {
	// Check if deck.toml exists
	deckTomlPath := filepath.Join(deckPath, "deck.toml")
	if _, err := os.Stat(deckTomlPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("deck.toml not found in %s", deckPath)
	}

	// Decode deck.toml
	var config DeckConfig
	if _, err := toml.DecodeFile(deckTomlPath, &config); err != nil {
		return nil, fmt.Errorf("error parsing deck.toml: %w", err)
	}

	if len(config.Images) == 0 {
		return nil, fmt.Errorf("deck %s has no images", deckPath)
	}

	d := &Deck{
		ID:          config.Deck.ID,
		Name:        config.Deck.Name,
		Version:     config.Deck.Version,
		Author:      config.Deck.Author,
		Description: config.Deck.Description,
		Path:        deckPath,
		byID:        make(map[string]*Image, len(config.Images)),
		config:      &config,
	}
	if config.Deck.CardBack != "" {
		d.CardBack = filepath.Join(deckPath, config.Deck.CardBack)
	}

	for _, entry := range config.Images {
		if entry.ID == "" {
			return nil, fmt.Errorf("deck %s: image with empty id", deckPath)
		}
		if _, dup := d.byID[entry.ID]; dup {
			return nil, fmt.Errorf("deck %s: duplicate image id %q", deckPath, entry.ID)
		}

		img := &Image{
			ID:      entry.ID,
			Name:    entry.Name,
			AltText: entry.AltText,
		}
		if img.Name == "" {
			img.Name = entry.ID
		}
		if entry.File != "" {
			img.File = filepath.Join(deckPath, entry.File)
		}

		d.images = append(d.images, img)
		d.byID[img.ID] = img
	}

	return d, nil
}

// Builtin returns the six-dog deck shipped with the game. Its images have no
// files, so they are shown by name only.
func Builtin() *Deck {
	d := &Deck{
		ID:          BuiltinID,
		Name:        "Good Dogs",
		Version:     "1.0.0",
		Description: "Six dogs, two of each.",
		byID:        make(map[string]*Image),
	}
	names := []string{"Biscuit", "Pepper", "Rusty", "Mochi", "Ziggy", "Luna"}
	for i, name := range names {
		img := &Image{
			ID:   fmt.Sprintf("dog-%d", i+1),
			Name: name,
		}
		d.images = append(d.images, img)
		d.byID[img.ID] = img
	}
	return d
}

// Images returns the image references to build a game from, in deck order.
func (d *Deck) Images() []card.ImageRef {
	refs := make([]card.ImageRef, len(d.images))
	for i, img := range d.images {
		refs[i] = card.ImageRef(img.ID)
	}
	return refs
}

// Len returns the number of images.
func (d *Deck) Len() int {
	return len(d.images)
}

// GetImage gets an image by its id
func (d *Deck) GetImage(id string) (*Image, error) {
	img, ok := d.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrImageNotFound, id)
	}
	return img, nil
}

// Tags returns the tags declared in deck.toml.
func (d *Deck) Tags() []string {
	if d.config == nil {
		return nil
	}
	return d.config.Deck.Tags
}

// Label returns a short display name for an image reference.
func (d *Deck) Label(ref card.ImageRef) string {
	if img, ok := d.byID[string(ref)]; ok {
		return img.Name
	}
	return string(ref)
}

// Deck configuration structures
type DeckConfig struct {
	Deck   DeckSection    `toml:"deck"`
	Images []ImageSection `toml:"images"`
}

type DeckSection struct {
	ID            string   `toml:"id"`
	Name          string   `toml:"name"`
	Version       string   `toml:"version"`
	SchemaVersion string   `toml:"schema_version"`
	Author        string   `toml:"author"`
	License       string   `toml:"license"`
	Description   string   `toml:"description"`
	CardBack      string   `toml:"card_back"`
	Tags          []string `toml:"tags"`
}

type ImageSection struct {
	ID      string `toml:"id"`
	Name    string `toml:"name"`
	File    string `toml:"file"`
	AltText string `toml:"alt_text"`
}
