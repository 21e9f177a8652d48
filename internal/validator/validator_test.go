package validator

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

const validDeck = `
[deck]
id = "cats"
name = "Cats"
version = "1.0.0"
schema_version = "1.0"
card_back = "back.png"

[[images]]
id = "tabby"
file = "images/tabby.png"
alt_text = "A striped cat"

[[images]]
id = "siamese"
file = "images/siamese.png"
alt_text = "A pale cat"
`

func TestValidateValidDeck(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "deck.toml"), validDeck)
	writePNG(t, filepath.Join(dir, "back.png"))
	writePNG(t, filepath.Join(dir, "images", "tabby.png"))
	writePNG(t, filepath.Join(dir, "images", "siamese.png"))

	results, err := NewValidator(dir).Validate()
	require.NoError(t, err)
	assert.Empty(t, results.Errors)
	assert.Empty(t, results.Warnings)
}

func TestValidateReportsProblems(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "deck.toml"), `
[deck]
id = "broken"
schema_version = "2.0"

[[images]]
id = "a"
file = "a.png"

[[images]]
id = "a"
file = "a.png"

[[images]]
id = "b"
file = "missing.png"

[[images]]
id = "c"
file = "c.svg"
alt_text = "vector"

[[images]]
id = "d"
file = "d.png"
alt_text = "not really a png"
`)
	writePNG(t, filepath.Join(dir, "a.png"))
	writeFile(t, filepath.Join(dir, "c.svg"), "<svg/>")
	writeFile(t, filepath.Join(dir, "d.png"), "garbage")

	v := NewValidator(dir)
	v.MinImages = 6
	results, err := v.Validate()
	require.NoError(t, err)

	assert.Contains(t, results.Errors, "deck.name is required in deck.toml")
	assert.Contains(t, results.Errors, "deck.version is required in deck.toml")
	assert.Contains(t, results.Errors, "unsupported schema_version: 2.0 (supported: 1.0)")
	assert.Contains(t, results.Errors, "deck has 5 images, the configured game needs 6")
	assert.Contains(t, results.Errors, `duplicate image id "a" (entries 1 and 2)`)
	assert.Contains(t, results.Errors, "images a and a share file a.png; every image must be distinct")
	assert.Contains(t, results.Errors, "image b not found: missing.png")
	assertContainsPrefix(t, results.Errors, "image d: cannot decode d.png")

	assert.Contains(t, results.Warnings, "no card_back declared; a plain back will be drawn")
	assert.Contains(t, results.Warnings, "missing alt_text for images: a, a, b")
	assertContainsPrefix(t, results.Warnings, "image c: c.svg is not a raster format")
}

func TestValidateMissingDeckToml(t *testing.T) {
	_, err := NewValidator(t.TempDir()).Validate()
	assert.Error(t, err)
}

func TestValidateNoImages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "deck.toml"), "[deck]\nid = \"x\"\nname = \"X\"\nversion = \"1\"\nschema_version = \"1.0\"\n")

	results, err := NewValidator(dir).Validate()
	require.NoError(t, err)
	assert.Contains(t, results.Errors, "no [[images]] entries in deck.toml")
}

func assertContainsPrefix(t *testing.T, list []string, prefix string) {
	t.Helper()
	for _, s := range list {
		if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
			return
		}
	}
	t.Errorf("no entry with prefix %q in %v", prefix, list)
}
