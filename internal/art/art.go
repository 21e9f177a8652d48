// Package art turns card images into ANSI half-block art.
package art

import (
	"crypto/md5"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
)

// Renderer converts image files to ANSI art and caches the result.
type Renderer struct {
	CacheDir  string // Empty disables caching
	Width     int    // Columns
	Height    int    // Rows
	TrueColor bool
}

// NewRenderer returns a 24-bit colour renderer of the given size.
func NewRenderer(cacheDir string, width, height int) *Renderer {
	return &Renderer{
		CacheDir:  cacheDir,
		Width:     width,
		Height:    height,
		TrueColor: true,
	}
}

// RenderFile returns the ANSI art for an image file
func (r *Renderer) RenderFile(imagePath string) (string, error) {
	cachePath := ""
	if r.CacheDir != "" {
		if err := os.MkdirAll(r.CacheDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create ANSI cache directory: %w", err)
		}
		// Create a cache filename based on the image path and size
		key := fmt.Sprintf("%s:%dx%d:%t", imagePath, r.Width, r.Height, r.TrueColor)
		cachePath = filepath.Join(r.CacheDir, fmt.Sprintf("%x.ansi", md5.Sum([]byte(key))))

		// Check if we already have a cached version
		if data, err := os.ReadFile(cachePath); err == nil {
			return string(data), nil
		}
	}

	file, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	ansiArt := r.Render(img)

	if cachePath != "" {
		if err := os.WriteFile(cachePath, []byte(ansiArt), 0644); err != nil {
			return "", fmt.Errorf("failed to write ANSI art to file: %w", err)
		}
	}

	return ansiArt, nil
}

// Render converts an image to ANSI art, one line per row
func (r *Renderer) Render(img image.Image) string {
	width, height := r.Width, r.Height

	// Resize image to desired dimensions (doubled for half-block characters)
	resized := resize.Resize(uint(width*2), uint(height*2), img, resize.Lanczos3)

	var buffer strings.Builder
	for y := 0; y < height*2; y += 2 {
		for x := 0; x < width*2; x += 2 {
			// Top pixels as foreground, bottom pixels as background
			col1, _ := colorful.MakeColor(getColorAt(resized, x, y))
			col2, _ := colorful.MakeColor(getColorAt(resized, x+1, y))
			col3, _ := colorful.MakeColor(getColorAt(resized, x, y+1))
			col4, _ := colorful.MakeColor(getColorAt(resized, x+1, y+1))

			fg := colorfulToColor(averageColor(col1, col2))
			bg := colorfulToColor(averageColor(col3, col4))

			buffer.WriteString(ansiColorString('▀', fg, bg, r.TrueColor))
		}
		buffer.WriteString("\n")
	}

	return buffer.String()
}

// getColorAt returns the color at a specific coordinate
func getColorAt(img image.Image, x, y int) color.Color {
	bounds := img.Bounds()
	if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
		return img.At(x, y)
	}
	return color.RGBA{0, 0, 0, 255} // Black for out-of-bounds
}

// averageColor calculates the average of multiple colors
func averageColor(colors ...colorful.Color) colorful.Color {
	var r, g, b float64
	for _, c := range colors {
		r += c.R
		g += c.G
		b += c.B
	}
	count := float64(len(colors))
	return colorful.Color{R: r / count, G: g / count, B: b / count}
}

// colorfulToColor converts a colorful.Color to a standard color.Color
func colorfulToColor(c colorful.Color) color.Color {
	c = c.Clamped()
	return color.RGBA{
		R: uint8(c.R * 255),
		G: uint8(c.G * 255),
		B: uint8(c.B * 255),
		A: 255,
	}
}

// ansiColorString formats a character with ANSI color codes
func ansiColorString(char rune, fg, bg color.Color, trueColor bool) string {
	if !trueColor {
		return string(char)
	}

	r1, g1, b1, _ := fg.RGBA()
	r2, g2, b2, _ := bg.RGBA()

	// RGBA() returns values in range 0-65535
	r1, g1, b1 = r1>>8, g1>>8, b1>>8
	r2, g2, b2 = r2>>8, g2>>8, b2>>8

	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%c\x1b[0m",
		r1, g1, b1, r2, g2, b2, char)
}

// StripANSI removes ANSI escape sequences from a string
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false
	for _, c := range s {
		if inEscape {
			if c == 'm' {
				inEscape = false
			}
		} else if c == '\033' {
			inEscape = true
		} else {
			result.WriteRune(c)
		}
	}
	return result.String()
}

// VisibleWidth returns the number of printed runes in s.
func VisibleWidth(s string) int {
	return len([]rune(StripANSI(s)))
}

// SideBySide joins blocks of lines horizontally, padding each block to its
// widest line and separating blocks with gap spaces.
func SideBySide(gap int, blocks ...string) string {
	split := make([][]string, len(blocks))
	widths := make([]int, len(blocks))
	rows := 0
	for i, b := range blocks {
		split[i] = strings.Split(strings.TrimRight(b, "\n"), "\n")
		for _, line := range split[i] {
			widths[i] = max(widths[i], VisibleWidth(line))
		}
		rows = max(rows, len(split[i]))
	}

	var out strings.Builder
	for row := 0; row < rows; row++ {
		for i, lines := range split {
			if i > 0 {
				out.WriteString(strings.Repeat(" ", gap))
			}
			line := ""
			if row < len(lines) {
				line = lines[row]
			}
			out.WriteString(line)
			if i < len(split)-1 {
				out.WriteString(strings.Repeat(" ", widths[i]-VisibleWidth(line)))
			}
		}
		out.WriteString("\n")
	}
	return out.String()
}
