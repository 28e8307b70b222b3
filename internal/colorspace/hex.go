package colorspace

import (
	"errors"
	"fmt"
	"image/color"
	"regexp"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidColorFormat is returned for strings that are not #RRGGBB.
var ErrInvalidColorFormat = errors.New("invalid color format")

var hexPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidHex reports whether s is a #RRGGBB colour (case-insensitive).
func ValidHex(s string) bool {
	return hexPattern.MatchString(s)
}

// ParseHex parses a #RRGGBB string.
func ParseHex(s string) (RGB, error) {
	if !ValidHex(s) {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColorFormat, s)
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %v", ErrInvalidColorFormat, err)
	}

	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

// Hex formats c as upper-case #RRGGBB.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// NRGBA returns c as an opaque color.NRGBA.
func (c RGB) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// FromNRGBA drops the alpha channel of c.
func FromNRGBA(c color.NRGBA) RGB {
	return RGB{R: c.R, G: c.G, B: c.B}
}
