// Package selection tracks which pixels of a photo are selected for repainting
// and builds that selection from polygons and brush stamps.
package selection

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math/bits"
)

// ErrInvalidDimension is returned when a mask is created with a non-positive size.
var ErrInvalidDimension = errors.New("invalid mask dimension")

// Mask is a per-pixel membership store over an image grid.
// Bits are packed 64 per word, index y*width+x.
type Mask struct {
	words  []uint64
	width  int
	height int
}

// NewMask creates an empty mask covering width x height pixels.
func NewMask(width, height int) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimension, width, height)
	}

	n := width * height
	return &Mask{
		words:  make([]uint64, (n+63)/64),
		width:  width,
		height: height,
	}, nil
}

// Width returns the mask width in pixels.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height in pixels.
func (m *Mask) Height() int { return m.height }

// Bounds returns the mask grid as an image rectangle anchored at the origin.
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.width, m.height)
}

func (m *Mask) inBounds(x, y int) bool {
	return x >= 0 && x < m.width && y >= 0 && y < m.height
}

// Set writes the membership flag at (x, y).
// Writes outside the grid are dropped.
func (m *Mask) Set(x, y int, v bool) {
	if !m.inBounds(x, y) {
		return
	}

	i := y*m.width + x
	if v {
		m.words[i>>6] |= 1 << (uint(i) & 63)
	} else {
		m.words[i>>6] &^= 1 << (uint(i) & 63)
	}
}

// IsSet reports whether (x, y) is selected. Coordinates outside the grid are never selected.
func (m *Mask) IsSet(x, y int) bool {
	if !m.inBounds(x, y) {
		return false
	}

	i := y*m.width + x
	return m.words[i>>6]&(1<<(uint(i)&63)) != 0
}

// Clear deselects every pixel without reallocating.
func (m *Mask) Clear() {
	clear(m.words)
}

// Count returns the number of selected pixels.
func (m *Mask) Count() int {
	n := 0
	for _, w := range m.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Empty reports whether no pixel is selected.
func (m *Mask) Empty() bool {
	for _, w := range m.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Gray exports the mask as a grayscale image: 255 where selected, 0 elsewhere.
func (m *Mask) Gray() *image.Gray {
	g := image.NewGray(m.Bounds())
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if m.IsSet(x, y) {
				g.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return g
}
