// Package recolor repaints the selected pixels of an image with a new hue and
// saturation while keeping each pixel's own lightness.
package recolor

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/MeKo-Tech/wallpaint/internal/colorspace"
	"github.com/MeKo-Tech/wallpaint/internal/selection"
)

// ErrSizeMismatch is returned when the mask does not cover the image exactly.
var ErrSizeMismatch = errors.New("mask size does not match image")

// Stats summarizes one Apply call.
type Stats struct {
	Recolored int
	Total     int
}

// Apply returns a copy of current where every selected pixel takes the
// target's hue and saturation, keeps its own lightness and becomes fully
// opaque. Unselected pixels, alpha included, are copied unchanged.
// The mask is not modified.
func Apply(ctx context.Context, current *image.NRGBA, mask *selection.Mask, target colorspace.RGB) (*image.NRGBA, error) {
	dst, _, err := ApplyWithStats(ctx, current, mask, target)
	return dst, err
}

// ApplyWithStats is Apply that also reports how many pixels were repainted.
func ApplyWithStats(ctx context.Context, current *image.NRGBA, mask *selection.Mask, target colorspace.RGB) (*image.NRGBA, Stats, error) {
	if current == nil || mask == nil {
		return nil, Stats{}, fmt.Errorf("recolor: nil image or mask")
	}

	bounds := current.Bounds()
	if bounds.Dx() != mask.Width() || bounds.Dy() != mask.Height() {
		return nil, Stats{}, fmt.Errorf("%w: image %dx%d, mask %dx%d",
			ErrSizeMismatch, bounds.Dx(), bounds.Dy(), mask.Width(), mask.Height())
	}

	// Only hue and saturation of the target are used.
	t := colorspace.RGBToHSL(target)

	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	stats := Stats{Total: bounds.Dx() * bounds.Dy()}

	for y := 0; y < bounds.Dy(); y++ {
		if err := ctx.Err(); err != nil {
			return nil, Stats{}, err
		}

		off := current.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		srcRow := current.Pix[off : off+bounds.Dx()*4]
		dstRow := dst.Pix[y*dst.Stride : y*dst.Stride+bounds.Dx()*4]
		copy(dstRow, srcRow)

		for x := 0; x < bounds.Dx(); x++ {
			if !mask.IsSet(x, y) {
				continue
			}

			i := x * 4
			src := colorspace.RGB{R: srcRow[i], G: srcRow[i+1], B: srcRow[i+2]}
			l := colorspace.RGBToHSL(src).L
			out := colorspace.HSLToRGB(colorspace.HSL{H: t.H, S: t.S, L: l})

			dstRow[i] = out.R
			dstRow[i+1] = out.G
			dstRow[i+2] = out.B
			dstRow[i+3] = 255
			stats.Recolored++
		}
	}

	return dst, stats, nil
}
