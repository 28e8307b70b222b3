package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// Composite stacks layers over base using source-over alpha blending and
// returns a new image. Every layer must have the same bounds as base; nil
// layers are skipped.
func Composite(base *image.NRGBA, layers ...image.Image) (*image.NRGBA, error) {
	if base == nil {
		return nil, fmt.Errorf("composite: nil base")
	}

	bounds := base.Bounds()
	dst := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		off := base.PixOffset(bounds.Min.X, y)
		copy(dst.Pix[dst.PixOffset(bounds.Min.X, y):], base.Pix[off:off+bounds.Dx()*4])
	}

	for i, layer := range layers {
		if layer == nil {
			continue
		}
		if layer.Bounds() != bounds {
			return nil, fmt.Errorf("layer %d bounds %v do not match base %v", i, layer.Bounds(), bounds)
		}
		alphaOver(dst, layer)
	}

	return dst, nil
}

// alphaOver blends src onto dst in place. Overlay layers are NRGBA, so their
// rows are read directly; other images go through the colour model.
func alphaOver(dst *image.NRGBA, src image.Image) {
	bounds := dst.Bounds()
	layer, isNRGBA := src.(*image.NRGBA)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := dst.Pix[dst.PixOffset(bounds.Min.X, y):]
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var c color.NRGBA
			if isNRGBA {
				c = layer.NRGBAAt(x, y)
			} else {
				c = color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			}
			if c.A == 0 {
				continue
			}
			i := (x - bounds.Min.X) * 4
			blendPixel(row[i:i+4:i+4], c)
		}
	}
}

// blendPixel composites c over the non-premultiplied pixel px.
func blendPixel(px []uint8, c color.NRGBA) {
	sa := float64(c.A) / 255
	da := float64(px[3]) / 255
	outA := sa + da*(1-sa)
	if outA == 0 {
		px[0], px[1], px[2], px[3] = 0, 0, 0, 0
		return
	}

	for k, s := range [3]uint8{c.R, c.G, c.B} {
		px[k] = uint8(math.Round((float64(s)*sa + float64(px[k])*da*(1-sa)) / outA))
	}
	px[3] = uint8(math.Round(outA * 255))
}
