// Package colorspace converts between 8-bit RGB, normalized HSL and hex strings.
package colorspace

import "math"

// RGB is an 8-bit per channel colour.
type RGB struct {
	R, G, B uint8
}

// HSL holds hue, saturation and lightness, each normalized to [0,1].
type HSL struct {
	H, S, L float64
}

// RGBToHSL converts c to HSL. Achromatic colours get zero hue and saturation.
func RGBToHSL(c RGB) HSL {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	maxv := math.Max(r, math.Max(g, b))
	minv := math.Min(r, math.Min(g, b))
	l := (maxv + minv) / 2

	if maxv == minv {
		return HSL{H: 0, S: 0, L: l}
	}

	d := maxv - minv
	var s float64
	if l > 0.5 {
		s = d / (2 - maxv - minv)
	} else {
		s = d / (maxv + minv)
	}

	var h float64
	switch maxv {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h /= 6

	return HSL{H: h, S: s, L: l}
}

// HSLToRGB converts c back to 8-bit RGB, rounding to nearest and clamping to [0,255].
func HSLToRGB(c HSL) RGB {
	if c.S == 0 {
		v := toByte(c.L)
		return RGB{R: v, G: v, B: v}
	}

	var q float64
	if c.L < 0.5 {
		q = c.L * (1 + c.S)
	} else {
		q = c.L + c.S - c.L*c.S
	}
	p := 2*c.L - q

	return RGB{
		R: toByte(hueToRGB(p, q, c.H+1.0/3)),
		G: toByte(hueToRGB(p, q, c.H)),
		B: toByte(hueToRGB(p, q, c.H-1.0/3)),
	}
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}

	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}

// toByte scales a [0,1] channel to [0,255] with rounding; out-of-range input is clamped.
func toByte(v float64) uint8 {
	x := math.Round(v * 255)
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x)
}
