// Package overlay renders the selection and the open polygon as translucent
// layers that can be composited over the photo for preview.
package overlay

import (
	"image"
	"image/color"
	"math"

	"github.com/MeKo-Tech/wallpaint/internal/selection"
	"golang.org/x/image/vector"
)

var (
	// SelectionTint is painted over every selected pixel.
	SelectionTint = color.NRGBA{R: 102, G: 126, B: 234, A: 128}
	// PolygonStroke is the colour of polygon edges and vertex dots.
	PolygonStroke = color.NRGBA{R: 102, G: 126, B: 234, A: 255}
	// PolygonFill shades the interior of an open polygon with three or more vertices.
	PolygonFill = color.NRGBA{R: 102, G: 126, B: 234, A: 51}
)

const (
	strokeWidth  = 3
	vertexRadius = 5
	// kappa places cubic Bézier control points for a quarter circle.
	kappa = 0.5522847498
)

// RenderSelection returns a transparent layer with SelectionTint on every selected pixel.
func RenderSelection(mask *selection.Mask) *image.NRGBA {
	dst := image.NewNRGBA(mask.Bounds())
	for y := 0; y < mask.Height(); y++ {
		for x := 0; x < mask.Width(); x++ {
			if mask.IsSet(x, y) {
				dst.SetNRGBA(x, y, SelectionTint)
			}
		}
	}
	return dst
}

// RenderPolygon draws the open polygon on a transparent width x height layer.
// When preview is non-nil an extra edge runs from the last vertex to it.
// Polygons with three or more vertices are closed and filled.
func RenderPolygon(width, height int, vertices []image.Point, preview *image.Point) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	if len(vertices) == 0 || width <= 0 || height <= 0 {
		return dst
	}

	path := append([]image.Point(nil), vertices...)
	if preview != nil {
		path = append(path, *preview)
	}
	closed := len(vertices) >= selection.MinVertices

	if closed {
		z := vector.NewRasterizer(width, height)
		z.MoveTo(center(path[0]))
		for _, p := range path[1:] {
			z.LineTo(center(p))
		}
		z.ClosePath()
		paint(dst, z, PolygonFill)
	}

	for i := 1; i < len(path); i++ {
		strokeSegment(dst, path[i-1], path[i])
	}
	if closed {
		strokeSegment(dst, path[len(path)-1], path[0])
	}

	for _, v := range vertices {
		z := vector.NewRasterizer(width, height)
		cx, cy := center(v)
		circle(z, cx, cy, vertexRadius)
		paint(dst, z, PolygonStroke)
	}

	return dst
}

// strokeSegment paints one edge as a quad of strokeWidth. Each edge gets its
// own rasterizer so overlapping joins do not cancel out.
func strokeSegment(dst *image.NRGBA, a, b image.Point) {
	ax, ay := center(a)
	bx, by := center(b)
	dx, dy := bx-ax, by-ay
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		return
	}

	nx := -dy / length * strokeWidth / 2
	ny := dx / length * strokeWidth / 2

	bounds := dst.Bounds()
	z := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	z.MoveTo(ax+nx, ay+ny)
	z.LineTo(bx+nx, by+ny)
	z.LineTo(bx-nx, by-ny)
	z.LineTo(ax-nx, ay-ny)
	z.ClosePath()
	paint(dst, z, PolygonStroke)
}

func circle(z *vector.Rasterizer, cx, cy, r float32) {
	k := r * kappa
	z.MoveTo(cx+r, cy)
	z.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
	z.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
	z.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
	z.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	z.ClosePath()
}

func paint(dst *image.NRGBA, z *vector.Rasterizer, c color.NRGBA) {
	z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

// center maps a pixel coordinate to the middle of that pixel.
func center(p image.Point) (float32, float32) {
	return float32(p.X) + 0.5, float32(p.Y) + 0.5
}

// Preview composites the selection tint and the open polygon over current,
// which is what an editor shows while the user is selecting.
func Preview(current *image.NRGBA, mask *selection.Mask, vertices []image.Point, cursor *image.Point) (*image.NRGBA, error) {
	b := current.Bounds()
	layers := []image.Image{RenderSelection(mask)}
	if len(vertices) > 0 {
		layers = append(layers, RenderPolygon(b.Dx(), b.Dy(), vertices, cursor))
	}
	return Composite(current, layers...)
}
