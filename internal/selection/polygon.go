package selection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/paulmach/orb"
)

// ErrInsufficientVertices is returned when a polygon with fewer than three vertices is completed.
var ErrInsufficientVertices = errors.New("polygon needs at least 3 vertices")

// MinVertices is the smallest vertex count a polygon can be completed with.
const MinVertices = 3

// PolygonState describes whether a polygon is being collected.
type PolygonState int

const (
	// Idle means no vertex has been placed yet.
	Idle PolygonState = iota
	// Collecting means at least one vertex is placed and the polygon is open.
	Collecting
)

func (s PolygonState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Collecting:
		return "collecting"
	default:
		return fmt.Sprintf("PolygonState(%d)", int(s))
	}
}

// Polygon collects vertices in image pixel coordinates and fills them into a mask on completion.
// Vertices are kept as-is: duplicates and collinear points are not simplified.
type Polygon struct {
	ring orb.Ring
}

// State reports whether the polygon is idle or collecting vertices.
func (p *Polygon) State() PolygonState {
	if len(p.ring) == 0 {
		return Idle
	}
	return Collecting
}

// Len returns the number of placed vertices.
func (p *Polygon) Len() int { return len(p.ring) }

// AddVertex appends a vertex to the open polygon.
func (p *Polygon) AddVertex(x, y int) {
	p.ring = append(p.ring, orb.Point{float64(x), float64(y)})
}

// Vertices returns a copy of the placed vertices.
func (p *Polygon) Vertices() []image.Point {
	pts := make([]image.Point, len(p.ring))
	for i, v := range p.ring {
		pts[i] = image.Pt(int(v.X()), int(v.Y()))
	}
	return pts
}

// PreviewTo returns the placed vertices followed by the live cursor position.
// The polygon itself is not modified.
func (p *Polygon) PreviewTo(x, y int) []image.Point {
	if len(p.ring) == 0 {
		return nil
	}
	return append(p.Vertices(), image.Pt(x, y))
}

// Reset discards all placed vertices.
func (p *Polygon) Reset() {
	p.ring = nil
}

// Contains reports whether (x, y) lies inside the polygon using horizontal
// ray casting with edge-crossing parity. Points exactly on an edge may land
// on either side.
func (p *Polygon) Contains(x, y int) bool {
	return ringContains(p.ring, float64(x), float64(y))
}

// Complete fills every pixel inside the polygon into mask, then clears the vertex list.
// Bits are only ever set, so successive polygons union into one selection.
// With fewer than MinVertices vertices nothing changes and ErrInsufficientVertices is returned.
func (p *Polygon) Complete(ctx context.Context, mask *Mask) error {
	if len(p.ring) < MinVertices {
		return fmt.Errorf("%w: have %d", ErrInsufficientVertices, len(p.ring))
	}

	// Outside the vertex bounding box every scanline crosses an even number
	// of edges, so only the box needs testing.
	rows := scanRange(p.ring.Bound(), mask.Bounds())
	for y := rows.Min.Y; y < rows.Max.Y; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for x := rows.Min.X; x < rows.Max.X; x++ {
			if ringContains(p.ring, float64(x), float64(y)) {
				mask.Set(x, y, true)
			}
		}
	}

	p.Reset()
	return nil
}

// scanRange converts a vertex bound into the pixel rectangle worth testing, clipped to grid.
// The bound is clamped before conversion so vertices far outside the image
// cannot overflow int.
func scanRange(b orb.Bound, grid image.Rectangle) image.Rectangle {
	r := image.Rect(
		clampTo(math.Floor(b.Min.X()), grid.Min.X, grid.Max.X),
		clampTo(math.Floor(b.Min.Y()), grid.Min.Y, grid.Max.Y),
		clampTo(math.Ceil(b.Max.X())+1, grid.Min.X, grid.Max.X),
		clampTo(math.Ceil(b.Max.Y())+1, grid.Min.Y, grid.Max.Y),
	)
	return r.Intersect(grid)
}

func clampTo(v float64, lo, hi int) int {
	switch {
	case v <= float64(lo):
		return lo
	case v >= float64(hi):
		return hi
	default:
		return int(v)
	}
}

func ringContains(ring orb.Ring, x, y float64) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].X(), ring[i].Y()
		xj, yj := ring[j].X(), ring[j].Y()
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
