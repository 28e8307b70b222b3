// Package session holds the state of one room-repainting edit: the loaded
// photo, its repainted copy, the selection mask and the active tool.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log/slog"

	"github.com/MeKo-Tech/wallpaint/internal/colorspace"
	"github.com/MeKo-Tech/wallpaint/internal/recolor"
	"github.com/MeKo-Tech/wallpaint/internal/selection"
)

// ErrNoImage is returned by operations that need a loaded image.
var ErrNoImage = errors.New("no image loaded")

// DefaultBrushRadius is the brush radius a new session starts with.
const DefaultBrushRadius = 20

// Session is a single editing session. It is not safe for concurrent use;
// callers serialize commands.
type Session struct {
	original *image.NRGBA
	current  *image.NRGBA
	mask     *selection.Mask
	logger   *slog.Logger
	polygon  selection.Polygon
	tool     Tool
	radius   int
	drawing  bool
}

// New creates an empty session. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Session {
	return &Session{
		logger: logger,
		tool:   ToolPolygon,
		radius: DefaultBrushRadius,
	}
}

// Load installs img as the photo to edit. The original is kept for revert,
// the selection is reallocated empty and the polygon tool is selected.
func (s *Session) Load(img image.Image) error {
	if img == nil {
		return fmt.Errorf("load: nil image")
	}

	original := toNRGBA(img)
	b := original.Bounds()

	mask, err := selection.NewMask(b.Dx(), b.Dy())
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	s.original = original
	s.current = cloneNRGBA(original)
	s.mask = mask
	s.polygon.Reset()
	s.drawing = false
	s.tool = ToolPolygon

	s.log().Info("image loaded", "width", b.Dx(), "height", b.Dy())
	return nil
}

// Loaded reports whether an image has been loaded.
func (s *Session) Loaded() bool { return s.current != nil }

// Current returns the working image. Callers must not modify it.
func (s *Session) Current() *image.NRGBA { return s.current }

// Original returns the image as loaded. Callers must not modify it.
func (s *Session) Original() *image.NRGBA { return s.original }

// Mask returns the live selection mask.
func (s *Session) Mask() *selection.Mask { return s.mask }

// Polygon returns the vertices of the open polygon.
func (s *Session) Polygon() []image.Point { return s.polygon.Vertices() }

// PolygonPreview returns the open polygon plus a closing edge to the cursor at (x, y).
func (s *Session) PolygonPreview(x, y int) []image.Point { return s.polygon.PreviewTo(x, y) }

// Tool returns the active tool.
func (s *Session) Tool() Tool { return s.tool }

// SetTool switches the active tool and stops any brush stroke in progress.
func (s *Session) SetTool(t Tool) {
	s.tool = t
	s.drawing = false
}

// BrushRadius returns the current brush radius.
func (s *Session) BrushRadius() int { return s.radius }

// SetBrushRadius changes the brush radius for the next stamp. Values below 1 become 1.
func (s *Session) SetBrushRadius(r int) {
	if r < 1 {
		r = 1
	}
	s.radius = r
}

// Drawing reports whether a brush stroke is in progress.
func (s *Session) Drawing() bool { return s.drawing }

// AddVertex appends a vertex to the open polygon.
func (s *Session) AddVertex(x, y int) error {
	if !s.Loaded() {
		return ErrNoImage
	}
	s.polygon.AddVertex(x, y)
	return nil
}

// CompletePolygon fills the open polygon into the selection.
// With fewer than three vertices it returns selection.ErrInsufficientVertices and changes nothing.
func (s *Session) CompletePolygon(ctx context.Context) error {
	if !s.Loaded() {
		return ErrNoImage
	}

	n := s.polygon.Len()
	if err := s.polygon.Complete(ctx, s.mask); err != nil {
		return err
	}

	s.log().Debug("polygon completed", "vertices", n, "selected", s.mask.Count())
	return nil
}

// Stamp applies one brush disk at (x, y).
func (s *Session) Stamp(x, y, radius int, mode selection.Mode) error {
	if !s.Loaded() {
		return ErrNoImage
	}
	selection.Stamp(s.mask, x, y, radius, mode)
	return nil
}

// ClearSelection empties the mask and discards the open polygon.
func (s *Session) ClearSelection() error {
	if !s.Loaded() {
		return ErrNoImage
	}
	s.mask.Clear()
	s.polygon.Reset()
	return nil
}

// Apply repaints the selection with the hue and saturation of hex, commits
// the result as the current image and clears the selection.
func (s *Session) Apply(ctx context.Context, hex string) error {
	if !s.Loaded() {
		return ErrNoImage
	}

	target, err := colorspace.ParseHex(hex)
	if err != nil {
		return err
	}

	out, stats, err := recolor.ApplyWithStats(ctx, s.current, s.mask, target)
	if err != nil {
		return fmt.Errorf("apply %s: %w", target.Hex(), err)
	}

	s.current = out
	s.mask.Clear()

	s.log().Info("selection repainted", "color", target.Hex(), "pixels", stats.Recolored)
	return nil
}

// RevertToOriginal discards all repaints. The selection is kept.
func (s *Session) RevertToOriginal() error {
	if !s.Loaded() {
		return ErrNoImage
	}
	s.current = cloneNRGBA(s.original)
	return nil
}

// ResetImage discards all repaints and the selection.
func (s *Session) ResetImage() error {
	if err := s.RevertToOriginal(); err != nil {
		return err
	}
	return s.ClearSelection()
}

func (s *Session) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:], src.Pix[off:off+b.Dx()*4])
		}
		return dst
	}
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}
