package session

import (
	"context"
	"fmt"

	"github.com/MeKo-Tech/wallpaint/internal/selection"
)

// Tool is the active selection tool.
type Tool int

const (
	// ToolPolygon places polygon vertices on pointer down.
	ToolPolygon Tool = iota
	// ToolAdd paints the selection with the brush.
	ToolAdd
	// ToolErase removes selection with the brush.
	ToolErase
)

func (t Tool) String() string {
	switch t {
	case ToolPolygon:
		return "polygon"
	case ToolAdd:
		return "add"
	case ToolErase:
		return "erase"
	default:
		return fmt.Sprintf("Tool(%d)", int(t))
	}
}

// ParseTool converts a tool name into a Tool.
func ParseTool(s string) (Tool, error) {
	switch s {
	case "polygon":
		return ToolPolygon, nil
	case "add":
		return ToolAdd, nil
	case "erase":
		return ToolErase, nil
	default:
		return 0, fmt.Errorf("unknown tool %q", s)
	}
}

// brushMode maps a brush tool to its stamp mode.
func (t Tool) brushMode() (selection.Mode, bool) {
	switch t {
	case ToolAdd:
		return selection.ModeAdd, true
	case ToolErase:
		return selection.ModeErase, true
	default:
		return 0, false
	}
}

// PointerDown handles a press at (x, y): the polygon tool places a vertex,
// the brush tools start a stroke and stamp once.
func (s *Session) PointerDown(x, y int) error {
	if !s.Loaded() {
		return ErrNoImage
	}

	mode, brush := s.tool.brushMode()
	if !brush {
		return s.AddVertex(x, y)
	}

	s.drawing = true
	return s.Stamp(x, y, s.radius, mode)
}

// PointerMove stamps at (x, y) while a brush stroke is in progress.
// Samples are stamped independently; fast strokes may leave gaps between them.
func (s *Session) PointerMove(x, y int) error {
	if !s.Loaded() {
		return ErrNoImage
	}

	mode, brush := s.tool.brushMode()
	if !brush || !s.drawing {
		return nil
	}
	return s.Stamp(x, y, s.radius, mode)
}

// PointerUp ends the brush stroke in progress.
func (s *Session) PointerUp() {
	s.drawing = false
}

// PointerLeave ends the brush stroke when the pointer leaves the image.
func (s *Session) PointerLeave() {
	s.drawing = false
}

// DoubleClick completes the open polygon when the polygon tool is active and
// at least three vertices are placed. It reports whether a polygon was completed.
func (s *Session) DoubleClick(ctx context.Context) (bool, error) {
	if !s.Loaded() {
		return false, ErrNoImage
	}
	if s.tool != ToolPolygon || s.polygon.Len() < selection.MinVertices {
		return false, nil
	}
	if err := s.CompletePolygon(ctx); err != nil {
		return false, err
	}
	return true, nil
}
