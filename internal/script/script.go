// Package script reads a list of editing commands and dispatches them to a
// session in order. Scripts are YAML (JSON is accepted as well).
package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/MeKo-Tech/wallpaint/internal/colorspace"
	"github.com/MeKo-Tech/wallpaint/internal/selection"
	"github.com/MeKo-Tech/wallpaint/internal/session"
	"gopkg.in/yaml.v3"
)

// Op names a script command.
type Op string

const (
	OpTool     Op = "tool"     // switch tool: polygon, add, erase
	OpRadius   Op = "radius"   // set brush radius
	OpVertex   Op = "vertex"   // add polygon vertex at x,y
	OpPolygon  Op = "polygon"  // add points then complete
	OpComplete Op = "complete" // complete the open polygon
	OpDown     Op = "down"     // pointer down at x,y
	OpMove     Op = "move"     // pointer move to x,y
	OpUp       Op = "up"       // pointer up
	OpLeave    Op = "leave"    // pointer left the image
	OpDblClick Op = "dblclick" // double click, completes polygon if possible
	OpStamp    Op = "stamp"    // stamp x,y,radius,mode
	OpClear    Op = "clear"    // clear selection
	OpApply    Op = "apply"    // repaint selection with color
	OpRevert   Op = "revert"   // revert to original, keep selection
	OpReset    Op = "reset"    // revert and clear selection
)

// Command is one scripted step. Only the fields relevant to Op are used.
type Command struct {
	Op     Op       `yaml:"op" json:"op"`
	Tool   string   `yaml:"tool,omitempty" json:"tool,omitempty"`
	Mode   string   `yaml:"mode,omitempty" json:"mode,omitempty"`
	Color  string   `yaml:"color,omitempty" json:"color,omitempty"`
	Points [][2]int `yaml:"points,omitempty" json:"points,omitempty"`
	X      int      `yaml:"x" json:"x"`
	Y      int      `yaml:"y" json:"y"`
	Radius int      `yaml:"radius,omitempty" json:"radius,omitempty"`
}

// Script is an ordered list of commands.
type Script struct {
	Commands []Command `yaml:"commands" json:"commands"`
}

// Parse decodes a script and validates every command.
// The document is either {commands: [...]} or a bare list of commands.
func Parse(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	var sc Script
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '-' || trimmed[0] == '[') {
		err = yaml.Unmarshal(data, &sc.Commands)
	} else {
		err = yaml.Unmarshal(data, &sc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}

	for i, cmd := range sc.Commands {
		if err := cmd.Validate(); err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
	}

	return &sc, nil
}

// Validate checks that the command is well formed.
// Colours are checked here so invalid strings never reach the recolor engine.
func (c Command) Validate() error {
	switch c.Op {
	case OpTool:
		_, err := session.ParseTool(c.Tool)
		return err
	case OpStamp:
		if c.Mode == "" {
			return nil
		}
		_, err := selection.ParseMode(c.Mode)
		return err
	case OpApply:
		if !colorspace.ValidHex(c.Color) {
			return fmt.Errorf("%w: %q", colorspace.ErrInvalidColorFormat, c.Color)
		}
		return nil
	case OpRadius, OpVertex, OpPolygon, OpComplete, OpDown, OpMove, OpUp, OpLeave, OpDblClick, OpClear, OpRevert, OpReset:
		return nil
	default:
		return fmt.Errorf("unknown op %q", c.Op)
	}
}

// StepError reports the command that stopped a run.
type StepError struct {
	Err  error
	Op   Op
	Step int
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.Op, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Run dispatches every command to s in order and stops at the first error.
// Completing a polygon with too few vertices is logged and skipped, leaving
// the vertices in place for later commands.
func (sc *Script) Run(ctx context.Context, s *session.Session, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	for i, cmd := range sc.Commands {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: i, Op: cmd.Op, Err: err}
		}

		err := Dispatch(ctx, s, cmd)
		if errors.Is(err, selection.ErrInsufficientVertices) {
			logger.Warn("polygon not completed", "step", i, "error", err)
			continue
		}
		if err != nil {
			return &StepError{Step: i, Op: cmd.Op, Err: err}
		}
	}

	return nil
}

// Dispatch executes a single command against s.
func Dispatch(ctx context.Context, s *session.Session, cmd Command) error {
	switch cmd.Op {
	case OpTool:
		t, err := session.ParseTool(cmd.Tool)
		if err != nil {
			return err
		}
		s.SetTool(t)
		return nil
	case OpRadius:
		s.SetBrushRadius(cmd.Radius)
		return nil
	case OpVertex:
		return s.AddVertex(cmd.X, cmd.Y)
	case OpPolygon:
		for _, p := range cmd.Points {
			if err := s.AddVertex(p[0], p[1]); err != nil {
				return err
			}
		}
		return s.CompletePolygon(ctx)
	case OpComplete:
		return s.CompletePolygon(ctx)
	case OpDown:
		return s.PointerDown(cmd.X, cmd.Y)
	case OpMove:
		return s.PointerMove(cmd.X, cmd.Y)
	case OpUp:
		s.PointerUp()
		return nil
	case OpLeave:
		s.PointerLeave()
		return nil
	case OpDblClick:
		_, err := s.DoubleClick(ctx)
		return err
	case OpStamp:
		return stamp(s, cmd)
	case OpClear:
		return s.ClearSelection()
	case OpApply:
		return s.Apply(ctx, cmd.Color)
	case OpRevert:
		return s.RevertToOriginal()
	case OpReset:
		return s.ResetImage()
	default:
		return fmt.Errorf("unknown op %q", cmd.Op)
	}
}

// stamp uses the command's radius and mode, falling back to the session's
// brush radius and the mode of the active tool.
func stamp(s *session.Session, cmd Command) error {
	radius := cmd.Radius
	if radius == 0 {
		radius = s.BrushRadius()
	}

	mode := selection.ModeAdd
	if s.Tool() == session.ToolErase {
		mode = selection.ModeErase
	}
	if cmd.Mode != "" {
		m, err := selection.ParseMode(cmd.Mode)
		if err != nil {
			return err
		}
		mode = m
	}

	return s.Stamp(cmd.X, cmd.Y, radius, mode)
}
