// Package paint runs a command script over a photo file from start to finish:
// decode, fit, edit in a fresh session, encode and optionally archive.
package paint

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/wallpaint/internal/gallery"
	"github.com/MeKo-Tech/wallpaint/internal/imageio"
	"github.com/MeKo-Tech/wallpaint/internal/overlay"
	"github.com/MeKo-Tech/wallpaint/internal/script"
	"github.com/MeKo-Tech/wallpaint/internal/session"
	"github.com/dustin/go-humanize"
)

// Options configures a Painter.
type Options struct {
	Script      *script.Script
	Gallery     *gallery.Store // optional archive of every result
	Logger      *slog.Logger
	MaxWidth    int // fit photos into MaxWidth x MaxHeight; 0 disables
	MaxHeight   int
	Compression png.CompressionLevel
	// PreviewSuffix, when set, also writes the final selection overlay next
	// to each output, e.g. "room.png" -> "room.preview.png".
	PreviewSuffix string
}

// Painter applies one script to photo files. It is safe for concurrent use:
// every call runs in its own session.
type Painter struct {
	opts Options
}

// New creates a Painter.
func New(opts Options) (*Painter, error) {
	if opts.Script == nil {
		return nil, fmt.Errorf("paint: script is required")
	}
	return &Painter{opts: opts}, nil
}

// Paint edits input with the script and writes the PNG result to output.
// It returns the number of repainted pixels that differ from the original.
func (p *Painter) Paint(ctx context.Context, input, output string) (int, error) {
	img, err := imageio.Load(input)
	if err != nil {
		return 0, err
	}

	s := session.New(p.log().With("input", input))
	if err := s.Load(imageio.Fit(img, p.opts.MaxWidth, p.opts.MaxHeight)); err != nil {
		return 0, err
	}

	if err := p.opts.Script.Run(ctx, s, p.log()); err != nil {
		return 0, fmt.Errorf("%s: %w", input, err)
	}

	var buf bytes.Buffer
	if err := imageio.EncodePNG(&buf, s.Current(), p.opts.Compression); err != nil {
		return 0, err
	}
	if err := imageio.WriteFile(output, buf.Bytes()); err != nil {
		return 0, err
	}

	if p.opts.PreviewSuffix != "" {
		preview, err := overlay.Preview(s.Current(), s.Mask(), s.Polygon(), nil)
		if err != nil {
			return 0, err
		}
		if err := imageio.SavePNG(PreviewPath(output, p.opts.PreviewSuffix), preview, p.opts.Compression); err != nil {
			return 0, err
		}
	}

	changed := ChangedPixels(s)

	if p.opts.Gallery != nil {
		b := s.Current().Bounds()
		id, err := p.opts.Gallery.Save(ctx, gallery.Entry{
			Name:   strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)),
			Color:  LastColor(p.opts.Script),
			Width:  b.Dx(),
			Height: b.Dy(),
			PNG:    buf.Bytes(),
		})
		if err != nil {
			return 0, err
		}
		p.log().Info("painting archived", "id", id, "input", input, "size", humanize.Bytes(uint64(buf.Len())))
	}

	p.log().Info("painted", "input", input, "output", output, "changed_pixels", changed)
	return changed, nil
}

func (p *Painter) log() *slog.Logger {
	if p.opts.Logger != nil {
		return p.opts.Logger
	}
	return slog.Default()
}

// ChangedPixels counts pixels of the current image that differ from the original.
func ChangedPixels(s *session.Session) int {
	cur, orig := s.Current().Pix, s.Original().Pix
	n := 0
	for i := 0; i+3 < len(cur); i += 4 {
		if cur[i] != orig[i] || cur[i+1] != orig[i+1] || cur[i+2] != orig[i+2] || cur[i+3] != orig[i+3] {
			n++
		}
	}
	return n
}

// LastColor returns the colour of the last apply command, or "" if none.
func LastColor(sc *script.Script) string {
	for i := len(sc.Commands) - 1; i >= 0; i-- {
		if sc.Commands[i].Op == script.OpApply {
			return strings.ToUpper(sc.Commands[i].Color)
		}
	}
	return ""
}

// PreviewPath inserts suffix before the extension of path.
func PreviewPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}
