package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MeKo-Tech/wallpaint/internal/gallery"
	"github.com/MeKo-Tech/wallpaint/internal/imageio"
	"github.com/MeKo-Tech/wallpaint/internal/paint"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var paintCmd = &cobra.Command{
	Use:   "paint",
	Short: "Repaint a single photo with a command script",
	Long: `Load a room photo, run a command script against it and write the result as PNG.

Example script:

  commands:
    - op: polygon
      points: [[120, 40], [610, 40], [610, 380], [120, 380]]
    - op: tool
      tool: erase
    - op: stamp
      x: 300
      y: 200
      radius: 25
    - op: apply
      color: "#667EEA"`,
	RunE: runPaint,
}

func init() {
	rootCmd.AddCommand(paintCmd)

	paintCmd.Flags().StringP("input", "i", "", "Input photo (PNG, JPEG, GIF, BMP, TIFF, WebP)")
	paintCmd.Flags().StringP("script", "s", "", "Command script (YAML or JSON; - for stdin)")
	paintCmd.Flags().StringP("output", "o", imageio.DefaultExportName, "Output PNG path")
	paintCmd.Flags().Int("max-width", 0, "Fit the photo into this width before editing (0 keeps size)")
	paintCmd.Flags().Int("max-height", 0, "Fit the photo into this height before editing (0 keeps size)")
	paintCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	paintCmd.Flags().String("preview-suffix", "", "Also write the selection overlay with this suffix (e.g. .preview)")
	paintCmd.Flags().String("archive", "", "Archive the result in this gallery database")

	bindFlags(paintCmd, map[string]string{
		"paint.input":           "input",
		"paint.script":          "script",
		"paint.output":          "output",
		"paint.max_width":       "max-width",
		"paint.max_height":      "max-height",
		"paint.png_compression": "png-compression",
		"paint.preview_suffix":  "preview-suffix",
		"paint.archive":         "archive",
	})
}

func runPaint(cmd *cobra.Command, args []string) error {
	input := viper.GetString("paint.input")
	scriptPath := viper.GetString("paint.script")
	output := viper.GetString("paint.output")
	maxWidth := viper.GetInt("paint.max_width")
	maxHeight := viper.GetInt("paint.max_height")
	pngCompression := viper.GetString("paint.png_compression")
	previewSuffix := viper.GetString("paint.preview_suffix")
	archive := viper.GetString("paint.archive")

	if logger == nil {
		initLogging()
	}

	if input == "" {
		return fmt.Errorf("--input is required")
	}
	if scriptPath == "" {
		return fmt.Errorf("--script is required")
	}

	sc, err := loadScript(scriptPath, cmd.InOrStdin())
	if err != nil {
		return err
	}
	level, err := imageio.ParseCompression(pngCompression)
	if err != nil {
		return err
	}

	var store *gallery.Store
	if archive != "" {
		store, err = gallery.Open(archive)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	p, err := paint.New(paint.Options{
		Script:        sc,
		Gallery:       store,
		Logger:        logger,
		MaxWidth:      maxWidth,
		MaxHeight:     maxHeight,
		Compression:   level,
		PreviewSuffix: previewSuffix,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Painting photo", "input", input, "script", scriptPath, "commands", len(sc.Commands))

	changed, err := p.Paint(ctx, input, output)
	if err != nil {
		return err
	}

	attrs := []any{"output", output, "changed_pixels", humanize.Comma(int64(changed))}
	if info, err := os.Stat(output); err == nil {
		attrs = append(attrs, "size", humanize.Bytes(uint64(info.Size())))
	}
	logger.Info("Photo painted", attrs...)
	return nil
}
