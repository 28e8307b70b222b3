package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/MeKo-Tech/wallpaint/internal/gallery"
	"github.com/MeKo-Tech/wallpaint/internal/imageio"
	"github.com/MeKo-Tech/wallpaint/internal/paint"
	"github.com/MeKo-Tech/wallpaint/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var batchCmd = &cobra.Command{
	Use:   "batch [photos or globs...]",
	Short: "Repaint many photos with one command script",
	Long: `Apply the same command script to every photo matching the given paths,
globs or directories. Photos are painted in parallel, each in its own session.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringP("script", "s", "", "Command script (YAML or JSON)")
	batchCmd.Flags().String("output-dir", "./painted", "Output directory for painted photos")
	batchCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	batchCmd.Flags().Bool("progress", true, "Show progress bar")
	batchCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some photos fail")
	batchCmd.Flags().Int("max-width", 0, "Fit photos into this width before editing (0 keeps size)")
	batchCmd.Flags().Int("max-height", 0, "Fit photos into this height before editing (0 keeps size)")
	batchCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	batchCmd.Flags().String("preview-suffix", "", "Also write selection overlays with this suffix")
	batchCmd.Flags().String("archive", "", "Archive every result in this gallery database")

	bindFlags(batchCmd, map[string]string{
		"batch.script":          "script",
		"batch.output_dir":      "output-dir",
		"batch.workers":         "workers",
		"batch.progress":        "progress",
		"batch.allow_failures":  "allow-failures",
		"batch.max_width":       "max-width",
		"batch.max_height":      "max-height",
		"batch.png_compression": "png-compression",
		"batch.preview_suffix":  "preview-suffix",
		"batch.archive":         "archive",
	})
}

func runBatch(cmd *cobra.Command, args []string) error {
	scriptPath := viper.GetString("batch.script")
	outputDir := viper.GetString("batch.output_dir")
	workers := viper.GetInt("batch.workers")
	showProgress := viper.GetBool("batch.progress")
	allowFailures := viper.GetBool("batch.allow_failures")
	pngCompression := viper.GetString("batch.png_compression")
	archive := viper.GetString("batch.archive")

	if logger == nil {
		initLogging()
	}

	if scriptPath == "" {
		return fmt.Errorf("--script is required")
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	sc, err := loadScript(scriptPath, cmd.InOrStdin())
	if err != nil {
		return err
	}
	level, err := imageio.ParseCompression(pngCompression)
	if err != nil {
		return err
	}

	inputs, err := collectInputs(args)
	if err != nil {
		return err
	}
	tasks, err := buildTasks(inputs, outputDir)
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

	painter, err := paint.New(paint.Options{
		Script:        sc,
		Gallery:       store,
		Logger:        logger,
		MaxWidth:      viper.GetInt("batch.max_width"),
		MaxHeight:     viper.GetInt("batch.max_height"),
		Compression:   level,
		PreviewSuffix: viper.GetString("batch.preview_suffix"),
	})
	if err != nil {
		return err
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Info("Starting batch painting",
		"photos", len(tasks),
		"workers", workers,
		"output_dir", outputDir,
		"commands", len(sc.Commands),
	)

	progress := worker.NewProgress(len(tasks), showProgress)
	pool := worker.New(worker.Config{
		Workers:    workers,
		Painter:    painter,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, tasks)
	progress.Done()

	var failedCount int
	for _, r := range results {
		if r.Err != nil {
			failedCount++
			logger.Error("Painting failed", "input", r.Task.Input, "error", r.Err)
		}
	}

	logger.Info(progress.Summary())

	if failedCount > 0 {
		if allowFailures {
			logger.Warn("Some photos failed, but continuing due to --allow-failures flag", "failed_count", failedCount)
			return nil
		}
		return fmt.Errorf("%d of %d photos failed", failedCount, len(tasks))
	}
	return nil
}
