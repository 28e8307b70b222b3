package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/wallpaint/internal/gallery"
	"github.com/MeKo-Tech/wallpaint/internal/imageio"
	"github.com/MeKo-Tech/wallpaint/internal/server"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve editing sessions over HTTP",
	Long: `Start the session server. Upload a photo to POST /sessions, post command
scripts to /sessions/{id}/commands and fetch image.png, overlay.png or
original.png to see the result.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().Int("max-width", 1600, "Fit uploaded photos into this width (0 keeps size)")
	serveCmd.Flags().Int("max-height", 1200, "Fit uploaded photos into this height (0 keeps size)")
	serveCmd.Flags().Int("max-sessions", 64, "Maximum number of open sessions (0 for unlimited)")
	serveCmd.Flags().String("max-upload", "32MB", "Maximum upload size (e.g. 10MB, 1GiB)")
	serveCmd.Flags().Duration("command-timeout", 30*time.Second, "Timeout per command script")
	serveCmd.Flags().Duration("idle-timeout", 30*time.Minute, "Close sessions idle for this long (0 disables)")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for served images")
	serveCmd.Flags().String("png-compression", "speed", "PNG compression (default, speed, best, none)")
	serveCmd.Flags().String("archive", "", "Gallery database for POST /sessions/{id}/archive")

	bindFlags(serveCmd, map[string]string{
		"serve.addr":            "addr",
		"serve.max_width":       "max-width",
		"serve.max_height":      "max-height",
		"serve.max_sessions":    "max-sessions",
		"serve.max_upload":      "max-upload",
		"serve.command_timeout": "command-timeout",
		"serve.idle_timeout":    "idle-timeout",
		"serve.cache_control":   "cache-control",
		"serve.png_compression": "png-compression",
		"serve.archive":         "archive",
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := viper.GetString("serve.addr")
	maxUpload := viper.GetString("serve.max_upload")
	idleTimeout := viper.GetDuration("serve.idle_timeout")
	archive := viper.GetString("serve.archive")

	if logger == nil {
		initLogging()
	}

	uploadBytes, err := humanize.ParseBytes(maxUpload)
	if err != nil {
		return fmt.Errorf("invalid --max-upload %q: %w", maxUpload, err)
	}
	level, err := imageio.ParseCompression(viper.GetString("serve.png_compression"))
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

	sessions := server.NewSessions(server.Config{
		Gallery:        store,
		CacheControl:   viper.GetString("serve.cache_control"),
		MaxWidth:       viper.GetInt("serve.max_width"),
		MaxHeight:      viper.GetInt("serve.max_height"),
		MaxSessions:    viper.GetInt("serve.max_sessions"),
		MaxUploadBytes: int64(uploadBytes),
		CommandTimeout: viper.GetDuration("serve.command_timeout"),
		Compression:    level,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if idleTimeout > 0 {
		go sessions.RunEvictor(ctx, idleTimeout/4, idleTimeout)
	}

	logger.Info("session server listening",
		"addr", addr,
		"max_upload", humanize.Bytes(uploadBytes),
		"idle_timeout", idleTimeout,
		"archive", archive,
	)

	srv := &http.Server{Addr: addr, Handler: sessions.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down session server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
