package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/MeKo-Tech/wallpaint/internal/gallery"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Inspect archived paintings",
}

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived paintings, newest first",
	Args:  cobra.NoArgs,
	RunE:  runGalleryList,
}

var galleryExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write an archived painting to a PNG file",
	Args:  cobra.ExactArgs(1),
	RunE:  runGalleryExport,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
	galleryCmd.AddCommand(galleryListCmd, galleryExportCmd)

	galleryCmd.PersistentFlags().String("db", "gallery.db", "Gallery database path")
	galleryExportCmd.Flags().StringP("output", "o", "", "Output PNG path (default: <name>-<id>.png)")

	if err := viper.BindPFlag("gallery.db", galleryCmd.PersistentFlags().Lookup("db")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
	bindFlags(galleryExportCmd, map[string]string{"gallery.output": "output"})
}

func openGallery() (*gallery.Store, error) {
	path := viper.GetString("gallery.db")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("gallery database not found: %w", err)
	}
	return gallery.Open(path)
}

func runGalleryList(cmd *cobra.Command, args []string) error {
	store, err := openGallery()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	return printEntries(cmd.OutOrStdout(), entries, time.Now())
}

func printEntries(w io.Writer, entries []gallery.Entry, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOLOR\tDIMENSIONS\tSIZE\tCREATED")
	for _, e := range entries {
		color := e.Color
		if color == "" {
			color = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%dx%d\t%s\t%s\n",
			e.ID, e.Name, color, e.Width, e.Height,
			humanize.Bytes(uint64(e.Size)), humanize.RelTime(e.CreatedAt, now, "ago", "from now"))
	}
	return tw.Flush()
}

func runGalleryExport(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", args[0], err)
	}

	store, err := openGallery()
	if err != nil {
		return err
	}
	defer store.Close()

	e, err := store.Load(cmd.Context(), id)
	if err != nil {
		return err
	}

	output := viper.GetString("gallery.output")
	if output == "" {
		output = fmt.Sprintf("%s-%d.png", e.Name, e.ID)
	}
	if err := os.WriteFile(output, e.PNG, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	logger.Info("Painting exported", "id", e.ID, "output", output, "size", humanize.Bytes(uint64(len(e.PNG))))
	return nil
}
