package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghostery/trackerdb/internal/report"
	"github.com/ghostery/trackerdb/internal/store"
	"github.com/ghostery/trackerdb/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status <artifact>",
	Short: "Show the row counts of an exported database",
	Long: `Display the row counts of an existing trackerdb artifact.

Prints the same four lines as export, preceded on stderr by the file
location, size and modification time.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("artifact not found: %s", path)
		}
		if err != nil {
			return fmt.Errorf("failed to check artifact: %w", err)
		}

		database, err := store.Open(path)
		if err != nil {
			return err
		}
		defer database.Close()

		counts, err := database.Counts(cmd.Context())
		if err != nil {
			return err
		}

		ui.Init(os.Stderr)
		stderr := cmd.ErrOrStderr()
		fmt.Fprintf(stderr, "%s %s\n", ui.RenderAccent("📊"), path)
		fmt.Fprintf(stderr, "Size: %s\n", formatSize(info.Size()))
		fmt.Fprintf(stderr, "Modified: %s\n\n", info.ModTime().Format("2006-01-02 15:04:05"))

		return report.Emit(cmd.OutOrStdout(), counts)
	},
}

func formatSize(size int64) string {
	switch {
	case size > 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	case size > 1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
