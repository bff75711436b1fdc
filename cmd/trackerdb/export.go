package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ghostery/trackerdb/internal/config"
	"github.com/ghostery/trackerdb/internal/export"
	"github.com/ghostery/trackerdb/internal/logging"
	"github.com/ghostery/trackerdb/internal/report"
	"github.com/ghostery/trackerdb/internal/spec"
	"github.com/ghostery/trackerdb/internal/ui"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Aliases: []string{"export-sql"},
	Short:   "Export spec records to a SQLite database",
	Long: `Build dist/trackerdb_<date>.db from the spec records.

The export is a full rebuild:
  1. Deletes any artifact with the same name
  2. Applies the schema migrations
  3. Inserts categories, then organizations, then patterns and their domains
  4. Prints the row count of each table

With --watch the export is repeated whenever a record changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := config.New(".")
		if err != nil {
			return err
		}
		if err := bindExportFlags(cmd, v); err != nil {
			return err
		}
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}

		dateExpr, _ := cmd.Flags().GetString("date")
		watch, _ := cmd.Flags().GetBool("watch")

		var day time.Time
		if dateExpr != "" {
			if day, err = export.ParseDay(dateExpr, time.Now()); err != nil {
				return err
			}
		}

		sink := logging.NewSink(logging.Options{File: cfg.LogFile, Stderr: cmd.ErrOrStderr()})
		defer sink.Close()

		ui.Init(os.Stderr)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := export.Options{
			RecordsDir: cfg.RecordsDir,
			DistDir:    cfg.DistDir,
			Extensions: cfg.Extensions,
			Day:        day,
			Logger:     sink.Logger("[export] "),
			Verbose:    cfg.Verbose,
		}

		stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
		if err := runExport(ctx, opts, stdout, stderr); err != nil {
			return err
		}
		if !watch {
			return nil
		}
		return runWatch(ctx, opts, cfg.WatchDebounce, sink, stdout, stderr)
	},
}

func bindExportFlags(cmd *cobra.Command, v *viper.Viper) error {
	bindings := map[string]string{
		config.KeyRecordsDir: "records",
		config.KeyDistDir:    "dist",
		config.KeyExtensions: "ext",
		config.KeyLogFile:    "log-file",
		config.KeyVerbose:    "verbose",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	return nil
}

// runExport performs one export and prints its report. The count lines go
// to stdout; the styled summary goes to stderr.
func runExport(ctx context.Context, opts export.Options, stdout, stderr io.Writer) error {
	result, err := export.Export(ctx, opts)
	if err != nil {
		return err
	}
	if err := report.Emit(stdout, result.Counts); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "%s Wrote %s in %v\n", ui.RenderPass("✓"), result.Path, result.Elapsed.Round(time.Millisecond))
	return nil
}

func runWatch(ctx context.Context, opts export.Options, debounce time.Duration, sink *logging.Sink, stdout, stderr io.Writer) error {
	loader, err := spec.NewLoader(opts.RecordsDir, opts.Extensions...)
	if err != nil {
		return err
	}
	w, err := export.NewWatcher(loader, debounce, sink.Logger("[watch] "))
	if err != nil {
		return err
	}
	defer w.Close()

	fmt.Fprintf(stderr, "%s Watching %s\n", ui.RenderAccent("👀"), opts.RecordsDir)
	fmt.Fprintf(stderr, "\nPress Ctrl+C to stop\n\n")

	return w.Run(ctx, func(ctx context.Context) error {
		return runExport(ctx, opts, stdout, stderr)
	})
}

func init() {
	exportCmd.Flags().String("records", "", "records root holding categories/, organizations/ and patterns/ (default db)")
	exportCmd.Flags().String("dist", "", "output directory for the artifact (default dist)")
	exportCmd.Flags().StringSlice("ext", nil, "spec file extensions to read (default .eno)")
	exportCmd.Flags().String("date", "", `date stamp for the artifact name, e.g. 2024-03-05 or "yesterday" (default today)`)
	exportCmd.Flags().String("log-file", "", "also write logs to this file, rotated by size")
	exportCmd.Flags().BoolP("verbose", "v", false, "log every exported record")
	exportCmd.Flags().BoolP("watch", "w", false, "rebuild whenever a record changes")
	rootCmd.AddCommand(exportCmd)
}
