// Package export builds the trackerdb SQLite artifact from spec records.
//
// An export is a full rebuild: the date-stamped artifact is deleted, the
// schema migrations are applied to a fresh file, and the Builder inserts
// categories, organizations and patterns in that order. Lookups between the
// passes live only for the duration of one Builder.Run.
package export

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ghostery/trackerdb/internal/spec"
	"github.com/ghostery/trackerdb/internal/store"
)

// Options configures one export run.
type Options struct {
	// RecordsDir is the records root holding categories/, organizations/
	// and patterns/.
	RecordsDir string
	// DistDir is where the artifact is written.
	DistDir string
	// Extensions lists the spec file extensions to read (default .eno).
	Extensions []string
	// Day stamps the artifact name. Zero means today.
	Day time.Time
	// Logger for export activity. Nil means stderr.
	Logger *log.Logger
	// Verbose logs every exported record.
	Verbose bool
}

// Result describes a completed export.
type Result struct {
	Path    string
	Stats   Stats
	Counts  store.Counts
	Elapsed time.Duration
}

// ArtifactName returns the file name of the artifact for day.
func ArtifactName(day time.Time) string {
	return fmt.Sprintf("trackerdb_%s.db", day.Format("2006-01-02"))
}

// ArtifactPath returns where the artifact for opts is written.
func ArtifactPath(opts Options) string {
	day := opts.Day
	if day.IsZero() {
		day = time.Now()
	}
	return filepath.Join(opts.DistDir, ArtifactName(day))
}

// Export rebuilds the artifact described by opts.
//
// On failure the partially written artifact is left on disk; the next run
// deletes it.
func Export(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[export] ", log.LstdFlags)
	}
	if opts.DistDir == "" {
		return nil, fmt.Errorf("dist directory cannot be empty")
	}

	loader, err := spec.NewLoader(opts.RecordsDir, opts.Extensions...)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.DistDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dist directory: %w", err)
	}

	path := ArtifactPath(opts)
	if err := store.Remove(path); err != nil {
		return nil, err
	}

	logger.Printf("Exporting %s to %s", opts.RecordsDir, path)

	database, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return nil, err
	}

	stats, err := NewBuilder(database, loader, logger, opts.Verbose).Run(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := database.Counts(ctx)
	if err != nil {
		return nil, err
	}

	if err := database.Close(); err != nil {
		return nil, err
	}

	return &Result{
		Path:    path,
		Stats:   stats,
		Counts:  counts,
		Elapsed: time.Since(start),
	}, nil
}
