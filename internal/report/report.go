// Package report prints the row counts of an exported artifact.
package report

import (
	"fmt"
	"io"

	"github.com/ghostery/trackerdb/internal/store"
)

// Emit writes the four count lines for c to w, in table order.
func Emit(w io.Writer, c store.Counts) error {
	lines := []struct {
		label string
		n     int
	}{
		{"categories", c.Categories},
		{"companies", c.Companies},
		{"trackers", c.Trackers},
		{"tracker domains", c.TrackerDomains},
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "Exported %s: %d\n", l.label, l.n); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}
