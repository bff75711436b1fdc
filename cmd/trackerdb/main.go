// Command trackerdb builds the trackerdb SQLite artifact from the
// hand-authored spec records.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trackerdb",
	Short: "Build the trackerdb SQLite artifact",
	Long: `trackerdb turns the spec records under db/ (categories, organizations
and patterns) into a date-stamped SQLite database in dist/.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
