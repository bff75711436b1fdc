// Package ui provides the terminal styling for trackerdb command output.
//
// Styled text only ever goes to stderr. The export report on stdout stays
// plain so it can be piped and diffed.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Semantic colors
var (
	ColorPass   = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#8BC34A"}
	ColorAccent = lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#64B5F6"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#F57F17", Dark: "#FFC107"}
	ColorFail   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#E53935"}
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(ColorPass).Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	warnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	failStyle   = lipgloss.NewStyle().Foreground(ColorFail).Bold(true)
)

// Init picks the color profile for f. Color is dropped when f is not a
// terminal or NO_COLOR is set.
func Init(f *os.File) {
	SetColor(term.IsTerminal(int(f.Fd())) && os.Getenv("NO_COLOR") == "")
}

// SetColor forces color output on or off.
func SetColor(enabled bool) {
	if enabled {
		lipgloss.SetColorProfile(termenv.EnvColorProfile())
		return
	}
	lipgloss.SetColorProfile(termenv.Ascii)
}

func RenderPass(s string) string   { return passStyle.Render(s) }
func RenderAccent(s string) string { return accentStyle.Render(s) }
func RenderWarn(s string) string   { return warnStyle.Render(s) }
func RenderFail(s string) string   { return failStyle.Render(s) }
