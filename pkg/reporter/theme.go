package reporter

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/dkoosis/labreport/pkg/coverage"
)

// Theme defines the colours used by the console reporter.
type Theme struct {
	Name    string
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
}

// Severity returns the style for a coverage bucket.
func (t Theme) Severity(s coverage.Severity) lipgloss.Style {
	switch s {
	case coverage.High:
		return t.Success
	case coverage.Medium:
		return t.Warning
	case coverage.Low:
		return t.Warning.Bold(true)
	default:
		return t.Error
	}
}

// newStyleRenderer returns a lipgloss renderer with a fixed profile so output
// does not depend on the terminal the process happens to run in.
func newStyleRenderer(noColor bool) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	} else {
		r.SetColorProfile(termenv.ANSI)
	}
	return r
}

// DefaultTheme uses the basic ANSI palette.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	return Theme{
		Name:    "default",
		Success: r.NewStyle().Foreground(lipgloss.Color("2")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("3")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("1")),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Bold:    r.NewStyle().Bold(true),
	}
}

// VibrantTheme uses bright ANSI colours.
func VibrantTheme(r *lipgloss.Renderer) Theme {
	return Theme{
		Name:    "vibrant",
		Success: r.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Bold:    r.NewStyle().Bold(true),
	}
}

// MonoTheme returns a monochrome theme (no colours).
func MonoTheme(r *lipgloss.Renderer) Theme {
	return Theme{
		Name:    "mono",
		Success: r.NewStyle(),
		Warning: r.NewStyle(),
		Error:   r.NewStyle(),
		Muted:   r.NewStyle(),
		Bold:    r.NewStyle(),
	}
}

// ThemeNames lists the selectable themes.
func ThemeNames() []string {
	return []string{"default", "vibrant", "mono"}
}

// ThemeByName returns a theme by name, defaulting to DefaultTheme.
func ThemeByName(r *lipgloss.Renderer, name string) Theme {
	switch name {
	case "vibrant":
		return VibrantTheme(r)
	case "mono":
		return MonoTheme(r)
	default:
		return DefaultTheme(r)
	}
}
