// Package style holds packrat's terminal styling: lipgloss styles
// shared by the CLI, plus the renderers that turn run results into
// human-readable summaries.
package style

import (
	"github.com/charmbracelet/lipgloss"
)

// Base styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(HeadingColor).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	PathStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Italic(true)
)

// Operation indicator styles
var (
	SuccessIndicator = SuccessStyle.Render("✓")
	ErrorIndicator   = ErrorStyle.Render("✗")
	WarningIndicator = WarningStyle.Render("!")
)

// Indent pads s by level*2 spaces.
func Indent(s string, level int) string {
	return lipgloss.NewStyle().PaddingLeft(level * 2).Render(s)
}

// Bold renders s in bold.
func Bold(s string) string {
	return lipgloss.NewStyle().Bold(true).Render(s)
}
