package topics

import (
	"github.com/charmbracelet/glamour"
)

// GlamourRenderer uses the glamour library for rich markdown rendering
type GlamourRenderer struct {
	Style string // Style name: "dark", "light", "notty", "auto", or path to custom style
	Width int    // Terminal width (0 = auto-detect)
}

// NewGlamourRenderer creates a markdown renderer using glamour with auto-detection
func NewGlamourRenderer() *GlamourRenderer {
	return &GlamourRenderer{
		Style: "auto",
		Width: 0,
	}
}

// Render converts markdown to terminal output; other formats pass through.
func (r *GlamourRenderer) Render(content string, format string) string {
	if format != ".md" {
		return content
	}

	var options []glamour.TermRendererOption
	if r.Style != "" && r.Style != "auto" {
		options = append(options, glamour.WithStylePath(r.Style))
	} else {
		options = append(options, glamour.WithAutoStyle())
	}
	if r.Width > 0 {
		options = append(options, glamour.WithWordWrap(r.Width))
	}

	renderer, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
