package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// minMarkdownWidth keeps narrow terminals from wrapping every word.
const minMarkdownWidth = 24

// markdownRenderer renders task descriptions for the detail view. The glamour
// renderer is rebuilt only when the wrap width changes, and the last result
// is reused while the same description stays open.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer

	lastInput  string
	lastOutput string
}

func (r *markdownRenderer) render(source string, width int) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return ""
	}
	width = max(width, minMarkdownWidth)

	if r.renderer == nil || r.width != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return source
		}
		r.renderer = renderer
		r.width = width
		r.lastInput = ""
	}
	if source == r.lastInput {
		return r.lastOutput
	}

	out, err := r.renderer.Render(source)
	if err != nil {
		return source
	}
	r.lastInput = source
	r.lastOutput = strings.Trim(out, "\n")
	return r.lastOutput
}
