package tui

import (
	"strings"

	"charm.land/glamour/v2"
)

// renderMarkdown renders feed messages through glamour, falling back to
// plain wrapped text when the renderer balks.
func renderMarkdown(content string, width int) string {
	// Prose gets hard to scan on very wide terminals.
	if width > 120 {
		width = 120
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return wrapText(content, width)
	}
	rendered, err := r.Render(content)
	if err != nil {
		return wrapText(content, width)
	}

	// Glamour appends a trailing newline
	return strings.TrimSuffix(rendered, "\n")
}

// wrapText wraps text to the given width.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		if i > 0 {
			result.WriteString("\n")
		}

		// Wrap long lines
		for len(line) > width {
			// Find last space before width
			breakPoint := width
			for j := width; j > 0; j-- {
				if line[j] == ' ' {
					breakPoint = j
					break
				}
			}
			result.WriteString(line[:breakPoint])
			result.WriteString("\n")
			line = strings.TrimLeft(line[breakPoint:], " ")
		}
		result.WriteString(line)
	}

	return result.String()
}
