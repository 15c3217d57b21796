// Package renders handles terminal presentation of review output.
package renders

import (
	"os"

	markdown "github.com/MichaelMure/go-term-markdown"
	"golang.org/x/term"
)

const defaultWidth = 100

// RenderMarkdown renders markdown with ANSI styling sized to the terminal.
// For non-TTY output the text is returned unchanged so pipes and redirects
// get clean markdown.
func RenderMarkdown(content string) string {
	if content == "" {
		return ""
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return content
	}

	width := defaultWidth
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		width = w
	}
	return string(markdown.Render(content, width, 0))
}
