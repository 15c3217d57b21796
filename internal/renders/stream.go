package renders

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/sanix-darker/pyrev/internal/provider"
)

// RenderStream prints chunks from a StreamResult and returns the accumulated
// content. On a TTY chunks appear as they arrive; otherwise the content is
// rendered once at the end.
func RenderStream(result provider.StreamResult) (string, error) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return renderStreamTTY(result)
	}
	return renderStreamRaw(result)
}

func renderStreamTTY(result provider.StreamResult) (string, error) {
	var sb strings.Builder
	for chunk := range result.Chunks {
		if chunk.Content != "" {
			fmt.Print(chunk.Content)
			sb.WriteString(chunk.Content)
		}
	}
	fmt.Println()
	return sb.String(), <-result.Err
}

func renderStreamRaw(result provider.StreamResult) (string, error) {
	var sb strings.Builder
	for chunk := range result.Chunks {
		sb.WriteString(chunk.Content)
	}
	if err := <-result.Err; err != nil {
		return sb.String(), err
	}
	if sb.Len() > 0 {
		fmt.Print(RenderMarkdown(sb.String()))
	}
	return sb.String(), nil
}
