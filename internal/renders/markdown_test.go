package renders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	result := RenderMarkdown("# Hello\n\nThis is **bold** text.")
	assert.NotEmpty(t, result)
}

func TestRenderMarkdown_Empty(t *testing.T) {
	result := RenderMarkdown("")
	assert.Empty(t, result)
}

func TestRenderMarkdown_CodeBlock(t *testing.T) {
	input := "```python\ndef main():\n    print(\"hello\")\n```"
	result := RenderMarkdown(input)
	assert.NotEmpty(t, result)
	assert.Contains(t, result, "print")
}
