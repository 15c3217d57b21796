package review

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanix-darker/pyrev/internal/analyzer"
	"github.com/sanix-darker/pyrev/internal/diffparse"
)

func defaultOpts() PromptOptions {
	return PromptOptions{
		Strictness:       "harsh",
		SecurityChecks:   true,
		PerformanceCheck: true,
		BestPractices:    true,
	}
}

func makeRecord(path string, lines int) diffparse.ChangeRecord {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("--- a/%s\n+++ b/%s\n@@ -1,%d +1,%d @@\n", path, path, lines, lines))
	for i := 0; i < lines; i++ {
		sb.WriteString(fmt.Sprintf("+line_%d = %d\n", i, i))
	}
	return diffparse.ChangeRecord{
		Path:  path,
		Kind:  diffparse.KindModified,
		Patch: sb.String(),
		Added: lines,
	}
}

func TestSystemPromptCategoryToggles(t *testing.T) {
	b := NewPromptBuilder(defaultOpts())
	assert.NotContains(t, b.SystemPrompt(), "out of scope")

	opts := defaultOpts()
	opts.SecurityChecks = false
	opts.PerformanceCheck = false
	b = NewPromptBuilder(opts)
	prompt := b.SystemPrompt()
	assert.Contains(t, prompt, "out of scope")
	assert.Contains(t, prompt, "security, performance")
	assert.NotContains(t, prompt, "security, performance, best-practices")
}

func TestUserPromptDeterministic(t *testing.T) {
	b := NewPromptBuilder(defaultOpts())
	records := []diffparse.ChangeRecord{
		makeRecord("a.py", 10),
		makeRecord("b.py", 20),
	}
	p1 := b.UserPrompt(records, nil)
	p2 := b.UserPrompt(records, nil)
	assert.Equal(t, p1, p2)
	assert.Contains(t, p1, "### a.py")
	assert.Contains(t, p1, "### b.py")
}

func TestUserPromptIncludesAnalysis(t *testing.T) {
	b := NewPromptBuilder(defaultOpts())
	records := []diffparse.ChangeRecord{makeRecord("a.py", 5)}
	analyses := map[string]analyzer.FileAnalysis{
		"a.py": {
			Path:     "a.py",
			SyntaxOK: true,
			Functions: []analyzer.FunctionInfo{
				{Name: "handler", Params: "(req)", Line: 3, Complexity: 4},
			},
		},
	}
	out := b.UserPrompt(records, analyses)
	assert.Contains(t, out, "def handler(req) (line 3, complexity 4)")
}

func TestUserPromptTruncatesLargestFirst(t *testing.T) {
	opts := defaultOpts()
	opts.MaxTokens = 800
	b := NewPromptBuilder(opts)

	records := []diffparse.ChangeRecord{
		makeRecord("small.py", 10),
		makeRecord("huge.py", 5000),
	}
	out := b.UserPrompt(records, nil)

	// Both file names survive no matter how tight the budget.
	assert.Contains(t, out, "### small.py")
	assert.Contains(t, out, "### huge.py")

	assert.Contains(t, out, "diff truncated")
	assert.NotContains(t, out, "line_4999")
	assert.LessOrEqual(t, b.CountTokens(out), 800+200) // render overhead tolerance

	// The prompt opens with a single warning that coverage is partial.
	assert.Contains(t, out, "coverage of the change set is partial")
	assert.Equal(t, 1, strings.Count(out, "coverage of the change set is partial"))
}

func TestUserPromptNoBudgetKeepsEverything(t *testing.T) {
	b := NewPromptBuilder(defaultOpts())
	out := b.UserPrompt([]diffparse.ChangeRecord{makeRecord("big.py", 500)}, nil)
	assert.NotContains(t, out, "diff truncated")
	assert.NotContains(t, out, "coverage of the change set is partial")
	assert.Contains(t, out, "line_499")
}

func TestUserPromptBinaryFile(t *testing.T) {
	b := NewPromptBuilder(defaultOpts())
	records := []diffparse.ChangeRecord{
		{Path: "logo.png", Kind: diffparse.KindModified, Binary: true},
	}
	out := b.UserPrompt(records, nil)
	assert.Contains(t, out, "logo.png")
	assert.Contains(t, out, "binary file, diff omitted")
}

func TestCountTokensPositive(t *testing.T) {
	b := NewPromptBuilder(defaultOpts())
	n := b.CountTokens("def check_password(password, salt):")
	require.Greater(t, n, 0)
	assert.Less(t, n, 40)
}
