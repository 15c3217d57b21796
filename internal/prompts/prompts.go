// Package prompts holds the instruction templates sent to AI providers.
// Templates live as plain text files embedded at build time so they can be
// tuned without touching Go code.
package prompts

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed templates/*.txt
var templateFS embed.FS

// ReviewPrompt returns the review system prompt for the given strictness
// level. Unknown levels fall back to "harsh", matching the default
// configuration.
func ReviewPrompt(strictness string) string {
	data, err := templateFS.ReadFile(fmt.Sprintf("templates/review_%s.txt", strictness))
	if err != nil {
		data, _ = templateFS.ReadFile("templates/review_harsh.txt")
	}
	return string(data)
}

// TestPromptValues carries the substitutions for the test generation template.
type TestPromptValues struct {
	FunctionInfo      string
	Framework         string
	Imports           string
	Examples          string
	RequireDocstrings bool
}

// TestGenerationPrompt renders the test generation template with the given
// values.
func TestGenerationPrompt(v TestPromptValues) string {
	data, _ := templateFS.ReadFile("templates/test_generation.txt")
	out := string(data)

	imports := v.Imports
	if strings.TrimSpace(imports) == "" {
		imports = "# No additional imports found"
	}
	examples := v.Examples
	if strings.TrimSpace(examples) == "" {
		examples = "# No example tests found"
	}
	docstring := ""
	if v.RequireDocstrings {
		docstring = "- Add a one-line docstring to every test function"
	}

	r := strings.NewReplacer(
		"{{function_info}}", v.FunctionInfo,
		"{{framework}}", v.Framework,
		"{{imports}}", imports,
		"{{examples}}", examples,
		"{{docstring_requirement}}", docstring,
	)
	return r.Replace(out)
}
