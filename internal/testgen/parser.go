package testgen

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/sanix-darker/pyrev/internal/analyzer"
)

// InvalidGeneratedCodeError indicates the model produced Python that does
// not parse. Nothing is written when this happens.
type InvalidGeneratedCodeError struct {
	Reason string
}

func (e *InvalidGeneratedCodeError) Error() string {
	return fmt.Sprintf("generated test code is invalid: %s", e.Reason)
}

var pythonFenceRe = regexp.MustCompile("(?s)```(?:python)?\\s*\\n(.*?)```")

// Generated is validated test code ready to be written.
type Generated struct {
	Code string
	// Functions lists the test function names found in the code.
	Functions []string
}

// ParseGenerated extracts Python test code from a model response and
// validates it with a real parse. The response should carry one fenced code
// block; bare code without fences is accepted too.
func ParseGenerated(raw string) (*Generated, error) {
	code := extractCode(raw)
	if strings.TrimSpace(code) == "" {
		return nil, &InvalidGeneratedCodeError{Reason: "response contained no code"}
	}

	an, err := analyzer.New()
	if err != nil {
		return nil, err
	}
	defer an.Close()

	analysis := an.Analyze("generated", []byte(code))
	if !analysis.SyntaxOK {
		return nil, &InvalidGeneratedCodeError{Reason: "code does not parse as Python"}
	}

	var funcs []string
	for _, fn := range analysis.Functions {
		if strings.HasPrefix(fn.Name, "test_") {
			funcs = append(funcs, fn.Name)
		}
	}
	if len(funcs) == 0 {
		return nil, &InvalidGeneratedCodeError{Reason: "no test_ functions found"}
	}

	return &Generated{Code: strings.TrimSpace(code) + "\n", Functions: funcs}, nil
}

func extractCode(raw string) string {
	if m := pythonFenceRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

// WriteResult reports what Apply did.
type WriteResult struct {
	Path    string
	Created bool
	// Appended lists the functions added to an existing file.
	Appended []string
	// Skipped lists functions that already existed in the target file.
	Skipped []string
	// Diff is a human-readable preview of the change.
	Diff string
	// DryRun is set when nothing was written.
	DryRun bool
}

// Apply writes generated tests to path. New files are created whole, with
// the framework import prepended when the model forgot it; for an existing
// file, only test functions not already present are appended. With dryRun,
// the filesystem is never touched and the result shows what would have
// happened.
func Apply(gen *Generated, path, framework string, dryRun bool) (*WriteResult, error) {
	res := &WriteResult{Path: path, DryRun: dryRun}

	existing, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		code := withFrameworkImport(gen.Code, framework)
		res.Created = true
		res.Appended = gen.Functions
		res.Diff = previewDiff("", code)
		if dryRun {
			return res, nil
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create test directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write test file: %w", err)
		}
		return res, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read existing test file: %w", err)
	}

	content := string(existing)
	var additions []string
	for _, fn := range gen.Functions {
		if strings.Contains(content, "def "+fn+"(") {
			res.Skipped = append(res.Skipped, fn)
			continue
		}
		res.Appended = append(res.Appended, fn)
		if block := functionBlock(gen.Code, fn); block != "" {
			additions = append(additions, block)
		}
	}

	if len(additions) == 0 {
		res.Diff = ""
		return res, nil
	}

	updated := strings.TrimRight(content, "\n") + "\n\n\n" + strings.Join(additions, "\n\n\n") + "\n"
	res.Diff = previewDiff(content, updated)
	if dryRun {
		return res, nil
	}
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return nil, fmt.Errorf("failed to update test file: %w", err)
	}
	return res, nil
}

// withFrameworkImport prepends the framework import to a new test file when
// the generated code does not already import it. Appends to existing files
// inherit whatever that file imports, so only the create path goes through
// here.
func withFrameworkImport(code, framework string) string {
	mod := strings.TrimSpace(framework)
	if mod == "" || importsModule(code, mod) {
		return code
	}
	return "import " + mod + "\n\n" + code
}

func importsModule(code, mod string) bool {
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "import "+mod,
			strings.HasPrefix(trimmed, "import "+mod+" "),
			strings.HasPrefix(trimmed, "import "+mod+"."),
			strings.HasPrefix(trimmed, "from "+mod+" "),
			strings.HasPrefix(trimmed, "from "+mod+"."):
			return true
		}
	}
	return false
}

// functionBlock cuts one top-level function (with any directly preceding
// decorators) out of the generated code.
func functionBlock(code, name string) string {
	lines := strings.Split(code, "\n")
	defLine := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "def "+name+"(") || strings.HasPrefix(line, "async def "+name+"(") {
			defLine = i
			break
		}
	}
	if defLine < 0 {
		return ""
	}
	// Pull in decorators above the def.
	start := defLine
	for start > 0 && strings.HasPrefix(strings.TrimSpace(lines[start-1]), "@") {
		start--
	}

	// The body runs until the next non-blank top-level line.
	end := defLine + 1
	for end < len(lines) {
		line := lines[end]
		if strings.TrimSpace(line) != "" && indentOf(line) == 0 {
			break
		}
		end++
	}
	return strings.TrimRight(strings.Join(lines[start:end], "\n"), "\n")
}

// previewDiff renders a small colored diff of the pending change.
func previewDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	dmp.DiffCleanupSemantic(diffs)
	return dmp.DiffPrettyText(diffs)
}
