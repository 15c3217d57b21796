// Package testgen builds prompts for unit test generation and validates the
// code that comes back before anything touches the filesystem.
package testgen

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sanix-darker/pyrev/internal/analyzer"
	"github.com/sanix-darker/pyrev/internal/config"
	"github.com/sanix-darker/pyrev/internal/prompts"
)

const (
	maxPatternFiles    = 3
	maxExampleFuncs    = 2
	maxExampleFuncSize = 40 // lines per example function
)

// SymbolNotFoundError indicates the requested function does not exist in the
// target file.
type SymbolNotFoundError struct {
	Symbol string
	Path   string
}

func (e *SymbolNotFoundError) Error() string {
	return fmt.Sprintf("function %q not found in %s", e.Symbol, e.Path)
}

// Context is everything needed to prompt for tests of one function.
type Context struct {
	SourcePath string
	Target     analyzer.FunctionInfo
	Framework  string
	Imports    []string
	// Examples holds test functions lifted from existing test files so
	// generated tests follow project conventions.
	Examples []string
	// TestPath is where the generated tests belong.
	TestPath string
}

// Prompt renders the test generation prompt for this context.
func (c *Context) Prompt(generateDocstrings bool) string {
	var info strings.Builder
	info.WriteString(fmt.Sprintf("From %s:\n\n%s\n", c.SourcePath, c.Target.Signature()))
	if c.Target.Docstring != "" {
		info.WriteString(fmt.Sprintf("\nDocstring: %s\n", c.Target.Docstring))
	}
	if len(c.Target.Decorators) > 0 {
		info.WriteString(fmt.Sprintf("Decorators: @%s\n", strings.Join(c.Target.Decorators, ", @")))
	}

	return prompts.TestGenerationPrompt(prompts.TestPromptValues{
		FunctionInfo:      info.String(),
		Framework:         c.Framework,
		Imports:           strings.Join(c.Imports, "\n"),
		Examples:          strings.Join(c.Examples, "\n\n"),
		RequireDocstrings: generateDocstrings,
	})
}

// Builder collects test generation context from a repository.
type Builder struct {
	RepoRoot string
	Conf     config.Config
}

// Build analyzes the source file and assembles the prompt context for the
// named function. With an empty function name, the first module-level
// function is used. Plain functions are preferred over methods.
func (b *Builder) Build(sourcePath, functionName string) (*Context, error) {
	absPath := sourcePath
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(b.RepoRoot, sourcePath)
	}
	source, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}

	an, err := analyzer.New()
	if err != nil {
		return nil, err
	}
	defer an.Close()

	analysis := an.Analyze(sourcePath, source)
	if !analysis.SyntaxOK {
		return nil, fmt.Errorf("%s has syntax errors; fix them before generating tests", sourcePath)
	}

	target, err := pickTarget(analysis, functionName, sourcePath)
	if err != nil {
		return nil, err
	}

	examples, discovered := b.discoverPatterns(an)
	framework := discovered
	if framework == "" {
		framework = b.Conf.TestFramework
	}

	return &Context{
		SourcePath: sourcePath,
		Target:     target,
		Framework:  framework,
		Imports:    analysis.Imports,
		Examples:   examples,
		TestPath:   b.TestPath(sourcePath),
	}, nil
}

// Targets lists the public functions and methods of a source file, in
// declaration order. Underscore-private names are skipped, __init__ is not.
func (b *Builder) Targets(sourcePath string) ([]string, error) {
	absPath := sourcePath
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(b.RepoRoot, sourcePath)
	}
	source, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}

	an, err := analyzer.New()
	if err != nil {
		return nil, err
	}
	defer an.Close()

	analysis := an.Analyze(sourcePath, source)
	if !analysis.SyntaxOK {
		return nil, fmt.Errorf("%s has syntax errors; fix them before generating tests", sourcePath)
	}

	var names []string
	for _, fn := range analysis.Functions {
		if strings.HasPrefix(fn.Name, "_") && fn.Name != "__init__" {
			continue
		}
		names = append(names, fn.Name)
	}
	if len(names) == 0 {
		return nil, &SymbolNotFoundError{Symbol: "(any function)", Path: sourcePath}
	}
	return names, nil
}

// pickTarget selects the function to test: an exact name match if given
// (module-level functions win over methods), otherwise the first
// module-level function in the file.
func pickTarget(analysis analyzer.FileAnalysis, name, path string) (analyzer.FunctionInfo, error) {
	if name == "" {
		for _, fn := range analysis.Functions {
			if fn.Class == "" {
				return fn, nil
			}
		}
		if len(analysis.Functions) > 0 {
			return analysis.Functions[0], nil
		}
		return analyzer.FunctionInfo{}, &SymbolNotFoundError{Symbol: "(any function)", Path: path}
	}

	for _, fn := range analysis.Functions {
		if fn.Name == name && fn.Class == "" {
			return fn, nil
		}
	}
	for _, fn := range analysis.Functions {
		if fn.Name == name {
			return fn, nil
		}
	}
	return analyzer.FunctionInfo{}, &SymbolNotFoundError{Symbol: name, Path: path}
}

// discoverPatterns collects example test functions from existing test files
// and infers the framework from their imports. At most maxPatternFiles files
// contribute, with maxExampleFuncs examples each.
func (b *Builder) discoverPatterns(an *analyzer.Analyzer) (examples []string, framework string) {
	files := b.findTestFiles()

	for _, path := range files {
		if len(examples) >= maxPatternFiles*maxExampleFuncs {
			break
		}
		source, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		analysis := an.Analyze(path, source)
		if !analysis.SyntaxOK {
			continue
		}

		if framework == "" {
			framework = inferFramework(analysis.Imports)
		}

		lines := strings.Split(string(source), "\n")
		taken := 0
		for _, fn := range analysis.Functions {
			if taken >= maxExampleFuncs {
				break
			}
			if !strings.HasPrefix(fn.Name, "test_") {
				continue
			}
			if snippet := extractFunction(lines, fn.Line); snippet != "" {
				examples = append(examples, snippet)
				taken++
			}
		}
	}
	return examples, framework
}

// findTestFiles returns up to maxPatternFiles existing test files, test dir
// first, sorted for determinism.
func (b *Builder) findTestFiles() []string {
	var found []string
	seen := map[string]struct{}{}

	roots := []string{
		filepath.Join(b.RepoRoot, b.Conf.TestDir),
		b.RepoRoot,
	}
	for _, root := range roots {
		filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if info.IsDir() {
				name := info.Name()
				if name == ".git" || name == "node_modules" || name == "__pycache__" || name == ".venv" {
					return filepath.SkipDir
				}
				return nil
			}
			base := info.Name()
			if strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py") ||
				strings.HasSuffix(base, "_test.py") {
				if _, ok := seen[path]; !ok {
					seen[path] = struct{}{}
					found = append(found, path)
				}
			}
			return nil
		})
	}

	sort.Strings(found)
	if len(found) > maxPatternFiles {
		found = found[:maxPatternFiles]
	}
	return found
}

// inferFramework reads the testing framework off a test file's imports.
func inferFramework(imports []string) string {
	for _, imp := range imports {
		if strings.Contains(imp, "pytest") {
			return config.FrameworkPytest
		}
	}
	for _, imp := range imports {
		if strings.Contains(imp, "unittest") {
			return config.FrameworkUnittest
		}
	}
	return ""
}

// extractFunction lifts the source text of a function starting at startLine
// (1-based), ending where indentation returns to the definition's level.
func extractFunction(lines []string, startLine int) string {
	if startLine < 1 || startLine > len(lines) {
		return ""
	}
	start := startLine - 1
	defIndent := indentOf(lines[start])

	end := start + 1
	for end < len(lines) && end-start < maxExampleFuncSize {
		line := lines[end]
		if strings.TrimSpace(line) != "" && indentOf(line) <= defIndent {
			break
		}
		end++
	}
	return strings.TrimRight(strings.Join(lines[start:end], "\n"), "\n")
}

func indentOf(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t"))
}

// TestPath derives where tests for a source file live: the src/ prefix is
// dropped, directories are preserved, and the file gets a test_ prefix.
// "src/pkg/util.py" maps to "<testdir>/pkg/test_util.py".
func (b *Builder) TestPath(sourcePath string) string {
	rel := filepath.ToSlash(sourcePath)
	rel = strings.TrimPrefix(rel, "src/")

	dir := filepath.Dir(rel)
	stem := strings.TrimSuffix(filepath.Base(rel), ".py")

	testDir := b.Conf.TestDir
	if testDir == "" {
		testDir = "tests"
	}
	if dir == "." {
		return filepath.Join(testDir, fmt.Sprintf("test_%s.py", stem))
	}
	return filepath.Join(testDir, dir, fmt.Sprintf("test_%s.py", stem))
}
