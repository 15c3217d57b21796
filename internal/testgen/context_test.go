package testgen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanix-darker/pyrev/internal/config"
)

func testBuilder(t *testing.T) (*Builder, string) {
	t.Helper()
	dir := t.TempDir()
	conf := config.Config{TestFramework: config.FrameworkPytest, TestDir: "tests"}
	return &Builder{RepoRoot: dir, Conf: conf}, dir
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const calcSource = `"""Calculator helpers."""


def add(a, b):
    """Add two numbers."""
    return a + b


def divide(a, b):
    if b == 0:
        raise ValueError("division by zero")
    return a / b


class Calc:
    def reset(self):
        self.total = 0
`

func TestBuildPicksNamedFunction(t *testing.T) {
	b, dir := testBuilder(t)
	writeFile(t, dir, "src/calc.py", calcSource)

	ctx, err := b.Build("src/calc.py", "divide")
	require.NoError(t, err)

	assert.Equal(t, "divide", ctx.Target.Name)
	assert.Equal(t, config.FrameworkPytest, ctx.Framework)
	assert.Equal(t, filepath.Join("tests", "test_calc.py"), ctx.TestPath)
}

func TestBuildDefaultsToFirstFunction(t *testing.T) {
	b, dir := testBuilder(t)
	writeFile(t, dir, "src/calc.py", calcSource)

	ctx, err := b.Build("src/calc.py", "")
	require.NoError(t, err)
	assert.Equal(t, "add", ctx.Target.Name)
}

func TestBuildPrefersFunctionOverMethod(t *testing.T) {
	b, dir := testBuilder(t)
	writeFile(t, dir, "src/calc.py", calcSource+`

def reset():
    return 0
`)

	ctx, err := b.Build("src/calc.py", "reset")
	require.NoError(t, err)
	assert.Empty(t, ctx.Target.Class)
}

func TestBuildMethodFallback(t *testing.T) {
	b, dir := testBuilder(t)
	writeFile(t, dir, "src/calc.py", calcSource)

	ctx, err := b.Build("src/calc.py", "reset")
	require.NoError(t, err)
	assert.Equal(t, "Calc", ctx.Target.Class)
}

func TestBuildUnknownFunction(t *testing.T) {
	b, dir := testBuilder(t)
	writeFile(t, dir, "src/calc.py", calcSource)

	_, err := b.Build("src/calc.py", "does_not_exist")
	var nf *SymbolNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "does_not_exist", nf.Symbol)
}

func TestBuildRejectsBrokenSource(t *testing.T) {
	b, dir := testBuilder(t)
	writeFile(t, dir, "src/broken.py", "def broken(:\n    pass\n")

	_, err := b.Build("src/broken.py", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syntax errors")
}

func TestBuildDiscoversPatterns(t *testing.T) {
	b, dir := testBuilder(t)
	writeFile(t, dir, "src/calc.py", calcSource)
	writeFile(t, dir, "tests/test_existing.py", `import unittest


def test_one():
    assert 1 + 1 == 2


def test_two():
    assert 2 * 2 == 4


def test_three():
    assert True


def helper():
    pass
`)

	ctx, err := b.Build("src/calc.py", "add")
	require.NoError(t, err)

	// At most two examples per file, and only test_ functions qualify.
	require.Len(t, ctx.Examples, 2)
	assert.Contains(t, ctx.Examples[0], "def test_one")
	assert.Contains(t, ctx.Examples[1], "def test_two")

	// The framework is read off existing test imports, not the config.
	assert.Equal(t, config.FrameworkUnittest, ctx.Framework)
}

func TestTestPathDerivation(t *testing.T) {
	b, _ := testBuilder(t)

	assert.Equal(t, filepath.Join("tests", "test_util.py"), b.TestPath("util.py"))
	assert.Equal(t, filepath.Join("tests", "test_util.py"), b.TestPath("src/util.py"))
	assert.Equal(t, filepath.Join("tests", "pkg", "test_util.py"), b.TestPath("src/pkg/util.py"))
	assert.Equal(t, filepath.Join("tests", "app", "models", "test_user.py"), b.TestPath("app/models/user.py"))
}

func TestContextPrompt(t *testing.T) {
	b, dir := testBuilder(t)
	writeFile(t, dir, "src/calc.py", calcSource)

	ctx, err := b.Build("src/calc.py", "divide")
	require.NoError(t, err)

	prompt := ctx.Prompt(false)
	assert.Contains(t, prompt, "def divide(a, b)")
	assert.Contains(t, prompt, "pytest")
}

func TestTargetsListsPublicFunctions(t *testing.T) {
	b, dir := testBuilder(t)
	writeFile(t, dir, "src/calc.py", calcSource)

	targets, err := b.Targets("src/calc.py")
	require.NoError(t, err)
	assert.Equal(t, []string{"add", "divide", "reset"}, targets)
}

func TestTargetsSkipsPrivateKeepsInit(t *testing.T) {
	b, dir := testBuilder(t)
	writeFile(t, dir, "src/svc.py", `class Service:
    def __init__(self, conn):
        self.conn = conn

    def _internal(self):
        pass

    def fetch(self, key):
        return self.conn.get(key)
`)

	targets, err := b.Targets("src/svc.py")
	require.NoError(t, err)
	assert.Equal(t, []string{"__init__", "fetch"}, targets)
}

func TestTargetsEmptyFile(t *testing.T) {
	b, dir := testBuilder(t)
	writeFile(t, dir, "src/const.py", "VALUE = 42\n")

	_, err := b.Targets("src/const.py")
	var notFound *SymbolNotFoundError
	require.ErrorAs(t, err, &notFound)
}
