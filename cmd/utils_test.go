package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSourceTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	for _, name := range []string{"src/calc.py", "src/auth.py", "src/test_calc.py", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x = 1\n"), 0o644))
	}
	return dir
}

func TestExtractPathsSingleFile(t *testing.T) {
	dir := seedSourceTree(t)

	files := ExtractPaths("src/calc.py", dir)
	assert.Equal(t, []string{filepath.Join("src", "calc.py")}, files)
}

func TestExtractPathsCommaList(t *testing.T) {
	dir := seedSourceTree(t)

	files := ExtractPaths("src/calc.py, src/auth.py", dir)
	assert.Equal(t, []string{
		filepath.Join("src", "calc.py"),
		filepath.Join("src", "auth.py"),
	}, files)
}

func TestExtractPathsGlob(t *testing.T) {
	dir := seedSourceTree(t)

	files := ExtractPaths("src/*.py", dir)
	assert.ElementsMatch(t, []string{
		filepath.Join("src", "auth.py"),
		filepath.Join("src", "calc.py"),
		filepath.Join("src", "test_calc.py"),
	}, files)
}

func TestExtractPathsDirectoryWalk(t *testing.T) {
	dir := seedSourceTree(t)

	files := ExtractPaths("src", dir)
	assert.Len(t, files, 3)
	for _, f := range files {
		assert.False(t, filepath.IsAbs(f), "walk results stay relative to root: %s", f)
	}
}

func TestExpandSourcesPlainPathPassesThrough(t *testing.T) {
	sources, err := expandSources("src/no_such_file.py", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, []string{"src/no_such_file.py"}, sources)
}

func TestExpandSourcesGlobFiltersTests(t *testing.T) {
	dir := seedSourceTree(t)

	sources, err := expandSources("src/*.py", dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join("src", "auth.py"),
		filepath.Join("src", "calc.py"),
	}, sources)
}

func TestExpandSourcesNoMatches(t *testing.T) {
	_, err := expandSources("src/*.py", t.TempDir())
	assert.Error(t, err)
}
