package testgen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const generatedResponse = "Here are the tests:\n\n```python\nimport pytest\n\nfrom calc import divide\n\n\ndef test_divide_basic():\n    assert divide(10, 2) == 5\n\n\ndef test_divide_by_zero():\n    with pytest.raises(ValueError):\n        divide(1, 0)\n```\n\nThese cover both paths."

func TestParseGenerated(t *testing.T) {
	gen, err := ParseGenerated(generatedResponse)
	require.NoError(t, err)

	assert.Equal(t, []string{"test_divide_basic", "test_divide_by_zero"}, gen.Functions)
	assert.Contains(t, gen.Code, "import pytest")
	assert.NotContains(t, gen.Code, "```")
	assert.NotContains(t, gen.Code, "Here are the tests")
}

func TestParseGeneratedBareCode(t *testing.T) {
	gen, err := ParseGenerated("def test_simple():\n    assert True\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"test_simple"}, gen.Functions)
}

func TestParseGeneratedInvalidSyntax(t *testing.T) {
	_, err := ParseGenerated("```python\ndef test_broken(:\n    pass\n```")
	var ige *InvalidGeneratedCodeError
	require.ErrorAs(t, err, &ige)
}

func TestParseGeneratedNoTests(t *testing.T) {
	_, err := ParseGenerated("```python\ndef helper():\n    return 1\n```")
	var ige *InvalidGeneratedCodeError
	require.ErrorAs(t, err, &ige)
	assert.Contains(t, ige.Reason, "no test_ functions")
}

func TestParseGeneratedEmpty(t *testing.T) {
	_, err := ParseGenerated("I cannot generate tests for this file.```python\n```")
	var ige *InvalidGeneratedCodeError
	require.ErrorAs(t, err, &ige)
}

func TestApplyCreatesNewFile(t *testing.T) {
	gen, err := ParseGenerated(generatedResponse)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tests", "test_calc.py")
	res, err := Apply(gen, path, "pytest", false)
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.Equal(t, gen.Functions, res.Appended)
	assert.NotEmpty(t, res.Diff)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(written), "def test_divide_basic")
}

func TestApplyPrependsMissingFrameworkImport(t *testing.T) {
	gen, err := ParseGenerated("```python\ndef test_simple():\n    assert True\n```")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tests", "test_simple.py")
	_, err = Apply(gen, path, "pytest", false)
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(written), "import pytest\n\n"))
}

func TestApplyKeepsExistingFrameworkImport(t *testing.T) {
	gen, err := ParseGenerated(generatedResponse)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tests", "test_calc.py")
	_, err = Apply(gen, path, "pytest", false)
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(written), "import pytest"))
}

func TestApplyUnittestImport(t *testing.T) {
	gen, err := ParseGenerated("```python\ndef test_add():\n    assert 1 + 1 == 2\n```")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tests", "test_add.py")
	_, err = Apply(gen, path, "unittest", false)
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(written), "import unittest\n\n"))
}

func TestApplyDryRunWritesNothing(t *testing.T) {
	gen, err := ParseGenerated(generatedResponse)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tests", "test_calc.py")
	res, err := Apply(gen, path, "pytest", true)
	require.NoError(t, err)

	assert.True(t, res.DryRun)
	assert.True(t, res.Created)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "dry run must not create files")
}

func TestApplyAppendsOnlyNewFunctions(t *testing.T) {
	gen, err := ParseGenerated(generatedResponse)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "test_calc.py")
	existing := "import pytest\n\nfrom calc import divide\n\n\ndef test_divide_basic():\n    assert divide(4, 2) == 2\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	res, err := Apply(gen, path, "pytest", false)
	require.NoError(t, err)

	assert.False(t, res.Created)
	assert.Equal(t, []string{"test_divide_by_zero"}, res.Appended)
	assert.Equal(t, []string{"test_divide_basic"}, res.Skipped)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(written)
	assert.Contains(t, content, "assert divide(4, 2) == 2", "existing test body preserved")
	assert.Contains(t, content, "def test_divide_by_zero")
	// The duplicate definition was not appended a second time.
	assert.Equal(t, 1, strings.Count(content, "def test_divide_basic"))
}

func TestApplyAllDuplicates(t *testing.T) {
	gen, err := ParseGenerated(generatedResponse)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "test_calc.py")
	existing := "def test_divide_basic():\n    pass\n\n\ndef test_divide_by_zero():\n    pass\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	res, err := Apply(gen, path, "pytest", false)
	require.NoError(t, err)
	assert.Empty(t, res.Appended)
	assert.Len(t, res.Skipped, 2)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, existing, string(written), "file untouched when nothing to add")
}
