package diffparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modifiedDiff = `diff --git a/src/app/auth.py b/src/app/auth.py
index 1234567..89abcde 100644
--- a/src/app/auth.py
+++ b/src/app/auth.py
@@ -1,5 +1,6 @@
 import hashlib

-def check(password):
-    return hashlib.md5(password).hexdigest()
+def check(password, salt):
+    digest = hashlib.sha256(salt + password.encode())
+    return digest.hexdigest()
`

const addedDiff = `diff --git a/src/app/new.py b/src/app/new.py
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/src/app/new.py
@@ -0,0 +1,2 @@
+def hello():
+    return "hello"
`

const deletedDiff = `diff --git a/src/app/old.py b/src/app/old.py
deleted file mode 100644
index e69de29..0000000
--- a/src/app/old.py
+++ /dev/null
@@ -1,2 +0,0 @@
-def bye():
-    return "bye"
`

const renamedDiff = `diff --git a/src/app/before.py b/src/app/after.py
similarity index 90%
rename from src/app/before.py
rename to src/app/after.py
index 1234567..89abcde 100644
--- a/src/app/before.py
+++ b/src/app/after.py
@@ -1,2 +1,2 @@
 def f():
-    return 1
+    return 2
`

const binaryDiff = `diff --git a/assets/logo.png b/assets/logo.png
index 1234567..89abcde 100644
Binary files a/assets/logo.png and b/assets/logo.png differ
`

func TestParseModified(t *testing.T) {
	records, err := Parse(modifiedDiff)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "src/app/auth.py", rec.Path)
	assert.Equal(t, KindModified, rec.Kind)
	assert.Equal(t, 3, rec.Added)
	assert.Equal(t, 2, rec.Removed)
	assert.False(t, rec.Binary)
	assert.True(t, rec.IsPython())
	assert.Contains(t, rec.Patch, "hashlib.sha256")
	assert.Equal(t, "+3/-2", rec.Summary())
}

func TestParseAdded(t *testing.T) {
	records, err := Parse(addedDiff)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, KindAdded, records[0].Kind)
	assert.Equal(t, "src/app/new.py", records[0].Path)
	assert.Equal(t, 2, records[0].Added)
	assert.Equal(t, 0, records[0].Removed)
}

func TestParseDeleted(t *testing.T) {
	records, err := Parse(deletedDiff)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, KindDeleted, records[0].Kind)
	assert.Equal(t, "src/app/old.py", records[0].Path)
	assert.Equal(t, 2, records[0].Removed)
}

func TestParseRenamed(t *testing.T) {
	records, err := Parse(renamedDiff)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, KindRenamed, rec.Kind)
	assert.Equal(t, "src/app/after.py", rec.Path)
	assert.Equal(t, "src/app/before.py", rec.OldPath)
}

func TestParseBinary(t *testing.T) {
	records, err := Parse(binaryDiff)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.True(t, rec.Binary)
	assert.Empty(t, rec.Patch)
	assert.False(t, rec.IsPython())
}

func TestParseTextHunksBeatExtension(t *testing.T) {
	// An SVG-style build artifact committed under a binary-looking name
	// still diffs as text; the hunks decide, not the extension.
	textyPng := `diff --git a/assets/logo.png b/assets/logo.png
index 1234567..89abcde 100644
--- a/assets/logo.png
+++ b/assets/logo.png
@@ -1,2 +1,2 @@
 <svg>
-<rect width="1"/>
+<rect width="2"/>
`
	records, err := Parse(textyPng)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.False(t, rec.Binary)
	assert.Equal(t, 1, rec.Added)
	assert.Equal(t, 1, rec.Removed)
	assert.Contains(t, rec.Patch, `<rect width="2"/>`)
}

func TestParseHunklessBinaryExtension(t *testing.T) {
	hunkless := `diff --git a/font.woff2 b/font.woff2
index 1234567..89abcde 100644
`
	records, err := Parse(hunkless)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Binary)
}

func TestParseMultipleFiles(t *testing.T) {
	records, err := Parse(modifiedDiff + addedDiff + binaryDiff)
	require.NoError(t, err)
	require.Len(t, records, 3)

	text := TextRecords(records)
	assert.Len(t, text, 2)
	for _, r := range text {
		assert.False(t, r.Binary)
	}
}

func TestParseEmpty(t *testing.T) {
	records, err := Parse("   \n  ")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestBinaryPathFallback(t *testing.T) {
	assert.True(t, isBinaryPath("a/b/archive.ZIP"))
	assert.True(t, isBinaryPath("font.woff2"))
	assert.False(t, isBinaryPath("main.py"))
	assert.False(t, isBinaryPath("README.md"))
}
