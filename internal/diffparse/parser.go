package diffparse

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// ChangeKind classifies how a file changed within a diff.
type ChangeKind string

const (
	KindAdded    ChangeKind = "added"
	KindModified ChangeKind = "modified"
	KindDeleted  ChangeKind = "deleted"
	KindRenamed  ChangeKind = "renamed"
)

// ChangeRecord is the normalized representation of one file's modification.
// Records are immutable once produced and owned by the invocation that
// requested them.
type ChangeRecord struct {
	Path    string
	OldPath string // set for renamed files
	Kind    ChangeKind
	Patch   string // unified diff text; empty for binary files
	Added   int
	Removed int
	Binary  bool
}

// IsPython reports whether the record points at a Python source file.
func (r ChangeRecord) IsPython() bool {
	return strings.HasSuffix(r.Path, ".py")
}

// Summary returns the +N/-N change summary for the record.
func (r ChangeRecord) Summary() string {
	return fmt.Sprintf("+%d/-%d", r.Added, r.Removed)
}

// Parse parses raw unified diff output into ChangeRecords, one per file.
func Parse(raw string) ([]ChangeRecord, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	fileDiffs, err := diff.ParseMultiFileDiff([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	records := make([]ChangeRecord, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		rec := ChangeRecord{
			Kind: KindModified,
		}

		oldName := cleanPath(fd.OrigName)
		newName := cleanPath(fd.NewName)

		switch {
		case fd.OrigName == "/dev/null":
			rec.Kind = KindAdded
			rec.Path = newName
		case fd.NewName == "/dev/null":
			rec.Kind = KindDeleted
			rec.Path = oldName
		case oldName != "" && newName != "" && oldName != newName:
			rec.Kind = KindRenamed
			rec.Path = newName
			rec.OldPath = oldName
		default:
			rec.Path = newName
		}

		// Binary patches carry no hunks; git marks them in the extended
		// header lines instead.
		for _, ext := range fd.Extended {
			if strings.Contains(ext, "Binary files") || strings.Contains(ext, "GIT binary patch") {
				rec.Binary = true
				break
			}
		}
		// The extension heuristic only applies to hunk-less diffs. A file
		// with real text hunks is text no matter what it is called.
		if !rec.Binary && len(fd.Hunks) == 0 {
			rec.Binary = isBinaryPath(rec.Path)
		}

		if !rec.Binary {
			for _, h := range fd.Hunks {
				for _, line := range strings.Split(string(h.Body), "\n") {
					if len(line) == 0 {
						continue
					}
					switch line[0] {
					case '+':
						rec.Added++
					case '-':
						rec.Removed++
					}
				}
			}

			if printed, err := diff.PrintFileDiff(fd); err == nil {
				rec.Patch = string(printed)
			}
		}

		records = append(records, rec)
	}

	return records, nil
}

// TextRecords returns only the reviewable text-file records.
func TextRecords(records []ChangeRecord) []ChangeRecord {
	out := make([]ChangeRecord, 0, len(records))
	for _, r := range records {
		if r.Binary {
			continue
		}
		out = append(out, r)
	}
	return out
}

func isBinaryPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(path)))
	switch ext {
	case ".pdf", ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".ico", ".tiff", ".heic",
		".zip", ".tar", ".gz", ".bz2", ".xz", ".7z", ".rar",
		".jar", ".war", ".so", ".dll", ".dylib", ".a", ".o", ".obj", ".exe", ".bin", ".class",
		".woff", ".woff2", ".ttf", ".otf", ".eot",
		".mp3", ".mp4", ".mov", ".wav", ".avi", ".mkv", ".flac":
		return true
	default:
		return false
	}
}

func cleanPath(p string) string {
	p = strings.TrimPrefix(p, "a/")
	p = strings.TrimPrefix(p, "b/")
	return p
}
