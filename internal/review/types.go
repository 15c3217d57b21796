// Package review implements the code review pipeline: prompt construction,
// response parsing, and orchestration of the diff-to-verdict flow.
package review

import (
	"fmt"
	"strings"
)

// Severity ranks how urgent an issue is. The set is closed; anything a model
// invents outside it is coerced by NormalizeSeverity.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// NormalizeSeverity maps arbitrary model output onto the closed severity
// set. Unknown values become low so a hallucinated label never inflates the
// exit code.
func NormalizeSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityCritical:
		return SeverityCritical
	case SeverityHigh:
		return SeverityHigh
	case SeverityMedium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Rank orders severities for sorting, critical first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	default:
		return 3
	}
}

// Category classifies what kind of problem an issue is.
type Category string

const (
	CategorySecurity      Category = "security"
	CategoryPerformance   Category = "performance"
	CategoryQuality       Category = "quality"
	CategoryBestPractices Category = "best-practices"
)

// NormalizeCategory maps arbitrary model output onto the closed category
// set, defaulting to quality.
func NormalizeCategory(c string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(c))) {
	case CategorySecurity:
		return CategorySecurity
	case CategoryPerformance:
		return CategoryPerformance
	case CategoryBestPractices:
		return CategoryBestPractices
	default:
		return CategoryQuality
	}
}

// Issue is one finding from the review.
type Issue struct {
	Severity    Severity `json:"severity"`
	FilePath    string   `json:"file_path"`
	LineNumber  *int     `json:"line_number"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion"`
	CodeExample string   `json:"code_example,omitempty"`
}

// Location renders "path:line" or just the path when no line is known.
func (i Issue) Location() string {
	if i.LineNumber != nil {
		return fmt.Sprintf("%s:%d", i.FilePath, *i.LineNumber)
	}
	return i.FilePath
}

// Result is the complete parsed outcome of one review.
type Result struct {
	OverallScore    int      `json:"overall_score"`
	Summary         string   `json:"summary"`
	Issues          []Issue  `json:"issues"`
	Recommendations []string `json:"recommendations,omitempty"`

	// Dropped counts malformed issue entries discarded during parsing.
	Dropped int `json:"-"`
}

// CountBySeverity returns how many issues carry the given severity.
func (r Result) CountBySeverity(s Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == s {
			n++
		}
	}
	return n
}

// ExitCode derives the process exit code from the findings: 2 when any
// critical issue exists, 1 when any high issue exists, 0 otherwise.
func (r Result) ExitCode() int {
	if r.CountBySeverity(SeverityCritical) > 0 {
		return 2
	}
	if r.CountBySeverity(SeverityHigh) > 0 {
		return 1
	}
	return 0
}

// UnparsableResponseError indicates the model response contained no JSON
// object that could be recovered. It is the only parse outcome treated as
// fatal.
type UnparsableResponseError struct {
	Raw string
}

func (e *UnparsableResponseError) Error() string {
	preview := e.Raw
	if len(preview) > 120 {
		preview = preview[:120] + "..."
	}
	return fmt.Sprintf("model response contained no parsable JSON: %q", preview)
}
