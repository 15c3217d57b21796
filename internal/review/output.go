package review

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Markdown renders the result as a markdown report.
func Markdown(r *Result) string {
	var sb strings.Builder

	sb.WriteString("# Code Review\n\n")
	sb.WriteString(fmt.Sprintf("**Score:** %d/100\n\n", r.OverallScore))
	if r.Summary != "" {
		sb.WriteString(r.Summary)
		sb.WriteString("\n\n")
	}

	if len(r.Issues) == 0 {
		sb.WriteString("No issues found.\n")
	} else {
		sb.WriteString(fmt.Sprintf("## Issues (%d)\n\n", len(r.Issues)))
		for _, sev := range []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow} {
			issues := filterBySeverity(r.Issues, sev)
			if len(issues) == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf("### %s (%d)\n\n", strings.ToUpper(string(sev)), len(issues)))
			for _, issue := range issues {
				sb.WriteString(fmt.Sprintf("- **%s** [%s]: %s\n", issue.Location(), issue.Category, issue.Description))
				if issue.Suggestion != "" {
					sb.WriteString(fmt.Sprintf("  - Suggestion: %s\n", issue.Suggestion))
				}
				if issue.CodeExample != "" {
					sb.WriteString("\n  ```python\n")
					for _, line := range strings.Split(issue.CodeExample, "\n") {
						sb.WriteString("  " + line + "\n")
					}
					sb.WriteString("  ```\n")
				}
			}
			sb.WriteString("\n")
		}
	}

	if len(r.Recommendations) > 0 {
		sb.WriteString("## Recommendations\n\n")
		for _, rec := range r.Recommendations {
			sb.WriteString(fmt.Sprintf("- %s\n", rec))
		}
		sb.WriteString("\n")
	}

	if r.Dropped > 0 {
		sb.WriteString(fmt.Sprintf("_%d malformed issue entries were dropped from the model response._\n", r.Dropped))
	}

	return sb.String()
}

// JSON renders the result as indented JSON for machine consumption.
func JSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(data) + "\n", nil
}

func filterBySeverity(issues []Issue, sev Severity) []Issue {
	var out []Issue
	for _, i := range issues {
		if i.Severity == sev {
			out = append(out, i)
		}
	}
	return out
}
