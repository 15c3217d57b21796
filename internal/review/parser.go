package review

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// wire types mirror the JSON contract loosely, so a model response with
// slightly wrong value types still decodes.
type wireIssue struct {
	Severity    string      `json:"severity"`
	FilePath    string      `json:"file_path"`
	LineNumber  interface{} `json:"line_number"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Suggestion  string      `json:"suggestion"`
	CodeExample string      `json:"code_example"`
}

type wireResult struct {
	OverallScore    *float64    `json:"overall_score"`
	Summary         string      `json:"summary"`
	Issues          []wireIssue `json:"issues"`
	Recommendations []string    `json:"recommendations"`
}

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// Parse turns a raw model response into a Result. The response is expected
// to be a bare JSON object, but models wrap output in markdown fences or
// prose often enough that recovery is part of the contract: any balanced
// JSON object found in the text is accepted. Only a response with no
// recoverable object fails, with UnparsableResponseError.
func Parse(raw string) (*Result, error) {
	for _, candidate := range jsonCandidates(raw) {
		var wr wireResult
		if err := json.Unmarshal([]byte(candidate), &wr); err != nil {
			continue
		}
		if !looksLikeReview(&wr) {
			continue
		}
		return buildResult(&wr), nil
	}
	return nil, &UnparsableResponseError{Raw: raw}
}

// jsonCandidates yields decode candidates in order of likelihood: the whole
// trimmed response, fenced code block contents, then every balanced object
// fragment found by scanning.
func jsonCandidates(raw string) []string {
	var out []string
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		out = append(out, trimmed)
	}
	for _, m := range fencedBlockRe.FindAllStringSubmatch(raw, -1) {
		if block := strings.TrimSpace(m[1]); block != "" {
			out = append(out, block)
		}
	}
	out = append(out, balancedFragments(raw)...)
	return out
}

// balancedFragments scans the text for top-level {...} spans, tracking
// string literals and escapes so braces inside values do not break nesting.
func balancedFragments(s string) []string {
	var frags []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					frags = append(frags, s[start:i+1])
					start = -1
				}
			}
		}
	}
	return frags
}

// looksLikeReview rejects decoded objects that share no keys with the
// review contract, so a stray JSON snippet in prose is not mistaken for a
// verdict.
func looksLikeReview(wr *wireResult) bool {
	return wr.OverallScore != nil || wr.Summary != "" || wr.Issues != nil
}

func buildResult(wr *wireResult) *Result {
	res := &Result{
		Summary:         strings.TrimSpace(wr.Summary),
		Recommendations: wr.Recommendations,
	}

	if wr.OverallScore != nil {
		score := int(*wr.OverallScore)
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}
		res.OverallScore = score
	}

	for _, wi := range wr.Issues {
		issue, ok := coerceIssue(wi)
		if !ok {
			res.Dropped++
			continue
		}
		res.Issues = append(res.Issues, issue)
	}
	return res
}

// coerceIssue validates one issue entry. Description and file path are
// required; everything else is normalized or defaulted.
func coerceIssue(wi wireIssue) (Issue, bool) {
	desc := strings.TrimSpace(wi.Description)
	path := strings.TrimSpace(wi.FilePath)
	if desc == "" || path == "" {
		return Issue{}, false
	}

	issue := Issue{
		Severity:    NormalizeSeverity(wi.Severity),
		FilePath:    path,
		Category:    NormalizeCategory(wi.Category),
		Description: desc,
		Suggestion:  strings.TrimSpace(wi.Suggestion),
		CodeExample: strings.TrimSpace(wi.CodeExample),
	}

	switch v := wi.LineNumber.(type) {
	case float64:
		if v >= 1 {
			n := int(v)
			issue.LineNumber = &n
		}
	case string:
		// Models sometimes quote the number.
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 1 {
			issue.LineNumber = &n
		}
	}

	return issue, true
}
