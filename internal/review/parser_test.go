package review

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cleanResponse = `{
  "overall_score": 35,
  "summary": "The change introduces a serious vulnerability.",
  "issues": [
    {
      "severity": "critical",
      "file_path": "src/app/auth.py",
      "line_number": 12,
      "category": "security",
      "description": "Passwords are hashed with MD5.",
      "suggestion": "Use bcrypt or argon2.",
      "code_example": "import bcrypt"
    },
    {
      "severity": "medium",
      "file_path": "src/app/auth.py",
      "line_number": null,
      "category": "quality",
      "description": "Function lacks a docstring.",
      "suggestion": "Document the hashing contract."
    }
  ],
  "recommendations": ["Add tests for the login path."]
}`

func TestParseCleanJSON(t *testing.T) {
	res, err := Parse(cleanResponse)
	require.NoError(t, err)

	assert.Equal(t, 35, res.OverallScore)
	assert.Contains(t, res.Summary, "vulnerability")
	require.Len(t, res.Issues, 2)
	assert.Equal(t, []string{"Add tests for the login path."}, res.Recommendations)
	assert.Zero(t, res.Dropped)

	critical := res.Issues[0]
	assert.Equal(t, SeverityCritical, critical.Severity)
	assert.Equal(t, CategorySecurity, critical.Category)
	require.NotNil(t, critical.LineNumber)
	assert.Equal(t, 12, *critical.LineNumber)
	assert.Equal(t, "src/app/auth.py:12", critical.Location())

	assert.Nil(t, res.Issues[1].LineNumber)
	assert.Equal(t, "src/app/auth.py", res.Issues[1].Location())
}

func TestParseFencedJSON(t *testing.T) {
	res, err := Parse("Here is my review:\n\n```json\n" + cleanResponse + "\n```\nHope that helps!")
	require.NoError(t, err)
	assert.Equal(t, 35, res.OverallScore)
	require.Len(t, res.Issues, 2)
}

func TestParseJSONEmbeddedInProse(t *testing.T) {
	raw := "After careful analysis of {the changes}, my verdict follows.\n" +
		cleanResponse + "\nLet me know if you need more detail."
	res, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, 35, res.OverallScore)
}

func TestParseBracesInsideStrings(t *testing.T) {
	raw := `{"overall_score": 90, "summary": "dict literal {1: 2} looks fine", "issues": []}`
	res, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, 90, res.OverallScore)
	assert.Contains(t, res.Summary, "{1: 2}")
}

func TestParseUnknownSeverityAndCategory(t *testing.T) {
	raw := `{
	  "overall_score": 80,
	  "summary": "ok",
	  "issues": [
	    {"severity": "blocker", "file_path": "a.py", "category": "style", "description": "x"}
	  ]
	}`
	res, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, SeverityLow, res.Issues[0].Severity)
	assert.Equal(t, CategoryQuality, res.Issues[0].Category)
}

func TestParseDropsMalformedIssues(t *testing.T) {
	raw := `{
	  "overall_score": 70,
	  "summary": "mixed bag",
	  "issues": [
	    {"severity": "high", "file_path": "a.py", "category": "quality", "description": "real issue"},
	    {"severity": "high", "category": "quality", "description": "no file path"},
	    {"severity": "low", "file_path": "b.py", "category": "quality", "description": ""}
	  ]
	}`
	res, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "real issue", res.Issues[0].Description)
	assert.Equal(t, 2, res.Dropped)
}

func TestParseQuotedLineNumber(t *testing.T) {
	raw := `{
	  "overall_score": 60,
	  "summary": "s",
	  "issues": [
	    {"severity": "high", "file_path": "a.py", "line_number": "42", "category": "quality", "description": "d"}
	  ]
	}`
	res, err := Parse(raw)
	require.NoError(t, err)
	require.NotNil(t, res.Issues[0].LineNumber)
	assert.Equal(t, 42, *res.Issues[0].LineNumber)
}

func TestParseScoreClamped(t *testing.T) {
	res, err := Parse(`{"overall_score": 250, "summary": "s", "issues": []}`)
	require.NoError(t, err)
	assert.Equal(t, 100, res.OverallScore)

	res, err = Parse(`{"overall_score": -5, "summary": "s", "issues": []}`)
	require.NoError(t, err)
	assert.Equal(t, 0, res.OverallScore)
}

func TestParseUnparsable(t *testing.T) {
	for _, raw := range []string{
		"",
		"I could not review this code, sorry.",
		`{"unrelated": true}`,
	} {
		_, err := Parse(raw)
		var upe *UnparsableResponseError
		require.ErrorAs(t, err, &upe, "raw=%q", raw)
	}
}

func TestParseRoundTrip(t *testing.T) {
	res, err := Parse(cleanResponse)
	require.NoError(t, err)

	encoded, err := JSON(res)
	require.NoError(t, err)

	reparsed, err := Parse(encoded)
	require.NoError(t, err)
	assert.Equal(t, res.OverallScore, reparsed.OverallScore)
	assert.Equal(t, res.Issues, reparsed.Issues)
}

func TestJSONOutputShape(t *testing.T) {
	res, err := Parse(cleanResponse)
	require.NoError(t, err)

	encoded, err := JSON(res)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(encoded), &m))
	assert.Contains(t, m, "overall_score")
	assert.Contains(t, m, "issues")
	assert.NotContains(t, m, "Dropped")
}
