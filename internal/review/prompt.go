package review

import (
	"fmt"
	"strings"

	"github.com/tiktoken-go/tokenizer"

	"github.com/sanix-darker/pyrev/internal/analyzer"
	"github.com/sanix-darker/pyrev/internal/diffparse"
	"github.com/sanix-darker/pyrev/internal/prompts"
)

// PromptOptions configures prompt construction.
type PromptOptions struct {
	Strictness string
	// MaxTokens is the budget for the user prompt. Zero means no limit.
	MaxTokens int

	SecurityChecks   bool
	PerformanceCheck bool
	BestPractices    bool
}

// PromptBuilder assembles review prompts. Building is deterministic: the
// same inputs produce byte-identical prompts.
type PromptBuilder struct {
	opts  PromptOptions
	codec tokenizer.Codec
}

// NewPromptBuilder creates a builder. Token counting uses the GPT-4 BPE
// vocabulary, which tracks closely enough for budgeting across providers;
// if the codec fails to load, a 4-characters-per-token estimate is used.
func NewPromptBuilder(opts PromptOptions) *PromptBuilder {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		codec = nil
	}
	return &PromptBuilder{opts: opts, codec: codec}
}

// CountTokens returns the token count for text.
func (b *PromptBuilder) CountTokens(text string) int {
	if b.codec != nil {
		if n, err := b.codec.Count(text); err == nil {
			return n
		}
	}
	return len(text) / 4
}

// SystemPrompt returns the instruction prompt for the configured strictness,
// with any disabled check categories marked as out of scope.
func (b *PromptBuilder) SystemPrompt() string {
	prompt := prompts.ReviewPrompt(b.opts.Strictness)

	var disabled []string
	if !b.opts.SecurityChecks {
		disabled = append(disabled, "security")
	}
	if !b.opts.PerformanceCheck {
		disabled = append(disabled, "performance")
	}
	if !b.opts.BestPractices {
		disabled = append(disabled, "best-practices")
	}
	if len(disabled) > 0 {
		prompt += fmt.Sprintf(
			"\nThe following categories are out of scope for this review; do not report issues in them: %s.\n",
			strings.Join(disabled, ", "))
	}
	return prompt
}

// fileSection is one file's contribution to the prompt, tracked separately
// so truncation can target the largest sections first.
type fileSection struct {
	record    diffparse.ChangeRecord
	analysis  *analyzer.FileAnalysis
	diffLines []string
	// keep is how many diff lines survive truncation; -1 means all.
	keep int
}

func (s *fileSection) shownLines() []string {
	if s.keep < 0 || s.keep >= len(s.diffLines) {
		return s.diffLines
	}
	return s.diffLines[:s.keep]
}

func (s *fileSection) render() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("### %s (%s, %s)\n", s.record.Path, s.record.Kind, s.record.Summary()))
	if s.record.Kind == diffparse.KindRenamed {
		sb.WriteString(fmt.Sprintf("Renamed from %s\n", s.record.OldPath))
	}
	if s.analysis != nil {
		sb.WriteString(s.analysis.Summary())
	}
	if s.record.Binary {
		sb.WriteString("(binary file, diff omitted)\n\n")
		return sb.String()
	}

	shown := s.shownLines()
	sb.WriteString("```diff\n")
	for _, line := range shown {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("```\n")
	if len(shown) < len(s.diffLines) {
		sb.WriteString(fmt.Sprintf("(diff truncated: showing %d of %d lines)\n",
			len(shown), len(s.diffLines)))
	}
	sb.WriteString("\n")
	return sb.String()
}

// UserPrompt renders the changed files into the review prompt body. When the
// result exceeds the token budget, diffs are cut back largest-first until it
// fits; file names and change summaries are always kept, so the model sees
// every touched file even when its diff is gone.
func (b *PromptBuilder) UserPrompt(records []diffparse.ChangeRecord, analyses map[string]analyzer.FileAnalysis) string {
	sections := make([]*fileSection, 0, len(records))
	for _, rec := range records {
		sec := &fileSection{record: rec, keep: -1}
		if rec.Patch != "" {
			sec.diffLines = strings.Split(strings.TrimRight(rec.Patch, "\n"), "\n")
		}
		if a, ok := analyses[rec.Path]; ok {
			sec.analysis = &a
		}
		sections = append(sections, sec)
	}

	render := func() string {
		var sb strings.Builder
		sb.WriteString("Review the following changes.\n\n")
		if anyTruncated(sections) {
			sb.WriteString("Note: some diffs below were truncated to fit the prompt budget, so coverage of the change set is partial.\n\n")
		}
		sb.WriteString(fmt.Sprintf("## Changed Files (%d)\n\n", len(sections)))
		for _, s := range sections {
			sb.WriteString(s.render())
		}
		return sb.String()
	}

	out := render()
	if b.opts.MaxTokens <= 0 {
		return out
	}

	for b.CountTokens(out) > b.opts.MaxTokens {
		largest := largestSection(sections)
		if largest == nil {
			break
		}
		shown := len(largest.shownLines())
		if shown > 40 {
			largest.keep = shown / 2
		} else {
			largest.keep = 0
		}
		out = render()
	}
	return out
}

func anyTruncated(sections []*fileSection) bool {
	for _, s := range sections {
		if s.keep >= 0 && s.keep < len(s.diffLines) {
			return true
		}
	}
	return false
}

// largestSection returns the section with the most visible diff lines that
// can still shrink, preferring the earliest on ties so truncation order is
// stable.
func largestSection(sections []*fileSection) *fileSection {
	var best *fileSection
	bestLines := 0
	for _, s := range sections {
		n := len(s.shownLines())
		if n > bestLines {
			best = s
			bestLines = n
		}
	}
	if bestLines == 0 {
		return nil
	}
	return best
}
