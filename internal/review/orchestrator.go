package review

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sanix-darker/pyrev/internal/analyzer"
	"github.com/sanix-darker/pyrev/internal/diffparse"
	"github.com/sanix-darker/pyrev/internal/gitsource"
	"github.com/sanix-darker/pyrev/internal/provider"
)

// Stage identifies where the pipeline currently is. Stages always advance in
// order; a failure freezes the pipeline at the stage that broke.
type Stage string

const (
	StageIdle          Stage = "idle"
	StageDiffing       Stage = "diffing"
	StageAnalyzing     Stage = "analyzing"
	StagePrompting     Stage = "prompting"
	StageAwaitingModel Stage = "awaiting_model"
	StageParsing       Stage = "parsing"
	StageDone          Stage = "done"
	StageFailed        Stage = "failed"
)

// FailureKind classifies pipeline failures for the CLI layer.
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureRepository FailureKind = "repository"
	FailureReference  FailureKind = "reference"
	FailureModel      FailureKind = "model"
	FailureUnparsable FailureKind = "unparsable_response"
	FailureInternal   FailureKind = "internal"
)

// PipelineError wraps a failure with the stage it occurred in.
type PipelineError struct {
	Stage Stage
	Kind  FailureKind
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("review pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// ProgressFunc reports stage transitions to the CLI.
type ProgressFunc func(stage Stage, detail string)

// Orchestrator drives one review end to end.
type Orchestrator struct {
	Source     *gitsource.Source
	Provider   provider.AIProvider
	Builder    *PromptBuilder
	Model      string
	MaxTokens  int
	OnProgress ProgressFunc

	stage Stage
}

// Outcome is the final pipeline state handed to the CLI.
type Outcome struct {
	Result   *Result
	Records  []diffparse.ChangeRecord
	Analyses map[string]analyzer.FileAnalysis

	// EmptyDiff is set when the selected mode produced no changes. That is
	// a clean exit, not a failure: nothing to review means nothing wrong.
	EmptyDiff bool
	ExitCode  int
}

// Stage returns the pipeline's current stage.
func (o *Orchestrator) Stage() Stage {
	if o.stage == "" {
		return StageIdle
	}
	return o.stage
}

func (o *Orchestrator) advance(stage Stage, detail string) {
	o.stage = stage
	if o.OnProgress != nil {
		o.OnProgress(stage, detail)
	}
}

func (o *Orchestrator) fail(kind FailureKind, err error) (*Outcome, error) {
	failedAt := o.stage
	o.stage = StageFailed
	return nil, &PipelineError{Stage: failedAt, Kind: kind, Err: err}
}

// Run executes the pipeline for the given diff mode.
func (o *Orchestrator) Run(ctx context.Context, mode gitsource.DiffMode, ref string) (*Outcome, error) {
	o.advance(StageDiffing, string(mode))
	raw, err := o.Source.Diff(mode, ref)
	if err != nil {
		var empty *gitsource.EmptyDiffError
		if errors.As(err, &empty) {
			o.advance(StageDone, "empty diff")
			return &Outcome{Result: emptyResult(mode), EmptyDiff: true, ExitCode: 0}, nil
		}
		var invalid *gitsource.InvalidReferenceError
		if errors.As(err, &invalid) {
			return o.fail(FailureReference, err)
		}
		if errors.Is(err, gitsource.ErrNotRepository) {
			return o.fail(FailureRepository, err)
		}
		return o.fail(FailureInternal, err)
	}

	records, err := diffparse.Parse(raw)
	if err != nil {
		return o.fail(FailureInternal, err)
	}
	if len(diffparse.TextRecords(records)) == 0 {
		o.advance(StageDone, "no reviewable text changes")
		return &Outcome{Result: emptyResult(mode), Records: records, EmptyDiff: true, ExitCode: 0}, nil
	}

	o.advance(StageAnalyzing, fmt.Sprintf("%d files", len(records)))
	analyses := o.analyze(records, mode, ref)

	o.advance(StagePrompting, "")
	system := o.Builder.SystemPrompt()
	user := o.Builder.UserPrompt(records, analyses)

	o.advance(StageAwaitingModel, o.Model)
	resp, err := o.Provider.Complete(ctx, provider.CompletionRequest{
		Model:     o.Model,
		MaxTokens: o.MaxTokens,
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: system},
			{Role: provider.RoleUser, Content: user},
		},
	})
	if err != nil {
		return o.fail(FailureModel, err)
	}

	o.advance(StageParsing, "")
	result, err := Parse(resp.Content)
	if err != nil {
		return o.fail(FailureUnparsable, err)
	}
	sortIssues(result.Issues)

	o.advance(StageDone, "")
	return &Outcome{
		Result:   result,
		Records:  records,
		Analyses: analyses,
		ExitCode: result.ExitCode(),
	}, nil
}

// emptyResult stands in for the model's answer when there is nothing to
// review. A clean empty diff is a perfect score, not a missing result.
func emptyResult(mode gitsource.DiffMode) *Result {
	summary := "No changes to review."
	switch mode {
	case gitsource.ModeStaged:
		summary = "No staged changes to review."
	case gitsource.ModeCommit:
		summary = "No changes to review in this commit."
	case gitsource.ModeBranch:
		summary = "No changes to review on this branch."
	}
	return &Result{OverallScore: 100, Summary: summary}
}

// analyze runs the structural analyzer over each changed Python file.
// Commit-mode reviews read file content at the reviewed ref, so the analysis
// matches what the diff shows even when the worktree moved on; the other
// modes read the worktree. Analysis is best effort: a file that cannot be
// read or parsed simply has no summary.
func (o *Orchestrator) analyze(records []diffparse.ChangeRecord, mode gitsource.DiffMode, ref string) map[string]analyzer.FileAnalysis {
	out := make(map[string]analyzer.FileAnalysis)

	an, err := analyzer.New()
	if err != nil {
		return out
	}
	defer an.Close()

	info, err := o.Source.Info()
	if err != nil {
		return out
	}

	for _, rec := range records {
		if !rec.IsPython() || rec.Kind == diffparse.KindDeleted || rec.Binary {
			continue
		}
		if mode == gitsource.ModeCommit && ref != "" {
			if content := o.Source.FileAt(ref, rec.Path); content != "" {
				out[rec.Path] = an.Analyze(rec.Path, []byte(content))
				continue
			}
		}
		source, err := os.ReadFile(filepath.Join(info.Path, rec.Path))
		if err != nil {
			continue
		}
		out[rec.Path] = an.Analyze(rec.Path, source)
	}
	return out
}

// sortIssues orders findings by severity, then location, so output is stable
// across runs.
func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Severity.Rank() != issues[j].Severity.Rank() {
			return issues[i].Severity.Rank() < issues[j].Severity.Rank()
		}
		if issues[i].FilePath != issues[j].FilePath {
			return issues[i].FilePath < issues[j].FilePath
		}
		li, lj := 0, 0
		if issues[i].LineNumber != nil {
			li = *issues[i].LineNumber
		}
		if issues[j].LineNumber != nil {
			lj = *issues[j].LineNumber
		}
		return li < lj
	})
}
