/*
Copyright © 2023 sanix-darker <s4nixd@gmail.com>

The main review module that handle:
- unstaged : review the current worktree changes (the default).
- staged   : review what is in the index.
- commit   : review the changes introduced by one commit.
- branch   : review a branch against the base branch (or base..head).
*/

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	common "github.com/sanix-darker/pyrev/internal/common"
	"github.com/sanix-darker/pyrev/internal/config"
	"github.com/sanix-darker/pyrev/internal/gitsource"
	"github.com/sanix-darker/pyrev/internal/renders"
	"github.com/sanix-darker/pyrev/internal/review"
)

// NewReviewCmd reviews git changes with the configured AI provider.
func NewReviewCmd(conf config.Config) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:     "review [--staged | --commit <hash> | --branch <base..head>]",
		Short:   "Review your Python changes with AI.",
		Example: "pyrev review\npyrev review --staged\npyrev review --commit 867abbeef\npyrev review --branch main..f/hot-fix --repo /path/to/git/project",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			applyFlags(cmd, &conf)

			mode, ref, err := reviewMode(cmd)
			if err != nil {
				common.LogError(err.Error(), true, true, cmd.Help)
			}

			repoPath := GetArgByKey("repo", cmd.Flags(), false)
			source, err := gitsource.Open(repoPath)
			if err != nil {
				common.LogError(fmt.Sprintf("Error: %v", err), true, false, nil)
			}

			p, err := resolveProvider(conf)
			if err != nil {
				common.LogError(fmt.Sprintf("Error resolving provider: %v", err), true, false, nil)
			}

			if conf.Debug {
				info := p.Info()
				fmt.Fprintf(os.Stderr, "[debug] provider=%s model=%s\n", info.Name, modelName(conf, p))
			}

			builder := review.NewPromptBuilder(review.PromptOptions{
				Strictness:       conf.Strictness,
				MaxTokens:        conf.MaxPromptTokens,
				SecurityChecks:   conf.SecurityChecks,
				PerformanceCheck: conf.PerformanceCheck,
				BestPractices:    conf.BestPractices,
			})

			orch := &review.Orchestrator{
				Source:     source,
				Provider:   p,
				Builder:    builder,
				Model:      modelName(conf, p),
				MaxTokens:  conf.MaxTokens,
				OnProgress: progressSpinner(),
			}

			ctx, cancel := context.WithTimeout(context.Background(), conf.Timeout)
			defer cancel()

			outcome, err := orch.Run(ctx, mode, ref)
			if err != nil {
				common.LogError(fmt.Sprintf("Error: %v", err), true, false, nil)
			}

			if outcome.EmptyDiff {
				fmt.Println(outcome.Result.Summary)
				return
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			outputPath, _ := cmd.Flags().GetString("output")
			toClipboard, _ := cmd.Flags().GetBool("copy")

			var report string
			if asJSON {
				report, err = review.JSON(outcome.Result)
				if err != nil {
					common.LogError(fmt.Sprintf("Error: %v", err), true, false, nil)
				}
			} else {
				report = review.Markdown(outcome.Result)
			}

			if outputPath != "" {
				if err := os.WriteFile(outputPath, []byte(report), 0o644); err != nil {
					common.LogError(fmt.Sprintf("Error writing report: %v", err), true, false, nil)
				}
				fmt.Printf("Review written to %s\n", outputPath)
			} else if asJSON {
				fmt.Print(report)
			} else {
				fmt.Print(renders.RenderMarkdown(report))
			}

			if toClipboard {
				if err := common.SetClipboardValue(report); err != nil {
					common.LogError(fmt.Sprintf("Could not copy to clipboard: %v", err), false, false, nil)
				}
			}

			os.Exit(outcome.ExitCode)
		},
	}

	addCommonFlags(reviewCmd)
	reviewCmd.Flags().Bool("staged", false, "review staged changes instead of the worktree")
	reviewCmd.Flags().String("commit", "", "review the changes of one commit")
	reviewCmd.Flags().String("branch", "", "review a branch (base..head, or a bare branch name)")
	reviewCmd.Flags().String("strictness", "", "review strictness: normal, harsh or strict")
	reviewCmd.Flags().Bool("json", false, "print the raw JSON result")
	reviewCmd.Flags().StringP("output", "o", "", "write the report to a file")
	reviewCmd.Flags().BoolP("copy", "c", false, "copy the report to the clipboard")

	return reviewCmd
}

// reviewMode maps the mode flags to a diff mode, rejecting combinations.
func reviewMode(cmd *cobra.Command) (gitsource.DiffMode, string, error) {
	staged, _ := cmd.Flags().GetBool("staged")
	commit, _ := cmd.Flags().GetString("commit")
	branch, _ := cmd.Flags().GetString("branch")

	selected := 0
	if staged {
		selected++
	}
	if commit != "" {
		selected++
	}
	if branch != "" {
		selected++
	}
	if selected > 1 {
		return "", "", fmt.Errorf("--staged, --commit and --branch are mutually exclusive")
	}

	switch {
	case staged:
		return gitsource.ModeStaged, "", nil
	case commit != "":
		return gitsource.ModeCommit, commit, nil
	case branch != "":
		return gitsource.ModeBranch, branch, nil
	default:
		return gitsource.ModeUnstaged, "", nil
	}
}

// progressSpinner shows a spinner on the stderr TTY while the model call is
// in flight. Non-TTY runs stay quiet.
func progressSpinner() review.ProgressFunc {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	return func(stage review.Stage, detail string) {
		switch stage {
		case review.StageAwaitingModel:
			s.Suffix = " waiting for the model..."
			s.Start()
		default:
			s.Stop()
		}
	}
}

func init() {
	conf := config.NewDefaultConfig()
	rootCmd.AddCommand(NewReviewCmd(conf))
}
