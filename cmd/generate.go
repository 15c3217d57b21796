package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	common "github.com/sanix-darker/pyrev/internal/common"
	"github.com/sanix-darker/pyrev/internal/config"
	"github.com/sanix-darker/pyrev/internal/provider"
	"github.com/sanix-darker/pyrev/internal/renders"
	"github.com/sanix-darker/pyrev/internal/testgen"
)

// NewGenerateTestsCmd generates Python tests for a source file.
func NewGenerateTestsCmd(conf config.Config) *cobra.Command {
	generateCmd := &cobra.Command{
		Use:     "generate-tests <file.py> [--function name] [--dry-run]",
		Short:   "Generate Python tests for a source file with AI.",
		Example: "pyrev generate-tests src/calculator.py\npyrev generate-tests 'src/*.py' --dry-run\npyrev generate-tests src/calculator.py --function divide --dry-run",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			applyFlags(cmd, &conf)

			sourcePath := args[0]
			functionName, _ := cmd.Flags().GetString("function")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			stream, _ := cmd.Flags().GetBool("stream")
			outputPath, _ := cmd.Flags().GetString("output")
			if testDir, _ := cmd.Flags().GetString("test-dir"); testDir != "" {
				conf.TestDir = testDir
			}

			repoPath := GetArgByKey("repo", cmd.Flags(), false)
			builder := &testgen.Builder{RepoRoot: repoPath, Conf: conf}

			sources, err := expandSources(sourcePath, repoPath)
			if err != nil {
				common.LogError(fmt.Sprintf("Error: %v", err), true, false, nil)
			}
			if functionName != "" && len(sources) > 1 {
				common.LogError("--function needs a single source file", true, true, cmd.Help)
			}

			p, err := resolveProvider(conf)
			if err != nil {
				common.LogError(fmt.Sprintf("Error resolving provider: %v", err), true, false, nil)
			}

			ctx, cancel := context.WithTimeout(context.Background(), conf.Timeout)
			defer cancel()

			for _, src := range sources {
				targets := []string{functionName}
				if functionName == "" {
					targets, err = builder.Targets(src)
					if err != nil {
						common.LogError(fmt.Sprintf("Error: %v", err), true, false, nil)
					}
				}
				for _, target := range targets {
					if err := generateOne(ctx, conf, p, builder, src, target, outputPath, dryRun, stream, repoPath); err != nil {
						common.LogError(fmt.Sprintf("Error: %v", err), true, false, nil)
					}
				}
			}
		},
	}

	addCommonFlags(generateCmd)
	generateCmd.Flags().StringP("function", "f", "", "generate tests for one function or method only")
	generateCmd.Flags().String("test-dir", "", "directory holding existing tests (default from config)")
	generateCmd.Flags().StringP("output", "o", "", "write tests to this file instead of the derived path")
	generateCmd.Flags().Bool("dry-run", false, "show what would be written without touching files")
	generateCmd.Flags().Bool("stream", false, "print the model's answer as it arrives")

	return generateCmd
}

// expandSources resolves a comma list or glob into the Python files to
// generate tests for. Existing test files are not targets themselves.
func expandSources(spec, repoPath string) ([]string, error) {
	if !strings.ContainsAny(spec, ",*") {
		return []string{spec}, nil
	}

	var out []string
	for _, p := range ExtractPaths(spec, repoPath) {
		if !strings.HasSuffix(p, ".py") {
			continue
		}
		if strings.HasPrefix(filepath.Base(p), "test_") {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no Python source files match %q", spec)
	}
	return out, nil
}

func generateOne(
	ctx context.Context,
	conf config.Config,
	p provider.AIProvider,
	builder *testgen.Builder,
	sourcePath, functionName, outputPath string,
	dryRun, stream bool,
	repoPath string,
) error {
	genCtx, err := builder.Build(sourcePath, functionName)
	if err != nil {
		return err
	}

	if conf.Debug {
		fmt.Fprintf(os.Stderr, "[debug] target=%s framework=%s examples=%d\n",
			genCtx.Target.Signature(), genCtx.Framework, len(genCtx.Examples))
	}

	common.LogInfo(fmt.Sprintf("> generating tests for %s...", genCtx.Target.Signature()), nil)

	req := provider.CompletionRequest{
		Model:     modelName(conf, p),
		MaxTokens: conf.MaxTokens,
		Messages: []provider.Message{
			{Role: provider.RoleUser, Content: genCtx.Prompt(conf.GenerateDocstrings)},
		},
	}

	var content string
	if stream {
		content, err = renders.RenderStream(p.CompleteStream(ctx, req))
	} else {
		var resp *provider.CompletionResponse
		resp, err = p.Complete(ctx, req)
		if resp != nil {
			content = resp.Content
		}
	}
	if err != nil {
		return err
	}

	gen, err := testgen.ParseGenerated(content)
	if err != nil {
		return err
	}

	target := outputPath
	if target == "" {
		target = filepath.Join(repoPath, genCtx.TestPath)
	}

	res, err := testgen.Apply(gen, target, genCtx.Framework, dryRun)
	if err != nil {
		return err
	}

	printWriteResult(res)
	return nil
}

func printWriteResult(res *testgen.WriteResult) {
	switch {
	case res.DryRun && res.Diff != "":
		fmt.Printf("Dry run, would update %s:\n\n%s\n", res.Path, res.Diff)
	case res.DryRun:
		fmt.Printf("Dry run, nothing to add to %s.\n", res.Path)
	case res.Created:
		fmt.Printf("Created %s (%s)\n", res.Path, strings.Join(res.Appended, ", "))
	case len(res.Appended) > 0:
		fmt.Printf("Updated %s (added %s)\n", res.Path, strings.Join(res.Appended, ", "))
	default:
		fmt.Printf("Nothing to add, all generated tests already exist in %s.\n", res.Path)
	}
	if len(res.Skipped) > 0 && len(res.Appended) > 0 {
		fmt.Printf("Skipped existing: %s\n", strings.Join(res.Skipped, ", "))
	}
}

func init() {
	conf := config.NewDefaultConfig()
	rootCmd.AddCommand(NewGenerateTestsCmd(conf))
}
