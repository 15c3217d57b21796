package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sanix-darker/pyrev/internal/config"
	"github.com/sanix-darker/pyrev/internal/gitsource"
)

// NewStatusCmd prints config and repository state at a glance.
func NewStatusCmd(conf config.Config) *cobra.Command {
	statusCmd := &cobra.Command{
		Use:     "status",
		Short:   "Show pyrev configuration and repository state.",
		Example: "pyrev status\npyrev status --repo /path/to/git/project",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			applyFlags(cmd, &conf)

			fmt.Println("Configuration:")
			fmt.Printf("  provider:       %s\n", conf.Provider)
			fmt.Printf("  strictness:     %s\n", conf.Strictness)
			fmt.Printf("  test framework: %s\n", conf.TestFramework)
			fmt.Printf("  test dir:       %s\n", conf.TestDir)

			p, err := resolveProvider(conf)
			if err != nil {
				fmt.Printf("  provider state: unavailable (%v)\n", err)
			} else {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				state := "ready"
				if err := p.Validate(ctx); err != nil {
					state = "missing credentials"
				}
				cancel()
				fmt.Printf("  model:          %s\n", modelName(conf, p))
				fmt.Printf("  provider state: %s\n", state)
			}

			fmt.Println()
			repoPath := GetArgByKey("repo", cmd.Flags(), false)
			source, err := gitsource.Open(repoPath)
			if err != nil {
				fmt.Printf("Repository: %v\n", err)
				return
			}
			info, err := source.Info()
			if err != nil {
				fmt.Printf("Repository: %v\n", err)
				return
			}

			fmt.Println("Repository:")
			fmt.Printf("  path:      %s\n", info.Path)
			fmt.Printf("  branch:    %s\n", info.Branch)
			fmt.Printf("  head:      %s\n", info.Head)
			fmt.Printf("  dirty:     %v\n", info.Dirty)
			fmt.Printf("  untracked: %d\n", info.Untracked)
		},
	}

	addCommonFlags(statusCmd)

	return statusCmd
}

func init() {
	conf := config.NewDefaultConfig()
	rootCmd.AddCommand(NewStatusCmd(conf))
}
