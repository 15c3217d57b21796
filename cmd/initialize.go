package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	common "github.com/sanix-darker/pyrev/internal/common"
	"github.com/sanix-darker/pyrev/internal/config"
)

// gitignoreEntries are appended to .gitignore by "pyrev init" when missing.
var gitignoreEntries = []string{
	".pyrev_cache/",
	"*.pyrev.json",
}

// NewInitCmd scaffolds a project for pyrev: tests directory and .gitignore
// entries. Running it twice changes nothing.
func NewInitCmd(conf config.Config) *cobra.Command {
	initCmd := &cobra.Command{
		Use:     "init",
		Short:   "Prepare the current project for pyrev.",
		Example: "pyrev init\npyrev init --repo /path/to/project",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			applyFlags(cmd, &conf)
			repoPath := GetArgByKey("repo", cmd.Flags(), false)

			testDir := filepath.Join(repoPath, conf.TestDir)
			if err := os.MkdirAll(testDir, 0o755); err != nil {
				common.LogError(fmt.Sprintf("Error creating %s: %v", testDir, err), true, false, nil)
			}

			initFile := filepath.Join(testDir, "__init__.py")
			if _, err := os.Stat(initFile); os.IsNotExist(err) {
				if err := os.WriteFile(initFile, nil, 0o644); err != nil {
					common.LogError(fmt.Sprintf("Error creating %s: %v", initFile, err), true, false, nil)
				}
				fmt.Printf("Created %s\n", initFile)
			}

			if err := ensureGitignore(filepath.Join(repoPath, ".gitignore")); err != nil {
				common.LogError(fmt.Sprintf("Error updating .gitignore: %v", err), true, false, nil)
			}

			fmt.Println("Project ready. Try: pyrev review")
		},
	}

	addCommonFlags(initCmd)

	return initCmd
}

// ensureGitignore appends the pyrev entries that are not already present.
func ensureGitignore(path string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	content := string(existing)
	var missing []string
	for _, entry := range gitignoreEntries {
		if !containsLine(content, entry) {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(content)
	if content != "" && !strings.HasSuffix(content, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("\n# pyrev\n")
	for _, entry := range missing {
		sb.WriteString(entry + "\n")
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return err
	}
	fmt.Printf("Updated %s (%s)\n", path, strings.Join(missing, ", "))
	return nil
}

func containsLine(content, line string) bool {
	for _, l := range strings.Split(content, "\n") {
		if strings.TrimSpace(l) == line {
			return true
		}
	}
	return false
}

func init() {
	conf := config.NewDefaultConfig()
	rootCmd.AddCommand(NewInitCmd(conf))
}
