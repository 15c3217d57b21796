/*
Copyright © 2023 sanix-darker <s4nixd@gmail.com>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sanix-darker/pyrev/internal/config"
)

// GetArgByKey get an argument value based on a key input + a strict mode for required params
func GetArgByKey(key string, cmdFlags *pflag.FlagSet, strictMode bool) string {
	value, err := cmdFlags.GetString(key)
	if strictMode && err != nil {
		fmt.Printf("[x] %v, is not set and is required for your command.\n", key)
		os.Exit(0)
	}
	return value
}

// addCommonFlags registers the flags every pyrev command understands.
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("debug", false, "print prompts and provider details")
	cmd.Flags().String("provider", "", "AI provider to use (anthropic, openai, ...)")
	cmd.Flags().String("model", "", "model name override")
	cmd.Flags().StringP("repo", "r", ".", "target git repository path")
}

// applyFlags folds CLI flag values into the resolved config.
func applyFlags(cmd *cobra.Command, conf *config.Config) {
	if debug, err := cmd.Flags().GetBool("debug"); err == nil && debug {
		conf.Debug = true
	}
	if p, err := cmd.Flags().GetString("provider"); err == nil && p != "" {
		conf.Provider = strings.ToLower(strings.TrimSpace(p))
		conf.Viper.Set("provider", conf.Provider)
	}
	if m, err := cmd.Flags().GetString("model"); err == nil && m != "" {
		conf.Model = m
	}
	if s, err := cmd.Flags().GetString("strictness"); err == nil && s != "" {
		conf.Strictness = strings.ToLower(strings.TrimSpace(s))
	}
}

// ExtractPaths for a given path spec (a comma list, a glob, a dir or a
// plain file), we want the full list of files it names. Relative specs
// resolve against root and the results come back relative to root.
func ExtractPaths(path, root string) []string {
	var files []string

	paths := strings.Split(path, ",")

	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}

		// Check if the path contains wildcards like *.py
		if strings.Contains(p, "*") {
			matches, err := filepath.Glob(p)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			for _, m := range matches {
				files = append(files, relToRoot(root, m))
			}
		} else {
			info, err := os.Stat(p)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}

			if info.IsDir() {
				// Walk through the directory and collect file paths
				err := filepath.Walk(p, func(path string, info os.FileInfo, err error) error {
					if err != nil {
						return err
					}
					if !info.IsDir() {
						files = append(files, relToRoot(root, path))
					}
					return nil
				})
				if err != nil {
					fmt.Printf("Error: %v\n", err)
				}
			} else {
				files = append(files, relToRoot(root, p))
			}
		}
	}

	return files
}

func relToRoot(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
