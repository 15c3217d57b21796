/*
Copyright © 2023 sanix-darker <s4nixd@gmail.com>

*/

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	// Providers register themselves on import.
	_ "github.com/sanix-darker/pyrev/internal/provider/anthropic"
	_ "github.com/sanix-darker/pyrev/internal/provider/openai"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pyrev",
	Short: "AI code review and test generation for Python projects.",
	Long: `Turn your git changes into a structured, severity-ranked code review
and generate Python tests that follow your project's conventions.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
