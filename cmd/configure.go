package cmd

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	common "github.com/sanix-darker/pyrev/internal/common"
	"github.com/sanix-darker/pyrev/internal/config"
	"github.com/sanix-darker/pyrev/internal/provider"
)

// NewConfigureCmd walks through an interactive setup. The API key is never
// written to disk; the command prints the export lines to run instead.
func NewConfigureCmd(conf config.Config) *cobra.Command {
	configureCmd := &cobra.Command{
		Use:     "configure",
		Short:   "Interactive provider setup.",
		Example: "pyrev configure",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			providerSelect := promptui.Select{
				Label: "AI provider",
				Items: provider.Names(),
			}
			_, name, err := providerSelect.Run()
			if err != nil {
				common.LogError(fmt.Sprintf("Aborted: %v", err), true, false, nil)
			}

			keyPrompt := promptui.Prompt{
				Label: fmt.Sprintf("%s API key", name),
				Mask:  '*',
				Validate: func(input string) error {
					if strings.TrimSpace(input) == "" {
						return fmt.Errorf("an API key is required")
					}
					return nil
				},
			}
			apiKey, err := keyPrompt.Run()
			if err != nil {
				common.LogError(fmt.Sprintf("Aborted: %v", err), true, false, nil)
			}

			modelPrompt := promptui.Prompt{
				Label:   "Model (empty keeps the provider default)",
				Default: "",
			}
			model, err := modelPrompt.Run()
			if err != nil {
				common.LogError(fmt.Sprintf("Aborted: %v", err), true, false, nil)
			}

			strictnessSelect := promptui.Select{
				Label: "Review strictness",
				Items: []string{config.StrictnessNormal, config.StrictnessHarsh, config.StrictnessStrict},
			}
			_, strictness, err := strictnessSelect.Run()
			if err != nil {
				common.LogError(fmt.Sprintf("Aborted: %v", err), true, false, nil)
			}

			fmt.Println("\nAdd these to your shell profile:")
			fmt.Printf("  export %s=%s\n", apiKeyEnvVar(name), apiKey)
			fmt.Printf("  export PYREV_PROVIDER=%s\n", name)
			if model != "" {
				fmt.Printf("  export PYREV_MODEL=%s\n", model)
			}
			fmt.Printf("  export PYREV_STRICTNESS=%s\n", strictness)
			fmt.Println("\nOr put everything but the key in ~/.config/pyrev/config.yml (pyrev config init).")
		},
	}

	return configureCmd
}

func apiKeyEnvVar(name string) string {
	switch name {
	case "anthropic", "claude":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	default:
		return fmt.Sprintf("PYREV_%s_API_KEY", strings.ToUpper(name))
	}
}

func init() {
	conf := config.NewDefaultConfig()
	rootCmd.AddCommand(NewConfigureCmd(conf))
}
