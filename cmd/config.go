package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sanix-darker/pyrev/internal/config"
	"github.com/sanix-darker/pyrev/internal/provider"
)

func init() {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pyrev configuration",
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigEffectiveCmd())
	configCmd.AddCommand(newConfigValidateCmd())
	rootCmd.AddCommand(configCmd)
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create default config file at ~/.config/pyrev/config.yml",
		Run: func(cmd *cobra.Command, args []string) {
			cfgPath, err := config.FilePath()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			// Create directory if needed
			if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
				fmt.Fprintf(os.Stderr, "Error creating config directory: %v\n", err)
				os.Exit(1)
			}

			// Don't overwrite existing config
			if _, err := os.Stat(cfgPath); err == nil {
				fmt.Printf("Config file already exists at %s\n", cfgPath)
				return
			}

			if err := os.WriteFile(cfgPath, []byte(config.SampleConfigYAML()), 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("Config file created at %s\n", cfgPath)
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print current config file",
		Run: func(cmd *cobra.Command, args []string) {
			cfgPath, err := config.FilePath()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			data, err := os.ReadFile(cfgPath)
			if err != nil {
				fmt.Printf("No config file found at %s\n", cfgPath)
				fmt.Println("\nDefault configuration:")
				fmt.Println(config.SampleConfigYAML())
				return
			}

			fmt.Printf("# Config file: %s\n", cfgPath)
			fmt.Println(string(data))
		},
	}
}

func newConfigEffectiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "effective",
		Short: "Print effective config after env/flag overrides",
		Run: func(cmd *cobra.Command, args []string) {
			conf := config.NewDefaultConfig()
			applyFlags(cmd, &conf)

			out, err := yaml.Marshal(buildEffectiveConfig(conf))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding config: %v\n", err)
				os.Exit(1)
			}
			fmt.Print(string(out))
		},
	}
	addCommonFlags(cmd)
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate config values and required provider fields",
		Run: func(cmd *cobra.Command, args []string) {
			conf := config.NewDefaultConfig()
			applyFlags(cmd, &conf)

			errs := validateEffectiveConfig(conf)
			if len(errs) > 0 {
				fmt.Println("Configuration is invalid:")
				for _, e := range errs {
					fmt.Printf("- %s\n", e)
				}
				os.Exit(1)
			}
			fmt.Println("Configuration is valid.")
		},
	}
	addCommonFlags(cmd)
	return cmd
}

func buildEffectiveConfig(conf config.Config) map[string]interface{} {
	if conf.Provider != "" {
		conf.Viper.Set("provider", conf.Provider)
	}
	pcfg := provider.ResolveProvider(conf.Viper)
	pv := pcfg.Viper

	return map[string]interface{}{
		"provider": pcfg.Name,
		"providers": map[string]interface{}{
			pcfg.Name: map[string]interface{}{
				"api_key":  redactSecret(pv.GetString("api_key")),
				"model":    strings.TrimSpace(pv.GetString("model")),
				"base_url": strings.TrimSpace(pv.GetString("base_url")),
			},
		},
		"model":      conf.Model,
		"max_tokens": conf.MaxTokens,
		"timeout":    conf.Timeout.String(),
		"strictness": conf.Strictness,
		"checks": map[string]interface{}{
			"security":       conf.SecurityChecks,
			"performance":    conf.PerformanceCheck,
			"best_practices": conf.BestPractices,
		},
		"max_prompt_tokens":   conf.MaxPromptTokens,
		"test_framework":      conf.TestFramework,
		"generate_docstrings": conf.GenerateDocstrings,
		"test_dir":            conf.TestDir,
		"debug":               conf.Debug,
	}
}

func validateEffectiveConfig(conf config.Config) []string {
	var errs []string

	if err := conf.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if conf.Provider != "" {
		conf.Viper.Set("provider", conf.Provider)
	}
	pcfg := provider.ResolveProvider(conf.Viper)
	apiKey := strings.TrimSpace(pcfg.Viper.GetString("api_key"))

	switch pcfg.Name {
	case "openai":
		if apiKey == "" {
			errs = append(errs, "providers.openai.api_key (or OPENAI_API_KEY) is required")
		}
	case "anthropic", "claude":
		if apiKey == "" {
			errs = append(errs, "providers.anthropic.api_key (or ANTHROPIC_API_KEY) is required")
		}
	default:
		if strings.TrimSpace(pcfg.Viper.GetString("base_url")) == "" {
			errs = append(errs, fmt.Sprintf("providers.%s.base_url (or PYREV_%s_BASE_URL) is required",
				pcfg.Name, strings.ToUpper(pcfg.Name)))
		}
	}

	return errs
}

func redactSecret(v string) string {
	if strings.TrimSpace(v) == "" {
		return ""
	}
	return "***"
}
