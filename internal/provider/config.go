package provider

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ProviderConfig holds the resolved configuration for instantiating a
// provider, keeping config-path knowledge out of the CLI layer.
type ProviderConfig struct {
	// Name is the provider name as it appears in the registry.
	Name string

	// Viper is a sub-tree scoped to the provider's config block.
	Viper *viper.Viper
}

// ConfigKeyProvider is the config key that holds the active provider name.
const ConfigKeyProvider = "provider"

// ResolveProvider reads the active provider name and its config block. The
// lookup order is:
//
//  1. --provider CLI flag (already set on the viper instance)
//  2. PYREV_PROVIDER environment variable
//  3. "provider" key in the config file
//  4. Fallback to "anthropic"
//
// The returned ProviderConfig.Viper is scoped to the provider's subtree:
//
//	providers:
//	  anthropic:
//	    api_key: ...
//	    model: claude-sonnet-4-20250514
func ResolveProvider(v *viper.Viper) ProviderConfig {
	name := v.GetString(ConfigKeyProvider)
	if name == "" {
		name = os.Getenv("PYREV_PROVIDER")
	}
	if name == "" {
		name = "anthropic"
	}
	name = strings.ToLower(strings.TrimSpace(name))

	sub := v.Sub(fmt.Sprintf("providers.%s", name))
	if sub == nil {
		// No config file entry; an empty viper keeps env-var bindings
		// working.
		sub = viper.New()
	}

	// Shared settings propagate down unless the provider block overrides
	// them.
	for _, key := range []string{"model", "max_tokens", "timeout"} {
		if !sub.IsSet(key) && v.IsSet(key) {
			sub.Set(key, v.Get(key))
		}
	}

	bindProviderEnvVars(name, sub)

	return ProviderConfig{Name: name, Viper: sub}
}

// BindProviderEnvDefaults applies the well-known environment variables and
// base-url defaults for a provider onto a bare viper instance. Used by
// commands that instantiate providers outside of ResolveProvider, e.g.
// "ai list" probing every registered provider.
func BindProviderEnvDefaults(name string, v *viper.Viper) {
	bindProviderEnvVars(strings.ToLower(strings.TrimSpace(name)), v)
}

// bindProviderEnvVars wires the well-known environment variables for each
// provider so the tool can be configured entirely through the shell.
func bindProviderEnvVars(name string, v *viper.Viper) {
	switch name {
	case "anthropic", "claude":
		v.SetDefault("base_url", "https://api.anthropic.com")
		overrideFromEnv(v, "api_key", "ANTHROPIC_API_KEY")
		overrideFromEnv(v, "model", "ANTHROPIC_MODEL")
		overrideFromEnv(v, "base_url", "ANTHROPIC_BASE_URL")
	case "openai":
		v.SetDefault("base_url", "https://api.openai.com/v1")
		overrideFromEnv(v, "api_key", "OPENAI_API_KEY")
		overrideFromEnv(v, "model", "OPENAI_API_MODEL")
		overrideFromEnv(v, "base_url", "OPENAI_API_BASE")
	default:
		// OpenAI-compatible endpoints configured via PYREV_<PROVIDER>_*.
		prefix := strings.ToUpper(name)
		overrideFromEnv(v, "api_key", fmt.Sprintf("PYREV_%s_API_KEY", prefix))
		overrideFromEnv(v, "model", fmt.Sprintf("PYREV_%s_MODEL", prefix))
		overrideFromEnv(v, "base_url", fmt.Sprintf("PYREV_%s_BASE_URL", prefix))
	}
}

func overrideFromEnv(v *viper.Viper, key, envName string) {
	if value := strings.TrimSpace(os.Getenv(envName)); value != "" {
		v.Set(key, value)
	}
}
