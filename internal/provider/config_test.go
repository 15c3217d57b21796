package provider_test

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/sanix-darker/pyrev/internal/provider"
)

func TestResolveProviderDefault(t *testing.T) {
	t.Setenv("PYREV_PROVIDER", "")
	pc := provider.ResolveProvider(viper.New())
	assert.Equal(t, "anthropic", pc.Name)
	assert.NotNil(t, pc.Viper)
}

func TestResolveProviderFromConfig(t *testing.T) {
	v := viper.New()
	v.Set("provider", "OpenAI")
	v.Set("providers.openai.api_key", "sk-test")
	v.Set("providers.openai.model", "gpt-4o")

	pc := provider.ResolveProvider(v)
	assert.Equal(t, "openai", pc.Name)
	assert.Equal(t, "sk-test", pc.Viper.GetString("api_key"))
	assert.Equal(t, "gpt-4o", pc.Viper.GetString("model"))
}

func TestResolveProviderEnvOverride(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	v := viper.New()
	v.Set("provider", "anthropic")

	pc := provider.ResolveProvider(v)
	assert.Equal(t, "env-key", pc.Viper.GetString("api_key"))
}

func TestResolveProviderEnvName(t *testing.T) {
	t.Setenv("PYREV_PROVIDER", "openai")
	pc := provider.ResolveProvider(viper.New())
	assert.Equal(t, "openai", pc.Name)
}

func TestResolveProviderInheritsSharedSettings(t *testing.T) {
	v := viper.New()
	v.Set("provider", "anthropic")
	v.Set("max_tokens", 4096)
	v.Set("providers.anthropic.api_key", "k")

	pc := provider.ResolveProvider(v)
	assert.Equal(t, 4096, pc.Viper.GetInt("max_tokens"))
}
