package cmd

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/sanix-darker/pyrev/internal/config"
)

func TestBuildEffectiveConfig_RedactsProviderSecret(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	v := viper.New()
	v.Set("provider", "openai")
	v.Set("providers.openai.api_key", "sk-test-secret")
	v.Set("providers.openai.model", "gpt-4o")

	conf := config.NewDefaultConfig()
	conf.Viper = v
	conf.Provider = "openai"

	out := buildEffectiveConfig(conf)

	assert.Equal(t, "openai", out["provider"])
	providers, ok := out["providers"].(map[string]interface{})
	if !assert.True(t, ok) {
		return
	}
	openai, ok := providers["openai"].(map[string]interface{})
	if !assert.True(t, ok) {
		return
	}
	assert.Equal(t, "***", openai["api_key"])
	assert.Equal(t, "gpt-4o", openai["model"])
}

func TestValidateEffectiveConfig_AnthropicRequiresAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	conf := config.NewDefaultConfig()
	conf.Viper = viper.New()
	conf.Provider = "anthropic"

	errs := validateEffectiveConfig(conf)
	assert.Contains(t, errs, "providers.anthropic.api_key (or ANTHROPIC_API_KEY) is required")
}

func TestValidateEffectiveConfig_CustomProviderRequiresBaseURL(t *testing.T) {
	conf := config.NewDefaultConfig()
	conf.Viper = viper.New()
	conf.Provider = "myproxy"

	errs := validateEffectiveConfig(conf)
	assert.Contains(t, errs, "providers.myproxy.base_url (or PYREV_MYPROXY_BASE_URL) is required")
}

func TestValidateEffectiveConfig_RejectsBadStrictness(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	conf := config.NewDefaultConfig()
	conf.Strictness = "brutal"

	errs := validateEffectiveConfig(conf)
	assert.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "strictness")
}

func TestRedactSecret(t *testing.T) {
	assert.Equal(t, "", redactSecret(""))
	assert.Equal(t, "", redactSecret("   "))
	assert.Equal(t, "***", redactSecret("sk-live-key"))
}
