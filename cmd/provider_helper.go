package cmd

import (
	"github.com/sanix-darker/pyrev/internal/config"
	"github.com/sanix-darker/pyrev/internal/provider"
)

// resolveProvider creates an AIProvider from the current config.
func resolveProvider(conf config.Config) (provider.AIProvider, error) {
	// Override provider name from CLI
	if conf.Provider != "" {
		conf.Viper.Set("provider", conf.Provider)
	}
	pcfg := provider.ResolveProvider(conf.Viper)

	// Override model from CLI
	if conf.Model != "" {
		pcfg.Viper.Set("model", conf.Model)
	}

	return provider.Get(pcfg.Name, pcfg.Viper)
}

// modelName resolves the model to request, CLI flag first then the
// provider's own default.
func modelName(conf config.Config, p provider.AIProvider) string {
	if conf.Model != "" {
		return conf.Model
	}
	return p.Info().DefaultModel
}
