// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"
	"os"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/providers"
)

// NewProviderRegistry registers a direct-call client for every provider with
// credentials in the environment. Providers without credentials stay
// unregistered; fast-path requests to them fail as provider_unavailable
// instead of failing at startup.
func NewProviderRegistry(logger *slog.Logger) *providers.Registry {
	reg := providers.NewRegistry(logger)

	if key, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
		base := envOr("OPENAI_BASE_URL", "https://api.openai.com/v1")
		reg.Register(models.ProviderOpenAI, providers.NewOpenAICompatible(base, key, logger).Call)
	}

	// xAI speaks the same chat completions protocol.
	if key, ok := os.LookupEnv("XAI_API_KEY"); ok {
		base := envOr("XAI_BASE_URL", "https://api.x.ai/v1")
		reg.Register(models.ProviderXAI, providers.NewOpenAICompatible(base, key, logger).Call)
	}

	return reg
}

func envOr(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}

	return fallback
}
