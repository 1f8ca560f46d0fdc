// Package llm provides factory functions for creating language model adapters.
package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/brief-cli/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/brief-cli/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/brief-cli/internal/core/domain"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Provider identifies a language model backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
)

// Settings holds the configuration needed to construct an LLM service.
type Settings struct {
	Provider Provider
	APIKey   string
	BaseURL  string
	Model    string
}

// IsConfigured reports whether a provider has been selected.
func (s Settings) IsConfigured() bool {
	return s.Provider != ""
}

// SettingsFromConfig reads LLM settings from the config store. The API key
// comes from the environment, never from config on disk. An unset provider
// defaults to ollama, which needs no credentials.
func SettingsFromConfig(cfg driven.ConfigStore) Settings {
	provider := Provider(cfg.GetString("llm.provider"))
	if provider == "" {
		provider = ProviderOllama
	}
	return Settings{
		Provider: provider,
		APIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		BaseURL:  cfg.GetString("llm.base_url"),
		Model:    cfg.GetString("llm.model"),
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if no provider is configured.
func CreateLLMService(settings Settings) (driven.LLMService, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case ProviderOllama:
		return ollama.NewLLMService(ollama.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case ProviderAnthropic:
		return anthropic.NewLLMService(anthropic.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// CreateAndValidateLLMService creates an LLM service and validates
// connectivity. Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(settings Settings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'brief config set llm.provider <provider>' to fix",
			domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)",
			domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// ValidateLLMConfig validates an LLM configuration by creating a service and
// pinging it. Intended for checking settings at configuration time.
func ValidateLLMConfig(settings Settings) error {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}
