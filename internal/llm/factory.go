package llm

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/agora/internal/model"
)

// ErrUnknownProvider is returned for a provider name no adapter serves
var ErrUnknownProvider = errors.New("unknown LLM provider")

// CanonicalName maps a configured provider name onto the name the provider
// reports, so "Claude" and "anthropic" share one rate limit bucket
func CanonicalName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "claude" {
		return "anthropic"
	}
	return name
}

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	switch CanonicalName(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("%w: %q (supported: openai, anthropic, ollama)", ErrUnknownProvider, config.Provider)
	}
}

// ConfigFromModel converts a configured provider to llm.Config, filling the
// API key and base URL from the environment when the file leaves them empty
func ConfigFromModel(pc model.ProviderConfig) Config {
	cfg := Config{
		Provider:   strings.ToLower(strings.TrimSpace(pc.Name)),
		Model:      pc.Model,
		APIKey:     pc.APIKey,
		BaseURL:    pc.BaseURL,
		Timeout:    pc.Timeout,
		HTTPProxy:  pc.HTTPProxy,
		HTTPSProxy: pc.HTTPSProxy,
	}

	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = os.Getenv("OPENAI_BASE_URL")
		}
	case "anthropic", "claude":
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if cfg.BaseURL == "" {
			cfg.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
	if cfg.NoProxy == "" {
		cfg.NoProxy = os.Getenv("NO_PROXY")
	}

	return cfg
}

// ProvidersFromConfig builds every usable provider in configured order.
// Providers lacking credentials are skipped and reported in skipped; an
// unknown provider name is a configuration error. No usable provider at all
// yields ErrNoProviderConfigured.
func ProvidersFromConfig(cfg model.LLMConfig) (providers []Provider, skipped []error, err error) {
	for _, pc := range cfg.Providers {
		p, perr := NewProvider(ConfigFromModel(pc))
		if perr != nil {
			if errors.Is(perr, ErrUnknownProvider) {
				return nil, nil, perr
			}
			skipped = append(skipped, fmt.Errorf("%s: %w", pc.Name, perr))
			continue
		}
		providers = append(providers, p)
	}

	if len(providers) == 0 {
		return nil, skipped, ErrNoProviderConfigured
	}
	return providers, skipped, nil
}
