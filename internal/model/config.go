package model

import "time"

// Config is the complete Agora configuration
type Config struct {
	Pipeline     PipelineConfig    `yaml:"pipeline" mapstructure:"pipeline"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Audit        AuditConfig       `yaml:"audit" mapstructure:"audit"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	ContextPacks ContextPackConfig `yaml:"context_packs" mapstructure:"context_packs"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
	Logging      LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

// PipelineConfig controls the analyze driver
type PipelineConfig struct {
	Version       string `yaml:"version" mapstructure:"version"`
	PromptVersion string `yaml:"prompt_version" mapstructure:"prompt_version"`
	DefaultLocale string `yaml:"default_locale" mapstructure:"default_locale"`
	MaxClaims     int    `yaml:"max_claims" mapstructure:"max_claims"`
	MaxTokens     int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// LLMConfig lists the providers in fallback order
type LLMConfig struct {
	Providers []ProviderConfig `yaml:"providers" mapstructure:"providers"`
}

// ProviderConfig configures one provider
type ProviderConfig struct {
	Name       string `yaml:"name" mapstructure:"name"` // openai, anthropic, ollama
	Model      string `yaml:"model" mapstructure:"model"`
	APIKey     string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	// RequestsPerSecond overrides rate_limiting for this provider, 0 keeps the default
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty" mapstructure:"requests_per_second"`
}

// AuditConfig controls the editorial audit engine
type AuditConfig struct {
	Enabled           bool          `yaml:"enabled" mapstructure:"enabled"`
	PolicyPackPath    string        `yaml:"policy_pack_path,omitempty" mapstructure:"policy_pack_path"`
	VoiceRegistryPath string        `yaml:"voice_registry_path,omitempty" mapstructure:"voice_registry_path"`
	PublishersPath    string        `yaml:"publishers_path,omitempty" mapstructure:"publishers_path"`
	Linking           LinkingConfig `yaml:"linking" mapstructure:"linking"`
}

// LinkingConfig holds the tunable burden-of-proof heuristics.
// The defaults are empirical, not validated constants.
type LinkingConfig struct {
	Threshold        float64 `yaml:"threshold" mapstructure:"threshold"`
	EntityBonusStep  float64 `yaml:"entity_bonus_step" mapstructure:"entity_bonus_step"`
	EntityBonusMax   float64 `yaml:"entity_bonus_max" mapstructure:"entity_bonus_max"`
	HostBonus        float64 `yaml:"host_bonus" mapstructure:"host_bonus"`
	PublisherBonus   float64 `yaml:"publisher_bonus" mapstructure:"publisher_bonus"`
	MaxLinksPerClaim int     `yaml:"max_links_per_claim" mapstructure:"max_links_per_claim"`
	MaxClaims        int     `yaml:"max_claims" mapstructure:"max_claims"`
	MinTokenLength   int     `yaml:"min_token_length" mapstructure:"min_token_length"`
}

// CacheConfig controls the provider response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitConfig throttles provider calls per provider
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ContextPackConfig points at the context pack file
type ContextPackConfig struct {
	Path string `yaml:"path,omitempty" mapstructure:"path"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// LoggingConfig controls the zerolog logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // console | json
}

// DefaultLinkingConfig returns the burden-of-proof defaults
func DefaultLinkingConfig() LinkingConfig {
	return LinkingConfig{
		Threshold:        0.18,
		EntityBonusStep:  0.1,
		EntityBonusMax:   0.25,
		HostBonus:        0.05,
		PublisherBonus:   0.06,
		MaxLinksPerClaim: 4,
		MaxClaims:        12,
		MinTokenLength:   4,
	}
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Version:       "agora-pipeline/1.4.0",
			PromptVersion: "analyze-v3",
			DefaultLocale: "de",
			MaxClaims:     10,
			MaxTokens:     4000,
		},
		LLM: LLMConfig{
			Providers: []ProviderConfig{
				{Name: "openai", Model: "gpt-4o-mini", Timeout: 60},
			},
		},
		Audit: AuditConfig{
			Enabled: true,
			Linking: DefaultLinkingConfig(),
		},
		Cache: CacheConfig{
			Enabled:   false,
			Dir:       ".agora-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
