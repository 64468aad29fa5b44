package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rs/zerolog"

	"github.com/ppiankov/agora/internal/llm"
	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/pipeline"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `pipeline:
  default_locale: en
concurrency:
  workers: 8
cache:
  memory_ttl: 5m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("AGORA_CACHE_DIR", "/tmp/agora-cache-test")

	cfg, err := loadConfig(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "en", cfg.Pipeline.DefaultLocale)
	assert.Equal(t, 8, cfg.Concurrency.Workers)
	assert.Equal(t, 5*time.Minute, cfg.Cache.MemoryTTL)
	assert.Equal(t, "/tmp/agora-cache-test", cfg.Cache.Dir)

	// untouched keys keep their defaults
	def := model.DefaultConfig()
	assert.Equal(t, def.Pipeline.Version, cfg.Pipeline.Version)
	assert.Equal(t, def.Cache.DiskTTL, cfg.Cache.DiskTTL)
	assert.Equal(t, def.Audit.Linking, cfg.Audit.Linking)
	assert.True(t, cfg.Audit.Enabled)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig().Pipeline, cfg.Pipeline)
	assert.Equal(t, model.DefaultConfig().RateLimiting, cfg.RateLimiting)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := loadConfig(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"item-1", "item-1"},
		{"Tempo 30 vor Schulen", "Tempo-30-vor-Schulen"},
		{"../../etc/passwd", "_.._etc_passwd"},
		{"a/b:c*d", "a_b_c_d"},
		{"Straßenbahn", "Straßenbahn"},
		{"  ", "item"},
		{"...", "item"},
		{strings.Repeat("x", 150), strings.Repeat("x", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeFilename(tt.in))
		})
	}
}

func TestReadInput(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		stdin string
		want  string
	}{
		{"argument", []string{"Mehr Radwege."}, "ignored", "Mehr Radwege."},
		{"dash reads stdin", []string{"-"}, "aus stdin", "aus stdin"},
		{"no argument reads stdin", nil, "aus stdin", "aus stdin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readInput(tt.args, strings.NewReader(tt.stdin))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		hint string
	}{
		{"configuration", &pipeline.ConfigurationError{Err: llm.ErrNoProviderConfigured}, "OPENAI_API_KEY"},
		{"provider failure", &pipeline.ProviderFailureError{
			Failed: []model.ProviderAttempt{{Provider: "openai", Model: "gpt-4o-mini", ErrorKind: "timeout"}},
			Err:    errors.New("all providers failed"),
		}, "openai/gpt-4o-mini: timeout"},
		{"schema mismatch", &pipeline.SchemaMismatchError{Provider: "ollama", Err: pipeline.ErrTooFewClaims}, "try another model"},
		{"invalid input", fmt.Errorf("%w: empty text", pipeline.ErrInvalidInput), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describeError(tt.err)
			assert.ErrorIs(t, got, tt.err)
			if tt.hint == "" {
				assert.Equal(t, tt.err, got)
				return
			}
			assert.Contains(t, got.Error(), tt.hint)
		})
	}
}

func TestBuildAnalyzer_NoProviders(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg := model.DefaultConfig()
	analyzer, err := buildAnalyzer(cfg, zerolog.Nop())
	require.NoError(t, err)

	_, err = analyzer.Analyze(context.Background(), pipeline.Request{Text: "Mehr Tempo-30-Zonen vor Schulen."})
	var cfgErr *pipeline.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, llm.ErrNoProviderConfigured)
}

func TestBuildAnalyzer_UnknownProvider(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Providers = []model.ProviderConfig{{Name: "mystery"}}

	_, err := buildAnalyzer(cfg, zerolog.Nop())
	assert.ErrorIs(t, err, llm.ErrUnknownProvider)
}

func TestBuildAnalyzer_MissingContextPacks(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg := model.DefaultConfig()
	cfg.ContextPacks.Path = filepath.Join(t.TempDir(), "packs.yaml")

	_, err := buildAnalyzer(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestInitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".agora", "config.yaml")
	require.NoError(t, initConfigFile(path))

	cfg, err := loadConfig(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig().Pipeline, cfg.Pipeline)

	err = initConfigFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRedactConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Providers = []model.ProviderConfig{
		{Name: "openai", APIKey: "sk-secret"},
		{Name: "ollama"},
	}

	got := redactConfig(cfg)
	assert.Equal(t, "***", got.LLM.Providers[0].APIKey)
	assert.Empty(t, got.LLM.Providers[1].APIKey)
	assert.Equal(t, "sk-secret", cfg.LLM.Providers[0].APIKey, "original must stay untouched")
}
