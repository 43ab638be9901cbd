package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, BackendOpenAI, cfg.Backend)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.SelectorHost)
	assert.Equal(t, "nomic-embed-text", cfg.EmbeddingModel)
	assert.Equal(t, "qwen2.5:3b", cfg.SelectorModel)
	assert.Equal(t, 10, cfg.MaxCandidates)
	require.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.SelectorHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithSelectorHost("http://select:9090/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://select:9090/v1", cfg.SelectorHost)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithBackend(BackendOllama),
			WithEmbeddingModel("custom-embed"),
			WithSelectorModel("custom-select"),
			WithAPIToken("secret"),
			WithMaxCandidates(5),
		)

		assert.Equal(t, BackendOllama, cfg.Backend)
		assert.Equal(t, "custom-embed", cfg.EmbeddingModel)
		assert.Equal(t, "custom-select", cfg.SelectorModel)
		assert.Equal(t, "secret", cfg.APIToken)
		assert.Equal(t, 5, cfg.MaxCandidates)
	})
}

func TestConfig_Normalize(t *testing.T) {
	tests := []struct {
		name         string
		cfg          Config
		wantEmbed    string
		wantSelector string
	}{
		{
			name:         "adds v1 suffix",
			cfg:          Config{EmbeddingHost: "http://localhost:11434", SelectorHost: "http://localhost:11434/"},
			wantEmbed:    "http://localhost:11434/v1",
			wantSelector: "http://localhost:11434/v1",
		},
		{
			name:         "keeps existing suffix",
			cfg:          Config{EmbeddingHost: "http://h/v1", SelectorHost: "http://h/v1"},
			wantEmbed:    "http://h/v1",
			wantSelector: "http://h/v1",
		},
		{
			name:         "ollama strips suffix",
			cfg:          Config{Backend: "Ollama", EmbeddingHost: "http://localhost:11434/v1", SelectorHost: "http://localhost:11434"},
			wantEmbed:    "http://localhost:11434",
			wantSelector: "http://localhost:11434/v1",
		},
		{
			name:         "empty selector stays empty",
			cfg:          Config{EmbeddingHost: "http://h"},
			wantEmbed:    "http://h/v1",
			wantSelector: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Normalize()
			assert.Equal(t, tt.wantEmbed, cfg.EmbeddingHost)
			assert.Equal(t, tt.wantSelector, cfg.SelectorHost)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "no selector", mutate: func(c *Config) { c.SelectorHost = "" }},
		{name: "unknown backend", mutate: func(c *Config) { c.Backend = "bedrock" }, wantErr: true},
		{name: "missing embedding host", mutate: func(c *Config) { c.EmbeddingHost = "" }, wantErr: true},
		{name: "missing embedding model", mutate: func(c *Config) { c.EmbeddingModel = "" }, wantErr: true},
		{name: "selector without model", mutate: func(c *Config) { c.SelectorModel = "" }, wantErr: true},
		{name: "too many candidates", mutate: func(c *Config) { c.MaxCandidates = 51 }, wantErr: true},
		{name: "zero candidates", mutate: func(c *Config) { c.MaxCandidates = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
