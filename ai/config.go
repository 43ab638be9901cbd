// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
)

// Embedding backends.
const (
	BackendOpenAI = "openai"
	BackendOllama = "ollama"
)

// Config holds configuration for AI service providers.
type Config struct {
	// Backend selects the embedding client: "openai" for any OpenAI-compatible
	// API, "ollama" for the native Ollama API.
	Backend string

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// SelectorHost is the base URL for the OpenAI-compatible chat API used to
	// pick the best candidate. Empty disables LLM selection.
	SelectorHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "nomic-embed-text", "text-embedding-3-small"
	EmbeddingModel string

	// SelectorModel is the model identifier used for candidate selection.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	SelectorModel string

	// APIToken is sent as the bearer token to OpenAI-compatible hosts.
	// Local servers ignore it.
	APIToken string

	// MaxCandidates caps how many candidates are shown to the selector.
	// Default: 10
	MaxCandidates int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend sets the embedding backend.
func WithBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithSelectorHost sets the selector service host URL.
func WithSelectorHost(host string) ConfigOption {
	return func(c *Config) {
		c.SelectorHost = host
	}
}

// WithHost sets both embedding and selector hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.SelectorHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithSelectorModel sets the selector model identifier.
func WithSelectorModel(model string) ConfigOption {
	return func(c *Config) {
		c.SelectorModel = model
	}
}

// WithAPIToken sets the bearer token for OpenAI-compatible hosts.
func WithAPIToken(token string) ConfigOption {
	return func(c *Config) {
		c.APIToken = token
	}
}

// WithMaxCandidates sets how many candidates the selector sees.
func WithMaxCandidates(n int) ConfigOption {
	return func(c *Config) {
		c.MaxCandidates = n
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, both embedding and selector use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		Backend:        BackendOpenAI,
		EmbeddingHost:  defaultHost,
		SelectorHost:   defaultHost,
		EmbeddingModel: "nomic-embed-text",
		SelectorModel:  "qwen2.5:3b",
		MaxCandidates:  10,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//   cfg := NewConfig(
//       WithBackend(BackendOllama),
//       WithEmbeddingHost("http://localhost:11434"),
//       WithSelectorHost(""),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// OpenAI-compatible hosts get the /v1 suffix; the native Ollama API is
// addressed without it.
func (c *Config) Normalize() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = BackendOpenAI
	}

	if c.Backend == BackendOllama {
		c.EmbeddingHost = strings.TrimSuffix(strings.TrimSuffix(c.EmbeddingHost, "/"), "/v1")
	} else {
		c.EmbeddingHost = withV1(c.EmbeddingHost)
	}
	c.SelectorHost = withV1(c.SelectorHost)
}

func withV1(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Backend != BackendOpenAI && c.Backend != BackendOllama {
		return errors.New("ai config: Backend must be openai or ollama")
	}
	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.SelectorHost != "" && c.SelectorModel == "" {
		return errors.New("ai config: SelectorModel is required when SelectorHost is set")
	}
	if c.MaxCandidates < 1 || c.MaxCandidates > 50 {
		return errors.New("ai config: MaxCandidates must be between 1 and 50")
	}
	return nil
}
