package ollama

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
	"github.com/poiesic/tmbridge/ai"
)

// Embedder implements ai.Embedder on the native Ollama embed endpoint.
type Embedder struct {
	client *api.Client
	model  string
	logger *slog.Logger
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Backend != ai.BackendOllama {
		return nil, fmt.Errorf("ollama embedder: backend is %q", config.Backend)
	}

	host := envconfig.Host()
	if config.EmbeddingHost != "" {
		parsed, err := url.Parse(config.EmbeddingHost)
		if err != nil {
			return nil, fmt.Errorf("ollama embedder: invalid host: %w", err)
		}
		host = parsed
	}

	return &Embedder{
		client: api.NewClient(host, http.DefaultClient),
		model:  config.EmbeddingModel,
		logger: slog.Default().With("component", "ollama-embedder"),
	}, nil
}

// NewEmbedder creates an Ollama embedder.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		e.logger.Warn("embedder returned empty result")
		return []float32{}, nil
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in one request.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, errors.New("ollama embedder: embedding count does not match input count")
	}

	return resp.Embeddings, nil
}

// Provider implements ai.AIProvider with an Ollama embedder. Candidate
// selection is not offered by this backend.
type Provider struct {
	config   *ai.Config
	embedder *Embedder
	logger   *slog.Logger
}

// NewProvider creates a provider backed by the native Ollama API.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	return &Provider{
		config:   config,
		embedder: embedder,
		logger:   slog.Default().With("component", "ollama-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// CandidateSelector returns nil; Ollama is used for embeddings only.
func (p *Provider) CandidateSelector() ai.CandidateSelector {
	return nil
}

// EmbeddingModel returns the configured embedding model name.
func (p *Provider) EmbeddingModel() string {
	return p.config.EmbeddingModel
}

// Close releases resources held by the provider.
func (p *Provider) Close() error {
	p.logger.Debug("closing Ollama provider")
	return nil
}
