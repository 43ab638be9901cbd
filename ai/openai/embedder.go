package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/tmbridge/ai"
	"github.com/poiesic/tmbridge/core"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// requestBatchSize caps the documents sent in one embeddings request.
const requestBatchSize = 128

var (
	// ErrEmptyQuery is returned when a query has no text to embed.
	ErrEmptyQuery = errors.New("query text is empty")

	// ErrVectorCount is returned when the service answers with a different
	// number of vectors than texts it was sent.
	ErrVectorCount = errors.New("embedding service returned wrong number of vectors")
)

// Embedder embeds retrieval queries and catalog entry documents through an
// OpenAI-compatible embeddings endpoint.
type Embedder struct {
	embedder embeddings.Embedder
	model    string
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(token(config)),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}
	return newEmbedderWithClient(client, config.EmbeddingModel, config.EmbeddingHost)
}

func newEmbedderWithClient(client embeddings.EmbedderClient, model, host string) (*Embedder, error) {
	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(requestBatchSize),
	)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		model:    model,
		logger:   slog.Default().With("component", "openai-embedder", "model", model, "host", host),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText embeds a practitioner query. Surrounding whitespace is trimmed
// and a blank query is rejected.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyQuery
	}

	vectors, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds texts in order, one vector each.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	// langchaingo rewrites newlines in place.
	return e.embed(ctx, append([]string(nil), texts...))
}

// EmbedEntries embeds the search document of each catalog entry, in order.
func (e *Embedder) EmbedEntries(ctx context.Context, entries []*core.Entry) ([][]float32, error) {
	if len(entries) == 0 {
		return [][]float32{}, nil
	}

	docs := make([]string, len(entries))
	for i, entry := range entries {
		docs[i] = entry.Document()
	}

	e.logger.Debug("embedding catalog entries", "count", len(entries),
		"first_code", entries[0].Code, "last_code", entries[len(entries)-1].Code)

	vectors, err := e.embed(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("embedding entries %s..%s: %w", entries[0].Code, entries[len(entries)-1].Code, err)
	}
	return vectors, nil
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("embeddings request failed", "count", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d, got %d", ErrVectorCount, len(texts), len(vectors))
	}
	return vectors, nil
}

// token returns the configured bearer token. Local OpenAI-compatible
// services accept any non-empty value.
func token(config *ai.Config) string {
	if config.APIToken != "" {
		return config.APIToken
	}
	return "none"
}
