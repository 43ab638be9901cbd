package ai

import (
	"context"

	"github.com/poiesic/tmbridge/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// EntryEmbedder is implemented by embedders that embed catalog entries
// directly. Index builders use it in place of EmbedTexts when available.
type EntryEmbedder interface {
	// EmbedEntries returns one vector per entry, in entry order.
	EmbedEntries(ctx context.Context, entries []*core.Entry) ([][]float32, error)
}

// CandidateSelector picks the catalog candidate that best matches a
// practitioner's free-text query.
// Implementations must be thread-safe for concurrent use.
type CandidateSelector interface {
	// SelectCandidate returns the code of the best candidate and a short
	// clinical reason. The returned code is always one of the candidates'.
	// Returns an error if no valid choice could be made.
	SelectCandidate(ctx context.Context, query string, candidates []core.Candidate) (*CandidateChoice, error)
}

// CandidateChoice is a selector's pick.
type CandidateChoice struct {
	Code   string
	Reason string
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// CandidateSelector returns the LLM candidate selector, or nil when the
	// provider has none. Callers fall back to the top-ranked candidate.
	CandidateSelector() CandidateSelector

	// EmbeddingModel identifies the model behind Embedder. Index bundles
	// record it so vectors from different models are never mixed.
	EmbeddingModel() string

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
