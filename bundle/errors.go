package bundle

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrRepositoryRequired is returned when a nil repository is passed.
	ErrRepositoryRequired = errors.New("catalog repository is required")

	// ErrEmbeddingCountMismatch is returned when an embedder returns a
	// different number of vectors than texts it was given.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")
)
