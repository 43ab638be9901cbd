// Package websearch provides the external lookup used as the last retrieval
// tier. Results are unverified web pages, never catalog codes.
package websearch

import (
	"context"
	"errors"
)

var (
	// ErrCredentialsRequired is returned when an API key or engine ID is missing.
	ErrCredentialsRequired = errors.New("web search credentials required")

	// ErrUnexpectedStatus is returned for non-200 responses.
	ErrUnexpectedStatus = errors.New("unexpected web search response status")
)

// Result is a single web search hit.
type Result struct {
	Title   string
	Snippet string
	Link    string
}

// Searcher looks up text on the web.
// Implementations must be thread-safe for concurrent use.
type Searcher interface {
	Lookup(ctx context.Context, text string) ([]Result, error)
}

// SearcherFunc adapts a function to the Searcher interface.
type SearcherFunc func(ctx context.Context, text string) ([]Result, error)

// Lookup calls f.
func (f SearcherFunc) Lookup(ctx context.Context, text string) ([]Result, error) {
	return f(ctx, text)
}
