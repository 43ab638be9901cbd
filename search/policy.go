package search

import (
	"fmt"
	"time"
)

// Policy holds the thresholds that decide when each tier is acceptable.
type Policy struct {
	// LexicalThreshold is T_lex: the top normalized BM25 score must exceed it.
	LexicalThreshold float64

	// SemanticThreshold is T_sem: the top cosine similarity must exceed it.
	SemanticThreshold float64

	// MaxEdits is the edit-distance budget of the fuzzy tier.
	MaxEdits int

	// TopK caps every candidate list.
	TopK int

	// ExternalTimeout bounds the external lookup. A timeout counts as no result.
	ExternalTimeout time.Duration

	EnableSemantic bool
	EnableFuzzy    bool
	EnableExternal bool
}

// DefaultPolicy returns the default cascade policy.
func DefaultPolicy() Policy {
	return Policy{
		LexicalThreshold:  0.30,
		SemanticThreshold: 0.60,
		MaxEdits:          2,
		TopK:              10,
		ExternalTimeout:   5 * time.Second,
		EnableSemantic:    true,
		EnableFuzzy:       true,
		EnableExternal:    true,
	}
}

// Validate checks that thresholds lie in [0,1) and limits are positive.
func (p Policy) Validate() error {
	if p.LexicalThreshold < 0 || p.LexicalThreshold >= 1 {
		return fmt.Errorf("%w: lexical threshold %v must be in [0,1)", ErrInvalidPolicy, p.LexicalThreshold)
	}
	if p.SemanticThreshold < 0 || p.SemanticThreshold >= 1 {
		return fmt.Errorf("%w: semantic threshold %v must be in [0,1)", ErrInvalidPolicy, p.SemanticThreshold)
	}
	if p.MaxEdits < 0 {
		return fmt.Errorf("%w: edit budget %d is negative", ErrInvalidPolicy, p.MaxEdits)
	}
	if p.TopK < 1 {
		return fmt.Errorf("%w: top-k %d must be positive", ErrInvalidPolicy, p.TopK)
	}
	if p.EnableExternal && p.ExternalTimeout <= 0 {
		return fmt.Errorf("%w: external timeout must be positive", ErrInvalidPolicy)
	}
	return nil
}
