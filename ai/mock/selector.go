package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/poiesic/tmbridge/ai"
	"github.com/poiesic/tmbridge/core"
)

// MockSelector is a test double for ai.CandidateSelector.
// It allows custom behavior injection via function fields.
type MockSelector struct {
	// SelectCandidateFunc is called by SelectCandidate if set.
	// If nil, picks the first candidate.
	SelectCandidateFunc func(ctx context.Context, query string, candidates []core.Candidate) (*ai.CandidateChoice, error)

	mu        sync.Mutex
	callCount int
}

// NewMockSelector creates a mock selector with default behavior.
func NewMockSelector() *MockSelector {
	return &MockSelector{}
}

// SelectCandidate returns the injected choice or the first candidate.
func (m *MockSelector) SelectCandidate(ctx context.Context, query string, candidates []core.Candidate) (*ai.CandidateChoice, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.SelectCandidateFunc != nil {
		return m.SelectCandidateFunc(ctx, query, candidates)
	}

	if len(candidates) == 0 {
		return nil, errors.New("mock selector: no candidates")
	}
	return &ai.CandidateChoice{Code: candidates[0].Code, Reason: "mock choice"}, nil
}

// CallCount returns the number of times SelectCandidate was called.
func (m *MockSelector) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockSelector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.SelectCandidateFunc = nil
}
