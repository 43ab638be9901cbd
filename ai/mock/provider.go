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


package mock

import "github.com/poiesic/tmbridge/ai"

// ModelName is reported by MockProvider.EmbeddingModel.
const ModelName = "mock-bag-of-words"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder and selector instances.
type MockProvider struct {
	embedder *MockEmbedder
	selector *MockSelector
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockSelector() to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder: NewMockEmbedder(),
		selector: NewMockSelector(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// A nil selector makes CandidateSelector return nil.
func NewMockProviderWithServices(embedder *MockEmbedder, selector *MockSelector) ai.AIProvider {
	return &MockProvider{
		embedder: embedder,
		selector: selector,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// CandidateSelector returns the mock selector, or nil if none was given.
func (p *MockProvider) CandidateSelector() ai.CandidateSelector {
	if p.selector == nil {
		return nil
	}
	return p.selector
}

// EmbeddingModel returns ModelName.
func (p *MockProvider) EmbeddingModel() string {
	return ModelName
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockSelector returns the underlying mock selector for test assertions.
func (p *MockProvider) GetMockSelector() *MockSelector {
	return p.selector
}
