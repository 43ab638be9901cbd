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


// Package ai provides abstractions for the AI capabilities tmbridge consumes.
//
// Retrieval never requires AI: the semantic tier is skipped without an
// Embedder and the mapping pipeline falls back to the top-ranked candidate
// without a CandidateSelector.
//
//   - Embedder: Generates vector embeddings from text
//   - CandidateSelector: Picks the best candidate for a free-text query with an LLM
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible APIs via langchaingo (embeddings and selection)
//   - ai/ollama: the native Ollama embed API (embeddings only)
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, ollama.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction. Test utility constructors
// (mock.NewMockEmbedder, mock.NewMockSelector) return CONCRETE types to
// enable test assertions and behavior injection.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "stiffness of the back")
package ai
