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


// Package search provides cascading retrieval over terminology catalogs.
//
// The Retriever runs up to four tiers in order and stops at the first one
// whose results are acceptable under the configured Policy:
//   - Lexical: BM25 over normalized tokens, accepted above the lexical threshold
//   - Semantic: cosine similarity of embeddings, accepted above the semantic threshold
//   - Fuzzy: edit distance and partial-token containment, with a "did you mean" advisory
//   - External: best-effort web search, only when every local tier came back empty
//
// Scores are never compared across tiers. A failing tier is logged and
// treated as empty, so only a missing catalog makes a request fail.
package search
