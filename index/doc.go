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


// Package index provides the in-memory structures retrieval runs against.
//
// All structures address catalog entries by insertion ordinal and are
// immutable after construction:
//   - Normalize/Fold: the shared tokenizer for documents and queries
//   - Lexical: BM25 keyword index with scores normalized to [0,1]
//   - Vectors: unit-length embeddings searched by cosine similarity
//   - Fuzzy: edit-distance and containment matching on terms and codes
package index
