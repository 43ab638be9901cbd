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


// Package storage provides the storage abstraction layer for tmbridge.
//
// Retrieval itself never touches storage: catalogs and their vectors are
// loaded once into immutable in-memory bundles. This package covers the
// surrounding persistence:
//
//   - CatalogRepository: catalogs in insertion order, plus the embeddings
//     and metadata of their index bundles
//   - SelectionRepository: practitioner selections used for re-ranking
//
// # Constructor Return Type Pattern
//
// Public constructors return the interfaces defined here, so consumers do
// not couple to BadgerDB specifics:
//
//	catalogs, selections, backend, err := badger.OpenRepositories("/path/to/db")
//
// Use in tests with in-memory storage:
//
//	catalogs, selections, backend, err := badger.NewMemoryRepositories()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
