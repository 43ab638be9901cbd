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


package badger

import "github.com/poiesic/tmbridge/storage"

// OpenRepositories opens catalog and selection repositories on a database
// directory. Caller must close both repos and backend when done.
func OpenRepositories(path string) (storage.CatalogRepository, storage.SelectionRepository, *Backend, error) {
	return openRepositories(path, false)
}

// NewMemoryRepositories creates in-memory catalog and selection repositories for testing.
// Returns catalogRepo, selectionRepo, backend, and error.
// Caller must close both repos and backend when done.
func NewMemoryRepositories() (storage.CatalogRepository, storage.SelectionRepository, *Backend, error) {
	return openRepositories("", true)
}

func openRepositories(path string, inMemory bool) (storage.CatalogRepository, storage.SelectionRepository, *Backend, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, nil, nil, err
	}

	catalogRepo, err := NewCatalogRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, nil, err
	}

	selectionRepo, err := NewSelectionRepository(backend)
	if err != nil {
		catalogRepo.Close()
		backend.Close()
		return nil, nil, nil, err
	}

	return catalogRepo, selectionRepo, backend, nil
}
