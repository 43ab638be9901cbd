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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidEntry indicates an Entry failed validation.
	ErrInvalidEntry = errors.New("invalid catalog entry")

	// ErrEmptyCode indicates the entry Code field is empty.
	ErrEmptyCode = errors.New("code cannot be empty")

	// ErrEmptyTerm indicates the entry Term field is empty.
	ErrEmptyTerm = errors.New("term cannot be empty")

	// ErrDuplicateCode indicates two entries in one catalog share a code.
	ErrDuplicateCode = errors.New("duplicate code in catalog")

	// ErrUnknownTerminology indicates an unrecognized terminology identifier.
	ErrUnknownTerminology = errors.New("unknown terminology")
)

// Retrieval errors
var (
	// ErrCatalogUnavailable indicates the requested catalog is not loaded.
	// It is the only error that aborts a retrieval request.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrTierUnavailable indicates a retrieval tier failed. The cascade treats
	// it as an empty tier and moves on.
	ErrTierUnavailable = errors.New("retrieval tier unavailable")

	// ErrEmptyQuery indicates the query normalized to nothing. Retrieval reports
	// it as an empty result rather than an error.
	ErrEmptyQuery = errors.New("query is empty after normalization")
)
