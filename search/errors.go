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


package search

import "errors"

var (
	// ErrRegistryRequired is returned when a bundle registry is not provided.
	ErrRegistryRequired = errors.New("bundle registry required")

	// ErrInvalidPolicy is returned when policy thresholds or limits are out of range.
	ErrInvalidPolicy = errors.New("invalid retrieval policy")

	// ErrCodeNotFound is returned by Lookup for codes missing from a catalog.
	ErrCodeNotFound = errors.New("code not found in catalog")
)
