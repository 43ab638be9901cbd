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

import (
	"fmt"
)

// ValidateEntry validates an Entry according to catalog rules.
//
// Validation rules:
//   - Code must not be empty
//   - Term must not be empty
//
// NOT validated:
//   - English, Definition and ParentCode (all optional)
//   - ParentCode resolving to an entry in the same catalog
func ValidateEntry(entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}

	if entry.Code == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyCode)
	}

	if entry.Term == "" {
		return fmt.Errorf("%w: code %s: %w", ErrInvalidEntry, entry.Code, ErrEmptyTerm)
	}

	return nil
}

// ValidateCatalog validates every entry and checks that codes are unique.
func ValidateCatalog(entries []*Entry) error {
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		if err := ValidateEntry(e); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if prev, ok := seen[e.Code]; ok {
			return fmt.Errorf("%w: %s at entries %d and %d", ErrDuplicateCode, e.Code, prev, i)
		}
		seen[e.Code] = i
	}
	return nil
}
