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


package bundle

import (
	"fmt"
	"time"

	"github.com/poiesic/tmbridge/core"
	"github.com/poiesic/tmbridge/index"
	"github.com/poiesic/tmbridge/storage"
)

// Bundle is the read-only index set for one terminology. It is safe for
// concurrent use by any number of readers.
type Bundle struct {
	info    core.BundleInfo
	entries []*core.Entry
	byCode  map[string]int
	exact   map[string][]int
	lexical *index.Lexical
	fuzzy   *index.Fuzzy
	vectors *index.Vectors
}

// New indexes entries for t. vectors may be nil for a lexical-only bundle;
// otherwise it must hold one vector per entry, in entry order.
func New(t core.Terminology, entries []*core.Entry, vectors [][]float32) (*Bundle, error) {
	if err := core.ValidateCatalog(entries); err != nil {
		return nil, fmt.Errorf("%s: %w", t, err)
	}
	if len(vectors) > 0 && len(vectors) != len(entries) {
		return nil, fmt.Errorf("%w: %s has %d entries, got %d vectors",
			storage.ErrVectorCountMismatch, t, len(entries), len(vectors))
	}

	docs := make([][]string, len(entries))
	terms := make([]string, len(entries))
	codes := make([]string, len(entries))
	byCode := make(map[string]int, len(entries))
	exact := make(map[string][]int, len(entries))
	for i, e := range entries {
		docs[i] = index.Normalize(e.Document())
		terms[i] = e.Term
		codes[i] = e.Code
		byCode[e.Code] = i
		if folded := index.Fold(e.Term); folded != "" {
			exact[folded] = append(exact[folded], i)
		}
	}

	b := &Bundle{
		info: core.BundleInfo{
			Terminology: t,
			Digest:      core.CatalogDigest(entries),
			Entries:     len(entries),
			BuiltAt:     time.Now().UTC(),
		},
		entries: entries,
		byCode:  byCode,
		exact:   exact,
		lexical: index.NewLexical(docs),
		fuzzy:   index.NewFuzzy(terms, codes),
	}

	if len(vectors) > 0 {
		vecs, err := index.NewVectors(vectors)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
		b.vectors = vecs
		b.info.Dimension = vecs.Dimension()
	}

	return b, nil
}

// Terminology returns the catalog this bundle indexes.
func (b *Bundle) Terminology() core.Terminology {
	return b.info.Terminology
}

// Info returns a copy of the bundle metadata.
func (b *Bundle) Info() core.BundleInfo {
	return b.info
}

// Len returns the number of catalog entries.
func (b *Bundle) Len() int {
	return len(b.entries)
}

// Entry returns the entry at ordinal.
func (b *Bundle) Entry(ordinal int) *core.Entry {
	return b.entries[ordinal]
}

// Entries returns the catalog in insertion order. The slice must not be modified.
func (b *Bundle) Entries() []*core.Entry {
	return b.entries
}

// Lookup finds an entry by code.
func (b *Bundle) Lookup(code string) (*core.Entry, bool) {
	i, ok := b.byCode[code]
	if !ok {
		return nil, false
	}
	return b.entries[i], true
}

// ExactTerm returns the ordinals of entries whose folded term equals the
// folded query, in catalog order.
func (b *Bundle) ExactTerm(query string) []int {
	folded := index.Fold(query)
	if folded == "" {
		return nil
	}
	return b.exact[folded]
}

func (b *Bundle) Lexical() *index.Lexical {
	return b.lexical
}

func (b *Bundle) Fuzzy() *index.Fuzzy {
	return b.fuzzy
}

// Vectors returns the vector index, or nil for a lexical-only bundle.
func (b *Bundle) Vectors() *index.Vectors {
	return b.vectors
}

// HasVectors reports whether semantic search is possible.
func (b *Bundle) HasVectors() bool {
	return b.vectors != nil && b.vectors.Len() > 0
}
