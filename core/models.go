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
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Entry is a single concept in a terminology catalog.
// Entries are immutable once a catalog has been loaded.
type Entry struct {
	Code       string
	Term       string // Primary term as published, possibly transliterated with diacritics
	English    string // Optional English label
	Definition string // Optional definition, see CombineDefinition
	ParentCode string // Optional hierarchy parent
}

// NewEntry builds an Entry, folding short and long definitions into one.
func NewEntry(code, term, english, short, long, parent string) *Entry {
	return &Entry{
		Code:       strings.TrimSpace(code),
		Term:       strings.TrimSpace(term),
		English:    strings.TrimSpace(english),
		Definition: CombineDefinition(short, long),
		ParentCode: strings.TrimSpace(parent),
	}
}

// CombineDefinition joins a short and a long definition as "short. long".
// When only one is present it is returned alone.
func CombineDefinition(short, long string) string {
	short = strings.TrimSpace(short)
	long = strings.TrimSpace(long)
	switch {
	case short != "" && long != "":
		return short + ". " + long
	case short != "":
		return short
	default:
		return long
	}
}

// Document returns the text indexed for retrieval: term, English label and
// definition joined with ". ", skipping empty parts.
func (e *Entry) Document() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Term, e.English, e.Definition} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ". ")
}

// CatalogDigest returns an order-sensitive BLAKE2b digest of a catalog.
// Stored vectors are only trusted when their digest matches the catalog.
func CatalogDigest(entries []*Entry) string {
	h, _ := blake2b.New(16, nil)
	for _, e := range entries {
		for _, field := range []string{e.Code, e.Term, e.English, e.Definition, e.ParentCode} {
			h.Write([]byte(field))
			h.Write([]byte{0})
		}
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Candidate is a ranked retrieval result.
type Candidate struct {
	Code       string // Empty for external results
	Term       string
	English    string
	Definition string
	ParentCode string
	Link       string // Only set for external results
	Score      float64
	Source     Source
}

// IsCatalogCode reports whether the candidate refers to a real catalog entry.
func (c *Candidate) IsCatalogCode() bool {
	return c.Source != SourceExternal && c.Source != SourceNone && c.Code != ""
}

// CandidateFromEntry builds a catalog candidate.
func CandidateFromEntry(e *Entry, score float64, source Source) Candidate {
	return Candidate{
		Code:       e.Code,
		Term:       e.Term,
		English:    e.English,
		Definition: e.Definition,
		ParentCode: e.ParentCode,
		Score:      score,
		Source:     source,
	}
}

// RankedCandidates is the outcome of one retrieval request.
type RankedCandidates struct {
	Terminology Terminology
	Query       string
	Source      Source // Tier that produced Candidates
	Advisory    string // Human-readable note, e.g. "Did you mean ...?"
	Candidates  []Candidate
}

// EmptyResult returns a result with no candidates and SourceNone.
func EmptyResult(t Terminology, query string) *RankedCandidates {
	return &RankedCandidates{
		Terminology: t,
		Query:       query,
		Source:      SourceNone,
		Candidates:  []Candidate{},
	}
}

// Top returns the first candidate, or nil when the list is empty.
func (r *RankedCandidates) Top() *Candidate {
	if r == nil || len(r.Candidates) == 0 {
		return nil
	}
	return &r.Candidates[0]
}

// CrossMapResult holds ICD-11 candidates for a single TM concept.
// Standard and TM2 are always present, possibly empty.
type CrossMapResult struct {
	System   Terminology
	Code     string
	Term     string
	Query    string
	Standard *RankedCandidates
	TM2      *RankedCandidates
}

// MappingResult is the output of the full free-text mapping pipeline.
type MappingResult struct {
	InputText       string
	System          Terminology
	TMCandidates    *RankedCandidates
	Selected        *Candidate
	SelectionReason string
	ICDStandard     *RankedCandidates
	ICDTM2          *RankedCandidates
}

// Selection records a practitioner choosing a code for a query.
type Selection struct {
	System     Terminology // TM system the query was made in
	Target     Terminology // Catalog the chosen code belongs to
	Code       string
	Query      string
	SelectedAt time.Time
}

// BundleInfo describes a persisted index bundle.
type BundleInfo struct {
	Terminology    Terminology
	Digest         string
	EmbeddingModel string
	Dimension      int
	Entries        int
	BuiltAt        time.Time
}
