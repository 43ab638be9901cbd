package core

import (
	"fmt"
	"strings"
)

// Terminology identifies a catalog.
type Terminology string

const (
	Siddha        Terminology = "siddha"
	Ayurveda      Terminology = "ayurveda"
	Unani         Terminology = "unani"
	AyurvedaSAT   Terminology = "ayurveda-sat"
	ICD11Standard Terminology = "icd11-standard"
	ICD11TM2      Terminology = "icd11-tm2"
)

// Terminologies lists every known catalog in canonical form.
var Terminologies = []Terminology{Siddha, Ayurveda, Unani, AyurvedaSAT, ICD11Standard, ICD11TM2}

// aliases maps squashed spellings onto canonical identifiers.
var aliases = map[string]Terminology{
	"siddha":        Siddha,
	"ayurveda":      Ayurveda,
	"unani":         Unani,
	"ayurvedasat":   AyurvedaSAT,
	"icd11standard": ICD11Standard,
	"icd11":         ICD11Standard,
	"icd11tm2":      ICD11TM2,
	"tm2":           ICD11TM2,
}

// ParseTerminology canonicalizes a terminology identifier. Case, hyphens,
// underscores and spaces are ignored, so "ayurveda_sat" and "Ayurveda-SAT"
// both resolve to AyurvedaSAT.
func ParseTerminology(name string) (Terminology, error) {
	squashed := strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', ' ', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))

	if t, ok := aliases[squashed]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTerminology, name)
}

// String returns the canonical identifier.
func (t Terminology) String() string {
	return string(t)
}

// IsTraditional reports whether t is one of the traditional medicine systems.
func (t Terminology) IsTraditional() bool {
	switch t {
	case Siddha, Ayurveda, Unani, AyurvedaSAT:
		return true
	}
	return false
}

// IsICD reports whether t is an ICD-11 catalog.
func (t Terminology) IsICD() bool {
	return t == ICD11Standard || t == ICD11TM2
}

// DisplayName returns a human-readable catalog name.
func (t Terminology) DisplayName() string {
	switch t {
	case Siddha:
		return "Siddha"
	case Ayurveda:
		return "Ayurveda"
	case Unani:
		return "Unani"
	case AyurvedaSAT:
		return "Ayurveda SAT"
	case ICD11Standard:
		return "ICD-11"
	case ICD11TM2:
		return "ICD-11 TM2"
	}
	return string(t)
}

// SearchContext is appended to queries sent to external web search so that
// results stay on the medical meaning of the term.
func (t Terminology) SearchContext() string {
	switch t {
	case AyurvedaSAT:
		return "Ayurveda medicine term definition"
	case ICD11Standard, ICD11TM2:
		return "ICD-11 diagnosis definition"
	case "":
		return "traditional medicine term definition"
	}
	return t.DisplayName() + " medicine term definition"
}

// Source identifies the retrieval tier that produced a candidate list.
type Source int

const (
	// SourceNone means no tier produced results.
	SourceNone Source = iota
	SourceLexical
	SourceSemantic
	SourceFuzzy
	// SourceExternal marks unverified web results. They never carry a code.
	SourceExternal
)

func (s Source) String() string {
	switch s {
	case SourceLexical:
		return "lexical"
	case SourceSemantic:
		return "semantic"
	case SourceFuzzy:
		return "fuzzy_match"
	case SourceExternal:
		return "external"
	}
	return "none"
}

// MarshalText renders the source label.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
