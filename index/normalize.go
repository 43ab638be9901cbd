package index

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases text, folds diacritics on Latin letters and splits on
// every rune that is neither a letter, a digit nor a combining mark. It never
// fails; text with no word characters yields an empty slice.
//
// Catalog documents and queries must go through the same function.
func Normalize(text string) []string {
	folded := strings.ToLower(foldLatinMarks(text))
	return strings.FieldsFunc(folded, isSeparator)
}

// Fold returns the normalized tokens joined by single spaces.
func Fold(text string) string {
	return strings.Join(Normalize(text), " ")
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.M, r)
}

// foldLatinMarks drops nonspacing marks that follow a Latin base letter, so
// "pṛṣṭha" and "prstha" compare equal. Marks on other scripts carry vowel
// signs and are kept.
func foldLatinMarks(s string) string {
	decomposed := norm.NFD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))

	var base rune
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			if unicode.Is(unicode.Latin, base) {
				continue
			}
		} else {
			base = r
		}
		b.WriteRune(r)
	}

	return norm.NFC.String(b.String())
}
