package index

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/xrash/smetrics"
)

// MinFuzzyQueryLen is the shortest folded query, in runes, that fuzzy
// matching will consider.
const MinFuzzyQueryLen = 3

// minWordLen is the shortest term word used as a fuzzy key.
const minWordLen = 3

// Fuzzy matches misspelled or partially typed queries against entry terms,
// codes and individual term words.
type Fuzzy struct {
	keys [][]string
}

// NewFuzzy builds keys for each entry. terms and codes are indexed by ordinal.
func NewFuzzy(terms, codes []string) *Fuzzy {
	f := &Fuzzy{keys: make([][]string, len(terms))}
	for i, term := range terms {
		words := Normalize(term)
		keys := make([]string, 0, len(words)+2)
		if full := strings.Join(words, " "); full != "" {
			keys = append(keys, full)
		}
		if i < len(codes) {
			if code := Fold(codes[i]); code != "" {
				keys = append(keys, code)
			}
		}
		if len(words) > 1 {
			for _, w := range words {
				if utf8.RuneCountInString(w) >= minWordLen {
					keys = append(keys, w)
				}
			}
		}
		f.keys[i] = keys
	}
	return f
}

// Len returns the number of indexed entries.
func (f *Fuzzy) Len() int {
	return len(f.keys)
}

// Match scores entries whose keys are within maxEdits of the folded query,
// or contain it. Lengths and edits are counted in runes. Edit matches score
// 1 - d/len and containment matches score len(query)/len(key); the better
// of the two is kept per entry.
func (f *Fuzzy) Match(query string, maxEdits, k int) []Hit {
	q := Fold(query)
	if utf8.RuneCountInString(q) < MinFuzzyQueryLen {
		return nil
	}

	hits := make([]Hit, 0)
	for ordinal, keys := range f.keys {
		best := 0.0
		for _, key := range keys {
			if s := scoreKey(q, key, maxEdits); s > best {
				best = s
			}
		}
		if best > 0 {
			hits = append(hits, Hit{Ordinal: ordinal, Score: best})
		}
	}

	return TopK(hits, k)
}

func scoreKey(q, key string, maxEdits int) float64 {
	qLen, keyLen := utf8.RuneCountInString(q), utf8.RuneCountInString(key)
	longest := max(qLen, keyLen)
	if longest == 0 {
		return 0
	}

	best := 0.0
	if maxEdits >= 0 && abs(qLen-keyLen) <= maxEdits {
		if d := runeDistance(q, key); d <= maxEdits {
			best = 1 - float64(d)/float64(longest)
		}
	}

	if strings.Contains(key, q) {
		if s := float64(qLen) / float64(keyLen); s > best {
			best = s
		}
	}

	return clamp01(best)
}

// Distance returns the edit distance, in runes, between the folded forms of
// a and b.
func Distance(a, b string) int {
	return runeDistance(Fold(a), Fold(b))
}

// runeDistance counts edits per rune rather than per UTF-8 byte, so a
// missing Tamil or Devanagari vowel sign costs one edit. Each distinct rune
// is recoded as a single byte before handing the pair to smetrics.
func runeDistance(a, b string) int {
	alphabet := make(map[rune]byte)
	recode := func(s string) (string, bool) {
		out := make([]byte, 0, len(s))
		for _, r := range s {
			c, ok := alphabet[r]
			if !ok {
				if len(alphabet) > math.MaxUint8 {
					return "", false
				}
				c = byte(len(alphabet))
				alphabet[r] = c
			}
			out = append(out, c)
		}
		return string(out), true
	}

	ra, okA := recode(a)
	rb, okB := recode(b)
	if okA && okB {
		return smetrics.WagnerFischer(ra, rb, 1, 1, 1)
	}
	return wagnerFischerRunes([]rune(a), []rune(b))
}

// wagnerFischerRunes handles pairs with more distinct runes than fit in a
// byte.
func wagnerFischerRunes(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
