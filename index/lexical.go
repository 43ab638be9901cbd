package index

import "math"

// BM25 parameters.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

type posting struct {
	doc int
	tf  int
}

// Lexical is an Okapi BM25 index over pre-tokenized documents. It is
// immutable after construction and safe for concurrent readers.
type Lexical struct {
	postings map[string][]posting
	docLen   []float64
	avgLen   float64
	k1       float64
	b        float64
}

// NewLexical indexes docs; the position of a document is its ordinal.
func NewLexical(docs [][]string) *Lexical {
	l := &Lexical{
		postings: make(map[string][]posting),
		docLen:   make([]float64, len(docs)),
		k1:       DefaultK1,
		b:        DefaultB,
	}

	var total float64
	for i, tokens := range docs {
		l.docLen[i] = float64(len(tokens))
		total += l.docLen[i]

		counts := make(map[string]int, len(tokens))
		order := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			if counts[tok] == 0 {
				order = append(order, tok)
			}
			counts[tok]++
		}
		for _, tok := range order {
			l.postings[tok] = append(l.postings[tok], posting{doc: i, tf: counts[tok]})
		}
	}

	if len(docs) > 0 {
		l.avgLen = total / float64(len(docs))
	}
	if l.avgLen == 0 {
		l.avgLen = 1
	}

	return l
}

// Len returns the number of indexed documents.
func (l *Lexical) Len() int {
	return len(l.docLen)
}

func (l *Lexical) idf(df int) float64 {
	n := float64(len(l.docLen))
	return math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
}

// Search scores every document containing at least one query token and
// returns the best k hits. Scores are divided by the summed idf of the
// distinct query tokens, so a document matching every query token at
// average length scores 1 and unknown query tokens pull the score down.
func (l *Lexical) Search(query []string, k int) []Hit {
	if len(query) == 0 || len(l.docLen) == 0 {
		return nil
	}

	scores := make([]float64, len(l.docLen))
	seen := make(map[string]bool, len(query))
	var bound float64

	for _, tok := range query {
		if seen[tok] {
			continue
		}
		seen[tok] = true

		ps := l.postings[tok]
		idf := l.idf(len(ps))
		bound += idf

		for _, p := range ps {
			tf := float64(p.tf)
			norm := 1 - l.b + l.b*l.docLen[p.doc]/l.avgLen
			scores[p.doc] += idf * tf * (l.k1 + 1) / (tf + l.k1*norm)
		}
	}

	if bound == 0 {
		return nil
	}

	hits := make([]Hit, 0)
	for doc, s := range scores {
		if s > 0 {
			hits = append(hits, Hit{Ordinal: doc, Score: clamp01(s / bound)})
		}
	}

	return TopK(hits, k)
}
