// Package index holds the derived retrieval indices: a BM25 inverted index
// over evidence text and an exact cosine index over evidence embeddings.
// Indices are disposable caches rebuilt deterministically from the evidence
// store alone; built indices are read-only and safe for concurrent readers.
package index

import (
	"math"
	"sort"

	"github.com/ppiankov/anamnesis/internal/model"
)

// BM25 parameters. k1 controls term-frequency saturation, b the document
// length normalization.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// posting records a single document's occurrence data for a term.
type posting struct {
	doc  int // Index into docIDs
	freq int
}

// LexicalHit is one ranked lexical match.
type LexicalHit struct {
	EvidenceID string
	Score      float64
}

// LexicalIndex is a BM25-style inverted index over evidence text.
type LexicalIndex struct {
	docIDs   []string // Evidence ids, ascending; doc numbers index into this
	docTypes []model.EvidenceType
	docLens  []int
	avgLen   float64
	postings map[string][]posting
}

// BuildLexical constructs the inverted index from evidence units. Units are
// indexed in evidence id order so identical corpora yield identical indices.
func BuildLexical(units []model.EvidenceUnit) *LexicalIndex {
	sorted := make([]model.EvidenceUnit, len(units))
	copy(sorted, units)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EvidenceID < sorted[j].EvidenceID
	})

	idx := &LexicalIndex{
		docIDs:   make([]string, len(sorted)),
		docTypes: make([]model.EvidenceType, len(sorted)),
		docLens:  make([]int, len(sorted)),
		postings: make(map[string][]posting),
	}

	totalLen := 0
	for i, u := range sorted {
		idx.docIDs[i] = u.EvidenceID
		idx.docTypes[i] = u.EvidenceType

		terms := tokenize(u.RawText)
		idx.docLens[i] = len(terms)
		totalLen += len(terms)

		freqs := make(map[string]int, len(terms))
		for _, t := range terms {
			freqs[t]++
		}
		for t, f := range freqs {
			idx.postings[t] = append(idx.postings[t], posting{doc: i, freq: f})
		}
	}

	if len(sorted) > 0 {
		idx.avgLen = float64(totalLen) / float64(len(sorted))
	}
	return idx
}

// Len returns the number of indexed documents.
func (x *LexicalIndex) Len() int {
	return len(x.docIDs)
}

// Query ranks indexed evidence against the query text. Rare, locally frequent
// terms score highest; term frequency saturates and scores normalize for
// document length so short and long snippets are comparable. An empty index
// returns an empty sequence, not an error. typeFilter restricts hits to the
// given evidence types when non-empty.
func (x *LexicalIndex) Query(text string, topK int, typeFilter []model.EvidenceType) []LexicalHit {
	if x == nil || len(x.docIDs) == 0 || topK <= 0 {
		return nil
	}

	allowed := typeSet(typeFilter)
	n := float64(len(x.docIDs))
	scores := make(map[int]float64)

	for _, term := range tokenize(text) {
		plist, ok := x.postings[term]
		if !ok {
			continue
		}
		df := float64(len(plist))
		idf := math.Log((n-df+0.5)/(df+0.5) + 1)
		for _, p := range plist {
			tf := float64(p.freq)
			norm := 1 - bm25B + bm25B*float64(x.docLens[p.doc])/x.avgLen
			scores[p.doc] += idf * tf * (bm25K1 + 1) / (tf + bm25K1*norm)
		}
	}

	hits := make([]LexicalHit, 0, len(scores))
	for doc, score := range scores {
		if score <= 0 {
			continue
		}
		if allowed != nil && !allowed[x.docTypes[doc]] {
			continue
		}
		hits = append(hits, LexicalHit{EvidenceID: x.docIDs[doc], Score: score})
	}

	sortHitsLexical(hits)
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// sortHitsLexical orders hits by score descending, evidence id ascending for
// reproducibility.
func sortHitsLexical(hits []LexicalHit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].EvidenceID < hits[j].EvidenceID
	})
}

func typeSet(types []model.EvidenceType) map[model.EvidenceType]bool {
	if len(types) == 0 {
		return nil
	}
	set := make(map[model.EvidenceType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}
