package retrieve

import (
	"sort"
	"strings"
	"unicode"

	"github.com/ppiankov/anamnesis/internal/index"
	"github.com/ppiankov/anamnesis/internal/model"
)

// candidateFactor widens the per-index candidate pool beyond the final top-k
// so normalization and reranking operate on a real score distribution rather
// than an already-truncated one.
const candidateFactor = 4

// snippetLen caps the audit text carried on each hit.
const snippetLen = 200

const epsilon = 1e-9

// Scorer fuses lexical and vector rankings into a single hybrid ranking and
// applies section-aware reranking. It is stateless: every call works on the
// snapshot it is handed, so concurrent queries never interfere.
type Scorer struct {
	Alpha   float64 // Lexical weight; vector weight is 1-Alpha
	Section model.SectionConfig
}

// NewScorer builds a scorer from retrieval configuration.
func NewScorer(cfg model.RetrievalConfig, section model.SectionConfig) *Scorer {
	return &Scorer{Alpha: cfg.Alpha, Section: section}
}

// Rank runs one query against the snapshot and returns the top-k hybrid
// ranking. queryVec may be nil, which degrades the query to lexical-only:
// hybrid scores then equal normalized lexical scores, so the ordering is
// exactly the lexical index's ordering. section tags the query for reranking;
// an empty section disables all section handling. types, when non-empty,
// hard-restricts candidates to the given evidence types; section boosts are
// soft and apply either way.
func (s *Scorer) Rank(snap *index.Snapshot, query string, queryVec []float32, section model.SoapSection, types []model.EvidenceType, topK int) []model.ScoredEvidence {
	if snap == nil || topK <= 0 {
		return nil
	}

	pool := topK * candidateFactor

	lexHits := snap.Lexical.Query(query, pool, types)
	var vecHits []index.VectorHit
	if queryVec != nil {
		vecHits = s.filterVector(snap, snap.Vector.Query(queryVec, pool*2), types, pool)
	}

	lexNorm := normalizeLexical(lexHits)
	vecNorm := normalizeVector(vecHits)

	// Union of both candidate sets. A hit present in only one index keeps a
	// zero contribution from the other.
	hybrid := make(map[string]model.ScoredEvidence)
	for id, score := range lexNorm {
		hybrid[id] = model.ScoredEvidence{EvidenceID: id, LexicalScore: score, Section: section}
	}
	for id, score := range vecNorm {
		h, ok := hybrid[id]
		if !ok {
			h = model.ScoredEvidence{EvidenceID: id, Section: section}
		}
		h.VectorScore = score
		hybrid[id] = h
	}

	lexicalOnly := len(vecNorm) == 0

	out := make([]model.ScoredEvidence, 0, len(hybrid))
	for _, h := range hybrid {
		unit, err := snap.Store.Get(h.EvidenceID)
		if err != nil {
			continue
		}
		if unit.PatientScope == model.ScopeReference {
			if patientFactSections[section] {
				continue
			}
			// Outside patient-fact sections reference material stays
			// rankable but penalized.
		}

		if lexicalOnly {
			h.HybridScore = h.LexicalScore
		} else {
			h.HybridScore = s.Alpha*h.LexicalScore + (1-s.Alpha)*h.VectorScore
		}
		h.HybridScore *= s.sectionBoost(section, unit)
		if unit.PatientScope == model.ScopeReference && section != "" {
			h.HybridScore *= s.Section.ReferencePenalty
		}
		h.Text = snippet(unit.RawText)
		out = append(out, h)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].HybridScore != out[j].HybridScore {
			return out[i].HybridScore > out[j].HybridScore
		}
		return out[i].EvidenceID < out[j].EvidenceID
	})

	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

// filterVector applies the section type restriction to vector hits. The
// vector index has no type dimension, so the restriction happens here against
// the store.
func (s *Scorer) filterVector(snap *index.Snapshot, hits []index.VectorHit, types []model.EvidenceType, limit int) []index.VectorHit {
	if len(types) == 0 {
		if len(hits) > limit {
			hits = hits[:limit]
		}
		return hits
	}

	allowed := make(map[model.EvidenceType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}

	out := hits[:0]
	for _, h := range hits {
		unit, err := snap.Store.Get(h.EvidenceID)
		if err != nil || !allowed[unit.EvidenceType] {
			continue
		}
		out = append(out, h)
		if len(out) == limit {
			break
		}
	}
	return out
}

// sectionBoost computes the multiplicative rerank factor for one unit under
// one section. Factors stack: candidate-type prefix boost, keyword density,
// and numeric density for Objective.
func (s *Scorer) sectionBoost(section model.SoapSection, unit model.EvidenceUnit) float64 {
	if section == "" {
		return 1
	}

	boost := 1.0
	for _, t := range sectionTypes[section] {
		if unit.EvidenceType == t {
			boost *= s.Section.PrefixBoost
			break
		}
	}

	matches := keywordMatches(tokenSet(unit.RawText), sectionKeywords[section], s.Section.KeywordCap)
	boost *= 1 + s.Section.KeywordStep*float64(matches)

	if section == model.SectionObjective && numericTokens(unit.RawText) >= 3 {
		boost *= s.Section.NumericBoost
	}
	return boost
}

// normalizeLexical scales BM25 scores by the pool maximum. Scores are
// non-negative, so max-scaling lands in [0,1] while preserving ratios; the
// weakest candidate keeps a nonzero score the reranker can still lift.
func normalizeLexical(hits []index.LexicalHit) map[string]float64 {
	if len(hits) == 0 {
		return nil
	}
	hi := hits[0].Score
	out := make(map[string]float64, len(hits))
	for _, h := range hits {
		out[h.EvidenceID] = h.Score / (hi + epsilon)
	}
	return out
}

// normalizeVector min-max scales similarities into [0,1]. Cosine similarity
// can be negative, so max-scaling alone would not bound it.
func normalizeVector(hits []index.VectorHit) map[string]float64 {
	if len(hits) == 0 {
		return nil
	}
	lo, hi := hits[len(hits)-1].Similarity, hits[0].Similarity
	out := make(map[string]float64, len(hits))
	for _, h := range hits {
		out[h.EvidenceID] = (h.Similarity - lo) / (hi - lo + epsilon)
	}
	// A lone hit min-maxes to zero; keep it at full weight.
	if len(hits) == 1 {
		out[hits[0].EvidenceID] = 1
	}
	return out
}

// numericTokens counts whitespace-delimited tokens containing a digit.
// Lab panels and monitor readings are dense in these.
func numericTokens(text string) int {
	count := 0
	for _, tok := range strings.Fields(text) {
		for _, r := range tok {
			if unicode.IsDigit(r) {
				count++
				break
			}
		}
	}
	return count
}

// snippet truncates raw text for audit display without splitting a rune.
func snippet(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= snippetLen {
		return string(runes)
	}
	return string(runes[:snippetLen]) + "…"
}
