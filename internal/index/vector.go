package index

import (
	"context"
	"math"
	"sort"

	"github.com/ppiankov/anamnesis/internal/model"
)

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embeddings for multiple texts in a batch, in the
	// same order as the input.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorHit is one ranked nearest-neighbor match.
type VectorHit struct {
	EvidenceID string
	Similarity float64
}

// VectorIndex is an exact inner-product index over normalized evidence
// embeddings. Brute-force search is exact and fast at evidence-set sizes
// (hundreds to low thousands of units).
type VectorIndex struct {
	docIDs  []string
	vectors [][]float32
}

// BuildVector constructs the index from evidence units and pre-computed
// embeddings keyed by evidence id. Units without an embedding are skipped.
// Vectors are normalized at build time so similarity is plain dot product.
func BuildVector(units []model.EvidenceUnit, embeddings map[string][]float32) *VectorIndex {
	sorted := make([]model.EvidenceUnit, len(units))
	copy(sorted, units)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EvidenceID < sorted[j].EvidenceID
	})

	idx := &VectorIndex{}
	for _, u := range sorted {
		vec, ok := embeddings[u.EvidenceID]
		if !ok || len(vec) == 0 {
			continue
		}
		idx.docIDs = append(idx.docIDs, u.EvidenceID)
		idx.vectors = append(idx.vectors, Normalize(vec))
	}
	return idx
}

// Len returns the number of indexed vectors.
func (x *VectorIndex) Len() int {
	if x == nil {
		return 0
	}
	return len(x.docIDs)
}

// Query returns the topK nearest neighbors of the (normalized) query
// embedding. An empty index returns an empty sequence, not an error.
func (x *VectorIndex) Query(embedding []float32, topK int) []VectorHit {
	if x == nil || len(x.docIDs) == 0 || topK <= 0 || len(embedding) == 0 {
		return nil
	}

	query := Normalize(embedding)
	hits := make([]VectorHit, 0, len(x.docIDs))
	for i, vec := range x.vectors {
		sim := dotProduct(query, vec)
		hits = append(hits, VectorHit{EvidenceID: x.docIDs[i], Similarity: sim})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].EvidenceID < hits[j].EvidenceID
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// Normalize returns a unit-length copy of the vector. Zero vectors pass
// through unchanged.
func Normalize(vec []float32) []float32 {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return vec
	}
	norm := float32(1.0 / math.Sqrt(sumSquares))
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = v * norm
	}
	return out
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float64 {
	var sum float64
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
