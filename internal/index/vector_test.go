package index

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/anamnesis/internal/model"
)

func vectorUnits() []model.EvidenceUnit {
	return []model.EvidenceUnit{
		{EvidenceID: "N000001", EvidenceType: model.EvidenceTypeNote, RawText: "a"},
		{EvidenceID: "N000002", EvidenceType: model.EvidenceTypeNote, RawText: "b"},
		{EvidenceID: "N000003", EvidenceType: model.EvidenceTypeNote, RawText: "c"},
	}
}

func TestVectorQueryRanksBySimilarity(t *testing.T) {
	idx := BuildVector(vectorUnits(), map[string][]float32{
		"N000001": {1, 0, 0},
		"N000002": {0.9, 0.1, 0},
		"N000003": {0, 1, 0},
	})
	require.Equal(t, 3, idx.Len())

	hits := idx.Query([]float32{1, 0, 0}, 3)
	require.Len(t, hits, 3)
	assert.Equal(t, "N000001", hits[0].EvidenceID)
	assert.Equal(t, "N000002", hits[1].EvidenceID)
	assert.Equal(t, "N000003", hits[2].EvidenceID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
}

func TestVectorQueryTopK(t *testing.T) {
	idx := BuildVector(vectorUnits(), map[string][]float32{
		"N000001": {1, 0, 0},
		"N000002": {0, 1, 0},
		"N000003": {0, 0, 1},
	})
	assert.Len(t, idx.Query([]float32{1, 0, 0}, 2), 2)
}

func TestVectorSkipsUnitsWithoutEmbedding(t *testing.T) {
	idx := BuildVector(vectorUnits(), map[string][]float32{
		"N000002": {0, 1, 0},
	})
	assert.Equal(t, 1, idx.Len())
}

func TestVectorEmptyIndex(t *testing.T) {
	idx := BuildVector(nil, nil)
	assert.Empty(t, idx.Query([]float32{1, 0}, 5))

	var nilIdx *VectorIndex
	assert.Empty(t, nilIdx.Query([]float32{1, 0}, 5))
	assert.Equal(t, 0, nilIdx.Len())
}

func TestVectorTieBreakByID(t *testing.T) {
	idx := BuildVector([]model.EvidenceUnit{
		{EvidenceID: "N000002", RawText: "x"},
		{EvidenceID: "N000001", RawText: "x"},
	}, map[string][]float32{
		"N000001": {0, 1},
		"N000002": {0, 1},
	})

	hits := idx.Query([]float32{0, 1}, 2)
	require.Len(t, hits, 2)
	assert.Equal(t, "N000001", hits[0].EvidenceID)
}

func TestNormalize(t *testing.T) {
	out := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, float64(out[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(out[1]), 1e-6)

	var length float64
	for _, v := range out {
		length += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(length), 1e-6)

	// Zero vectors pass through.
	zero := Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, zero)
}
