package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/anamnesis/internal/model"
)

func lexicalUnits() []model.EvidenceUnit {
	return []model.EvidenceUnit{
		{EvidenceID: "N000006", EvidenceType: model.EvidenceTypeNote, RawText: "coagulation panel reviewed with hematology consult this morning, INR elevated, heparin held pending further review tomorrow"},
		{EvidenceID: "L000059", EvidenceType: model.EvidenceTypeLab, RawText: "coagulation panel INR 3.1 PT 42 aPTT 58"},
		{EvidenceID: "V000002", EvidenceType: model.EvidenceTypeConversation, RawText: "patient reports abdominal pain worse after meals"},
		{EvidenceID: "S000001", EvidenceType: model.EvidenceTypeSummary, RawText: "septic shock improving lactate trending down"},
	}
}

func TestLexicalQueryRanksMatches(t *testing.T) {
	idx := BuildLexical(lexicalUnits())
	require.Equal(t, 4, idx.Len())

	hits := idx.Query("coagulation INR", 10, nil)
	require.Len(t, hits, 2)
	// Both carry the terms once; the shorter document scores higher.
	assert.Equal(t, "L000059", hits[0].EvidenceID)
	assert.Equal(t, "N000006", hits[1].EvidenceID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestLexicalQueryTypeFilter(t *testing.T) {
	idx := BuildLexical(lexicalUnits())

	hits := idx.Query("coagulation INR", 10, []model.EvidenceType{model.EvidenceTypeLab})
	require.Len(t, hits, 1)
	assert.Equal(t, "L000059", hits[0].EvidenceID)
}

func TestLexicalQueryTopK(t *testing.T) {
	idx := BuildLexical(lexicalUnits())

	hits := idx.Query("coagulation INR panel", 1, nil)
	assert.Len(t, hits, 1)
}

func TestLexicalQueryNoMatch(t *testing.T) {
	idx := BuildLexical(lexicalUnits())
	assert.Empty(t, idx.Query("echocardiogram", 10, nil))
}

func TestLexicalEmptyIndex(t *testing.T) {
	idx := BuildLexical(nil)
	assert.Empty(t, idx.Query("anything", 10, nil))
	assert.Equal(t, 0, idx.Len())
}

func TestLexicalTieBreakByID(t *testing.T) {
	idx := BuildLexical([]model.EvidenceUnit{
		{EvidenceID: "N000002", EvidenceType: model.EvidenceTypeNote, RawText: "identical text body"},
		{EvidenceID: "N000001", EvidenceType: model.EvidenceTypeNote, RawText: "identical text body"},
	})

	hits := idx.Query("identical body", 10, nil)
	require.Len(t, hits, 2)
	assert.Equal(t, "N000001", hits[0].EvidenceID)
	assert.Equal(t, "N000002", hits[1].EvidenceID)
}

func TestLexicalDeterministicAcrossBuilds(t *testing.T) {
	units := lexicalUnits()
	// Reversed input order must not change rankings.
	reversed := make([]model.EvidenceUnit, len(units))
	for i, u := range units {
		reversed[len(units)-1-i] = u
	}

	a := BuildLexical(units).Query("coagulation INR", 10, nil)
	b := BuildLexical(reversed).Query("coagulation INR", 10, nil)
	assert.Equal(t, a, b)
}

func TestTokenizePreservesLabValues(t *testing.T) {
	tokens := tokenize("INR 3.1 and glucose 76.6 mg/dl, the panel.")
	assert.Contains(t, tokens, "3.1")
	assert.Contains(t, tokens, "76.6")
	assert.Contains(t, tokens, "mg/dl")
	assert.NotContains(t, tokens, "the")
	assert.NotContains(t, tokens, "and")
}
