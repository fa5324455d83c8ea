package retrieve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/anamnesis/internal/index"
	"github.com/ppiankov/anamnesis/internal/llm"
	"github.com/ppiankov/anamnesis/internal/model"
	"github.com/ppiankov/anamnesis/internal/store"
)

func testUnits() []model.EvidenceUnit {
	return []model.EvidenceUnit{
		{
			EvidenceID:   "N000006",
			EvidenceType: model.EvidenceTypeNote,
			RawText:      "Progress note day 3: coagulation panel reviewed with the team, INR remains elevated, bleeding precautions continued and heparin held pending hematology input, family updated at bedside.",
			PatientScope: model.ScopePatient,
		},
		{
			EvidenceID:   "L000059",
			EvidenceType: model.EvidenceTypeLab,
			RawText:      "Coagulation panel: INR 3.1, PT 42, aPTT 58, platelets 88.",
			PatientScope: model.ScopePatient,
		},
		{
			EvidenceID:   "V000002",
			EvidenceType: model.EvidenceTypeConversation,
			RawText:      "Patient reports abdominal pain that started two days ago and is worse after meals.",
			PatientScope: model.ScopePatient,
		},
		{
			EvidenceID:   "S000001",
			EvidenceType: model.EvidenceTypeSummary,
			RawText:      "Day 3 summary: septic shock improving, norepinephrine taper in progress, lactate trending down.",
			PatientScope: model.ScopePatient,
		},
		{
			EvidenceID:   "M000014",
			EvidenceType: model.EvidenceTypeMonitor,
			RawText:      "Monitor reading: HR 112 bpm, BP 88/54 mmHg, SpO2 91, RR 24.",
			PatientScope: model.ScopePatient,
		},
		{
			EvidenceID:   "D000001",
			EvidenceType: model.EvidenceTypeReference,
			RawText:      "Reference: the coagulation cascade has intrinsic and extrinsic pathways; INR reflects the extrinsic pathway.",
			PatientScope: model.ScopeReference,
		},
	}
}

// testSnapshot indexes the full corpus, reference material included, to
// exercise the scorer's scope handling directly.
func testSnapshot(t *testing.T) *index.Snapshot {
	t.Helper()

	st, err := store.New(testUnits())
	require.NoError(t, err)

	units := st.All()
	embedder := llm.NewHashEmbedder(64)
	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.RawText
	}
	vecs, err := embedder.EmbedTexts(context.Background(), texts)
	require.NoError(t, err)

	embeddings := make(map[string][]float32, len(units))
	for i, u := range units {
		embeddings[u.EvidenceID] = vecs[i]
	}

	return &index.Snapshot{
		Store:   st,
		Lexical: index.BuildLexical(units),
		Vector:  index.BuildVector(units, embeddings),
	}
}

func testConfig() (*model.Config, model.RetrievalConfig, model.SectionConfig) {
	cfg := model.DefaultConfig()
	return cfg, cfg.Retrieval, cfg.Sections
}

func TestDeriveSubQueries(t *testing.T) {
	tests := []struct {
		name     string
		question string
		sections []model.SoapSection
	}{
		{
			name:     "objective terms",
			question: "What is the coagulation status?",
			sections: []model.SoapSection{model.SectionObjective},
		},
		{
			name:     "subjective and plan",
			question: "The patient reports pain, what is the treatment plan?",
			sections: []model.SoapSection{model.SectionSubjective, model.SectionPlan},
		},
		{
			name:     "no section terms falls back to generic",
			question: "Anything else to know?",
			sections: []model.SoapSection{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			derived := deriveSubQueries(tt.question)
			require.Len(t, derived, len(tt.sections))
			for i, sec := range tt.sections {
				assert.Equal(t, sec, derived[i].Section)
				if sec == "" {
					assert.Equal(t, tt.question, derived[i].Query)
				} else {
					assert.Contains(t, derived[i].Query, tt.question)
				}
			}
		})
	}
}

func TestRankLexicalOnlyMatchesLexicalIndex(t *testing.T) {
	snap := testSnapshot(t)
	_, rcfg, scfg := testConfig()
	scorer := NewScorer(rcfg, scfg)

	query := "coagulation INR elevated"
	hits := scorer.Rank(snap, query, nil, "", nil, 5)
	direct := snap.Lexical.Query(query, 5, nil)

	require.Len(t, hits, len(direct))
	for i, d := range direct {
		assert.Equal(t, d.EvidenceID, hits[i].EvidenceID)
	}
}

func TestRankTieBreakAscendingID(t *testing.T) {
	st, err := store.New([]model.EvidenceUnit{
		{EvidenceID: "N000002", EvidenceType: model.EvidenceTypeNote, RawText: "identical wording here", PatientScope: model.ScopePatient},
		{EvidenceID: "N000001", EvidenceType: model.EvidenceTypeNote, RawText: "identical wording here", PatientScope: model.ScopePatient},
	})
	require.NoError(t, err)
	snap := &index.Snapshot{Store: st, Lexical: index.BuildLexical(st.All())}

	_, rcfg, scfg := testConfig()
	hits := NewScorer(rcfg, scfg).Rank(snap, "identical wording", nil, "", nil, 5)

	require.Len(t, hits, 2)
	assert.Equal(t, "N000001", hits[0].EvidenceID)
	assert.Equal(t, "N000002", hits[1].EvidenceID)
}

func TestRankExcludesReferenceFromPatientFactSections(t *testing.T) {
	snap := testSnapshot(t)
	_, rcfg, scfg := testConfig()
	scorer := NewScorer(rcfg, scfg)

	for _, section := range []model.SoapSection{model.SectionSubjective, model.SectionObjective} {
		hits := scorer.Rank(snap, "coagulation cascade pathways", nil, section, nil, 10)
		for _, h := range hits {
			assert.NotEqual(t, "D000001", h.EvidenceID, "reference evidence leaked into section %s", section)
		}
	}

	// Under Assessment reference material stays rankable but penalized.
	hits := scorer.Rank(snap, "coagulation cascade pathways", nil, model.SectionAssessment, nil, 10)
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.EvidenceID)
	}
	assert.Contains(t, ids, "D000001")
}

func TestRankObjectiveBoostsNumericLab(t *testing.T) {
	snap := testSnapshot(t)
	_, rcfg, scfg := testConfig()

	hits := NewScorer(rcfg, scfg).Rank(snap, "coagulation INR", nil, model.SectionObjective, nil, 5)
	require.NotEmpty(t, hits)
	assert.Equal(t, "L000059", hits[0].EvidenceID, "number-dense lab should lead the Objective ranking")
}

func TestGlobalRunDeterministic(t *testing.T) {
	snap := testSnapshot(t)
	_, rcfg, scfg := testConfig()
	retriever, err := NewGlobalRetriever(rcfg, scfg, llm.NewHashEmbedder(64), 4)
	require.NoError(t, err)

	first, err := retriever.Run(context.Background(), snap)
	require.NoError(t, err)
	second, err := retriever.Run(context.Background(), snap)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "soap-v1", first.TemplateVersion)

	require.Len(t, first.Sections, len(model.SoapSectionOrder))
	for i, sec := range first.Sections {
		assert.Equal(t, model.SoapSectionOrder[i], sec.Section)
		assert.LessOrEqual(t, len(sec.Hits), rcfg.TopKGlobal)

		seen := make(map[string]bool)
		for _, h := range sec.Hits {
			assert.False(t, seen[h.EvidenceID], "duplicate %s in section %s", h.EvidenceID, sec.Section)
			seen[h.EvidenceID] = true
		}
	}
}

func TestGlobalRunRespectsSectionTypes(t *testing.T) {
	snap := testSnapshot(t)
	_, rcfg, scfg := testConfig()
	retriever, err := NewGlobalRetriever(rcfg, scfg, nil, 1)
	require.NoError(t, err)

	result, err := retriever.Run(context.Background(), snap)
	require.NoError(t, err)

	for _, sec := range result.Sections {
		allowed := make(map[model.EvidenceType]bool)
		for _, ty := range sectionTypes[sec.Section] {
			allowed[ty] = true
		}
		for _, h := range sec.Hits {
			unit, err := snap.Store.Get(h.EvidenceID)
			require.NoError(t, err)
			assert.True(t, allowed[unit.EvidenceType],
				"type %s not a candidate for section %s", unit.EvidenceType, sec.Section)
		}
	}
}

func TestGlobalRetrieverTemplateVersion(t *testing.T) {
	_, rcfg, scfg := testConfig()

	rcfg.TemplateVersion = "soap-v1"
	retriever, err := NewGlobalRetriever(rcfg, scfg, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, "soap-v1", retriever.queries.Version)

	rcfg.TemplateVersion = "soap-v9"
	_, err = NewGlobalRetriever(rcfg, scfg, nil, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "soap-v9")
}

func TestGlobalRunNilSnapshot(t *testing.T) {
	_, rcfg, scfg := testConfig()
	retriever, err := NewGlobalRetriever(rcfg, scfg, nil, 1)
	require.NoError(t, err)

	result, err := retriever.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, result.Sections, len(model.SoapSectionOrder))
	for _, sec := range result.Sections {
		assert.NotEmpty(t, sec.Queries)
		assert.Empty(t, sec.Hits)
	}
}

func TestLocalRunCoagulationQuestion(t *testing.T) {
	snap := testSnapshot(t)
	_, rcfg, scfg := testConfig()
	rcfg.UseHybrid = false
	retriever := NewLocalRetriever(rcfg, scfg, nil, 2)

	result, err := retriever.Run(context.Background(), snap, "What is the coagulation status?")
	require.NoError(t, err)
	assert.False(t, result.UsedHybrid)

	ids := result.EvidenceIDs()
	assert.Contains(t, ids, "L000059")
	assert.Contains(t, ids, "N000006")
}

func TestLocalRunLexicalOnlyMatchesDirectQuery(t *testing.T) {
	snap := testSnapshot(t)
	_, rcfg, scfg := testConfig()
	rcfg.UseHybrid = false
	retriever := NewLocalRetriever(rcfg, scfg, nil, 1)

	question := "Anything about norepinephrine and lactate?"
	result, err := retriever.Run(context.Background(), snap, question)
	require.NoError(t, err)

	require.Len(t, result.SubQueries, 1)
	sub := result.SubQueries[0]
	assert.Equal(t, model.SoapSection(""), sub.Section)

	direct := snap.Lexical.Query(question, rcfg.TopKLocal, nil)
	require.Len(t, sub.Hits, len(direct))
	for i, d := range direct {
		assert.Equal(t, d.EvidenceID, sub.Hits[i].EvidenceID)
	}
}

func TestLocalRunHybridDeterministic(t *testing.T) {
	snap := testSnapshot(t)
	_, rcfg, scfg := testConfig()
	retriever := NewLocalRetriever(rcfg, scfg, llm.NewHashEmbedder(64), 4)

	first, err := retriever.Run(context.Background(), snap, "The patient reports pain, what is the treatment plan?")
	require.NoError(t, err)
	second, err := retriever.Run(context.Background(), snap, "The patient reports pain, what is the treatment plan?")
	require.NoError(t, err)

	assert.True(t, first.UsedHybrid)
	assert.Equal(t, first, second)
}
