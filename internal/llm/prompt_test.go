package llm

import (
	"strings"
	"testing"

	"github.com/ppiankov/anamnesis/internal/model"
)

func promptGlobal() model.GlobalRunResult {
	return model.GlobalRunResult{
		TemplateVersion: "soap-v1",
		Sections: []model.GlobalSectionResult{
			{Section: model.SectionObjective, Hits: []model.ScoredEvidence{
				{EvidenceID: "L000059", Text: "INR 3.1, platelets 88"},
			}},
			{Section: model.SectionAssessment, Hits: []model.ScoredEvidence{
				{EvidenceID: "S000001", Text: "septic shock improving"},
			}},
		},
	}
}

func TestBuildPromptListsEvidenceWithIDs(t *testing.T) {
	prompt := BuildPrompt(promptGlobal(), nil, "")

	for _, want := range []string{"[L000059] INR 3.1", "[S000001] septic shock", "SUMMARY:", "DIFFERENTIAL:"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "QUESTION:") {
		t.Error("question block should be absent without a question")
	}
}

func TestBuildPromptIncludesQuestionAndLocalEvidence(t *testing.T) {
	local := &model.LocalRunResult{
		Question: "What is the coagulation status?",
		SubQueries: []model.RetrievalResult{
			{Query: "coagulation", Hits: []model.ScoredEvidence{
				{EvidenceID: "N000006", Text: "heparin held"},
			}},
		},
	}
	prompt := BuildPrompt(promptGlobal(), local, local.Question)

	if !strings.Contains(prompt, "QUESTION: What is the coagulation status?") {
		t.Error("question missing from prompt")
	}
	if !strings.Contains(prompt, "[N000006] heparin held") {
		t.Error("local evidence missing from prompt")
	}
}

func TestBuildPromptDeduplicatesEvidence(t *testing.T) {
	local := &model.LocalRunResult{
		SubQueries: []model.RetrievalResult{
			{Hits: []model.ScoredEvidence{{EvidenceID: "L000059", Text: "INR 3.1, platelets 88"}}},
		},
	}
	prompt := BuildPrompt(promptGlobal(), local, "q")

	if got := strings.Count(prompt, "[L000059]"); got != 1 {
		t.Errorf("expected evidence line exactly once, got %d occurrences", got)
	}
}
