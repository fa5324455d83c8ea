package verify

import (
	"strings"
	"testing"

	"github.com/ppiankov/anamnesis/internal/model"
)

func testGlobalTrace() model.GlobalRunResult {
	return model.GlobalRunResult{
		TemplateVersion: "soap-v1",
		Sections: []model.GlobalSectionResult{
			{
				Section: model.SectionSubjective,
				Hits: []model.ScoredEvidence{
					{EvidenceID: "V000002", Text: "Patient reports abdominal pain worse after meals."},
				},
			},
			{
				Section: model.SectionObjective,
				Hits: []model.ScoredEvidence{
					{EvidenceID: "L000059", Text: "Coagulation panel: INR 3.1, platelets 88."},
					{EvidenceID: "M000014", Text: "HR 112, BP 88/54, SpO2 91."},
				},
			},
			{
				Section: model.SectionAssessment,
				Hits: []model.ScoredEvidence{
					{EvidenceID: "S000001", Text: "Septic shock improving on norepinephrine taper."},
				},
			},
			{
				Section: model.SectionPlan,
				Hits: []model.ScoredEvidence{
					{EvidenceID: "N000006", Text: "Heparin held pending hematology input."},
				},
			},
		},
	}
}

func TestFallbackBuild(t *testing.T) {
	report := NewFallback().Build(testGlobalTrace())

	if !report.Flags.FallbackUsed {
		t.Error("fallback flag not set")
	}
	if len(report.Limitations) == 0 {
		t.Error("fallback report must state its limitation")
	}

	if len(report.Summary) != 3 {
		t.Fatalf("expected 3 summary items, got %d", len(report.Summary))
	}
	// Head-to-toe order: Cardiovascular before Hematology, unmatched last.
	if !strings.HasPrefix(report.Summary[0].Text, "Cardiovascular:") {
		t.Errorf("expected cardiovascular line first, got %q", report.Summary[0].Text)
	}
	if !strings.HasPrefix(report.Summary[1].Text, "Hematology:") {
		t.Errorf("expected hematology line second, got %q", report.Summary[1].Text)
	}

	for _, item := range report.Summary {
		if len(item.EvidenceIDs) != 1 {
			t.Errorf("summary item without citation: %+v", item)
		}
	}

	if len(report.Differential) != 1 || report.Differential[0].EvidenceIDs[0] != "S000001" {
		t.Errorf("unexpected differential: %+v", report.Differential)
	}
	if len(report.ActionItems) != 1 || report.ActionItems[0].EvidenceIDs[0] != "N000006" {
		t.Errorf("unexpected action items: %+v", report.ActionItems)
	}
	if len(report.ClarifyingQuestions) != len(clarifyingTemplates) {
		t.Errorf("expected %d template questions, got %d", len(clarifyingTemplates), len(report.ClarifyingQuestions))
	}
}

func TestFallbackDeterministic(t *testing.T) {
	first := NewFallback().Build(testGlobalTrace())
	second := NewFallback().Build(testGlobalTrace())

	if len(first.Summary) != len(second.Summary) {
		t.Fatal("fallback output differs between runs")
	}
	for i := range first.Summary {
		if first.Summary[i].Text != second.Summary[i].Text {
			t.Errorf("summary item %d differs: %q vs %q", i, first.Summary[i].Text, second.Summary[i].Text)
		}
	}
}

func TestFallbackEmptyTrace(t *testing.T) {
	report := NewFallback().Build(model.GlobalRunResult{TemplateVersion: "soap-v1"})

	if len(report.Summary) != 1 || report.Summary[0].Text != Placeholder {
		t.Errorf("empty trace should yield placeholder summary, got %+v", report.Summary)
	}
	if len(report.ClarifyingQuestions) == 0 {
		t.Error("template questions should survive an empty trace")
	}
}
