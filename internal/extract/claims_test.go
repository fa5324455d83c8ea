package extract

import (
	"testing"

	"github.com/ppiankov/anamnesis/internal/model"
)

const sampleOutput = `SUMMARY:
- Coagulopathy present with elevated INR [N000006, L000059]
- Septic shock improving on norepinephrine taper [S000001]

DIFFERENTIAL:
- DIC secondary to sepsis [L000059]
- Not documented in available records.

CLARIFYING QUESTIONS:
- Is the patient on therapeutic anticoagulation?

ACTION ITEMS:
- Repeat coagulation panel in the morning [L000059]
`

func TestParseSections(t *testing.T) {
	claims := NewClaimParser().Parse(sampleOutput)

	if len(claims) != 6 {
		t.Fatalf("expected 6 claims, got %d", len(claims))
	}

	first := claims[0]
	if first.Section != model.GroupSummary {
		t.Errorf("expected summary section, got %s", first.Section)
	}
	if first.Text != "Coagulopathy present with elevated INR" {
		t.Errorf("unexpected claim text: %q", first.Text)
	}
	if len(first.EvidenceIDs) != 2 || first.EvidenceIDs[0] != "N000006" || first.EvidenceIDs[1] != "L000059" {
		t.Errorf("unexpected citations: %v", first.EvidenceIDs)
	}

	counts := make(map[model.ReportGroup]int)
	for _, c := range claims {
		counts[c.Section]++
	}
	if counts[model.GroupSummary] != 2 || counts[model.GroupDifferential] != 2 ||
		counts[model.GroupClarifying] != 1 || counts[model.GroupActionItems] != 1 {
		t.Errorf("unexpected section distribution: %v", counts)
	}
}

func TestParseUncitedClaimKept(t *testing.T) {
	claims := NewClaimParser().Parse(sampleOutput)

	var question *model.Claim
	for i := range claims {
		if claims[i].Section == model.GroupClarifying {
			question = &claims[i]
		}
	}
	if question == nil {
		t.Fatal("clarifying question missing")
	}
	// Uncited claims reach the verifier; rejection is its call, not ours.
	if len(question.EvidenceIDs) != 0 {
		t.Errorf("expected no citations, got %v", question.EvidenceIDs)
	}
}

func TestParseMarkdownDecoratedHeaders(t *testing.T) {
	text := "## Summary:\n- Fever resolved [N000002]\n\n**ACTION ITEMS**\n1. Wean sedation [N000002]\n"
	claims := NewClaimParser().Parse(text)

	if len(claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(claims))
	}
	if claims[0].Section != model.GroupSummary || claims[1].Section != model.GroupActionItems {
		t.Errorf("unexpected sections: %s, %s", claims[0].Section, claims[1].Section)
	}
}

func TestParseHeaderlessOutputDefaultsToSummary(t *testing.T) {
	claims := NewClaimParser().Parse("- Lactate trending down [S000001]\n- HR stabilizing [M000014]\n")

	if len(claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(claims))
	}
	for _, c := range claims {
		if c.Section != model.GroupSummary {
			t.Errorf("expected summary fallback, got %s", c.Section)
		}
	}
}

func TestParseDedupesRepeatedClaims(t *testing.T) {
	text := "SUMMARY:\n- Fever resolved [N000002]\n- Fever resolved [N000002]\n"
	claims := NewClaimParser().Parse(text)

	if len(claims) != 1 {
		t.Fatalf("expected 1 claim after dedupe, got %d", len(claims))
	}
}

func TestParseIgnoresProse(t *testing.T) {
	text := "Here is my analysis of the case.\n\nSUMMARY:\nThe patient is doing better.\n- Improving on current therapy [S000001]\n"
	claims := NewClaimParser().Parse(text)

	if len(claims) != 1 {
		t.Fatalf("expected 1 claim, got %d", len(claims))
	}
	if claims[0].Text != "Improving on current therapy" {
		t.Errorf("unexpected text: %q", claims[0].Text)
	}
}
