package model

import "testing"

func TestMakeEvidenceID(t *testing.T) {
	tests := []struct {
		evType  EvidenceType
		ordinal int
		want    string
	}{
		{EvidenceTypeNote, 6, "N000006"},
		{EvidenceTypeLab, 59, "L000059"},
		{EvidenceTypeConversation, 2, "V000002"},
		{EvidenceTypeSummary, 1, "S000001"},
		{EvidenceTypeMonitor, 14, "M000014"},
		{EvidenceTypeReference, 123456, "D123456"},
	}

	for _, tt := range tests {
		if got := MakeEvidenceID(tt.evType, tt.ordinal); got != tt.want {
			t.Errorf("MakeEvidenceID(%s, %d) = %s, want %s", tt.evType, tt.ordinal, got, tt.want)
		}
	}
}

func TestValidEvidenceType(t *testing.T) {
	for _, valid := range []EvidenceType{
		EvidenceTypeNote, EvidenceTypeLab, EvidenceTypeConversation,
		EvidenceTypeSummary, EvidenceTypeMonitor, EvidenceTypeReference,
	} {
		if !ValidEvidenceType(valid) {
			t.Errorf("%s should be valid", valid)
		}
	}
	if ValidEvidenceType("imaging") {
		t.Error("imaging should be invalid")
	}
}

func TestSoapQuerySetStable(t *testing.T) {
	qs := DefaultSoapQuerySet()
	if qs.Version != "soap-v1" {
		t.Errorf("unexpected version %s", qs.Version)
	}
	for _, section := range SoapSectionOrder {
		if len(qs.Queries[section]) == 0 {
			t.Errorf("section %s has no template queries", section)
		}
	}
}

func TestSoapQuerySetForVersion(t *testing.T) {
	for _, version := range []string{"", "soap-v1"} {
		qs, err := SoapQuerySetForVersion(version)
		if err != nil {
			t.Fatalf("SoapQuerySetForVersion(%q): %v", version, err)
		}
		if qs.Version != "soap-v1" {
			t.Errorf("SoapQuerySetForVersion(%q) resolved to %q", version, qs.Version)
		}
	}

	if _, err := SoapQuerySetForVersion("soap-v9"); err == nil {
		t.Error("unknown version must be rejected, not silently defaulted")
	}
}

func TestRunResultEvidenceIDs(t *testing.T) {
	global := GlobalRunResult{Sections: []GlobalSectionResult{
		{Section: SectionSubjective, Hits: []ScoredEvidence{{EvidenceID: "V000001"}}},
		{Section: SectionObjective, Hits: []ScoredEvidence{{EvidenceID: "L000001"}, {EvidenceID: "M000001"}}},
	}}
	ids := global.EvidenceIDs()
	if len(ids) != 3 || ids[0] != "V000001" || ids[2] != "M000001" {
		t.Errorf("unexpected ids: %v", ids)
	}

	local := LocalRunResult{SubQueries: []RetrievalResult{
		{Hits: []ScoredEvidence{{EvidenceID: "N000001"}}},
	}}
	if got := local.EvidenceIDs(); len(got) != 1 || got[0] != "N000001" {
		t.Errorf("unexpected local ids: %v", got)
	}
}
