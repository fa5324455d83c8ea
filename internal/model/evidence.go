package model

import "fmt"

// EvidenceUnit is a single provenance-tagged fact extracted from a source
// record. Units are immutable: once ingested they are never mutated, only
// retired by a full store rebuild.
type EvidenceUnit struct {
	EvidenceID   string       `json:"evidence_id"`      // Deterministic, stable across rebuilds
	EvidenceType EvidenceType `json:"evidence_type"`    // note, lab, conversation, summary, monitor
	RowID        int          `json:"row_id,omitempty"` // Source-row traceability (0 = unknown)
	Field        string       `json:"field,omitempty"`  // Sub-field within the source record
	SourceFile   string       `json:"source_file"`      // Originating file
	RawText      string       `json:"raw_text"`         // Immutable source text
	PatientScope PatientScope `json:"patient_scope"`    // patient vs reference/background
}

// EvidenceType classifies the source record kind
type EvidenceType string

const (
	EvidenceTypeNote         EvidenceType = "note"         // Clinical narrative notes
	EvidenceTypeLab          EvidenceType = "lab"          // Laboratory results
	EvidenceTypeConversation EvidenceType = "conversation" // Patient/clinician dialogue turns
	EvidenceTypeSummary      EvidenceType = "summary"      // Structured summary facts
	EvidenceTypeMonitor      EvidenceType = "monitor"      // Bedside monitor readings
	EvidenceTypeReference    EvidenceType = "reference"    // Background/domain knowledge
)

// PatientScope separates patient-specific facts from reference/background
// material. The two are never mixed in downstream reasoning.
type PatientScope string

const (
	ScopePatient   PatientScope = "patient"
	ScopeReference PatientScope = "reference"
)

// evidencePrefixes maps each evidence type to its id prefix letter.
// The prefix is load-bearing: section rules and scope checks key off it.
var evidencePrefixes = map[EvidenceType]string{
	EvidenceTypeNote:         "N",
	EvidenceTypeLab:          "L",
	EvidenceTypeConversation: "V",
	EvidenceTypeSummary:      "S",
	EvidenceTypeMonitor:      "M",
	EvidenceTypeReference:    "D",
}

// ValidEvidenceType reports whether t is a known evidence type.
func ValidEvidenceType(t EvidenceType) bool {
	_, ok := evidencePrefixes[t]
	return ok
}

// MakeEvidenceID derives the deterministic id for an evidence unit from its
// type and source locator ordinal. Re-ingesting the same source yields the
// same ids, so ingestion is idempotent.
func MakeEvidenceID(t EvidenceType, ordinal int) string {
	prefix, ok := evidencePrefixes[t]
	if !ok {
		prefix = "X"
	}
	return fmt.Sprintf("%s%06d", prefix, ordinal)
}

// PrefixOf returns the type prefix letter of an evidence id, or "" for a
// malformed id.
func PrefixOf(evidenceID string) string {
	if evidenceID == "" {
		return ""
	}
	return evidenceID[:1]
}
