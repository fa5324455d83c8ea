package model

// Claim is an atomic generated statement with explicit evidence citations.
// Claims are the stable intermediate between the generation service's native
// output format and the verifier: (text, cited ids) pairs, nothing more.
type Claim struct {
	Text        string      `json:"text"`
	EvidenceIDs []string    `json:"evidence_ids"`
	Section     ReportGroup `json:"section,omitempty"` // Target report section
}

// ReportGroup names the report section a claim is destined for
type ReportGroup string

const (
	GroupSummary      ReportGroup = "summary"
	GroupDifferential ReportGroup = "differential"
	GroupClarifying   ReportGroup = "clarifying_questions"
	GroupActionItems  ReportGroup = "action_items"
)

// VerificationStatus is the terminal state of one claim after verification
type VerificationStatus string

const (
	StatusSupported   VerificationStatus = "supported"
	StatusUnsupported VerificationStatus = "unsupported"
	StatusRepaired    VerificationStatus = "repaired"
)

// ReasonCode explains a verification decision
type ReasonCode string

const (
	ReasonCited           ReasonCode = "cited_evidence_verified"  // All citations resolved and in scope
	ReasonNoCitations     ReasonCode = "no_citations"             // Claim cites nothing
	ReasonUnknownEvidence ReasonCode = "unknown_evidence_id"      // Cited id absent from the store entirely
	ReasonUnrankedID      ReasonCode = "id_not_surfaced"          // Cited id exists but was never retrieved this run
	ReasonReferenceScope  ReasonCode = "reference_scope_as_fact"  // Only reference-scoped evidence behind a patient fact
	ReasonRepairedClaim   ReasonCode = "repaired_to_cited_subset" // Accepted after dropping unsupported citations
)

// VerificationOutcome records the verdict for one claim. Produced once per
// pipeline run and immutable after creation.
type VerificationOutcome struct {
	Claim       Claim              `json:"claim"`
	Status      VerificationStatus `json:"status"`
	Reason      ReasonCode         `json:"reason"`
	Justifying  []string           `json:"justifying_evidence_ids,omitempty"` // Ids that backed acceptance
	MissingIDs  []string           `json:"missing_evidence_ids,omitempty"`    // Citations that failed resolution
	Replacement string             `json:"replacement,omitempty"`             // Placeholder text when excluded
}

// Accepted reports whether the claim survives into the final report.
func (o VerificationOutcome) Accepted() bool {
	return o.Status == StatusSupported || o.Status == StatusRepaired
}
