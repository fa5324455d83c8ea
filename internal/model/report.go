package model

import "time"

// Report is the structured payload returned to the presentation layer.
// The caller always receives a well-formed report; degraded confidence is
// communicated through the Flags block, never by surfacing an error.
type Report struct {
	CaseID      string    `json:"case_id,omitempty"`
	Question    string    `json:"question,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`

	// Audit traces: the exact queries issued and evidence surfaced
	GlobalTrace GlobalRunResult `json:"global_trace"`
	LocalTrace  *LocalRunResult `json:"local_trace,omitempty"`

	// Per-claim verification verdicts, one per extracted claim
	Outcomes []VerificationOutcome `json:"outcomes"`

	// Accepted claims grouped by report section
	Summary             []ReportItem `json:"summary"`
	Differential        []ReportItem `json:"differential"`
	ClarifyingQuestions []ReportItem `json:"clarifying_questions"`
	ActionItems         []ReportItem `json:"action_items"`

	Limitations []string    `json:"limitations,omitempty"`
	Gate        GateResult  `json:"gate"`
	Flags       ReportFlags `json:"flags"`
}

// ReportItem is one accepted statement with its supporting evidence ids.
type ReportItem struct {
	Text        string   `json:"text"`
	EvidenceIDs []string `json:"evidence_ids"`
}

// ReportFlags signals degraded modes to the caller.
type ReportFlags struct {
	FallbackUsed   bool    `json:"fallback_used"`    // Deterministic fallback replaced generation output
	LowAcceptance  bool    `json:"low_acceptance"`   // Acceptance rate fell below the configured threshold
	AcceptanceRate float64 `json:"acceptance_rate"`  // Accepted claims / total claims (0 when no claims)
	LexicalOnly    bool    `json:"lexical_only"`     // Hybrid disabled, vector weight zero
}

// GateResult is the structural quality gate over the assembled report:
// warnings and transparent metrics, never a request failure.
type GateResult struct {
	Passed   bool           `json:"passed"`
	Score    int            `json:"score"` // 0-100
	Warnings []string       `json:"warnings,omitempty"`
	Errors   []string       `json:"errors,omitempty"`
	Signals  []Signal       `json:"signals,omitempty"`
	Metrics  map[string]any `json:"metrics,omitempty"`
}

// Signal is a diagnostic with transparent scoring data so every gate number
// can be recomputed by hand.
type Signal struct {
	Type        SignalType     `json:"type"`
	Severity    SignalSeverity `json:"severity"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalClaimAcceptance   SignalType = "claim_acceptance"   // Accepted-to-total claim ratio
	SignalEvidenceCoverage  SignalType = "evidence_coverage"  // Citations per accepted claim
	SignalSectionBalance    SignalType = "section_balance"    // Report sections populated
	SignalDifferentialDepth SignalType = "differential_depth" // Differential size and support
	SignalFallback          SignalType = "fallback"           // Deterministic fallback engaged
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
