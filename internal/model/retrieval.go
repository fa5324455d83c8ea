package model

import "fmt"

// SoapSection identifies one of the four fixed SOAP note sections
type SoapSection string

const (
	SectionSubjective SoapSection = "S"
	SectionObjective  SoapSection = "O"
	SectionAssessment SoapSection = "A"
	SectionPlan       SoapSection = "P"
)

// SoapSectionOrder is the canonical iteration order for SOAP sections.
// Every section-keyed output follows this order so runs are reproducible.
var SoapSectionOrder = []SoapSection{
	SectionSubjective,
	SectionObjective,
	SectionAssessment,
	SectionPlan,
}

// SoapQuerySet maps each SOAP section to a fixed ordered sequence of template
// query strings. It is static and versioned, independent of patient data, so
// global retrieval is deterministic across runs for the same evidence set.
type SoapQuerySet struct {
	Version string                     `json:"version"`
	Queries map[SoapSection][]string   `json:"queries"`
}

// DefaultSoapQuerySet returns the built-in template query set.
func DefaultSoapQuerySet() SoapQuerySet {
	return SoapQuerySet{
		Version: "soap-v1",
		Queries: map[SoapSection][]string{
			SectionSubjective: {
				"chief complaint symptoms history duration onset",
				"patient reports pain discomfort feeling",
			},
			SectionObjective: {
				"labs vitals exam findings measurements",
				"temperature pulse blood pressure respiratory rate",
			},
			SectionAssessment: {
				"diagnosis assessment impression problem differential",
				"condition severity progression",
			},
			SectionPlan: {
				"plan treatment recommendation orders follow-up",
				"medication therapy procedure monitoring",
			},
		},
	}
}

// SoapQuerySetForVersion resolves a configured template version to its query
// set. An unknown version is an error: silently substituting another template
// set would change global retrieval output behind the caller's back.
func SoapQuerySetForVersion(version string) (SoapQuerySet, error) {
	switch version {
	case "", "soap-v1":
		return DefaultSoapQuerySet(), nil
	default:
		return SoapQuerySet{}, fmt.Errorf("unknown SOAP template version %q", version)
	}
}

// ScoredEvidence is one ranked retrieval hit. Hybrid score is the section
// total order: descending, ties broken by evidence id ascending.
type ScoredEvidence struct {
	EvidenceID   string      `json:"evidence_id"`
	LexicalScore float64     `json:"lexical_score"`
	VectorScore  float64     `json:"vector_score"`
	HybridScore  float64     `json:"hybrid_score"`
	Section      SoapSection `json:"section,omitempty"`
	Text         string      `json:"text,omitempty"` // Snippet for audit display
}

// RetrievalResult is the ranked output for a single query, truncated to the
// configured top-k.
type RetrievalResult struct {
	Query   string           `json:"query"`
	Section SoapSection      `json:"section,omitempty"`
	Hits    []ScoredEvidence `json:"hits"`
}

// GlobalSectionResult is the capped, deduplicated evidence for one SOAP
// section plus the literal template queries that produced it.
type GlobalSectionResult struct {
	Section SoapSection      `json:"section"`
	Queries []string         `json:"queries"`
	Hits    []ScoredEvidence `json:"hits"`
}

// GlobalRunResult is the full output of one global retrieval pass: a stable,
// low-variance context independent of any user question.
type GlobalRunResult struct {
	TemplateVersion string                `json:"template_version"`
	Sections        []GlobalSectionResult `json:"sections"`
}

// EvidenceIDs returns every evidence id surfaced by the run, in section order.
func (g GlobalRunResult) EvidenceIDs() []string {
	var ids []string
	for _, sec := range g.Sections {
		for _, hit := range sec.Hits {
			ids = append(ids, hit.EvidenceID)
		}
	}
	return ids
}

// LocalRunResult is the output of one local retrieval pass over a free-form
// question: section-tagged ranked evidence plus the literal derived
// sub-queries, kept for audit.
type LocalRunResult struct {
	Question   string            `json:"question"`
	UsedHybrid bool              `json:"used_hybrid"`
	SubQueries []RetrievalResult `json:"sub_queries"`
}

// EvidenceIDs returns every evidence id surfaced by the run, in query order.
func (l LocalRunResult) EvidenceIDs() []string {
	var ids []string
	for _, sq := range l.SubQueries {
		for _, hit := range sq.Hits {
			ids = append(ids, hit.EvidenceID)
		}
	}
	return ids
}
