// Package retrieve implements the two retrieval stages: a deterministic
// global pass over fixed SOAP template queries and a local pass that
// decomposes a free-form question into section sub-queries. Both feed the
// hybrid scorer; both are pure functions over an immutable index snapshot.
package retrieve

import (
	"strings"
	"unicode"

	"github.com/ppiankov/anamnesis/internal/model"
)

// sectionKeywords drives two things per SOAP section: sub-query derivation
// (a question mentioning these terms targets the section) and the keyword
// boost during reranking. The tables are fixed; the boost magnitudes come
// from configuration.
var sectionKeywords = map[model.SoapSection][]string{
	model.SectionSubjective: {
		"pain", "fell", "fall", "hurt", "ache", "cannot", "unable",
		"worse", "better", "duration", "started", "began", "feeling",
		"complains", "reports", "states", "denies", "history",
		"symptom", "complaint", "concern", "worried", "noticed",
	},
	model.SectionObjective: {
		"mg/dl", "mmol", "bpm", "mmhg", "temperature", "pulse", "bp",
		"resp", "spo2", "hr", "lab", "labs", "vital", "vitals", "exam",
		"finding", "observed", "measured", "elevated", "decreased",
		"normal", "abnormal", "positive", "negative", "coagulation",
		"status",
	},
	model.SectionAssessment: {
		"diagnosis", "diagnosed", "impression", "assessment", "problem",
		"condition", "disorder", "syndrome", "disease", "likely",
		"probable", "suspect", "differential", "etiology", "severity",
	},
	model.SectionPlan: {
		"plan", "order", "prescribe", "recommend", "schedule",
		"follow-up", "refer", "consult", "monitor", "continue",
		"start", "stop", "increase", "decrease", "change",
		"treatment", "therapy", "medication", "procedure",
	},
}

// sectionTypes lists the candidate evidence types per section. Global
// template queries are restricted to these; reranking boosts them.
var sectionTypes = map[model.SoapSection][]model.EvidenceType{
	model.SectionSubjective: {
		model.EvidenceTypeConversation,
		model.EvidenceTypeNote,
	},
	model.SectionObjective: {
		model.EvidenceTypeSummary,
		model.EvidenceTypeLab,
		model.EvidenceTypeMonitor,
	},
	// Assessment admits reference material: background knowledge is a
	// legitimate basis for a differential, though penalized below patient
	// evidence by the scorer.
	model.SectionAssessment: {
		model.EvidenceTypeSummary,
		model.EvidenceTypeNote,
		model.EvidenceTypeReference,
	},
	model.SectionPlan: {
		model.EvidenceTypeSummary,
		model.EvidenceTypeNote,
	},
}

// patientFactSections are presented as patient fact: reference-scoped
// evidence is excluded from their rankings outright, not just penalized.
var patientFactSections = map[model.SoapSection]bool{
	model.SectionSubjective: true,
	model.SectionObjective:  true,
}

// tokenSet lowercases text and splits it into a token set for exact keyword
// matching. Substring matching is unusable here: "hr" lives inside half the
// pharmacopoeia. Slashes and hyphens stay inside tokens so "mg/dl" and
// "follow-up" match whole.
func tokenSet(text string) map[string]bool {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '/' || r == '-' {
			return false
		}
		return true
	})
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// keywordMatches counts how many of the section's keywords appear as whole
// tokens in the text, up to cap. cap <= 0 means uncapped.
func keywordMatches(tokens map[string]bool, keywords []string, cap int) int {
	matches := 0
	for _, kw := range keywords {
		if tokens[kw] {
			matches++
			if cap > 0 && matches == cap {
				break
			}
		}
	}
	return matches
}

// deriveSubQueries decomposes a free-form question into section-tagged
// sub-queries: one per SOAP section whose keyword table the question touches,
// else a single generic query. The derived queries are reported verbatim for
// audit.
func deriveSubQueries(question string) []model.RetrievalResult {
	tokens := tokenSet(question)

	var derived []model.RetrievalResult
	for _, section := range model.SoapSectionOrder {
		if keywordMatches(tokens, sectionKeywords[section], 1) == 0 {
			continue
		}
		// Expand the question with the section's leading terms so the
		// sub-query pulls section-typical evidence the question itself
		// does not name.
		expansion := strings.Join(sectionKeywords[section][:5], " ")
		derived = append(derived, model.RetrievalResult{
			Query:   question + " " + expansion,
			Section: section,
		})
	}

	if len(derived) == 0 {
		derived = append(derived, model.RetrievalResult{Query: question})
	}
	return derived
}
