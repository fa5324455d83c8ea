package verify

import (
	"strings"

	"github.com/ppiankov/anamnesis/internal/model"
)

// organSystem groups fallback summary lines the way a hand-written ICU
// summary would: by system, not by retrieval order.
type organSystem struct {
	label    string
	keywords []string
}

// organSystems is ordered head to toe; order is part of the deterministic
// output contract.
var organSystems = []organSystem{
	{"Neuro", []string{"gcs", "sedation", "pupils", "neuro", "consciousness", "delirium", "agitation"}},
	{"Cardiovascular", []string{"bp", "map", "hr", "norepinephrine", "vasopressor", "cardiac", "rhythm", "pressure"}},
	{"Respiratory", []string{"spo2", "ventilator", "fio2", "peep", "respiratory", "intubated", "oxygen", "rr"}},
	{"Renal", []string{"creatinine", "urine", "dialysis", "renal", "fluid", "potassium", "sodium"}},
	{"Hematology", []string{"hemoglobin", "platelets", "inr", "coagulation", "bleeding", "transfusion", "anemia"}},
	{"Infectious", []string{"fever", "antibiotic", "culture", "sepsis", "septic", "wbc", "lactate", "infection"}},
}

// clarifyingTemplates are the fixed questions the fallback always asks. With
// no model in the loop these are the only questions we can responsibly pose.
var clarifyingTemplates = []string{
	"What is the patient's current code status and goals of care?",
	"Are there home medications or allergies not yet reflected in the record?",
	"Is there prior imaging or outside records that should be reviewed?",
}

// fallbackLimitation is attached to every fallback report.
const fallbackLimitation = "Generated without language model assistance: statements are verbatim evidence excerpts, not a synthesized assessment."

// Fallback assembles a degraded but fully grounded report from the global
// retrieval trace alone. Every statement is a verbatim evidence excerpt with
// its citation; nothing is synthesized, so nothing needs verification.
type Fallback struct{}

// NewFallback creates a new fallback engine
func NewFallback() *Fallback {
	return &Fallback{}
}

// Build populates the report sections from the global trace. Summary lines
// come from Subjective and Objective evidence grouped by organ system,
// differential lines from Assessment evidence, action items from Plan
// evidence, clarifying questions from fixed templates.
func (f *Fallback) Build(global model.GlobalRunResult) *model.Report {
	report := &model.Report{
		GlobalTrace: global,
		Limitations: []string{fallbackLimitation},
		Flags:       model.ReportFlags{FallbackUsed: true},
	}

	var factHits []model.ScoredEvidence
	for _, sec := range global.Sections {
		switch sec.Section {
		case model.SectionSubjective, model.SectionObjective:
			factHits = append(factHits, sec.Hits...)
		case model.SectionAssessment:
			for _, hit := range sec.Hits {
				report.Differential = append(report.Differential, model.ReportItem{
					Text:        hit.Text,
					EvidenceIDs: []string{hit.EvidenceID},
				})
			}
		case model.SectionPlan:
			for _, hit := range sec.Hits {
				report.ActionItems = append(report.ActionItems, model.ReportItem{
					Text:        hit.Text,
					EvidenceIDs: []string{hit.EvidenceID},
				})
			}
		}
	}

	report.Summary = summarizeBySystem(factHits)
	for _, q := range clarifyingTemplates {
		report.ClarifyingQuestions = append(report.ClarifyingQuestions, model.ReportItem{Text: q})
	}

	if len(report.Summary) == 0 {
		report.Summary = []model.ReportItem{{Text: Placeholder}}
	}
	if len(report.Differential) == 0 {
		report.Differential = []model.ReportItem{{Text: Placeholder}}
	}
	if len(report.ActionItems) == 0 {
		report.ActionItems = []model.ReportItem{{Text: Placeholder}}
	}
	return report
}

// summarizeBySystem assigns each hit to the first organ system whose keywords
// its text mentions, then emits one line per populated system in head-to-toe
// order. Hits matching no system trail at the end unlabeled.
func summarizeBySystem(hits []model.ScoredEvidence) []model.ReportItem {
	bySystem := make(map[string][]model.ScoredEvidence)
	var unmatched []model.ScoredEvidence

	for _, hit := range hits {
		label := classifySystem(hit.Text)
		if label == "" {
			unmatched = append(unmatched, hit)
			continue
		}
		bySystem[label] = append(bySystem[label], hit)
	}

	var items []model.ReportItem
	for _, sys := range organSystems {
		for _, hit := range bySystem[sys.label] {
			items = append(items, model.ReportItem{
				Text:        sys.label + ": " + hit.Text,
				EvidenceIDs: []string{hit.EvidenceID},
			})
		}
	}
	for _, hit := range unmatched {
		items = append(items, model.ReportItem{
			Text:        hit.Text,
			EvidenceIDs: []string{hit.EvidenceID},
		})
	}
	return items
}

func classifySystem(text string) string {
	lower := strings.ToLower(text)
	for _, sys := range organSystems {
		for _, kw := range sys.keywords {
			if containsToken(lower, kw) {
				return sys.label
			}
		}
	}
	return ""
}

// containsToken reports whether the keyword appears as a whole token in the
// lowercased text. Substring matching would light up "hr" inside
// "norepinephrine".
func containsToken(lower, keyword string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], keyword)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(keyword)
		beforeOK := start == 0 || !isWordRune(lower[start-1])
		afterOK := end == len(lower) || !isWordRune(lower[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordRune(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
