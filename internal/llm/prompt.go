package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/anamnesis/internal/model"
)

const maxEvidenceChars = 8000

const systemRules = `You are a clinical decision support assistant. You summarize an ICU patient and rank differential diagnoses strictly from the evidence provided.

CRITICAL RULES:
1. Every statement MUST cite evidence ids in brackets, e.g. [N000006, L000059].
2. You may ONLY cite ids from the EVIDENCE section below. Never invent an id.
3. If the evidence does not contain a fact, write "Not documented in available records." instead of guessing.
4. You do not diagnose. You rank candidate diagnoses against evidence and note what is missing.
5. Output exactly these four sections, each a list of "- statement [ids]" lines:
SUMMARY:
DIFFERENTIAL:
CLARIFYING QUESTIONS:
ACTION ITEMS:`

// BuildPrompt constructs the generation prompt from the retrieval traces.
// The evidence block doubles as the citation allowlist: everything the model
// may cite is printed with its id, nothing else.
func BuildPrompt(global model.GlobalRunResult, local *model.LocalRunResult, question string) string {
	var b strings.Builder
	b.WriteString(systemRules)
	b.WriteString("\n\nEVIDENCE (SOAP-structured patient context):\n")

	total := 0
	seen := make(map[string]bool)
	writeHit := func(hit model.ScoredEvidence) {
		if seen[hit.EvidenceID] || total > maxEvidenceChars {
			return
		}
		seen[hit.EvidenceID] = true
		line := fmt.Sprintf("[%s] %s\n", hit.EvidenceID, hit.Text)
		b.WriteString(line)
		total += len(line)
	}

	for _, sec := range global.Sections {
		fmt.Fprintf(&b, "-- Section %s --\n", sec.Section)
		for _, hit := range sec.Hits {
			writeHit(hit)
		}
	}

	if local != nil {
		b.WriteString("-- Question-specific evidence --\n")
		for _, sq := range local.SubQueries {
			for _, hit := range sq.Hits {
				writeHit(hit)
			}
		}
	}

	if question != "" {
		fmt.Fprintf(&b, "\nQUESTION: %s\n", question)
	}

	b.WriteString("\nProduce the four sections now. Cite ids in brackets on every line.\n")
	return b.String()
}
