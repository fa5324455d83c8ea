package verify

import (
	"fmt"
	"math"

	"github.com/ppiankov/anamnesis/internal/model"
)

const fallbackPenalty = 15

// Gate runs the structural quality checks over an assembled report. The gate
// never fails a request: it scores, warns, and leaves the verdict with the
// reader. Every number carries its formula so it can be recomputed by hand.
type Gate struct{}

// NewGate creates a new gate
func NewGate() *Gate {
	return &Gate{}
}

// Evaluate scores the report 0-100 and collects diagnostic signals.
func (g *Gate) Evaluate(report *model.Report) model.GateResult {
	var signals []model.Signal

	// 1. Claim acceptance (0-40 points)
	acceptScore, acceptSignal := g.scoreAcceptance(report)
	signals = append(signals, acceptSignal)

	// 2. Evidence coverage (0-25 points)
	coverageScore, coverageSignal := g.scoreCoverage(report)
	signals = append(signals, coverageSignal)

	// 3. Section balance (0-20 points)
	balanceScore, balanceSignal := g.scoreBalance(report)
	signals = append(signals, balanceSignal)

	// 4. Differential depth (0-15 points)
	depthScore, depthSignal := g.scoreDepth(report)
	signals = append(signals, depthSignal)

	total := acceptScore + coverageScore + balanceScore + depthScore

	if report.Flags.FallbackUsed {
		total -= fallbackPenalty
		signals = append(signals, model.Signal{
			Type:        model.SignalFallback,
			Severity:    model.SeverityWarning,
			Description: "Deterministic fallback engaged: no synthesized assessment",
			Data:        map[string]any{"penalty": fallbackPenalty},
		})
	}
	if total < 0 {
		total = 0
	}

	result := model.GateResult{
		Score:   total,
		Signals: signals,
		Metrics: map[string]any{
			"acceptance_score": acceptScore,
			"coverage_score":   coverageScore,
			"balance_score":    balanceScore,
			"depth_score":      depthScore,
		},
	}

	for _, sig := range signals {
		switch sig.Severity {
		case model.SeverityWarning:
			result.Warnings = append(result.Warnings, sig.Description)
		case model.SeverityCritical:
			result.Errors = append(result.Errors, sig.Description)
		}
	}

	result.Passed = total >= 50 && len(result.Errors) == 0
	return result
}

// scoreAcceptance scores the accepted-to-total claim ratio (0-40 points).
// Fallback reports have no claims to accept; they take a neutral half score
// and the fallback penalty accounts for the rest.
func (g *Gate) scoreAcceptance(report *model.Report) (int, model.Signal) {
	if len(report.Outcomes) == 0 {
		return 20, model.Signal{
			Type:        model.SignalClaimAcceptance,
			Severity:    model.SeverityInfo,
			Description: "No generated claims to verify",
			Data:        map[string]any{"claims": 0, "score": 20},
		}
	}

	rate := AcceptanceRate(report.Outcomes)
	score := int(math.Round(rate * 40))

	severity := model.SeverityInfo
	if rate < 0.3 {
		severity = model.SeverityCritical
	} else if rate < 0.6 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalClaimAcceptance,
		Severity:    severity,
		Description: fmt.Sprintf("Claim acceptance rate: %.2f", rate),
		Data: map[string]any{
			"claims":  len(report.Outcomes),
			"rate":    rate,
			"score":   score,
			"formula": "round(accepted / total * 40)",
		},
	}
}

// scoreCoverage scores citations per substantive report item (0-25 points).
func (g *Gate) scoreCoverage(report *model.Report) (int, model.Signal) {
	items := 0
	citations := 0
	for _, group := range [][]model.ReportItem{report.Summary, report.Differential, report.ActionItems} {
		for _, item := range group {
			if item.Text == Placeholder {
				continue
			}
			items++
			citations += len(item.EvidenceIDs)
		}
	}

	if items == 0 {
		return 0, model.Signal{
			Type:        model.SignalEvidenceCoverage,
			Severity:    model.SeverityCritical,
			Description: "Report carries no substantive statements",
			Data:        map[string]any{"items": 0},
		}
	}

	ratio := float64(citations) / float64(items)
	score := int(math.Min(ratio*25, 25))

	severity := model.SeverityInfo
	if ratio < 1 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalEvidenceCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("Citations per statement: %.2f", ratio),
		Data: map[string]any{
			"items":     items,
			"citations": citations,
			"ratio":     ratio,
			"score":     score,
			"formula":   "min(citations / items * 25, 25)",
		},
	}
}

// scoreBalance scores populated report sections (0-20 points). A section
// holding only the placeholder counts as empty.
func (g *Gate) scoreBalance(report *model.Report) (int, model.Signal) {
	populated := 0
	for _, group := range [][]model.ReportItem{
		report.Summary, report.Differential, report.ClarifyingQuestions, report.ActionItems,
	} {
		for _, item := range group {
			if item.Text != Placeholder {
				populated++
				break
			}
		}
	}

	score := populated * 5

	severity := model.SeverityInfo
	if populated <= 1 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalSectionBalance,
		Severity:    severity,
		Description: fmt.Sprintf("Populated sections: %d/4", populated),
		Data: map[string]any{
			"populated": populated,
			"score":     score,
			"formula":   "populated_sections * 5",
		},
	}
}

// scoreDepth scores the differential (0-15 points). A single-entry
// differential is an anchoring hazard, not a differential.
func (g *Gate) scoreDepth(report *model.Report) (int, model.Signal) {
	depth := 0
	for _, item := range report.Differential {
		if item.Text != Placeholder {
			depth++
		}
	}

	score := depth * 5
	if score > 15 {
		score = 15
	}

	severity := model.SeverityInfo
	if depth <= 1 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalDifferentialDepth,
		Severity:    severity,
		Description: fmt.Sprintf("Differential entries: %d", depth),
		Data: map[string]any{
			"depth":   depth,
			"score":   score,
			"formula": "min(depth * 5, 15)",
		},
	}
}
