// Package verify decides which generated claims survive into the report.
// Verification is structural, not semantic: a claim is supported when every
// citation resolves to evidence that was actually surfaced this run, in the
// right scope. No judgment call about whether the text matches the evidence
// happens here; the guarantee is narrower and checkable.
package verify

import (
	"github.com/ppiankov/anamnesis/internal/model"
	"github.com/ppiankov/anamnesis/internal/store"
)

// Placeholder replaces excluded statements so the report never silently
// swallows a rejection.
const Placeholder = "Not documented in available records."

// Verifier checks claims against the evidence store and the set of evidence
// ids surfaced by retrieval this run.
type Verifier struct {
	config model.VerifyConfig
}

// NewVerifier creates a new verifier
func NewVerifier(config model.VerifyConfig) *Verifier {
	return &Verifier{config: config}
}

// Verify produces one outcome per claim, in claim order. surfaced is the set
// of evidence ids retrieval actually returned this run: a citation to a real
// but unsurfaced unit is rejected, because the model can only have copied it
// from thin air.
func (v *Verifier) Verify(claims []model.Claim, st *store.Store, surfaced map[string]bool) []model.VerificationOutcome {
	outcomes := make([]model.VerificationOutcome, 0, len(claims))
	for _, claim := range claims {
		outcomes = append(outcomes, v.verifyClaim(claim, st, surfaced))
	}
	return outcomes
}

func (v *Verifier) verifyClaim(claim model.Claim, st *store.Store, surfaced map[string]bool) model.VerificationOutcome {
	outcome := model.VerificationOutcome{Claim: claim}

	if len(claim.EvidenceIDs) == 0 {
		outcome.Status = model.StatusUnsupported
		outcome.Reason = model.ReasonNoCitations
		outcome.Replacement = Placeholder
		return outcome
	}

	var (
		resolved []string
		unknown  []string
		unranked []string
	)
	for _, id := range claim.EvidenceIDs {
		switch {
		case !st.Has(id):
			unknown = append(unknown, id)
		case !surfaced[id]:
			unranked = append(unranked, id)
		default:
			resolved = append(resolved, id)
		}
	}

	if len(unknown) > 0 || len(unranked) > 0 {
		missing := append(append([]string{}, unknown...), unranked...)

		// One-shot repair: keep the claim on its verifiable citation subset.
		if v.config.RepairEnabled && len(resolved) > 0 && v.scopeOK(claim, resolved, st) {
			repaired := claim
			repaired.EvidenceIDs = resolved
			outcome.Claim = repaired
			outcome.Status = model.StatusRepaired
			outcome.Reason = model.ReasonRepairedClaim
			outcome.Justifying = resolved
			outcome.MissingIDs = missing
			return outcome
		}

		outcome.Status = model.StatusUnsupported
		if len(unknown) > 0 {
			outcome.Reason = model.ReasonUnknownEvidence
		} else {
			outcome.Reason = model.ReasonUnrankedID
		}
		outcome.MissingIDs = missing
		outcome.Replacement = Placeholder
		return outcome
	}

	if !v.scopeOK(claim, resolved, st) {
		outcome.Status = model.StatusUnsupported
		outcome.Reason = model.ReasonReferenceScope
		outcome.Replacement = Placeholder
		return outcome
	}

	outcome.Status = model.StatusSupported
	outcome.Reason = model.ReasonCited
	outcome.Justifying = resolved
	return outcome
}

// scopeOK rejects summary claims backed exclusively by reference material.
// The summary states patient facts; textbook knowledge can inform the
// differential but cannot itself be a patient fact.
func (v *Verifier) scopeOK(claim model.Claim, resolved []string, st *store.Store) bool {
	if claim.Section != model.GroupSummary {
		return true
	}
	for _, id := range resolved {
		if scope, ok := st.Scope(id); ok && scope == model.ScopePatient {
			return true
		}
	}
	return false
}

// AcceptanceRate returns accepted claims over total claims, 0 for no claims.
func AcceptanceRate(outcomes []model.VerificationOutcome) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	accepted := 0
	for _, o := range outcomes {
		if o.Accepted() {
			accepted++
		}
	}
	return float64(accepted) / float64(len(outcomes))
}
