// Package extract parses generation output into atomic claims. The parser is
// the stable boundary between the generation service's text format and the
// verifier: whatever the model produced, the verifier only ever sees
// (text, cited ids) pairs.
package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/anamnesis/internal/model"
)

// sectionHeaders maps the expected output headers to report groups.
// Matching is case-insensitive and tolerates markdown decoration.
var sectionHeaders = map[string]model.ReportGroup{
	"SUMMARY":              model.GroupSummary,
	"DIFFERENTIAL":         model.GroupDifferential,
	"CLARIFYING QUESTIONS": model.GroupClarifying,
	"ACTION ITEMS":         model.GroupActionItems,
}

// citationRe matches one bracketed citation group: [N000006] or
// [N000006, L000059]. Ids are a type prefix letter plus six digits.
var citationRe = regexp.MustCompile(`\[([A-Z]\d{6}(?:\s*,\s*[A-Z]\d{6})*)\]`)

// bulletRe strips the leading list marker: "-", "*", "1.", "2)".
var bulletRe = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)

// ClaimParser extracts claims from generation output.
type ClaimParser struct{}

// NewClaimParser creates a new claim parser
func NewClaimParser() *ClaimParser {
	return &ClaimParser{}
}

// Parse splits generation output into claims grouped by report section.
// Bullet lines under a recognized header become claims for that section;
// bracketed id groups become the claim's citations and are removed from the
// claim text. Lines before the first recognized header are ignored, unless no
// header appears at all, in which case every bullet is treated as a summary
// claim so sloppy model output still verifies instead of vanishing.
func (p *ClaimParser) Parse(text string) []model.Claim {
	var claims []model.Claim
	current := model.ReportGroup("")
	sawHeader := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if group, ok := matchHeader(line); ok {
			current = group
			sawHeader = true
			continue
		}

		marker := bulletRe.FindString(line)
		if marker == "" {
			continue
		}
		section := current
		if !sawHeader {
			section = model.GroupSummary
		} else if section == "" {
			continue
		}

		body := strings.TrimPrefix(line, marker)
		claimText, ids := splitCitations(body)
		if claimText == "" {
			continue
		}
		claims = append(claims, model.Claim{
			Text:        claimText,
			EvidenceIDs: ids,
			Section:     section,
		})
	}

	return dedupeClaims(claims)
}

// matchHeader recognizes a section header line, tolerating markdown "#"
// prefixes, "**" emphasis, and a trailing colon.
func matchHeader(line string) (model.ReportGroup, bool) {
	clean := strings.TrimLeft(line, "#")
	clean = strings.Trim(clean, "* ")
	clean = strings.TrimSuffix(clean, ":")
	clean = strings.ToUpper(strings.TrimSpace(clean))

	group, ok := sectionHeaders[clean]
	return group, ok
}

// splitCitations removes every bracketed citation group from the line and
// returns the remaining text plus the cited ids in order of appearance,
// deduplicated.
func splitCitations(line string) (string, []string) {
	var ids []string
	seen := make(map[string]bool)

	for _, match := range citationRe.FindAllStringSubmatch(line, -1) {
		for _, id := range strings.Split(match[1], ",") {
			id = strings.TrimSpace(id)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}

	text := citationRe.ReplaceAllString(line, "")
	text = strings.Join(strings.Fields(text), " ")
	return text, ids
}

// dedupeClaims removes duplicate claims within the same section.
func dedupeClaims(claims []model.Claim) []model.Claim {
	seen := make(map[string]bool)
	var unique []model.Claim

	for _, claim := range claims {
		key := string(claim.Section) + "|" + strings.ToLower(claim.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, claim)
	}
	return unique
}
