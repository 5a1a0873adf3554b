package lease

import "strings"

// ClauseRule ties a structural marker to a domain toggle. A line carrying
// {{@Name}} is kept only when Toggle is affirmative; {{@Name:wording}} on a
// kept line becomes Singular or Plural depending on how many values CountKey
// holds.
type ClauseRule struct {
	Name     string
	Toggle   string
	CountKey string
	Singular string
	Plural   string
}

const (
	tenantLineMarker      = "tenant-line"
	tenantSignatureMarker = "tenant-signature"
	wordingSuffix         = "wording"
)

// DefaultClauseRules returns the parking and storage clauses.
func DefaultClauseRules() []ClauseRule {
	return []ClauseRule{
		{
			Name:     "parking",
			Toggle:   "parkingIncluded",
			CountKey: "parkingSpots",
			Singular: "parking space",
			Plural:   "parking spaces",
		},
		{
			Name:     "storage",
			Toggle:   "storageIncluded",
			CountKey: "storageUnits",
			Singular: "storage unit",
			Plural:   "storage units",
		},
	}
}

func (r ClauseRule) wording(a Answers) string {
	if r.CountKey != "" && a.Count(r.CountKey) > 1 {
		return r.Plural
	}
	return r.Singular
}

// applyClauses removes structural clause lines whose toggle is not
// affirmative and resolves wording markers on the rest. Markers that match
// no rule are stripped; the tenant markers are left for the expander.
func applyClauses(lines []Line, rules []ClauseRule, a Answers) []Line {
	byName := make(map[string]ClauseRule, len(rules))
	for _, r := range rules {
		byName[r.Name] = r
	}

	out := make([]Line, 0, len(lines))
lines:
	for _, line := range lines {
		kept := make(Line, 0, len(line))
		stripped := false

		for _, t := range line {
			if t.Kind != TokenMarker {
				kept = append(kept, t)
				continue
			}
			name := markerName(t.Text)
			if name == tenantLineMarker || name == tenantSignatureMarker {
				kept = append(kept, t)
				continue
			}
			rule, known := byName[name]
			if !known {
				stripped = true
				continue
			}
			if !a.Affirmative(rule.Toggle) {
				continue lines
			}
			if isWording(t.Text) {
				kept = append(kept, Token{Kind: TokenLiteral, Text: rule.wording(a)})
				continue
			}
			stripped = true
		}

		if stripped && kept.blank() && !kept.hasAnyMarker() {
			continue
		}
		out = append(out, mergeLiterals(kept))
	}
	return out
}

func isWording(text string) bool {
	_, suffix, ok := strings.Cut(text, ":")
	return ok && strings.TrimSpace(suffix) == wordingSuffix
}

// mergeLiterals joins adjacent literal tokens so that later passes see a
// clause number and its text as one leading literal.
func mergeLiterals(line Line) Line {
	var out Line
	for _, t := range line {
		if n := len(out); n > 0 && t.Kind == TokenLiteral && out[n-1].Kind == TokenLiteral {
			out[n-1].Text += t.Text
			continue
		}
		out = append(out, t)
	}
	return out
}
