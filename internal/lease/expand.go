package lease

import (
	"strconv"
	"strings"
)

// DefaultTenantLineLayout is the identification line written once per
// tenant when there is more than one. {{n}} is the 1-based position; the
// other placeholders name fields of the tenant entry.
const DefaultTenantLineLayout = "{{n}}. {{name}}, ID {{idNumber}}, of {{city}}, phone {{phone}}"

// SignatureTag returns the signature slot tag for a party label.
func SignatureTag(label string) string {
	return "[[signature:" + label + "]]"
}

// TenantLabel returns the label of the i-th (1-based) tenant out of n.
func TenantLabel(i, n int) string {
	if n <= 1 {
		return "tenant"
	}
	return "tenant " + strconv.Itoa(i)
}

// expandTenants rewrites the tenant identification line and the tenant
// signature block once per tenant entry when the contract has several
// tenants. With a single tenant only the markers are removed.
func expandTenants(lines []Line, layout []Token, a Answers) []Line {
	n := len(a.Tenants())
	out := make([]Line, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if at := line.hasMarker(tenantLineMarker); at >= 0 {
			if n <= 1 {
				out = appendUnlessBlank(out, line.without(at))
				continue
			}
			for idx := 1; idx <= n; idx++ {
				out = append(out, tenantLine(layout, idx))
			}
			continue
		}

		if at := line.hasMarker(tenantSignatureMarker); at >= 0 {
			end := i + 1
			for end < len(lines) && !lines[end].blank() {
				end++
			}
			block := make([]Line, 0, end-i)
			block = append(block, line.without(at))
			block = append(block, lines[i+1:end]...)
			i = end - 1

			if n <= 1 {
				for _, l := range block {
					out = appendUnlessBlank(out, l)
				}
				continue
			}
			for idx := 1; idx <= n; idx++ {
				if idx > 1 {
					out = append(out, Line{})
				}
				for _, l := range block {
					out = appendUnlessBlank(out, rekeyTenant(l, idx, n))
				}
			}
			continue
		}

		out = append(out, line)
	}
	return out
}

func appendUnlessBlank(out []Line, l Line) []Line {
	if l.blank() && !l.hasAnyMarker() {
		return out
	}
	return append(out, mergeLiterals(l))
}

func tenantLine(layout []Token, idx int) Line {
	line := make(Line, 0, len(layout))
	for _, t := range layout {
		if t.Kind != TokenPlaceholder {
			line = append(line, t)
			continue
		}
		if t.Text == "n" {
			line = append(line, Token{Kind: TokenLiteral, Text: strconv.Itoa(idx)})
			continue
		}
		line = append(line, Token{Kind: TokenPlaceholder, Text: tenantPath(idx, t.Text)})
	}
	return mergeLiterals(line)
}

// rekeyTenant points the flat tenant keys of a signature block line at the
// idx-th entry and numbers its signature slot.
func rekeyTenant(l Line, idx, n int) Line {
	out := make(Line, 0, len(l))
	for _, t := range l {
		switch t.Kind {
		case TokenPlaceholder:
			if field, ok := tenantField(t.Text); ok {
				t.Text = tenantPath(idx, field)
			}
		case TokenLiteral:
			t.Text = strings.ReplaceAll(t.Text, SignatureTag(TenantLabel(1, 1)), SignatureTag(TenantLabel(idx, n)))
		}
		out = append(out, t)
	}
	return out
}

// tenantField maps a flat key such as tenantIdNumber to its entry field.
func tenantField(key string) (string, bool) {
	for _, f := range entityFields {
		if key == flatKey("tenant", f) {
			return f, true
		}
	}
	return "", false
}

func tenantPath(idx int, field string) string {
	return TenantsKey + "." + strconv.Itoa(idx) + "." + field
}
