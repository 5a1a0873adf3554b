package lease

import (
	"regexp"
	"strconv"
	"strings"
)

var subClauseRe = regexp.MustCompile(`^(\s*)(\d+)\.(\d+)(\.?)(\s|$)`)

type numbering struct {
	major string
	minor int
}

// next rewrites the N.M prefix of s, if any. Within one N the M values are
// issued 1, 2, 3... in order of appearance; a new N starts again at 1.
func (n *numbering) next(s string) string {
	m := subClauseRe.FindStringSubmatchIndex(s)
	if m == nil {
		return s
	}
	major := s[m[4]:m[5]]
	if major == n.major {
		n.minor++
	} else {
		n.major = major
		n.minor = 1
	}
	return s[:m[6]] + strconv.Itoa(n.minor) + s[m[7]:]
}

// Renumber re-sequences N.M clause numbers of a text so that they are
// contiguous within each N. Top-level "N." lines are left as they are.
func Renumber(text string) string {
	var n numbering
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = n.next(l)
	}
	return strings.Join(lines, "\n")
}

func renumberLines(lines []Line) []Line {
	var n numbering
	for i, l := range lines {
		if len(l) == 0 || l[0].Kind != TokenLiteral {
			continue
		}
		if rewritten := n.next(l[0].Text); rewritten != l[0].Text {
			cp := make(Line, len(l))
			copy(cp, l)
			cp[0].Text = rewritten
			lines[i] = cp
		}
	}
	return lines
}
