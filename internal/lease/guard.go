package lease

import (
	"strconv"
	"strings"
)

// Guard is a parsed {{#if ...}} condition.
type Guard struct {
	Field string
	// Equals is set for the `field == "literal"` form.
	Equals *string
}

// ParseGuard parses a guard expression. It accepts a bare field name or an
// equality against a quoted literal. Anything else yields ok == false, and
// such a guard is never satisfied.
func ParseGuard(expr string) (Guard, bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Guard{}, false
	}

	field, literal, isEq := strings.Cut(expr, "==")
	if !isEq {
		if strings.ContainsAny(expr, " \t\"'=") {
			return Guard{}, false
		}
		return Guard{Field: expr}, true
	}

	field = strings.TrimSpace(field)
	literal = strings.TrimSpace(literal)
	if field == "" || strings.ContainsAny(field, " \t\"'") {
		return Guard{}, false
	}
	value, ok := unquote(literal)
	if !ok {
		return Guard{}, false
	}
	return Guard{Field: field, Equals: &value}, true
}

func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	switch s[0] {
	case '"':
		v, err := strconv.Unquote(s)
		if err != nil {
			return "", false
		}
		return v, true
	case '\'':
		if s[len(s)-1] != '\'' {
			return "", false
		}
		return s[1 : len(s)-1], true
	}
	return "", false
}

// Eval reports whether the guard holds for the answers. A field absent from
// the answers never satisfies either form.
func (g Guard) Eval(a Answers) bool {
	if g.Equals == nil {
		return a.Truthy(g.Field)
	}
	v, ok := a.Lookup(g.Field)
	if !ok {
		return false
	}
	return Stringify(v) == *g.Equals
}
