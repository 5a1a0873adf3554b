package lease

import "strings"

// Engine merges templates with answers. The zero value is not usable; build
// one with NewEngine and adjust the fields before the first Merge.
type Engine struct {
	Rules            []ClauseRule
	TenantLineLayout string
	DateKeys         []string
}

// NewEngine returns an engine with the default clause rules, tenant line
// layout and date keys.
func NewEngine() *Engine {
	return &Engine{
		Rules:            DefaultClauseRules(),
		TenantLineLayout: DefaultTenantLineLayout,
		DateKeys:         DefaultDateKeys(),
	}
}

// Merge produces the contract text for a template and an answer set. It is
// a pure function of its inputs.
func (e *Engine) Merge(template string, answers Answers) string {
	a := answers.Normalize()

	lines := Evaluate(Lex(NormalizeNewlines(template)), a)
	lines = applyClauses(lines, e.Rules, a)
	lines = expandTenants(lines, Lex(e.TenantLineLayout), a)
	lines = renumberLines(lines)

	return NormalizeText(newResolver(a, e.DateKeys).render(lines))
}

// Merge runs the default engine.
func Merge(template string, answers Answers) string {
	return NewEngine().Merge(template, answers)
}

// NormalizeNewlines converts CRLF and lone CR line endings to LF.
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// NormalizeText trims trailing blanks from every line, collapses runs of
// empty lines into one and ends the text with a single newline.
func NormalizeText(in string) string {
	lines := strings.Split(NormalizeNewlines(in), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" && (len(out) == 0 || out[len(out)-1] == "") {
			continue
		}
		out = append(out, l)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n") + "\n"
}
