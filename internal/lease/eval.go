package lease

import "strings"

// Line is one output line of an evaluated template: literals, placeholders
// and markers only. Conditional tags never survive evaluation.
type Line []Token

// Text returns the literal text of the line, ignoring other tokens.
func (l Line) Text() string {
	var b strings.Builder
	for _, t := range l {
		if t.Kind == TokenLiteral {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// blank reports whether the line renders nothing but whitespace.
func (l Line) blank() bool {
	for _, t := range l {
		switch t.Kind {
		case TokenLiteral:
			if strings.TrimSpace(t.Text) != "" {
				return false
			}
		case TokenPlaceholder:
			return false
		}
	}
	return true
}

// hasMarker returns the index of the first marker whose name (before any
// ":" suffix) equals name, or -1.
func (l Line) hasMarker(name string) int {
	for i, t := range l {
		if t.Kind == TokenMarker && markerName(t.Text) == name {
			return i
		}
	}
	return -1
}

// without returns a copy of the line with the token at i removed.
func (l Line) without(i int) Line {
	out := make(Line, 0, len(l)-1)
	out = append(out, l[:i]...)
	return append(out, l[i+1:]...)
}

func markerName(text string) string {
	name, _, _ := strings.Cut(text, ":")
	return strings.TrimSpace(name)
}

// splitLines breaks a token stream at the newlines inside literal tokens.
func splitLines(tokens []Token) []Line {
	lines := []Line{{}}
	for _, t := range tokens {
		if t.Kind != TokenLiteral {
			lines[len(lines)-1] = append(lines[len(lines)-1], t)
			continue
		}
		parts := strings.Split(t.Text, "\n")
		for i, p := range parts {
			if i > 0 {
				lines = append(lines, Line{})
			}
			if p != "" {
				lines[len(lines)-1] = append(lines[len(lines)-1], Token{Kind: TokenLiteral, Text: p})
			}
		}
	}
	return lines
}

// Evaluate applies the conditional blocks of a lexed template against the
// raw answers. Tokens inside unsatisfied blocks are removed. A line that
// carried a conditional tag or lost content to an unsatisfied block is
// dropped when nothing but whitespace remains, so guards on their own lines
// leave no trace. Stray closing tags are ignored and blocks left open at the
// end of the template are closed there.
func Evaluate(tokens []Token, answers Answers) []Line {
	var (
		out   []Line
		stack []bool
	)
	active := func() bool {
		return len(stack) == 0 || stack[len(stack)-1]
	}

	for _, line := range splitLines(tokens) {
		touched := !active()
		kept := Line{}

		for _, t := range line {
			switch t.Kind {
			case TokenIfOpen:
				touched = true
				ok := false
				if active() {
					if g, valid := ParseGuard(t.Text); valid {
						ok = g.Eval(answers)
					}
				}
				stack = append(stack, ok)
			case TokenIfClose:
				touched = true
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			default:
				if active() {
					kept = append(kept, t)
				} else {
					touched = true
				}
			}
		}

		if touched && kept.blank() && !kept.hasAnyMarker() {
			continue
		}
		out = append(out, kept)
	}

	return out
}

func (l Line) hasAnyMarker() bool {
	for _, t := range l {
		if t.Kind == TokenMarker {
			return true
		}
	}
	return false
}
