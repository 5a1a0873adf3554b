package lease

import "strings"

// TokenKind identifies the kind of a template token.
type TokenKind int

const (
	TokenLiteral TokenKind = iota
	TokenPlaceholder
	TokenIfOpen
	TokenIfClose
	TokenMarker
)

func (k TokenKind) String() string {
	switch k {
	case TokenLiteral:
		return "literal"
	case TokenPlaceholder:
		return "placeholder"
	case TokenIfOpen:
		return "if-open"
	case TokenIfClose:
		return "if-close"
	case TokenMarker:
		return "marker"
	default:
		return "unknown"
	}
}

// Token is one lexical element of a template. Text holds the literal text,
// the placeholder key, the guard expression or the marker name.
type Token struct {
	Kind TokenKind
	Text string
}

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Lex splits a template into tokens. An opening "{{" without a matching
// "}}" is dropped and the text after it kept as literal. Block tags other
// than #if and /if are dropped.
func Lex(template string) []Token {
	var tokens []Token
	rest := template

	for rest != "" {
		start := strings.Index(rest, openDelim)
		if start < 0 {
			tokens = appendLiteral(tokens, rest)
			break
		}
		end := strings.Index(rest[start+len(openDelim):], closeDelim)
		if end < 0 {
			tokens = appendLiteral(tokens, rest[:start])
			tokens = appendLiteral(tokens, strings.ReplaceAll(rest[start:], openDelim, ""))
			break
		}
		end += start + len(openDelim)

		tokens = appendLiteral(tokens, rest[:start])
		if tok, ok := classify(rest[start+len(openDelim) : end]); ok {
			tokens = append(tokens, tok)
		}
		rest = rest[end+len(closeDelim):]
	}

	return tokens
}

func classify(inner string) (Token, bool) {
	inner = strings.TrimSpace(inner)
	switch {
	case inner == "#if" || strings.HasPrefix(inner, "#if ") || strings.HasPrefix(inner, "#if\t"):
		return Token{Kind: TokenIfOpen, Text: strings.TrimSpace(inner[len("#if"):])}, true
	case inner == "/if":
		return Token{Kind: TokenIfClose}, true
	case strings.HasPrefix(inner, "#") || strings.HasPrefix(inner, "/"):
		return Token{}, false
	case strings.HasPrefix(inner, "@"):
		return Token{Kind: TokenMarker, Text: strings.TrimSpace(inner[1:])}, true
	default:
		return Token{Kind: TokenPlaceholder, Text: inner}, true
	}
}

func appendLiteral(tokens []Token, s string) []Token {
	if s == "" {
		return tokens
	}
	if n := len(tokens); n > 0 && tokens[n-1].Kind == TokenLiteral {
		tokens[n-1].Text += s
		return tokens
	}
	return append(tokens, Token{Kind: TokenLiteral, Text: s})
}
