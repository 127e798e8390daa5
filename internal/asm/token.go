package asm

import "strings"

// TokenType classifies one lexical unit of an assembly source line.
// Grounded on wat/internal/token.Token's Value/Type/Line shape,
// narrowed from WAT's LParen/RParen/Ident/String/Number set to the flat
// statement-per-line grammar this format uses instead of s-expressions.
type TokenType int

const (
	TokWord TokenType = iota
	TokColon
	TokNewline
)

type Token struct {
	Value string
	Type  TokenType
	Line  int
}

// Tokenize splits src into words, one source line at a time. A ';'
// starts a line comment running to end of line. A word ending in ':'
// (and longer than one character) is split into a TokWord carrying the
// label name and a trailing TokColon, so the parser can tell "foo:" (a
// label definition) apart from "foo" (a name used as an operand)
// without re-inspecting the raw text.
func Tokenize(src string) []Token {
	var toks []Token
	for i, line := range strings.Split(src, "\n") {
		lineNo := i + 1
		if idx := strings.IndexByte(line, ';'); idx >= 0 {
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		for _, f := range fields {
			if len(f) > 1 && strings.HasSuffix(f, ":") {
				toks = append(toks, Token{Value: strings.TrimSuffix(f, ":"), Type: TokWord, Line: lineNo})
				toks = append(toks, Token{Value: ":", Type: TokColon, Line: lineNo})
				continue
			}
			toks = append(toks, Token{Value: f, Type: TokWord, Line: lineNo})
		}
		toks = append(toks, Token{Type: TokNewline, Line: lineNo})
	}
	return toks
}
