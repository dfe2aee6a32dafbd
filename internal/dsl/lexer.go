package dsl

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// docLexer splits a migration document into tokens. The final rule accepts
// any single character so lexing never fails on unexpected input.
var docLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `/\*(?s:.*?)\*/`},
	{Name: "LineComment", Pattern: `//[^\n]*`},
	{Name: "Variable", Pattern: `\$[A-Za-z_]\w*`},
	{Name: "String", Pattern: `'(?:\\.|[^'\\])*'|"(?:\\.|[^"\\])*"`},
	{Name: "Ident", Pattern: `[A-Za-z_]\w*`},
	{Name: "Number", Pattern: `[0-9]+(?:\.[0-9]+)?`},
	{Name: "Arrow", Pattern: `->`},
	{Name: "Scope", Pattern: `::`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Punct", Pattern: `\S`},
})

var (
	symbols = docLexer.Symbols()

	tokComment     = symbols["Comment"]
	tokLineComment = symbols["LineComment"]
	tokVariable    = symbols["Variable"]
	tokString      = symbols["String"]
	tokIdent       = symbols["Ident"]
	tokArrow       = symbols["Arrow"]
	tokScope       = symbols["Scope"]
	tokWhitespace  = symbols["Whitespace"]
	tokPunct       = symbols["Punct"]
)

// tokenize returns the significant tokens of text. Block comments are kept
// because the modeling block lives in one.
func tokenize(text string) ([]lexer.Token, error) {
	lex, err := docLexer.LexString("", text)
	if err != nil {
		return nil, err
	}
	all, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, t := range all {
		if t.EOF() || t.Type == tokWhitespace || t.Type == tokLineComment {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

var unescaper = strings.NewReplacer(`\\`, `\`, `\'`, `'`, `\"`, `"`)

// unquote strips the quotes of a PHP string literal.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	return unescaper.Replace(s[1 : len(s)-1])
}
