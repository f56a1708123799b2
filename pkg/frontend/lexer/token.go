// Package lexer tokenises a single line of DSDL source text. The grammar is
// line-oriented (§6.2): each statement -- constant, field, padding, directive,
// or the bare "---" service-response marker -- occupies exactly one line, so
// unlike the teacher's combinator-based pkg/util/source/lex scanner (built for
// a free-form s-expression language), this lexer is a small hand-rolled
// rune scanner invoked once per line by the statement parser.
package lexer

import "github.com/cyphal-go/dsdl/pkg/source"

// Kind enumerates the categories of token produced by the lexer.
type Kind uint8

const (
	Ident Kind = iota
	Number
	String
	Punct
	EOF
)

func (k Kind) String() string {
	switch k {
	case Ident:
		return "identifier"
	case Number:
		return "number"
	case String:
		return "string"
	case Punct:
		return "punctuation"
	default:
		return "end-of-line"
	}
}

// Token is a single lexical item together with its span within the line it
// was scanned from.
type Token struct {
	Kind Kind
	Text string
	Span source.Span
}

// multiCharPunct lists the punctuation sequences that must be matched before
// falling back to a single character. No entry is a prefix of another, so
// the order of the list does not affect matching.
var multiCharPunct = []string{
	"<=", ">=", "==", "!=", "&&", "||", "**", "---",
}
