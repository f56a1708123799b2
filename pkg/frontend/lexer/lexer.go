package lexer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cyphal-go/dsdl/pkg/source"
)

// Lexer scans the tokens of a single DSDL source line. It does not look
// past the end of the line: the statement grammar of §6.2 never spans
// multiple physical lines.
type Lexer struct {
	runes []rune
	pos   int
}

// New constructs a Lexer over one line of source text.
func New(line []rune) *Lexer {
	return &Lexer{runes: line}
}

// Tokenize scans every token on the line, stopping at end-of-line or at an
// unquoted '#' (the start of a trailing comment, per §6.2).
func Tokenize(line []rune) ([]Token, error) {
	l := New(line)

	var tokens []Token

	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}

		if tok.Kind == EOF {
			return tokens, nil
		}

		tokens = append(tokens, tok)
	}
}

func (l *Lexer) peek() (rune, bool) {
	if l.pos >= len(l.runes) {
		return 0, false
	}

	return l.runes[l.pos], true
}

func (l *Lexer) skipSpace() {
	for {
		r, ok := l.peek()
		if !ok || !unicode.IsSpace(r) {
			return
		}

		l.pos++
	}
}

// Next scans and returns the next token, or an EOF token once the line (or
// an unquoted comment) has been exhausted.
func (l *Lexer) Next() (Token, error) {
	l.skipSpace()

	start := l.pos

	r, ok := l.peek()
	if !ok || r == '#' {
		return Token{Kind: EOF, Span: span(start, start)}, nil
	}

	switch {
	case r == '\'' || r == '"':
		return l.scanString(r)
	case unicode.IsDigit(r):
		return l.scanNumber()
	case isIdentStart(r):
		return l.scanIdent()
	default:
		return l.scanPunct()
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentCont(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *Lexer) scanIdent() (Token, error) {
	start := l.pos
	for {
		r, ok := l.peek()
		if !ok || !isIdentCont(r) {
			break
		}

		l.pos++
	}

	return Token{Kind: Ident, Text: string(l.runes[start:l.pos]), Span: span(start, l.pos)}, nil
}

func (l *Lexer) scanNumber() (Token, error) {
	start := l.pos

	isHexDigit := func(r rune) bool {
		return unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
	}

	isBase := func(r rune) bool { return r == '_' || unicode.IsDigit(r) }

	if r, ok := l.peek(); ok && r == '0' {
		if next, ok2 := l.peekAt(1); ok2 && (next == 'x' || next == 'X') {
			l.pos += 2
			l.consumeWhile(isHexDigit)
		} else if ok2 && (next == 'o' || next == 'O') {
			l.pos += 2
			l.consumeWhile(isBase)
		} else if ok2 && (next == 'b' || next == 'B') {
			l.pos += 2
			l.consumeWhile(isBase)
		} else {
			l.consumeDecimal()
		}
	} else {
		l.consumeDecimal()
	}

	return Token{Kind: Number, Text: string(l.runes[start:l.pos]), Span: span(start, l.pos)}, nil
}

// consumeDecimal scans a decimal integer or rational literal, with
// optional '.' fraction and 'e'/'E' exponent, per §6.2.
func (l *Lexer) consumeDecimal() {
	isDigitOrSep := func(r rune) bool { return r == '_' || unicode.IsDigit(r) }

	l.consumeWhile(isDigitOrSep)

	if r, ok := l.peek(); ok && r == '.' {
		if next, ok2 := l.peekAt(1); ok2 && unicode.IsDigit(next) {
			l.pos++
			l.consumeWhile(isDigitOrSep)
		}
	}

	if r, ok := l.peek(); ok && (r == 'e' || r == 'E') {
		save := l.pos
		l.pos++

		if r2, ok2 := l.peek(); ok2 && (r2 == '+' || r2 == '-') {
			l.pos++
		}

		if r3, ok3 := l.peek(); ok3 && unicode.IsDigit(r3) {
			l.consumeWhile(isDigitOrSep)
		} else {
			l.pos = save
		}
	}
}

func (l *Lexer) consumeWhile(pred func(rune) bool) {
	for {
		r, ok := l.peek()
		if !ok || !pred(r) {
			return
		}

		l.pos++
	}
}

func (l *Lexer) peekAt(offset int) (rune, bool) {
	i := l.pos + offset
	if i >= len(l.runes) {
		return 0, false
	}

	return l.runes[i], true
}

// scanString scans a quoted string literal, honoring the escapes of §6.2:
// \r \n \t \\ \' \" \uXXXX \UXXXXXXXX, and an unescaped quote of the other
// kind.
func (l *Lexer) scanString(quote rune) (Token, error) {
	start := l.pos
	l.pos++

	var sb strings.Builder

	for {
		r, ok := l.peek()
		if !ok {
			return Token{}, fmt.Errorf("unterminated string literal")
		}

		if r == quote {
			l.pos++
			break
		}

		if r != '\\' {
			sb.WriteRune(r)
			l.pos++

			continue
		}

		esc, ok2 := l.peekAt(1)
		if !ok2 {
			return Token{}, fmt.Errorf("unterminated escape sequence")
		}

		switch esc {
		case 'r':
			sb.WriteRune('\r')
			l.pos += 2
		case 'n':
			sb.WriteRune('\n')
			l.pos += 2
		case 't':
			sb.WriteRune('\t')
			l.pos += 2
		case '\\':
			sb.WriteRune('\\')
			l.pos += 2
		case '\'':
			sb.WriteRune('\'')
			l.pos += 2
		case '"':
			sb.WriteRune('"')
			l.pos += 2
		case 'u':
			v, err := l.scanUnicodeEscape(4)
			if err != nil {
				return Token{}, err
			}

			sb.WriteRune(v)
		case 'U':
			v, err := l.scanUnicodeEscape(8)
			if err != nil {
				return Token{}, err
			}

			sb.WriteRune(v)
		default:
			return Token{}, fmt.Errorf("unrecognised escape sequence \\%c", esc)
		}
	}

	return Token{Kind: String, Text: sb.String(), Span: span(start, l.pos)}, nil
}

func (l *Lexer) scanUnicodeEscape(digits int) (rune, error) {
	l.pos += 2 // skip backslash and u/U

	if l.pos+digits > len(l.runes) {
		return 0, fmt.Errorf("truncated unicode escape")
	}

	var v rune

	for i := 0; i < digits; i++ {
		d := l.runes[l.pos+i]

		var n rune

		switch {
		case d >= '0' && d <= '9':
			n = d - '0'
		case d >= 'a' && d <= 'f':
			n = d - 'a' + 10
		case d >= 'A' && d <= 'F':
			n = d - 'A' + 10
		default:
			return 0, fmt.Errorf("invalid hex digit %q in unicode escape", d)
		}

		v = v*16 + n
	}

	l.pos += digits

	return v, nil
}

func (l *Lexer) scanPunct() (Token, error) {
	start := l.pos

	for _, m := range multiCharPunct {
		n := len([]rune(m))
		if l.pos+n <= len(l.runes) && string(l.runes[l.pos:l.pos+n]) == m {
			l.pos += n
			return Token{Kind: Punct, Text: m, Span: span(start, l.pos)}, nil
		}
	}

	l.pos++

	return Token{Kind: Punct, Text: string(l.runes[start:l.pos]), Span: span(start, l.pos)}, nil
}

func span(start, end int) source.Span { return source.NewSpan(start, end) }
