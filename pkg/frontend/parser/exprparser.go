package parser

import (
	"fmt"

	"github.com/cyphal-go/dsdl/pkg/frontend/lexer"
	"github.com/cyphal-go/dsdl/pkg/value"
)

// precedence assigns each binary operator the tier of §4.2 ("lowest to
// highest: logical, comparison, bitwise, additive, multiplicative,
// exponential"); a higher number binds tighter.
var precedence = map[string]int{
	"||": 1, "&&": 1,
	"==": 2, "!=": 2, "<": 2, "<=": 2, ">": 2, ">=": 2,
	"|": 3, "^": 3, "&": 3,
	"+": 4, "-": 4,
	"*": 5, "/": 5, "%": 5,
	"**": 6,
}

// rightAssoc marks the one operator (exponentiation) that associates
// right-to-left.
var rightAssoc = map[string]bool{"**": true}

// ExprParser parses one expression out of a token stream produced by
// pkg/frontend/lexer, using precedence climbing.
type ExprParser struct {
	tokens []lexer.Token
	pos    int
}

// NewExprParser constructs a parser over the given token slice.
func NewExprParser(tokens []lexer.Token) *ExprParser {
	return &ExprParser{tokens: tokens}
}

func (p *ExprParser) peek() (lexer.Token, bool) {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.EOF}, false
	}

	return p.tokens[p.pos], true
}

func (p *ExprParser) advance() lexer.Token {
	t := p.tokens[p.pos]
	p.pos++

	return t
}

// AtEnd reports whether every token has been consumed.
func (p *ExprParser) AtEnd() bool { return p.pos >= len(p.tokens) }

// ParseExpr parses a complete expression, per the precedence table of
// §4.2.
func (p *ExprParser) ParseExpr() (Expr, error) {
	return p.parseBinary(1)
}

func (p *ExprParser) parseBinary(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != lexer.Punct {
			return left, nil
		}

		prec, isOp := precedence[tok.Text]
		if !isOp || prec < minPrec {
			return left, nil
		}

		p.advance()

		nextMin := prec + 1
		if rightAssoc[tok.Text] {
			nextMin = prec
		}

		right, err := p.parseBinary(nextMin)
		if err != nil {
			return nil, err
		}

		left = &Binary{Op: tok.Text, L: left, R: right}
	}
}

func (p *ExprParser) parseUnary() (Expr, error) {
	if tok, ok := p.peek(); ok && tok.Kind == lexer.Punct && (tok.Text == "!" || tok.Text == "+" || tok.Text == "-") {
		p.advance()

		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return &Unary{Op: tok.Text, X: x}, nil
	}

	return p.parsePostfix()
}

// parsePostfix parses an atom followed by zero or more `.name` attribute
// accesses.
func (p *ExprParser) parsePostfix() (Expr, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != lexer.Punct || tok.Text != "." {
			return base, nil
		}

		p.advance()

		name, ok := p.peek()
		if !ok || name.Kind != lexer.Ident {
			return nil, fmt.Errorf("expected an attribute name after '.'")
		}

		p.advance()

		base = &Attr{Base: base, Name: name.Text}
	}
}

func (p *ExprParser) parseAtom() (Expr, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of expression")
	}

	switch tok.Kind {
	case lexer.Number:
		p.advance()

		rat, err := lexer.ParseNumber(tok.Text)
		if err != nil {
			return nil, err
		}

		return &Literal{Value: value.Rat{Rat: rat}}, nil
	case lexer.String:
		p.advance()
		return &Literal{Value: value.Str(tok.Text)}, nil
	case lexer.Ident:
		if tok.Text == "true" || tok.Text == "false" {
			p.advance()
			return &Literal{Value: value.Bool(tok.Text == "true")}, nil
		}

		return p.parseIdentOrTypeRef()
	case lexer.Punct:
		switch tok.Text {
		case "(":
			p.advance()

			e, err := p.ParseExpr()
			if err != nil {
				return nil, err
			}

			if c, ok := p.peek(); !ok || c.Text != ")" {
				return nil, fmt.Errorf("expected closing ')'")
			}

			p.advance()

			return e, nil
		case "{":
			return p.parseSetLiteral()
		}
	}

	return nil, fmt.Errorf("unexpected token %q", tok.Text)
}

func (p *ExprParser) parseSetLiteral() (Expr, error) {
	p.advance() // consume '{'

	var elems []Expr

	if tok, ok := p.peek(); ok && tok.Text == "}" {
		p.advance()
		return &SetLiteral{}, nil
	}

	for {
		e, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}

		elems = append(elems, e)

		tok, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated set literal")
		}

		if tok.Text == "," {
			p.advance()
			continue
		}

		if tok.Text == "}" {
			p.advance()
			return &SetLiteral{Elems: elems}, nil
		}

		return nil, fmt.Errorf("expected ',' or '}' in set literal, got %q", tok.Text)
	}
}

// parseIdentOrTypeRef parses an identifier and, if followed by further
// dotted namespace components and a version suffix, a full composite
// type reference (`ns.sub.Type.MAJOR[.MINOR]`) immediately followed by
// its mandatory attribute access.
func (p *ExprParser) parseIdentOrTypeRef() (Expr, error) {
	first := p.advance()
	components := []string{first.Text}

	for {
		dot, ok := p.peek()
		if !ok || dot.Text != "." {
			break
		}

		after, ok2 := p.peekAt(1)
		if !ok2 {
			break
		}

		if after.Kind == lexer.Ident {
			p.advance() // '.'
			p.advance() // ident
			components = append(components, after.Text)

			continue
		}

		break
	}

	if len(components) == 1 {
		if dot, ok := p.peek(); ok && dot.Text == "." {
			if num, ok2 := p.peekAt(1); !ok2 || num.Kind != lexer.Number {
				return &Ident{Name: components[0]}, nil
			}
		} else {
			return &Ident{Name: components[0]}, nil
		}
	}

	major, minor, hasMinor, ok := p.parseVersionSuffix()
	if !ok {
		if len(components) == 1 {
			return &Ident{Name: components[0]}, nil
		}

		return nil, fmt.Errorf("composite type reference %v is missing its .MAJOR version suffix", components)
	}

	dot, ok := p.peek()
	if !ok || dot.Text != "." {
		return nil, fmt.Errorf("composite type reference %v.%d is missing a trailing attribute access", components, major)
	}

	p.advance()

	attr, ok := p.peek()
	if !ok || attr.Kind != lexer.Ident {
		return nil, fmt.Errorf("expected an attribute name after composite type reference")
	}

	p.advance()

	return &TypeAttr{Components: components, Major: major, Minor: minor, HasMinor: hasMinor, Attr: attr.Text}, nil
}

// parseVersionSuffix consumes a `.MAJOR` or `.MAJOR.MINOR` suffix if
// present.
func (p *ExprParser) parseVersionSuffix() (major, minor uint8, hasMinor bool, ok bool) {
	dot, present := p.peek()
	if !present || dot.Text != "." {
		return 0, 0, false, false
	}

	numTok, present2 := p.peekAt(1)
	if !present2 || numTok.Kind != lexer.Number {
		return 0, 0, false, false
	}

	p.advance() // '.'
	p.advance() // major

	majorVal, err := lexer.ParseNumber(numTok.Text)
	if err != nil || !majorVal.IsInt() {
		return 0, 0, false, false
	}

	major = uint8(majorVal.Num().Uint64())

	if dot2, ok2 := p.peek(); ok2 && dot2.Text == "." {
		if minTok, ok3 := p.peekAt(1); ok3 && minTok.Kind == lexer.Number {
			p.advance()
			p.advance()

			minorVal, err := lexer.ParseNumber(minTok.Text)
			if err == nil && minorVal.IsInt() {
				minor = uint8(minorVal.Num().Uint64())
				hasMinor = true
			}
		}
	}

	return major, minor, hasMinor, true
}

func (p *ExprParser) peekAt(offset int) (lexer.Token, bool) {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return lexer.Token{Kind: lexer.EOF}, false
	}

	return p.tokens[i], true
}
