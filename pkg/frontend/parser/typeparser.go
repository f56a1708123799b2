package parser

import (
	"fmt"
	"strconv"

	"github.com/cyphal-go/dsdl/pkg/ast"
	"github.com/cyphal-go/dsdl/pkg/frontend/lexer"
)

// ParseType parses one type reference from the front of tokens against
// ctx, per the type grammar summarized in §6.2: a primitive (optionally
// cast-mode qualified), a void, or a composite reference, any of which may
// be wrapped in one array suffix. It returns the parsed type together
// with the tokens remaining after it (the field/constant name, `=`, or
// nothing).
func ParseType(tokens []lexer.Token, ctx Context) (ast.Type, []lexer.Token, error) {
	tp := &typeParser{tokens: tokens, ctx: ctx}

	t, err := tp.parseElement()
	if err != nil {
		return nil, nil, err
	}

	if tok, ok := tp.peek(); ok && tok.Text == "[" {
		t, err = tp.parseArraySuffix(t)
		if err != nil {
			return nil, nil, err
		}
	}

	return t, tp.tokens[tp.pos:], nil
}

type typeParser struct {
	tokens []lexer.Token
	pos    int
	ctx    Context
}

func (p *typeParser) atEnd() bool { return p.pos >= len(p.tokens) }

func (p *typeParser) peek() (lexer.Token, bool) {
	if p.atEnd() {
		return lexer.Token{Kind: lexer.EOF}, false
	}

	return p.tokens[p.pos], true
}

func (p *typeParser) peekAt(offset int) (lexer.Token, bool) {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return lexer.Token{Kind: lexer.EOF}, false
	}

	return p.tokens[i], true
}

func (p *typeParser) advance() lexer.Token {
	t := p.tokens[p.pos]
	p.pos++

	return t
}

// parseElement parses one non-array type atom: a primitive, void, or
// composite reference.
func (p *typeParser) parseElement() (ast.Type, error) {
	tok, ok := p.peek()
	if !ok || tok.Kind != lexer.Ident {
		return nil, fmt.Errorf("expected a type name")
	}

	mode := ast.Saturated

	if tok.Text == "saturated" || tok.Text == "truncated" {
		if tok.Text == "truncated" {
			mode = ast.Truncated
		}

		p.advance()

		tok, ok = p.peek()
		if !ok || tok.Kind != lexer.Ident {
			return nil, fmt.Errorf("expected a primitive type name after cast mode")
		}
	}

	if t, ok := parsePrimitiveName(tok.Text, mode); ok {
		p.advance()
		return t, nil
	}

	if n, ok := parseVoidName(tok.Text); ok {
		p.advance()
		return ast.NewVoid(n)
	}

	return p.parseCompositeReference()
}

// parsePrimitiveName recognizes `bool`, `uintN`, `intN`, `floatN`.
func parsePrimitiveName(name string, mode ast.CastMode) (ast.Type, bool) {
	if name == "bool" {
		return &ast.BoolType{}, true
	}

	if n, ok := parseSuffixedWidth(name, "uint"); ok {
		t, err := ast.NewIntType(false, n, mode)
		return t, err == nil
	}

	if n, ok := parseSuffixedWidth(name, "int"); ok {
		t, err := ast.NewIntType(true, n, mode)
		return t, err == nil
	}

	if n, ok := parseSuffixedWidth(name, "float"); ok {
		t, err := ast.NewFloatType(n, mode)
		return t, err == nil
	}

	return nil, false
}

func parseVoidName(name string) (uint, bool) {
	n, ok := parseSuffixedWidth(name, "void")
	return n, ok
}

func parseSuffixedWidth(name, prefix string) (uint, bool) {
	if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
		return 0, false
	}

	n, err := strconv.Atoi(name[len(prefix):])
	if err != nil || n < 0 {
		return 0, false
	}

	return uint(n), true
}

// parseCompositeReference parses a dotted namespace path followed by a
// mandatory `.MAJOR` or `.MAJOR.MINOR` version suffix, and resolves it
// via the Context.
func (p *typeParser) parseCompositeReference() (ast.Type, error) {
	var components []string

	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != lexer.Ident {
			return nil, fmt.Errorf("expected a type name component")
		}

		p.advance()
		components = append(components, tok.Text)

		dot, ok := p.peek()
		if !ok || dot.Text != "." {
			return nil, fmt.Errorf("composite type reference %v is missing its .MAJOR version suffix", components)
		}

		next, ok2 := p.peekAt(1)
		if ok2 && next.Kind == lexer.Number {
			break
		}

		p.advance() // consume '.' and continue the namespace chain
	}

	p.advance() // '.'

	majorTok := p.advance()

	major, err := parseVersionComponent(majorTok.Text)
	if err != nil {
		return nil, err
	}

	var (
		minor    uint8
		hasMinor bool
	)

	if dot, ok := p.peek(); ok && dot.Text == "." {
		if minTok, ok2 := p.peekAt(1); ok2 && minTok.Kind == lexer.Number {
			p.advance()

			minorTokRead := p.advance()

			minor, err = parseVersionComponent(minorTokRead.Text)
			if err != nil {
				return nil, err
			}

			hasMinor = true
		}
	}

	ct, err := p.ctx.ResolveType(components, major, minor, hasMinor)
	if err != nil {
		return nil, err
	}

	return ct, nil
}

func parseVersionComponent(text string) (uint8, error) {
	n, err := strconv.Atoi(text)
	if err != nil || n < 0 || n > 255 {
		return 0, fmt.Errorf("invalid version component %q", text)
	}

	return uint8(n), nil
}

// parseArraySuffix parses a trailing `[N]`, `[<=N]`, or `[<N]` array
// suffix wrapping the given element type.
func (p *typeParser) parseArraySuffix(elem ast.Type) (ast.Type, error) {
	open, ok := p.peek()
	if !ok || open.Text != "[" {
		return nil, fmt.Errorf("expected '[' to begin an array suffix")
	}

	p.advance()

	variable := false
	exclusive := false

	if tok, ok := p.peek(); ok && tok.Text == "<=" {
		variable = true
		p.advance()
	} else if tok, ok := p.peek(); ok && tok.Text == "<" {
		variable = true
		exclusive = true
		p.advance()
	}

	numTok, ok := p.peek()
	if !ok || numTok.Kind != lexer.Number {
		return nil, fmt.Errorf("expected an array capacity")
	}

	p.advance()

	rat, err := lexer.ParseNumber(numTok.Text)
	if err != nil || !rat.IsInt() {
		return nil, fmt.Errorf("array capacity %q is not an integer", numTok.Text)
	}

	n := rat.Num().Uint64()

	closeTok, ok := p.peek()
	if !ok || closeTok.Text != "]" {
		return nil, fmt.Errorf("expected ']' to close an array suffix")
	}

	p.advance()

	if !variable {
		return ast.NewFixedArray(elem, uint(n))
	}

	capacity := uint(n)
	if exclusive {
		if capacity == 0 {
			return nil, fmt.Errorf("an exclusive array bound must be at least 1")
		}

		capacity--
	}

	return ast.NewVariableArray(elem, capacity)
}
