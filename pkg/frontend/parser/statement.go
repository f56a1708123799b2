package parser

import (
	"fmt"
	"strings"

	"github.com/cyphal-go/dsdl/pkg/ast"
	"github.com/cyphal-go/dsdl/pkg/frontend/lexer"
)

// StatementKind classifies one logical line of DSDL source, per the
// statement grammar of §6.2.
type StatementKind uint8

const (
	// Blank is an empty or whitespace-only line; it carries no
	// information, and the builder ignores it.
	Blank StatementKind = iota
	// Comment is a `#`-prefixed line (after any leading whitespace).
	Comment
	// ServiceResponseMarker is a line consisting solely of `---`.
	ServiceResponseMarker
	// FieldDecl is `TYPE NAME`.
	FieldDecl
	// PaddingDecl is a bare `voidN`.
	PaddingDecl
	// ConstantDecl is `TYPE NAME = EXPR`.
	ConstantDecl
	// Directive is `@name` or `@name EXPR`.
	Directive
)

// Statement is the parsed, type-resolved form of one source line.
type Statement struct {
	Kind StatementKind

	CommentText string // Comment

	FieldType ast.Type // FieldDecl, ConstantDecl
	Name      string   // FieldDecl, ConstantDecl
	ValueExpr Expr     // ConstantDecl

	DirectiveName string // Directive
	DirectiveExpr Expr   // Directive, nil if none given
}

// ParseStatement classifies and parses one physical source line. ctx is
// consulted only while resolving composite-type references that appear
// in a field or constant's type.
func ParseStatement(line []rune, ctx Context) (Statement, error) {
	trimmed := strings.TrimSpace(string(line))

	if trimmed == "" {
		return Statement{Kind: Blank}, nil
	}

	if strings.HasPrefix(trimmed, "#") {
		return Statement{Kind: Comment, CommentText: strings.TrimPrefix(trimmed, "#")}, nil
	}

	if trimmed == "---" {
		return Statement{Kind: ServiceResponseMarker}, nil
	}

	tokens, err := lexer.Tokenize(line)
	if err != nil {
		return Statement{}, err
	}

	if len(tokens) == 0 {
		return Statement{Kind: Blank}, nil
	}

	if tokens[0].Kind == lexer.Punct && tokens[0].Text == "@" {
		return parseDirective(tokens[1:])
	}

	return parseFieldOrConstant(tokens, ctx)
}

func parseDirective(tokens []lexer.Token) (Statement, error) {
	if len(tokens) == 0 || tokens[0].Kind != lexer.Ident {
		return Statement{}, fmt.Errorf("expected a directive name after '@'")
	}

	name := tokens[0].Text
	rest := tokens[1:]

	if len(rest) == 0 {
		return Statement{Kind: Directive, DirectiveName: name}, nil
	}

	ep := NewExprParser(rest)

	expr, err := ep.ParseExpr()
	if err != nil {
		return Statement{}, fmt.Errorf("directive @%s: %w", name, err)
	}

	if !ep.AtEnd() {
		return Statement{}, fmt.Errorf("directive @%s has trailing tokens after its expression", name)
	}

	return Statement{Kind: Directive, DirectiveName: name, DirectiveExpr: expr}, nil
}

func parseFieldOrConstant(tokens []lexer.Token, ctx Context) (Statement, error) {
	t, rest, err := ParseType(tokens, ctx)
	if err != nil {
		return Statement{}, err
	}

	if len(rest) == 0 {
		if _, isVoid := t.(*ast.Void); isVoid {
			return Statement{Kind: PaddingDecl, FieldType: t}, nil
		}

		return Statement{}, fmt.Errorf("a field must have a name")
	}

	if rest[0].Kind != lexer.Ident {
		return Statement{}, fmt.Errorf("expected a field or constant name")
	}

	name := rest[0].Text
	rest = rest[1:]

	if len(rest) == 0 {
		return Statement{Kind: FieldDecl, FieldType: t, Name: name}, nil
	}

	if rest[0].Text != "=" {
		return Statement{}, fmt.Errorf("unexpected token %q after name %q", rest[0].Text, name)
	}

	ep := NewExprParser(rest[1:])

	expr, err := ep.ParseExpr()
	if err != nil {
		return Statement{}, fmt.Errorf("constant %q: %w", name, err)
	}

	if !ep.AtEnd() {
		return Statement{}, fmt.Errorf("constant %q has trailing tokens after its value expression", name)
	}

	return Statement{Kind: ConstantDecl, FieldType: t, Name: name, ValueExpr: expr}, nil
}
