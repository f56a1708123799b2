// Package parser implements the recursive-descent, precedence-climbing
// expression evaluator of §4.2 and the line-level statement recognizer of
// §6.2, on top of the tokens produced by pkg/frontend/lexer.
package parser

import (
	"github.com/cyphal-go/dsdl/pkg/ast"
	"github.com/cyphal-go/dsdl/pkg/bitlen"
	"github.com/cyphal-go/dsdl/pkg/value"
)

// Context is implemented by the DefinitionBuilder (pkg/frontend/builder)
// and supplies the two identifier-resolution hooks an expression may call
// into while being evaluated: a bare name (local constant or `_offset_`)
// and a fully-qualified, versioned composite-type reference.
type Context interface {
	// ResolveIdentifier resolves a single bare identifier against the
	// current section, per DefinitionBuilder.resolve_top_level_identifier.
	ResolveIdentifier(name string) (value.Value, error)
	// ResolveType resolves a dotted, versioned composite-type reference,
	// per DefinitionBuilder.resolve_versioned_data_type.
	ResolveType(components []string, major uint8, minor uint8, hasMinor bool) (ast.CompositeType, error)
}

// bitLengthSetToValue wraps a BitLengthSet as the Set<Rat> that the
// `_bit_length_` expression attribute exposes, per §4.2.
func bitLengthSetToValue(bls bitlen.BitLengthSet) (value.Value, error) {
	values := bls.Values()
	members := make([]value.Value, len(values))

	for i, v := range values {
		members[i] = value.NewRatFromInt64(int64(v))
	}

	return value.NewSet(members...)
}

// findConstant looks up a named Constant attribute of a composite type.
func findConstant(ct ast.CompositeType, name string) (*ast.Constant, bool) {
	for _, a := range ct.Attributes() {
		if c, ok := a.(*ast.Constant); ok && c.Name == name {
			return c, true
		}
	}

	return nil, false
}
