package parser

import (
	"github.com/cyphal-go/dsdl/pkg/dsdlerr"
	"github.com/cyphal-go/dsdl/pkg/value"
)

// Expr is a node of the parsed expression tree, evaluated against a
// Context to produce a value.Value, per §4.2.
type Expr interface {
	Eval(ctx Context) (value.Value, error)
}

// Literal wraps an already-known compile-time value: a number, string, or
// boolean literal token.
type Literal struct {
	Value value.Value
}

// Eval implements Expr.
func (l *Literal) Eval(Context) (value.Value, error) { return l.Value, nil }

// SetLiteral evaluates each of its element expressions and collects them
// into a value.Set, per the `{e, e, ...}` grammar of §6.2.
type SetLiteral struct {
	Elems []Expr
}

// Eval implements Expr.
func (s *SetLiteral) Eval(ctx Context) (value.Value, error) {
	members := make([]value.Value, len(s.Elems))

	for i, e := range s.Elems {
		v, err := e.Eval(ctx)
		if err != nil {
			return nil, err
		}

		members[i] = v
	}

	set, err := value.NewSet(members...)
	if err != nil {
		return nil, dsdlerr.Newf(dsdlerr.InvalidOperand, "invalid set literal: %v", err)
	}

	return set, nil
}

// Unary applies a prefix operator (`!`, `+`, `-`) to its operand.
type Unary struct {
	Op string
	X  Expr
}

// Eval implements Expr.
func (u *Unary) Eval(ctx Context) (value.Value, error) {
	x, err := u.X.Eval(ctx)
	if err != nil {
		return nil, err
	}

	v, err := value.UnaryOp(u.Op, x)
	if err != nil {
		return nil, wrapOperatorError(err)
	}

	return v, nil
}

// Binary applies an infix operator to two evaluated operands.
type Binary struct {
	Op   string
	L, R Expr
}

// Eval implements Expr.
func (b *Binary) Eval(ctx Context) (value.Value, error) {
	l, err := b.L.Eval(ctx)
	if err != nil {
		return nil, err
	}

	r, err := b.R.Eval(ctx)
	if err != nil {
		return nil, err
	}

	v, err := value.BinaryOp(b.Op, l, r)
	if err != nil {
		return nil, wrapOperatorError(err)
	}

	return v, nil
}

func wrapOperatorError(err error) error {
	if opErr, ok := err.(*value.OpError); ok && opErr.Undefined {
		return dsdlerr.Newf(dsdlerr.UndefinedOperator, "%v", err)
	}

	return dsdlerr.Newf(dsdlerr.InvalidOperand, "%v", err)
}

// Ident resolves a single bare identifier -- a local constant name, or
// the `_offset_` pseudo-identifier -- against the Context in scope.
type Ident struct {
	Name string
}

// Eval implements Expr.
func (i *Ident) Eval(ctx Context) (value.Value, error) {
	v, err := ctx.ResolveIdentifier(i.Name)
	if err != nil {
		return nil, err
	}

	return v, nil
}

// TypeAttr resolves a fully-qualified, versioned composite-type
// reference and immediately accesses one attribute of it: a named
// Constant, or the synthetic `_bit_length_`/`_extent_` attributes of
// §4.2 available on any type.
type TypeAttr struct {
	Components []string
	Major      uint8
	Minor      uint8
	HasMinor   bool
	Attr       string
}

// Eval implements Expr.
func (t *TypeAttr) Eval(ctx Context) (value.Value, error) {
	ct, err := ctx.ResolveType(t.Components, t.Major, t.Minor, t.HasMinor)
	if err != nil {
		return nil, err
	}

	switch t.Attr {
	case "_bit_length_":
		return bitLengthSetToValue(ct.BitLengthSet())
	case "_extent_":
		return value.NewRatFromInt64(int64(ct.Extent())), nil
	default:
		c, ok := findConstant(ct, t.Attr)
		if !ok {
			return nil, dsdlerr.Newf(dsdlerr.UndefinedAttribute,
				"%s has no constant attribute %q", ct.FullName().String(), t.Attr)
		}

		return c.Value, nil
	}
}

// Attr accesses a named attribute of an already-evaluated value: `min`,
// `max`, or `count` on a Set. Any other name, or a base that is not a Set,
// is an UndefinedAttribute error; `_bit_length_` and `_extent_` are
// handled by TypeAttr, on a composite-type reference.
type Attr struct {
	Base Expr
	Name string
}

// Eval implements Expr.
func (a *Attr) Eval(ctx Context) (value.Value, error) {
	base, err := a.Base.Eval(ctx)
	if err != nil {
		return nil, err
	}

	set, ok := base.(value.Set)
	if !ok {
		return nil, dsdlerr.Newf(dsdlerr.UndefinedAttribute, "%s has no attribute %q", base.Kind(), a.Name)
	}

	switch a.Name {
	case "min":
		return set.Min()
	case "max":
		return set.Max()
	case "count":
		c := set.Count()
		return c, nil
	default:
		return nil, dsdlerr.Newf(dsdlerr.UndefinedAttribute, "set has no attribute %q", a.Name)
	}
}
