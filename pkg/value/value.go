// Package value implements the expression evaluator's value model: the sum
// type { Boolean, Rational, String, Set } described in §3.4/§4.2 of the
// specification, along with its operator table.
//
// Rational values use math/big.Rat. No third-party arbitrary-precision
// rational library appears anywhere in the retrieval pack this module was
// built from, and §9 explicitly sanctions a "pre-provided bignum fraction
// library" -- math/big.Rat is exactly that for Go, and division through it
// is always exact, never a floating-point approximation.
package value

import (
	"fmt"
	"math/big"
)

// Value is the sum type produced by evaluating a DSDL expression.
type Value interface {
	// Kind identifies which variant of the sum type this value is.
	Kind() Kind
	// String renders this value the way it would appear if re-serialized
	// into source text.
	String() string
}

// Kind identifies a Value's dynamic variant.
type Kind uint8

// The four variants of the expression value sum type.
const (
	KindBool Kind = iota
	KindRat
	KindStr
	KindSet
)

// String returns a human-readable name for a Kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindRat:
		return "rational"
	case KindStr:
		return "string"
	case KindSet:
		return "set"
	default:
		return "unknown"
	}
}

// Bool is a boolean expression value.
type Bool bool

// Kind implements Value.
func (b Bool) Kind() Kind { return KindBool }

// String implements Value.
func (b Bool) String() string {
	if b {
		return "true"
	}

	return "false"
}

// Rat is an arbitrary-precision rational expression value.
type Rat struct{ *big.Rat }

// NewRatFromInt64 constructs an integral Rat.
func NewRatFromInt64(v int64) Rat {
	return Rat{big.NewRat(v, 1)}
}

// NewRatFromBigInt constructs an integral Rat from a big.Int.
func NewRatFromBigInt(v *big.Int) Rat {
	return Rat{new(big.Rat).SetInt(v)}
}

// Kind implements Value.
func (r Rat) Kind() Kind { return KindRat }

// String implements Value.
func (r Rat) String() string {
	if r.IsInt() {
		return r.Num().String()
	}

	return r.RatString()
}

// IsInt reports whether this rational has denominator 1.
func (r Rat) IsInt() bool {
	return r.Denom().Cmp(big.NewInt(1)) == 0
}

// Str is a Unicode string expression value.
type Str string

// Kind implements Value.
func (s Str) Kind() Kind { return KindStr }

// String implements Value.
func (s Str) String() string {
	return fmt.Sprintf("%q", string(s))
}

// Set is a homogeneous, immutable, non-empty collection of Values, all
// sharing the same Kind. Construction fails (see NewSet) if members do not
// share a dynamic variant, or if no members are supplied, per §3.4.
type Set struct {
	kind    Kind
	members []Value
}

// NewSet constructs a Set from the given members, which must all share the
// same Kind and must be non-empty.
func NewSet(members ...Value) (Set, error) {
	if len(members) == 0 {
		return Set{}, fmt.Errorf("sets cannot be empty")
	}

	kind := members[0].Kind()
	for _, m := range members[1:] {
		if m.Kind() != kind {
			return Set{}, fmt.Errorf("set members must share a common type: found %s and %s", kind, m.Kind())
		}
	}

	return Set{kind, dedup(members)}, nil
}

// dedup removes duplicate members (by String() equality, which is exact for
// Bool, Rat and Str; two Set members holding the same elements in a
// different order render differently and are both kept) while preserving
// encounter order.
func dedup(members []Value) []Value {
	seen := make(map[string]bool, len(members))
	out := make([]Value, 0, len(members))

	for _, m := range members {
		key := m.String()
		if !seen[key] {
			seen[key] = true
			out = append(out, m)
		}
	}

	return out
}

// Kind implements Value. The kind of a Set is always KindSet; ElemKind
// reports the kind shared by its members.
func (s Set) Kind() Kind { return KindSet }

// ElemKind returns the Kind shared by every member of this set.
func (s Set) ElemKind() Kind { return s.kind }

// Members returns the members of this set. The returned slice must not be
// mutated by the caller.
func (s Set) Members() []Value { return s.members }

// Count returns the cardinality of this set, as a Rat (per §4.2's `.count`
// attribute).
func (s Set) Count() Rat {
	return NewRatFromInt64(int64(len(s.members)))
}

// String implements Value.
func (s Set) String() string {
	out := "{"

	for i, m := range s.members {
		if i > 0 {
			out += ", "
		}

		out += m.String()
	}

	return out + "}"
}
