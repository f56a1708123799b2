package ast

import (
	"fmt"

	"github.com/cyphal-go/dsdl/pkg/bitlen"
)

// Node is the marker interface implemented by every AST node produced by
// the builder. All concrete node types are used by pointer, so identity
// equality is well defined.
type Node interface {
	isNode()
}

// Type is the common interface satisfied by every serializable type
// variant of §3.5: Void, Bool, Int, Float, FixedArray, VariableArray,
// StructureType, UnionType, and DelimitedType.
type Type interface {
	Node
	// BitLengthSet returns the set of possible serialized bit lengths of
	// a value of this type.
	BitLengthSet() bitlen.BitLengthSet
	// AlignmentRequirement returns the power-of-two bit alignment this
	// type imposes on its own offset within an enclosing composite.
	AlignmentRequirement() uint
	// String renders this type the way it would appear in source text.
	String() string
}

// CastMode controls how an out-of-range value is mapped onto a primitive
// type's representable range.
type CastMode uint8

// The two cast modes recognised by the grammar (§6.2); saturated is the
// default when neither keyword is written.
const (
	Saturated CastMode = iota
	Truncated
)

// String renders a CastMode as its source-text keyword: "saturated" (the
// default) or "truncated".
func (m CastMode) String() string {
	if m == Truncated {
		return "truncated"
	}

	return "saturated"
}

// ============================================================================
// Void
// ============================================================================

// Void is a padding-only type occupying a fixed number of bits, per §3.5.
type Void struct {
	Bits uint
}

func (*Void) isNode() {}

// NewVoid constructs a Void type, validating that Bits lies in [1, 64].
func NewVoid(bits uint) (*Void, error) {
	if bits < 1 || bits > 64 {
		return nil, fmt.Errorf("void bit length must be in [1, 64], got %d", bits)
	}

	return &Void{bits}, nil
}

// BitLengthSet implements Type.
func (v *Void) BitLengthSet() bitlen.BitLengthSet { return bitlen.FromValues(v.Bits) }

// AlignmentRequirement implements Type: primitives are always byte-unaligned
// at the type level (alignment 1); the enclosing composite is responsible
// for padding to its own 8-bit floor.
func (v *Void) AlignmentRequirement() uint { return 1 }

// String implements Type.
func (v *Void) String() string { return fmt.Sprintf("void%d", v.Bits) }

// ============================================================================
// Bool
// ============================================================================

// BoolType is the 1-bit boolean primitive. It is always saturated; the
// cast mode keyword has no effect for bool and is accepted but ignored by
// the parser layer, matching the grammar of §6.2.
type BoolType struct{}

func (*BoolType) isNode() {}

// BitLengthSet implements Type.
func (*BoolType) BitLengthSet() bitlen.BitLengthSet { return bitlen.FromValues(1) }

// AlignmentRequirement implements Type.
func (*BoolType) AlignmentRequirement() uint { return 1 }

// String implements Type.
func (*BoolType) String() string { return "bool" }

// ============================================================================
// Int
// ============================================================================

// IntType is a fixed-width signed or unsigned integer primitive.
type IntType struct {
	Signed bool
	Bits   uint
	Mode   CastMode
}

func (*IntType) isNode() {}

// NewIntType constructs and validates an IntType: signed widths lie in
// [2, 64] and are always saturated; unsigned widths lie in [1, 64] and may
// be saturated or truncated.
func NewIntType(signed bool, bits uint, mode CastMode) (*IntType, error) {
	if signed {
		if bits < 2 || bits > 64 {
			return nil, fmt.Errorf("signed integer bit length must be in [2, 64], got %d", bits)
		}

		if mode == Truncated {
			return nil, fmt.Errorf("signed integers do not support truncated cast mode")
		}
	} else if bits < 1 || bits > 64 {
		return nil, fmt.Errorf("unsigned integer bit length must be in [1, 64], got %d", bits)
	}

	return &IntType{signed, bits, mode}, nil
}

// BitLengthSet implements Type.
func (t *IntType) BitLengthSet() bitlen.BitLengthSet { return bitlen.FromValues(t.Bits) }

// AlignmentRequirement implements Type.
func (t *IntType) AlignmentRequirement() uint { return 1 }

// MinValue returns the smallest value representable by this type.
func (t *IntType) MinValue() (min int64, exact bool) {
	if !t.Signed {
		return 0, true
	}

	if t.Bits >= 64 {
		return 0, false
	}

	return -(int64(1) << (t.Bits - 1)), true
}

// MaxValueUint64 returns the largest value representable by this type.
func (t *IntType) MaxValueUint64() uint64 {
	if t.Signed {
		if t.Bits-1 >= 64 {
			return ^uint64(0)
		}

		return (uint64(1) << (t.Bits - 1)) - 1
	}

	if t.Bits >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << t.Bits) - 1
}

// String implements Type.
func (t *IntType) String() string {
	kind := "uint"
	if t.Signed {
		kind = "int"
	}

	prefix := ""
	if t.Mode == Truncated {
		prefix = "truncated "
	}

	return fmt.Sprintf("%s%s%d", prefix, kind, t.Bits)
}

// ============================================================================
// Float
// ============================================================================

// FloatType is an IEEE-754 binary floating point primitive of 16, 32, or
// 64 bits.
type FloatType struct {
	Bits uint
	Mode CastMode
}

func (*FloatType) isNode() {}

// NewFloatType constructs and validates a FloatType.
func NewFloatType(bits uint, mode CastMode) (*FloatType, error) {
	if bits != 16 && bits != 32 && bits != 64 {
		return nil, fmt.Errorf("float bit length must be one of {16, 32, 64}, got %d", bits)
	}

	return &FloatType{bits, mode}, nil
}

// BitLengthSet implements Type.
func (t *FloatType) BitLengthSet() bitlen.BitLengthSet { return bitlen.FromValues(t.Bits) }

// AlignmentRequirement implements Type.
func (t *FloatType) AlignmentRequirement() uint { return 1 }

// String implements Type.
func (t *FloatType) String() string {
	prefix := ""
	if t.Mode == Truncated {
		prefix = "truncated "
	}

	return fmt.Sprintf("%sfloat%d", prefix, t.Bits)
}
