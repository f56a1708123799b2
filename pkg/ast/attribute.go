package ast

import (
	"fmt"
	"math"
	"math/big"

	"github.com/cyphal-go/dsdl/pkg/value"
)

// Attribute is implemented by the three kinds of composite member: Field,
// PaddingField, and Constant, per §4.4.
type Attribute interface {
	Node
	// Doc returns the doc comment attached to this attribute, or "" if
	// none was given.
	Doc() string
}

// Field is a named, typed member of a composite. Void-typed fields are
// rejected by NewField; use PaddingField instead.
type Field struct {
	FieldType Type
	Name      string
	doc       string
}

func (*Field) isNode() {}

// NewField constructs and validates a Field.
func NewField(t Type, name string, doc string) (*Field, error) {
	if err := ValidateNameComponent(name); err != nil {
		return nil, fmt.Errorf("invalid field name: %w", err)
	}

	if _, isVoid := t.(*Void); isVoid {
		return nil, fmt.Errorf("field %q cannot have a void type; use a padding field instead", name)
	}

	return &Field{t, name, doc}, nil
}

// Doc implements Attribute.
func (f *Field) Doc() string { return f.doc }

// PaddingField is an unnamed, void-typed member used purely to introduce
// padding into a structure's layout.
type PaddingField struct {
	VoidType *Void
	doc      string
}

func (*PaddingField) isNode() {}

// NewPaddingField constructs a PaddingField.
func NewPaddingField(t *Void, doc string) *PaddingField {
	return &PaddingField{t, doc}
}

// Doc implements Attribute.
func (p *PaddingField) Doc() string { return p.doc }

// Constant is a named, compile-time value of a primitive type.
type Constant struct {
	ConstType Type
	Name      string
	Value     value.Value
	doc       string
}

func (*Constant) isNode() {}

// NewConstant constructs and validates a Constant, checking the
// type/value compatibility rules of §4.4: Bool type requires a Bool
// value; Int/Float types require a Rat value (or, for uint8 only, a
// single-character string literal); and every numeric value must lie
// within the type's representable range.
func NewConstant(t Type, name string, v value.Value, doc string) (*Constant, error) {
	if err := ValidateNameComponent(name); err != nil {
		return nil, fmt.Errorf("invalid constant name: %w", err)
	}

	resolved, err := coerceConstantValue(t, v)
	if err != nil {
		return nil, fmt.Errorf("constant %q: %w", name, err)
	}

	return &Constant{t, name, resolved, doc}, nil
}

// Doc implements Attribute.
func (c *Constant) Doc() string { return c.doc }

// coerceConstantValue validates v against t's compatibility rules and
// returns the canonical Value to store (a single-character string
// literal assigned to a uint8 constant is converted to its Rat code
// point, per §4.4/§9).
func coerceConstantValue(t Type, v value.Value) (value.Value, error) {
	switch ct := t.(type) {
	case *BoolType:
		if _, ok := v.(value.Bool); !ok {
			return nil, fmt.Errorf("a bool constant requires a boolean value, got %s", v.Kind())
		}

		return v, nil
	case *IntType:
		return coerceIntConstant(ct, v)
	case *FloatType:
		rat, ok := v.(value.Rat)
		if !ok {
			return nil, fmt.Errorf("a %s constant requires a rational value, got %s", ct.String(), v.Kind())
		}

		limit := map[uint]float64{16: 65504, 32: math.MaxFloat32, 64: math.MaxFloat64}[ct.Bits]
		if new(big.Rat).Abs(rat.Rat).Cmp(new(big.Rat).SetFloat64(limit)) > 0 {
			return nil, fmt.Errorf("value %s is outside the range representable by %s", rat.RatString(), ct.String())
		}

		return rat, nil
	default:
		return nil, fmt.Errorf("type %s cannot be used for a constant", t.String())
	}
}

func coerceIntConstant(t *IntType, v value.Value) (value.Value, error) {
	if s, ok := v.(value.Str); ok {
		if t.Signed || t.Bits != 8 {
			return nil, fmt.Errorf("a string literal constant is only permitted for uint8, not %s", t.String())
		}

		runes := []rune(string(s))
		if len(runes) != 1 {
			return nil, fmt.Errorf("a uint8 string constant must be exactly one character")
		}

		encoded := string(runes[0])
		if len(encoded) != 1 {
			return nil, fmt.Errorf(
				"a uint8 string constant must encode to exactly one UTF-8 byte, got %q (%d bytes)", s, len(encoded))
		}

		return value.NewRatFromInt64(int64(encoded[0])), nil
	}

	rat, ok := v.(value.Rat)
	if !ok {
		return nil, fmt.Errorf("an integer constant requires a rational or (uint8-only) string value, got %s", v.Kind())
	}

	if !rat.IsInt() {
		return nil, fmt.Errorf("an integer constant requires an integral value, got %s", rat.RatString())
	}

	return checkIntRange(t, rat)
}

func checkIntRange(t *IntType, rat value.Rat) (value.Value, error) {
	minVal := new(big.Int)
	if t.Signed {
		minVal.Lsh(big.NewInt(1), t.Bits-1).Neg(minVal)
	}

	if rat.Num().Cmp(minVal) < 0 {
		return nil, fmt.Errorf("value %s is below the minimum representable by %s", rat.RatString(), t.String())
	}

	if rat.Num().Cmp(new(big.Int).SetUint64(t.MaxValueUint64())) > 0 {
		return nil, fmt.Errorf("value %s exceeds the maximum representable by %s", rat.RatString(), t.String())
	}

	return rat, nil
}
