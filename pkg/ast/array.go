package ast

import (
	"fmt"
	"math/bits"

	"github.com/cyphal-go/dsdl/pkg/bitlen"
)

// FixedArray is an array of exactly Capacity elements, with no length
// prefix.
type FixedArray struct {
	Elem     Type
	Capacity uint
}

func (*FixedArray) isNode() {}

// NewFixedArray constructs and validates a FixedArray.
func NewFixedArray(elem Type, capacity uint) (*FixedArray, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("array capacity must be at least 1, got %d", capacity)
	}

	return &FixedArray{elem, capacity}, nil
}

// BitLengthSet implements Type: the bit-length-set of a fixed array is the
// element's bit-length-set repeated Capacity times, per §4.3.
func (a *FixedArray) BitLengthSet() bitlen.BitLengthSet {
	return bitlen.Repeat(a.Elem.BitLengthSet(), a.Capacity)
}

// AlignmentRequirement implements Type: an array's alignment is that of
// its element.
func (a *FixedArray) AlignmentRequirement() uint {
	return a.Elem.AlignmentRequirement()
}

// String implements Type.
func (a *FixedArray) String() string {
	return fmt.Sprintf("%s[%d]", a.Elem.String(), a.Capacity)
}

// VariableArray is an array of at most Capacity elements, preceded by an
// implicit unsigned length prefix.
type VariableArray struct {
	Elem     Type
	Capacity uint
}

func (*VariableArray) isNode() {}

// NewVariableArray constructs and validates a VariableArray.
func NewVariableArray(elem Type, capacity uint) (*VariableArray, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("array capacity must be at least 1, got %d", capacity)
	}

	return &VariableArray{elem, capacity}, nil
}

// PrefixBits returns the width of the implicit length prefix: the
// smallest of {8, 16, 32, 64} that is at least max(8, ceil(log2(capacity+1)))
// and at least the element's alignment requirement, per §3.5.
func (a *VariableArray) PrefixBits() uint {
	need := bitsNeededForCount(a.Capacity)
	if need < 8 {
		need = 8
	}

	if ea := a.Elem.AlignmentRequirement(); ea > need {
		need = ea
	}

	for _, candidate := range []uint{8, 16, 32, 64} {
		if candidate >= need {
			return candidate
		}
	}

	return 64
}

// bitsNeededForCount returns ceil(log2(capacity+1)), the number of bits
// needed to represent every count in [0, capacity].
func bitsNeededForCount(capacity uint) uint {
	n := capacity + 1
	if n <= 1 {
		return 1
	}

	return uint(bits.Len(uint(n - 1)))
}

// StringLike reports whether this array's element is uint8, per §3.5.
func (a *VariableArray) StringLike() bool {
	it, ok := a.Elem.(*IntType)
	return ok && !it.Signed && it.Bits == 8
}

// BitLengthSet implements Type: prefix bits followed by the repeat-range
// of the element's bit-length-set over [0, Capacity], per §4.3.
func (a *VariableArray) BitLengthSet() bitlen.BitLengthSet {
	payload := bitlen.RepeatRange(a.Elem.BitLengthSet(), a.Capacity)
	return bitlen.AddScalar(payload, a.PrefixBits())
}

// AlignmentRequirement implements Type: the prefix is always byte-aligned
// or wider, and the element's own alignment cannot exceed the prefix width
// by construction of PrefixBits, so the array's alignment is the prefix
// width.
func (a *VariableArray) AlignmentRequirement() uint {
	return a.PrefixBits()
}

// String implements Type.
func (a *VariableArray) String() string {
	return fmt.Sprintf("%s[<=%d]", a.Elem.String(), a.Capacity)
}
