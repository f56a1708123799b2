package ast

import (
	"fmt"

	"github.com/cyphal-go/dsdl/pkg/bitlen"
	"github.com/cyphal-go/dsdl/pkg/dsdlerr"
)

// Fixed port-ID ranges, per §3.6/§6.4. Only the "any" (non-regulated)
// upper bounds are enforced at the type-model layer; the additional
// regulated-range / standard-namespace checks are applied later, by the
// builder's finalization step, where the allow_unregulated_fixed_port_id
// toggle is in scope.
const (
	MaxSubjectID = 8191
	MaxServiceID = 511
)

// CompositeType is the common interface satisfied by StructureType,
// UnionType, and DelimitedType: the three concrete type variants that
// may appear as the outermost type of a .dsdl definition, per §3.5/§3.6.
type CompositeType interface {
	Type
	FullName() Name
	Version() Version
	Attributes() []Attribute
	Fields() []Attribute
	Deprecated() bool
	FixedPortID() (uint32, bool)
	SourcePath() string
	HasParentService() bool
	Doc() string
	// Extent returns the amount of memory, in bits, that must be
	// allocated to hold a serialized representation of this type or any
	// minor version under the same major version. For a sealed type
	// this equals the maximum of BitLengthSet.
	Extent() uint
	// InnerType returns the sealed type decorated by a DelimitedType, or
	// the receiver itself for every other CompositeType, per §4.6.
	InnerType() CompositeType
	// IterateFieldOffsets returns, for every non-padding, non-constant
	// field, the BitLengthSet of its offset from the start of the
	// serialized representation.
	IterateFieldOffsets() []FieldOffset
}

// FieldOffset pairs a field with the BitLengthSet of its offset from the
// start of the enclosing composite's serialized representation.
type FieldOffset struct {
	Field  *Field
	Offset bitlen.BitLengthSet
}

// base holds the state and validation common to every CompositeType,
// mirroring the shared constructor logic of the reference
// implementation's CompositeType base class.
type base struct {
	name            Name
	version         Version
	attributes      []Attribute
	deprecated      bool
	fixedPortID     uint32
	hasFixedPortID  bool
	sourcePath      string
	hasParentSvc    bool
	doc             string
}

func newBase(
	name Name,
	version Version,
	attributes []Attribute,
	deprecated bool,
	fixedPortID uint32,
	hasFixedPortID bool,
	sourcePath string,
	hasParentService bool,
	doc string,
	isService bool,
) (base, error) {
	if len(name.components) < 2 {
		return base{}, fmt.Errorf("composite type name %q must contain a root namespace", name.String())
	}

	used := make(map[string]bool, len(attributes))
	for _, a := range attributes {
		var n string
		switch v := a.(type) {
		case *Field:
			n = v.Name
		case *Constant:
			n = v.Name
		default:
			continue
		}

		if used[n] {
			return base{}, fmt.Errorf("multiple attributes under the same name: %q", n)
		}

		used[n] = true
	}

	if hasFixedPortID {
		if isService {
			if fixedPortID > MaxServiceID {
				return base{}, fmt.Errorf("fixed service ID %d is not valid", fixedPortID)
			}
		} else if fixedPortID > MaxSubjectID {
			return base{}, fmt.Errorf("fixed subject ID %d is not valid", fixedPortID)
		}
	}

	if !deprecated {
		for _, a := range attributes {
			f, ok := a.(*Field)
			if !ok {
				continue
			}

			if dep, ok := deprecatedElementType(f.FieldType); ok {
				return base{}, dsdlerr.Newf(dsdlerr.DeprecatedDependency,
					"field %q depends on deprecated type %q, but %q is not itself marked @deprecated",
					f.Name, dep.FullName().String(), name.String())
			}
		}
	}

	return base{name, version, append([]Attribute(nil), attributes...), deprecated,
		fixedPortID, hasFixedPortID, sourcePath, hasParentService, doc}, nil
}

// deprecatedElementType reports whether t is, or transitively contains
// (through any number of FixedArray/VariableArray wrappers), a deprecated
// CompositeType, returning that type when found.
func deprecatedElementType(t Type) (CompositeType, bool) {
	switch v := t.(type) {
	case CompositeType:
		if v.Deprecated() {
			return v, true
		}

		return nil, false
	case *FixedArray:
		return deprecatedElementType(v.Elem)
	case *VariableArray:
		return deprecatedElementType(v.Elem)
	default:
		return nil, false
	}
}

func (b *base) FullName() Name          { return b.name }
func (b *base) Version() Version        { return b.version }
func (b *base) Attributes() []Attribute { return append([]Attribute(nil), b.attributes...) }
func (b *base) Deprecated() bool        { return b.deprecated }
func (b *base) SourcePath() string      { return b.sourcePath }
func (b *base) HasParentService() bool  { return b.hasParentSvc }
func (b *base) Doc() string             { return b.doc }

func (b *base) FixedPortID() (uint32, bool) { return b.fixedPortID, b.hasFixedPortID }

// Fields returns the Field and PaddingField attributes, in declaration
// order, excluding Constants.
func (b *base) Fields() []Attribute {
	out := make([]Attribute, 0, len(b.attributes))
	for _, a := range b.attributes {
		switch a.(type) {
		case *Field, *PaddingField:
			out = append(out, a)
		}
	}

	return out
}

// fieldType returns the serializable Type of a Field or PaddingField
// attribute, or nil for a Constant.
func fieldType(a Attribute) Type {
	switch v := a.(type) {
	case *Field:
		return v.FieldType
	case *PaddingField:
		return v.VoidType
	default:
		return nil
	}
}

// alignmentRequirement implements the CompositeType base formula of
// §4.3: the largest of 8 and every field's own alignment requirement.
func (b *base) alignmentRequirement() uint {
	result := uint(8)

	for _, a := range b.Fields() {
		if a := fieldType(a).AlignmentRequirement(); a > result {
			result = a
		}
	}

	return result
}

// aggregateBitLengthSet folds the fields' bit-length-sets left to right,
// padding to each field's own alignment before summing it in, per §4.3.
// Final padding to the composite's own alignment requirement is NOT
// applied by this helper; callers apply it once, at construction time.
func aggregateBitLengthSet(fields []Attribute) bitlen.BitLengthSet {
	acc := bitlen.Zero()

	for _, a := range fields {
		ft := fieldType(a)
		acc = bitlen.PadToAlignment(acc, ft.AlignmentRequirement())
		acc = bitlen.Sum(acc, ft.BitLengthSet())
	}

	return acc
}

// iterateFieldOffsetsStruct computes per-field offsets the way a
// structure lays its members out sequentially: pad to the field's own
// alignment, record the offset, then advance by the field's bit length.
func iterateFieldOffsetsStruct(fields []Attribute, base bitlen.BitLengthSet, ownAlignment uint) []FieldOffset {
	offset := bitlen.PadToAlignment(base, ownAlignment)

	var out []FieldOffset

	for _, a := range fields {
		f, ok := a.(*Field)
		if !ok {
			// PaddingField still advances the cursor but contributes no
			// offset entry, since it cannot be addressed by name.
			ft := fieldType(a)
			offset = bitlen.PadToAlignment(offset, ft.AlignmentRequirement())
			offset = bitlen.Sum(offset, ft.BitLengthSet())

			continue
		}

		offset = bitlen.PadToAlignment(offset, f.FieldType.AlignmentRequirement())
		out = append(out, FieldOffset{f, offset})
		offset = bitlen.Sum(offset, f.FieldType.BitLengthSet())
	}

	return out
}

// ============================================================================
// StructureType
// ============================================================================

// StructureType is a composite type not marked @union, per §3.6.
type StructureType struct {
	base
	bls bitlen.BitLengthSet
}

func (*StructureType) isNode() {}

// NewStructureType constructs and validates a StructureType.
func NewStructureType(
	name Name, version Version, attributes []Attribute, deprecated bool,
	fixedPortID uint32, hasFixedPortID bool, sourcePath string, hasParentService bool, doc string,
) (*StructureType, error) {
	b, err := newBase(name, version, attributes, deprecated, fixedPortID, hasFixedPortID,
		sourcePath, hasParentService, doc, false)
	if err != nil {
		return nil, err
	}

	s := &StructureType{base: b}
	s.bls = bitlen.PadToAlignment(aggregateBitLengthSet(s.Fields()), s.AlignmentRequirement())

	return s, nil
}

// BitLengthSet implements Type.
func (s *StructureType) BitLengthSet() bitlen.BitLengthSet { return s.bls }

// AlignmentRequirement implements Type.
func (s *StructureType) AlignmentRequirement() uint { return s.alignmentRequirement() }

// Extent implements CompositeType: for a sealed structure this is the
// maximum of its own bit-length-set.
func (s *StructureType) Extent() uint { return s.bls.Max() }

// InnerType implements CompositeType: a plain structure is its own inner
// type.
func (s *StructureType) InnerType() CompositeType { return s }

// IterateFieldOffsets implements CompositeType.
func (s *StructureType) IterateFieldOffsets() []FieldOffset {
	return iterateFieldOffsetsStruct(s.Fields(), bitlen.Zero(), s.AlignmentRequirement())
}

// String implements Type.
func (s *StructureType) String() string { return s.FullName().String() + "." + s.Version().String() }

// ============================================================================
// UnionType
// ============================================================================

// MinVariants is the minimum number of named variants a tagged union
// must declare, per §3.6.
const MinVariants = 2

// UnionType is a composite type marked @union, per §3.6. Its serialized
// representation is an implicit unsigned tag field followed by exactly
// one of its variants.
type UnionType struct {
	base
	tagBits uint
	bls     bitlen.BitLengthSet
}

func (*UnionType) isNode() {}

// NewUnionType constructs and validates a UnionType: it must declare at
// least MinVariants named, non-void variants, and padding fields are not
// permitted (there is no "between variants" space to pad).
func NewUnionType(
	name Name, version Version, attributes []Attribute, deprecated bool,
	fixedPortID uint32, hasFixedPortID bool, sourcePath string, hasParentService bool, doc string,
) (*UnionType, error) {
	b, err := newBase(name, version, attributes, deprecated, fixedPortID, hasFixedPortID,
		sourcePath, hasParentService, doc, false)
	if err != nil {
		return nil, err
	}

	u := &UnionType{base: b}
	fields := u.Fields()

	if len(fields) < MinVariants {
		return nil, fmt.Errorf("a tagged union cannot contain fewer than %d variants", MinVariants)
	}

	for _, a := range fields {
		if _, isPadding := a.(*PaddingField); isPadding {
			return nil, fmt.Errorf("padding fields are not allowed in unions")
		}
	}

	u.tagBits = computeTagBits(fields)
	u.bls = bitlen.PadToAlignment(
		bitlen.AddScalar(unionVariantSet(fields), u.tagBits),
		u.AlignmentRequirement(),
	)

	return u, nil
}

// computeTagBits returns the width of the implicit tag field: the
// smallest of {8, 16, 32, 64} that can both enumerate every variant
// index and not break the alignment of whichever variant follows it,
// per §3.6/§4.3.
func computeTagBits(variants []Attribute) uint {
	need := bitsNeededForCount(uint(len(variants)) - 1)
	if need < 8 {
		need = 8
	}

	for _, a := range variants {
		if ar := fieldType(a).AlignmentRequirement(); ar > need {
			need = ar
		}
	}

	for _, candidate := range []uint{8, 16, 32, 64} {
		if candidate >= need {
			return candidate
		}
	}

	return 64
}

// unionVariantSet returns the union of every variant's bit-length-set
// (the tag is not yet added), per §3.6's "one of N" serialization.
func unionVariantSet(variants []Attribute) bitlen.BitLengthSet {
	sets := make([]bitlen.BitLengthSet, len(variants))
	for i, a := range variants {
		sets[i] = fieldType(a).BitLengthSet()
	}

	return bitlen.UnionAll(sets...)
}

// BitLengthSet implements Type.
func (u *UnionType) BitLengthSet() bitlen.BitLengthSet { return u.bls }

// AlignmentRequirement implements Type.
func (u *UnionType) AlignmentRequirement() uint { return u.alignmentRequirement() }

// TagBits returns the width, in bits, of the implicit union tag field.
func (u *UnionType) TagBits() uint { return u.tagBits }

// Extent implements CompositeType.
func (u *UnionType) Extent() uint { return u.bls.Max() }

// InnerType implements CompositeType.
func (u *UnionType) InnerType() CompositeType { return u }

// IterateFieldOffsets implements CompositeType: every variant shares the
// same offset, immediately following the tag field, since exactly one
// variant is ever present at a time.
func (u *UnionType) IterateFieldOffsets() []FieldOffset {
	offset := bitlen.PadToAlignment(bitlen.Zero(), u.AlignmentRequirement())
	offset = bitlen.AddScalar(offset, u.tagBits)

	var out []FieldOffset

	for _, a := range u.Fields() {
		if f, ok := a.(*Field); ok {
			out = append(out, FieldOffset{f, offset})
		}
	}

	return out
}

// String implements Type.
func (u *UnionType) String() string { return u.FullName().String() + "." + u.Version().String() }

// ============================================================================
// DelimitedType
// ============================================================================

// defaultDelimiterHeaderBits is the width of the implicit length prefix
// that precedes a non-sealed composite's serialized representation,
// before any widening needed to preserve the wrapped type's own
// alignment, per §4.6.
const defaultDelimiterHeaderBits = 32

// DelimitedType decorates a sealed StructureType or UnionType that was
// NOT declared with a trailing `@sealed` directive (or, equivalently,
// had `@extent` applied), per §4.6. Its bit-length-set and field offsets
// are computed as if the wrapped type were an opaque byte array, so that
// later minor-version growth of the inner type cannot shift the offsets
// of fields that follow it in a containing composite.
type DelimitedType struct {
	base
	inner           CompositeType
	extent          uint
	headerBits      uint
	bls             bitlen.BitLengthSet
}

func (*DelimitedType) isNode() {}

// NewDelimitedType wraps inner in a DelimitedType of the given extent
// (in bits). extent must be a multiple of 8, a multiple of the
// composite's own alignment requirement (which is inherited unchanged
// from inner, per §4.6 "most attributes are copied from the wrapped
// type"), and no smaller than inner's own extent.
func NewDelimitedType(inner CompositeType, extent uint) (*DelimitedType, error) {
	d := &DelimitedType{
		base: base{
			name: inner.FullName(), version: inner.Version(), attributes: inner.Attributes(),
			deprecated: inner.Deprecated(), sourcePath: inner.SourcePath(),
			hasParentSvc: inner.HasParentService(), doc: inner.Doc(),
		},
		inner: inner,
	}

	d.fixedPortID, d.hasFixedPortID = inner.FixedPortID()

	alignment := d.AlignmentRequirement()
	if extent%alignment != 0 {
		return nil, fmt.Errorf("the specified extent of %d bits is not a multiple of %d bits", extent, alignment)
	}

	if extent < inner.Extent() {
		return nil, fmt.Errorf(
			"the specified extent of %d bits is too small for this data type; "+
				"the inner type requires at least %d bits", extent, inner.Extent())
	}

	d.extent = extent

	// The header must not be narrower than the composite's own alignment
	// requirement, else appending the header ahead of the payload would
	// misalign the payload itself.
	d.headerBits = defaultDelimiterHeaderBits
	if alignment > d.headerBits {
		d.headerBits = alignment
	}

	d.bls = bitlen.AddScalar(
		bitlen.RepeatRange(bitlen.FromValues(alignment), extent/alignment),
		d.headerBits,
	)

	return d, nil
}

// BitLengthSet implements Type: per §4.6, a synthetic set of every
// possible length from the header alone up to the full extent, in steps
// of the composite's own alignment -- NOT the true layout of inner.
func (d *DelimitedType) BitLengthSet() bitlen.BitLengthSet { return d.bls }

// AlignmentRequirement implements Type: unchanged from the wrapped type,
// per §4.6.
func (d *DelimitedType) AlignmentRequirement() uint { return d.inner.AlignmentRequirement() }

// Extent implements CompositeType: the explicit, author-declared extent,
// not inner's extent.
func (d *DelimitedType) Extent() uint { return d.extent }

// HeaderBits returns the width, in bits, of the implicit length prefix
// that precedes the serialized representation of inner.
func (d *DelimitedType) HeaderBits() uint { return d.headerBits }

// InnerType implements CompositeType.
func (d *DelimitedType) InnerType() CompositeType { return d.inner }

// IterateFieldOffsets implements CompositeType: delegates to inner, with
// every offset shifted forward by the width of the length prefix.
func (d *DelimitedType) IterateFieldOffsets() []FieldOffset {
	shifted := make([]FieldOffset, 0)
	for _, fo := range d.inner.IterateFieldOffsets() {
		shifted = append(shifted, FieldOffset{fo.Field, bitlen.AddScalar(fo.Offset, d.headerBits)})
	}

	return shifted
}

// String implements Type.
func (d *DelimitedType) String() string { return d.FullName().String() + "." + d.Version().String() }

// ============================================================================
// ServiceType
// ============================================================================

// ServiceType is a service (not message) definition, per §3.1/§3.6. It is
// deliberately NOT itself a CompositeType: a service cannot be
// serialized directly, only its Request and Response sections can.
type ServiceType struct {
	name        Name
	version     Version
	deprecated  bool
	fixedPortID uint32
	hasFixedID  bool
	sourcePath  string
	doc         string
	Request     CompositeType
	Response    CompositeType
}

// NewServiceType constructs a ServiceType from its already-built Request
// and Response sections, which must share a version and deprecation
// status and must not themselves carry a fixed port-ID (only the
// enclosing service may). The source path is taken from request.
func NewServiceType(request, response CompositeType, fixedPortID uint32, hasFixedPortID bool) (*ServiceType, error) {
	if request.Version() != response.Version() {
		return nil, fmt.Errorf("request and response sections must share a version")
	}

	if request.Deprecated() != response.Deprecated() {
		return nil, fmt.Errorf("request and response sections must share a deprecation status")
	}

	if _, ok := request.FixedPortID(); ok {
		return nil, fmt.Errorf("a service's request section must not declare its own fixed port-ID")
	}

	if _, ok := response.FixedPortID(); ok {
		return nil, fmt.Errorf("a service's response section must not declare its own fixed port-ID")
	}

	if hasFixedPortID && fixedPortID > MaxServiceID {
		return nil, fmt.Errorf("fixed service ID %d is not valid", fixedPortID)
	}

	return &ServiceType{
		name:        request.FullName().Namespace(),
		version:     request.Version(),
		deprecated:  request.Deprecated(),
		fixedPortID: fixedPortID,
		hasFixedID:  hasFixedPortID,
		sourcePath:  request.SourcePath(),
		doc:         request.Doc(),
		Request:     request,
		Response:    response,
	}, nil
}

func (s *ServiceType) FullName() Name                   { return s.name }
func (s *ServiceType) Version() Version                 { return s.version }
func (s *ServiceType) Deprecated() bool                 { return s.deprecated }
func (s *ServiceType) SourcePath() string                { return s.sourcePath }
func (s *ServiceType) Doc() string                       { return s.doc }
func (s *ServiceType) FixedPortID() (uint32, bool)       { return s.fixedPortID, s.hasFixedID }
func (s *ServiceType) String() string {
	return s.FullName().String() + "." + s.Version().String()
}
