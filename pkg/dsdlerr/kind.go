// Package dsdlerr defines the structured error taxonomy raised by every
// stage of the DSDL front-end, from file-name parsing through to
// namespace-level consistency checking.
package dsdlerr

// Kind identifies the taxonomy of a front-end error, mirroring §7 of the
// specification.
type Kind uint8

// The error kinds recognised by the front-end.  FileNameFormat and Internal
// sit outside the InvalidDefinition umbrella; everything else is a
// sub-kind of InvalidDefinition.
const (
	// FileNameFormat indicates a schema file's name does not conform to
	// §6.1 (bad short name, version, port ID, or namespace component).
	FileNameFormat Kind = iota
	// InvalidName indicates a dotted name violates §3.2.
	InvalidName
	// InvalidVersion indicates a (major, minor) pair violates §3.1.
	InvalidVersion
	// InvalidBitLength indicates a primitive's bit width is out of range.
	InvalidBitLength
	// InvalidCastMode indicates saturated/truncated was used with a type
	// that does not support it.
	InvalidCastMode
	// InvalidNumberOfElements indicates an array capacity is invalid.
	InvalidNumberOfElements
	// InvalidConstantValue indicates a constant's value is incompatible
	// with its declared type, per §4.4.
	InvalidConstantValue
	// InvalidType indicates a type reference could not be constructed.
	InvalidType
	// InvalidFixedPortID indicates a fixed port ID is out of its
	// permitted range, per §3.6/§6.4.
	InvalidFixedPortID
	// InvalidExtent indicates an `@extent` value is invalid (not a
	// non-negative integer, not a multiple of the type's alignment, or
	// smaller than the type requires).
	InvalidExtent
	// AttributeNameCollision indicates two attributes of a composite
	// share a name.
	AttributeNameCollision
	// MalformedUnion indicates a `@union` section has fewer than two
	// eligible variants, or contains void/padding fields.
	MalformedUnion
	// DeprecatedDependency indicates a non-deprecated composite depends
	// on a deprecated one.
	DeprecatedDependency
	// DSDLSyntax indicates a lexical or grammatical error surfaced by the
	// parser.
	DSDLSyntax
	// UndefinedIdentifier indicates a top-level identifier does not
	// resolve to a constant or `_offset_`.
	UndefinedIdentifier
	// UndefinedDataType indicates resolve_versioned_data_type found zero
	// matches.
	UndefinedDataType
	// UndefinedAttribute indicates attribute access (`.name`) named an
	// attribute that does not exist for the operand's type.
	UndefinedAttribute
	// InvalidOperand indicates an operator was applied to operands of
	// the wrong type or value (e.g. division by zero, non-integral
	// bitwise operand).
	InvalidOperand
	// UndefinedOperator indicates an operator has no defined meaning for
	// the given operand type(s), even after swap/delegation is
	// attempted.
	UndefinedOperator
	// InvalidDirective indicates a directive was used in a position or
	// with arguments the grammar does not permit.
	InvalidDirective
	// AssertionCheckFailure indicates an `@assert` expression evaluated
	// to false.
	AssertionCheckFailure
	// MissingSerializationMode indicates neither `@sealed` nor `@extent`
	// was supplied for a section.
	MissingSerializationMode
	// UnregulatedFixedPortID indicates a fixed port ID falls outside the
	// regulated ranges and allow_unregulated_fixed_port_id was not set.
	UnregulatedFixedPortID
	// RootNamespaceNameCollision indicates two lookup directories share a
	// root namespace name.
	RootNamespaceNameCollision
	// DataTypeNameCollision indicates two direct composites have full
	// names differing only by letter case, or one's namespace prefixes
	// the other.
	DataTypeNameCollision
	// NestedRootNamespace indicates one lookup directory's path is a
	// strict prefix of another's.
	NestedRootNamespace
	// FixedPortIDCollision indicates two distinct composites of the same
	// kind share a fixed port ID in violation of §4.7.
	FixedPortIDCollision
	// MultipleDefinitionsUnderSameVersion indicates two schema files
	// define the same (full_name, major, minor).
	MultipleDefinitionsUnderSameVersion
	// VersionsOfDifferentKind indicates a message and a service share a
	// full name.
	VersionsOfDifferentKind
	// MinorVersionFixedPortID indicates two minor versions of the same
	// major disagree on their fixed port ID in violation of §4.7.
	MinorVersionFixedPortID
	// ExtentConsistency indicates minor versions of a major >= 1 type
	// disagree on extent.
	ExtentConsistency
	// SealingConsistency indicates minor versions of a major >= 1 type
	// disagree on sealed/delimited status.
	SealingConsistency
	// Internal indicates an invariant the front-end believes is
	// unreachable was violated; it should be reported upstream.
	Internal
)

// String returns a human-readable name for a Kind, used in error messages
// and diagnostic output.
func (k Kind) String() string {
	switch k {
	case FileNameFormat:
		return "FileNameFormat"
	case InvalidName:
		return "InvalidName"
	case InvalidVersion:
		return "InvalidVersion"
	case InvalidBitLength:
		return "InvalidBitLength"
	case InvalidCastMode:
		return "InvalidCastMode"
	case InvalidNumberOfElements:
		return "InvalidNumberOfElements"
	case InvalidConstantValue:
		return "InvalidConstantValue"
	case InvalidType:
		return "InvalidType"
	case InvalidFixedPortID:
		return "InvalidFixedPortID"
	case InvalidExtent:
		return "InvalidExtent"
	case AttributeNameCollision:
		return "AttributeNameCollision"
	case MalformedUnion:
		return "MalformedUnion"
	case DeprecatedDependency:
		return "DeprecatedDependency"
	case DSDLSyntax:
		return "DSDLSyntax"
	case UndefinedIdentifier:
		return "UndefinedIdentifier"
	case UndefinedDataType:
		return "UndefinedDataType"
	case UndefinedAttribute:
		return "UndefinedAttribute"
	case InvalidOperand:
		return "InvalidOperand"
	case UndefinedOperator:
		return "UndefinedOperator"
	case InvalidDirective:
		return "InvalidDirective"
	case AssertionCheckFailure:
		return "AssertionCheckFailure"
	case MissingSerializationMode:
		return "MissingSerializationMode"
	case UnregulatedFixedPortID:
		return "UnregulatedFixedPortID"
	case RootNamespaceNameCollision:
		return "RootNamespaceNameCollision"
	case DataTypeNameCollision:
		return "DataTypeNameCollision"
	case NestedRootNamespace:
		return "NestedRootNamespace"
	case FixedPortIDCollision:
		return "FixedPortIDCollision"
	case MultipleDefinitionsUnderSameVersion:
		return "MultipleDefinitionsUnderSameVersion"
	case VersionsOfDifferentKind:
		return "VersionsOfDifferentKind"
	case MinorVersionFixedPortID:
		return "MinorVersionFixedPortID"
	case ExtentConsistency:
		return "ExtentConsistency"
	case SealingConsistency:
		return "SealingConsistency"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}
