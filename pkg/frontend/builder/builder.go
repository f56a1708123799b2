// Package builder implements the DefinitionBuilder statement-stream
// processor of §4.5: it drives pkg/frontend/parser line by line, assembling
// one or two composite-type sections (message, or service request/response)
// and finalizing them into the pkg/ast type model.
package builder

import (
	"github.com/cyphal-go/dsdl/pkg/ast"
	"github.com/cyphal-go/dsdl/pkg/bitlen"
	"github.com/cyphal-go/dsdl/pkg/dsdlerr"
	"github.com/cyphal-go/dsdl/pkg/frontend/parser"
	"github.com/cyphal-go/dsdl/pkg/value"
)

// Resolver resolves a dotted, versioned composite-type reference --
// either one appearing in a field/constant type, or in a `_bit_length_`/
// `_extent_`/constant expression attribute access -- recursively reading
// and building the target definition if it has not been built yet.
type Resolver interface {
	ResolveVersionedType(components []string, major, minor uint8, hasMinor bool) (ast.CompositeType, error)
}

// PrintOutputHandler is invoked by the `@print` directive, per §6.3.
type PrintOutputHandler func(path string, line int, text string)

// serializationMode records which of `@sealed` / `@extent` a section
// declared, per §4.5.
type serializationMode uint8

const (
	modeUnspecified serializationMode = iota
	modeSealed
	modeDelimited
)

// section accumulates the ordered attributes and serialization mode of
// one schema section (the message/request section, or -- after a `---`
// marker -- the response section), per §4.5.
type section struct {
	attributes    []ast.Attribute
	isUnion       bool
	mode          serializationMode
	extentBits    uint
	headerDoc     string
	pendingDoc    string
	sawStatement  bool
	offsetQueried bool
}

func newSection() *section { return &section{} }

func (s *section) hasAnyAttribute() bool { return len(s.attributes) > 0 }

func (s *section) takeDoc() string {
	d := s.pendingDoc
	s.pendingDoc = ""

	return d
}

// Builder implements parser.Context, resolving identifiers and composite
// type references against the section currently being built.
type Builder struct {
	path             string
	fullName         ast.Name
	version          ast.Version
	fixedPortID      uint32
	hasFixedPortID   bool
	allowUnregulated bool
	deprecated       bool
	resolver         Resolver
	printHandler     PrintOutputHandler

	sections []*section
	current  int
	lineNo   int
}

// New constructs a Builder for one schema file section stream.
func New(
	path string, fullName ast.Name, version ast.Version,
	fixedPortID uint32, hasFixedPortID bool, allowUnregulated bool,
	resolver Resolver, printHandler PrintOutputHandler,
) *Builder {
	return &Builder{
		path: path, fullName: fullName, version: version,
		fixedPortID: fixedPortID, hasFixedPortID: hasFixedPortID,
		allowUnregulated: allowUnregulated, resolver: resolver, printHandler: printHandler,
		sections: []*section{newSection()},
	}
}

func (b *Builder) cur() *section { return b.sections[b.current] }

func (b *Builder) err(kind dsdlerr.Kind, format string, args ...any) error {
	return dsdlerr.Newf(kind, format, args...).At(b.path, b.lineNo)
}

// ProcessLine parses and applies one physical source line, 1-based lineNo.
func (b *Builder) ProcessLine(lineNo int, line []rune) error {
	b.lineNo = lineNo

	stmt, err := parser.ParseStatement(line, b)
	if err != nil {
		if de, ok := err.(*dsdlerr.Error); ok {
			return de.At(b.path, lineNo)
		}

		return dsdlerr.Newf(dsdlerr.DSDLSyntax, "%v", err).At(b.path, lineNo)
	}

	switch stmt.Kind {
	case parser.Blank:
		return nil
	case parser.Comment:
		return b.onComment(stmt.CommentText)
	case parser.ServiceResponseMarker:
		return b.onServiceResponseMarker()
	case parser.FieldDecl:
		return b.onField(stmt.FieldType, stmt.Name)
	case parser.PaddingDecl:
		return b.onPaddingField(stmt.FieldType)
	case parser.ConstantDecl:
		return b.onConstant(stmt.FieldType, stmt.Name, stmt.ValueExpr)
	case parser.Directive:
		return b.onDirective(stmt.DirectiveName, stmt.DirectiveExpr)
	default:
		return b.err(dsdlerr.Internal, "unrecognised statement kind")
	}
}

func (b *Builder) onComment(text string) error {
	cur := b.cur()
	if !cur.sawStatement {
		cur.headerDoc += text + "\n"
	} else {
		cur.pendingDoc += text + "\n"
	}

	return nil
}

func (b *Builder) onServiceResponseMarker() error {
	if len(b.sections) != 1 {
		return b.err(dsdlerr.DSDLSyntax, "a schema file may contain at most one '---' service response marker")
	}

	b.sections = append(b.sections, newSection())
	b.current = 1

	return nil
}

func (b *Builder) onField(t ast.Type, name string) error {
	cur := b.cur()

	if cur.mode == modeDelimited {
		return b.err(dsdlerr.InvalidDirective, "a field cannot follow an @extent directive")
	}

	if cur.isUnion && cur.offsetQueried {
		return b.err(dsdlerr.UndefinedIdentifier, "_offset_ is not defined within a union section")
	}

	f, err := ast.NewField(t, name, cur.takeDoc())
	if err != nil {
		return b.err(dsdlerr.InvalidType, "%v", err)
	}

	cur.attributes = append(cur.attributes, f)
	cur.sawStatement = true

	return nil
}

func (b *Builder) onPaddingField(t ast.Type) error {
	cur := b.cur()

	void, ok := t.(*ast.Void)
	if !ok {
		return b.err(dsdlerr.InvalidType, "a bare type statement with no name must be a void type")
	}

	p := ast.NewPaddingField(void, cur.takeDoc())
	cur.attributes = append(cur.attributes, p)
	cur.sawStatement = true

	return nil
}

func (b *Builder) onConstant(t ast.Type, name string, expr parser.Expr) error {
	cur := b.cur()

	v, err := expr.Eval(b)
	if err != nil {
		return addLocation(err, b.path, b.lineNo)
	}

	c, err := ast.NewConstant(t, name, v, cur.takeDoc())
	if err != nil {
		return b.err(dsdlerr.InvalidConstantValue, "%v", err)
	}

	cur.attributes = append(cur.attributes, c)
	cur.sawStatement = true

	return nil
}

func addLocation(err error, path string, line int) error {
	if de, ok := err.(*dsdlerr.Error); ok {
		return de.At(path, line)
	}

	return dsdlerr.Newf(dsdlerr.InvalidOperand, "%v", err).At(path, line)
}

func (b *Builder) onDirective(name string, expr parser.Expr) error {
	cur := b.cur()

	switch name {
	case "print":
		return b.onPrintDirective(expr)
	case "assert":
		return b.onAssertDirective(expr)
	case "extent":
		return b.onExtentDirective(expr)
	case "sealed":
		if expr != nil {
			return b.err(dsdlerr.InvalidDirective, "@sealed does not take an expression")
		}

		cur.mode = modeSealed

		return nil
	case "union":
		if expr != nil {
			return b.err(dsdlerr.InvalidDirective, "@union does not take an expression")
		}

		if cur.hasAnyAttribute() {
			return b.err(dsdlerr.InvalidDirective, "@union must precede every attribute")
		}

		if cur.isUnion {
			return b.err(dsdlerr.InvalidDirective, "@union is not idempotent")
		}

		cur.isUnion = true

		return nil
	case "deprecated":
		if expr != nil {
			return b.err(dsdlerr.InvalidDirective, "@deprecated does not take an expression")
		}

		if b.current != 0 {
			return b.err(dsdlerr.InvalidDirective, "@deprecated may only appear in the first section")
		}

		if cur.hasAnyAttribute() {
			return b.err(dsdlerr.InvalidDirective, "@deprecated must precede every attribute")
		}

		if b.deprecated {
			return b.err(dsdlerr.InvalidDirective, "@deprecated is not idempotent")
		}

		b.deprecated = true

		return nil
	default:
		return b.err(dsdlerr.InvalidDirective, "unrecognised directive @%s", name)
	}
}

func (b *Builder) onPrintDirective(expr parser.Expr) error {
	text := ""

	if expr != nil {
		v, err := expr.Eval(b)
		if err != nil {
			return addLocation(err, b.path, b.lineNo)
		}

		text = v.String()
	}

	if b.printHandler != nil {
		b.printHandler(b.path, b.lineNo, text)
	}

	return nil
}

func (b *Builder) onAssertDirective(expr parser.Expr) error {
	if expr == nil {
		return b.err(dsdlerr.InvalidDirective, "@assert requires a boolean expression")
	}

	v, err := expr.Eval(b)
	if err != nil {
		return addLocation(err, b.path, b.lineNo)
	}

	boolVal, isBool := v.(value.Bool)
	if !isBool {
		return b.err(dsdlerr.InvalidOperand, "@assert requires a boolean expression, got %s", v.Kind())
	}

	if !bool(boolVal) {
		return b.err(dsdlerr.AssertionCheckFailure, "assertion check failed")
	}

	return nil
}

func (b *Builder) onExtentDirective(expr parser.Expr) error {
	cur := b.cur()

	if expr == nil {
		return b.err(dsdlerr.InvalidDirective, "@extent requires an integer expression")
	}

	v, err := expr.Eval(b)
	if err != nil {
		return addLocation(err, b.path, b.lineNo)
	}

	rat, isRat := v.(value.Rat)
	if !isRat || !rat.IsInt() || rat.Sign() < 0 {
		return b.err(dsdlerr.InvalidExtent, "@extent requires a non-negative integer expression")
	}

	cur.mode = modeDelimited
	cur.extentBits = uint(rat.Num().Uint64())

	return nil
}

// ResolveIdentifier implements parser.Context.
func (b *Builder) ResolveIdentifier(name string) (value.Value, error) {
	cur := b.cur()

	for _, a := range cur.attributes {
		if c, ok := a.(*ast.Constant); ok && c.Name == name {
			return c.Value, nil
		}
	}

	if name == "_offset_" {
		cur.offsetQueried = true

		acc := bitlen.Zero()

		for _, a := range cur.attributes {
			f, ok := a.(*ast.Field)
			if !ok {
				if p, ok2 := a.(*ast.PaddingField); ok2 {
					acc = bitlen.PadToAlignment(acc, p.VoidType.AlignmentRequirement())
					acc = bitlen.Sum(acc, p.VoidType.BitLengthSet())
				}

				continue
			}

			acc = bitlen.PadToAlignment(acc, f.FieldType.AlignmentRequirement())
			acc = bitlen.Sum(acc, f.FieldType.BitLengthSet())
		}

		return bitLengthSetToValueLocal(acc)
	}

	return nil, b.err(dsdlerr.UndefinedIdentifier, "undefined identifier %q", name)
}

func bitLengthSetToValueLocal(bls bitlen.BitLengthSet) (value.Value, error) {
	values := bls.Values()
	members := make([]value.Value, len(values))

	for i, v := range values {
		members[i] = value.NewRatFromInt64(int64(v))
	}

	return value.NewSet(members...)
}

// ResolveType implements parser.Context.
func (b *Builder) ResolveType(components []string, major, minor uint8, hasMinor bool) (ast.CompositeType, error) {
	ct, err := b.resolver.ResolveVersionedType(components, major, minor, hasMinor)
	if err != nil {
		return nil, addLocation(err, b.path, b.lineNo)
	}

	return ct, nil
}

// Finalize assembles the sections built so far into either a single
// CompositeType (a plain message definition) or a *ast.ServiceType (when a
// `---` marker introduced a response section), per §4.5.
func (b *Builder) Finalize() (any, error) {
	hasParentService := len(b.sections) == 2

	req, err := b.finalizeSection(0, hasParentService)
	if err != nil {
		return nil, err
	}

	if !hasParentService {
		return req, nil
	}

	resp, err := b.finalizeSection(1, hasParentService)
	if err != nil {
		return nil, err
	}

	svc, err := ast.NewServiceType(req, resp, b.fixedPortID, b.hasFixedPortID)
	if err != nil {
		return nil, b.err(dsdlerr.Internal, "%v", err)
	}

	if b.hasFixedPortID && !b.allowUnregulated {
		root := b.fullName.Root()
		if !ast.IsRegulatedServiceID(b.fixedPortID, root) {
			return nil, b.err(dsdlerr.UnregulatedFixedPortID,
				"fixed port-ID %d is not within a regulated range for root namespace %q", b.fixedPortID, root)
		}
	}

	return svc, nil
}

func (b *Builder) finalizeSection(i int, hasParentService bool) (ast.CompositeType, error) {
	sec := b.sections[i]

	portID := b.fixedPortID
	hasPortID := b.hasFixedPortID

	if hasParentService {
		portID, hasPortID = 0, false
	}

	var (
		inner ast.CompositeType
		err   error
	)

	if sec.isUnion {
		inner, err = ast.NewUnionType(b.fullName, b.version, sec.attributes, b.deprecated,
			portID, hasPortID, b.path, hasParentService, sec.headerDoc)
	} else {
		inner, err = ast.NewStructureType(b.fullName, b.version, sec.attributes, b.deprecated,
			portID, hasPortID, b.path, hasParentService, sec.headerDoc)
	}

	if err != nil {
		if de, ok := err.(*dsdlerr.Error); ok && de.Kind() == dsdlerr.DeprecatedDependency {
			if b.printHandler != nil {
				b.printHandler(b.path, b.lineNo, de.Error())
			}

			return nil, de.At(b.path, b.lineNo)
		}

		return nil, b.err(dsdlerr.InvalidType, "%v", err)
	}

	if !hasParentService && hasPortID && !b.allowUnregulated {
		root := b.fullName.Root()
		if !ast.IsRegulatedSubjectID(portID, root) {
			return nil, b.err(dsdlerr.UnregulatedFixedPortID,
				"fixed port-ID %d is not within a regulated range for root namespace %q", portID, root)
		}
	}

	switch sec.mode {
	case modeUnspecified:
		return nil, b.err(dsdlerr.MissingSerializationMode, "neither @sealed nor @extent was specified")
	case modeSealed:
		return inner, nil
	default:
		d, err := ast.NewDelimitedType(inner, sec.extentBits)
		if err != nil {
			return nil, b.err(dsdlerr.InvalidExtent, "%v", err)
		}

		return d, nil
	}
}
