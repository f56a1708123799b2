// Package ast implements the serializable type model described in §3.5 of
// the specification: primitives, void, fixed/variable arrays, and
// composites (structure, union, delimited wrapper, service), together with
// their attributes (§4.4) and the dotted Name/Version identifiers that
// address them.
//
// Following the teacher's re-architecture note in §9 ("sum types over
// class hierarchies"), the type hierarchy here is a set of concrete
// structs implementing a common Type interface, dispatched over with a
// type switch rather than a class hierarchy -- the same shape as
// pkg/corset/ast.Type and pkg/corset/ast.Expr in the teacher repository.
package ast

import (
	"fmt"
	"regexp"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedWordPattern matches a component name that must be rejected
// regardless of case, per §3.2: primitive type spellings, cast-mode
// keywords, DOS device names, and popular language keywords. Components
// wrapped in underscores are rejected separately, by
// underscoreWrappedPattern.
var reservedWordPattern = regexp.MustCompile(
	`(?i)^(uint\d*|int\d*|float\d*|bool|void\d*|truncated|saturated|optional|` +
		`com\d|lpt\d|aux|nul|con|prn|` +
		strings.Join(popularLanguageKeywords, "|") +
		`)$`,
)

var underscoreWrappedPattern = regexp.MustCompile(`^_.*_$`)

// popularLanguageKeywords lists reserved words borrowed from mainstream
// languages that a generated binding must not collide with.
var popularLanguageKeywords = []string{
	"if", "else", "for", "while", "switch", "case", "break", "continue",
	"return", "class", "struct", "enum", "interface", "namespace", "import",
	"package", "public", "private", "protected", "static", "const", "var",
	"let", "function", "def", "lambda", "try", "catch", "finally", "throw",
	"new", "delete", "this", "self", "null", "nil", "true", "false",
}

// ValidateNameComponent checks a single dotted-name component against the
// rules of §3.2: it must match the identifier grammar and must not
// case-insensitively match a reserved word pattern.
func ValidateNameComponent(s string) error {
	if !identifierPattern.MatchString(s) {
		return fmt.Errorf("%q is not a valid identifier", s)
	}

	if reservedWordPattern.MatchString(s) {
		return fmt.Errorf("%q is a reserved word and cannot be used as a name component", s)
	}

	if underscoreWrappedPattern.MatchString(s) {
		return fmt.Errorf("%q is reserved (wrapped in underscores) and cannot be used as a name component", s)
	}

	return nil
}

// Name is a dotted, case-sensitive identifier addressing a namespace,
// short type name, or the full name of a composite type.
type Name struct {
	components []string
}

// NewName constructs and validates a Name from its dot-separated
// components. Per §3.2 a full name must contain at least one '.' (i.e. at
// least two components) and be no more than 255 characters; callers
// building a bare short name (no namespace yet) should use NewShortName
// instead, which skips the "at least one dot" check.
func NewName(components ...string) (Name, error) {
	n, err := NewShortName(components...)
	if err != nil {
		return Name{}, err
	}

	if len(components) < 2 {
		return Name{}, fmt.Errorf("full name %q must contain a root namespace component", n.String())
	}

	return n, nil
}

// NewShortName constructs and validates a Name without requiring a root
// namespace component, used while a namespace path is still being
// assembled incrementally.
func NewShortName(components ...string) (Name, error) {
	if len(components) == 0 {
		return Name{}, fmt.Errorf("a name must have at least one component")
	}

	for _, c := range components {
		if err := ValidateNameComponent(c); err != nil {
			return Name{}, err
		}
	}

	n := Name{append([]string(nil), components...)}
	if len(n.String()) > 255 {
		return Name{}, fmt.Errorf("name %q exceeds 255 characters", n.String())
	}

	return n, nil
}

// Components returns the dot-separated components of this name.
func (n Name) Components() []string {
	return append([]string(nil), n.components...)
}

// Short returns the final (innermost) component of this name -- the
// type's short name, stripped of its namespace.
func (n Name) Short() string {
	return n.components[len(n.components)-1]
}

// Namespace returns the name with its final component removed, i.e. the
// dotted namespace path the type resides in.
func (n Name) Namespace() Name {
	return Name{n.components[:len(n.components)-1]}
}

// Root returns the outermost (root) namespace component.
func (n Name) Root() string {
	return n.components[0]
}

// Extend returns a new Name with an additional innermost component
// appended.
func (n Name) Extend(component string) Name {
	return Name{append(append([]string(nil), n.components...), component)}
}

// Equals performs a case-sensitive comparison of two names.
func (n Name) Equals(other Name) bool {
	if len(n.components) != len(other.components) {
		return false
	}

	for i := range n.components {
		if n.components[i] != other.components[i] {
			return false
		}
	}

	return true
}

// EqualsFold performs a case-insensitive comparison of two names, used by
// the namespace-level DataTypeNameCollision check of §4.7.
func (n Name) EqualsFold(other Name) bool {
	if len(n.components) != len(other.components) {
		return false
	}

	for i := range n.components {
		if !strings.EqualFold(n.components[i], other.components[i]) {
			return false
		}
	}

	return true
}

// String renders this name in dotted form.
func (n Name) String() string {
	return strings.Join(n.components, ".")
}
