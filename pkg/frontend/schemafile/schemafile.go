// Package schemafile implements the DsdlDefinition of §4.6: deriving a
// composite type's identity from its file path, lazily loading its raw
// source, and driving pkg/frontend/builder over it exactly once.
package schemafile

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cyphal-go/dsdl/pkg/ast"
	"github.com/cyphal-go/dsdl/pkg/dsdlerr"
	"github.com/cyphal-go/dsdl/pkg/frontend/builder"
	"github.com/cyphal-go/dsdl/pkg/source"
	"go.uber.org/atomic"
)

// allowedExtensions lists the file extensions recognised as schema files,
// per §6.1 ("legacy .uavcan extension accepted").
var allowedExtensions = map[string]bool{".dsdl": true, ".uavcan": true}

// SchemaFile identifies one on-disk DSDL definition and memoizes its
// built composite, per §4.6. Two SchemaFile values referring to the same
// absolute path are expected to be the same *SchemaFile pointer, a
// guarantee the namespace Reader's file-path-keyed pool upholds.
type SchemaFile struct {
	path         string
	fullName     ast.Name
	version      ast.Version
	fixedPortID  uint32
	hasPortID    bool
	built    atomic.Bool
	result   any
	err      error
	rootNS   string
	src      *source.File
}

// Parse derives a SchemaFile's identity from its absolute path and the
// root-namespace directory it was discovered under, per §4.6/§6.1.
// rootDir must be an ancestor of path.
func Parse(path string, rootDir string) (*SchemaFile, error) {
	rel, err := filepath.Rel(rootDir, path)
	if err != nil {
		return nil, dsdlerr.Newf(dsdlerr.FileNameFormat, "%s: not under root %s: %v", path, rootDir, err)
	}

	rootNS := filepath.Base(rootDir)
	if err := ast.ValidateNameComponent(rootNS); err != nil {
		return nil, dsdlerr.Newf(dsdlerr.FileNameFormat, "root namespace %q: %v", rootNS, err)
	}

	dir, base := filepath.Split(rel)

	var components []string

	components = append(components, rootNS)

	if dir != "" {
		for _, c := range strings.Split(filepath.ToSlash(filepath.Clean(dir)), "/") {
			if c == "" || c == "." {
				continue
			}

			if err := ast.ValidateNameComponent(c); err != nil {
				return nil, dsdlerr.Newf(dsdlerr.FileNameFormat, "%s: namespace component %q: %v", path, c, err)
			}

			components = append(components, c)
		}
	}

	ext := filepath.Ext(base)
	if !allowedExtensions[strings.ToLower(ext)] {
		return nil, dsdlerr.Newf(dsdlerr.FileNameFormat, "%s: unrecognised extension %q", path, ext)
	}

	stem := strings.TrimSuffix(base, ext)
	tokens := strings.Split(stem, ".")

	var (
		shortName   string
		fixedPortID uint32
		hasPortID   bool
		major       uint8
		minor       uint8
	)

	switch len(tokens) {
	case 3:
		shortName = tokens[0]
	case 4:
		portVal, err := strconv.Atoi(tokens[0])
		if err != nil || portVal < 0 {
			return nil, dsdlerr.Newf(dsdlerr.FileNameFormat, "%s: invalid fixed port-ID %q", path, tokens[0])
		}

		fixedPortID = uint32(portVal)
		hasPortID = true
		shortName = tokens[1]
		tokens = tokens[1:]
	default:
		return nil, dsdlerr.Newf(dsdlerr.FileNameFormat,
			"%s: expected [PORT_ID.]SHORT_NAME.MAJOR.MINOR%s", path, ext)
	}

	if err := ast.ValidateNameComponent(shortName); err != nil {
		return nil, dsdlerr.Newf(dsdlerr.FileNameFormat, "%s: short name %q: %v", path, shortName, err)
	}

	majorVal, err := parseVersionToken(tokens[1])
	if err != nil {
		return nil, dsdlerr.Newf(dsdlerr.FileNameFormat, "%s: major version: %v", path, err)
	}

	minorVal, err := parseVersionToken(tokens[2])
	if err != nil {
		return nil, dsdlerr.Newf(dsdlerr.FileNameFormat, "%s: minor version: %v", path, err)
	}

	major, minor = majorVal, minorVal

	version, err := ast.NewVersion(major, minor)
	if err != nil {
		return nil, dsdlerr.Newf(dsdlerr.FileNameFormat, "%s: %v", path, err)
	}

	components = append(components, shortName)

	fullName, err := ast.NewName(components...)
	if err != nil {
		return nil, dsdlerr.Newf(dsdlerr.FileNameFormat, "%s: %v", path, err)
	}

	return &SchemaFile{
		path: path, fullName: fullName, version: version,
		fixedPortID: fixedPortID, hasPortID: hasPortID, rootNS: rootNS,
	}, nil
}

func parseVersionToken(s string) (uint8, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 255 {
		return 0, fmt.Errorf("invalid version component %q", s)
	}

	return uint8(n), nil
}

// Path returns the absolute file path this SchemaFile was derived from.
func (f *SchemaFile) Path() string { return f.path }

// FullName returns the dotted composite name this file defines.
func (f *SchemaFile) FullName() ast.Name { return f.fullName }

// Version returns the (major, minor) this file defines.
func (f *SchemaFile) Version() ast.Version { return f.version }

// FixedPortID returns the file-name-encoded fixed port ID, if any.
func (f *SchemaFile) FixedPortID() (uint32, bool) { return f.fixedPortID, f.hasPortID }

// RootNamespace returns the root namespace component this file lives
// under.
func (f *SchemaFile) RootNamespace() string { return f.rootNS }

func (f *SchemaFile) loadSource() (*source.File, error) {
	if f.src != nil {
		return f.src, nil
	}

	files, err := source.ReadFiles(f.path)
	if err != nil {
		return nil, dsdlerr.Newf(dsdlerr.FileNameFormat, "%s: %v", f.path, err)
	}

	f.src = &files[0]

	return f.src, nil
}

// Read builds this file's composite type, memoizing the result so that
// repeated calls (from multiple dependents) build at most once, per §4.6.
// resolver is consulted to resolve any composite-type references this
// definition's fields, constants, or expression attributes depend on.
func (f *SchemaFile) Read(
	resolver builder.Resolver, printHandler builder.PrintOutputHandler, allowUnregulated bool,
) (any, error) {
	if f.built.Load() {
		return f.result, f.err
	}

	f.result, f.err = f.build(resolver, printHandler, allowUnregulated)
	f.built.Store(true)

	return f.result, f.err
}

func (f *SchemaFile) build(
	resolver builder.Resolver, printHandler builder.PrintOutputHandler, allowUnregulated bool,
) (any, error) {
	src, err := f.loadSource()
	if err != nil {
		return nil, err
	}

	b := builder.New(f.path, f.fullName, f.version, f.fixedPortID, f.hasPortID, allowUnregulated, resolver, printHandler)

	for i, line := range src.Lines() {
		if err := b.ProcessLine(i+1, line); err != nil {
			return nil, err
		}
	}

	return b.Finalize()
}
