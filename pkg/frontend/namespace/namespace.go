// Package namespace implements the Reader of §4.7: enumerating the schema
// files under a root directory and a set of lookup directories, building
// each one against the others, and running the namespace-wide consistency
// checks a single file's builder cannot see on its own.
package namespace

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cyphal-go/dsdl/pkg/ast"
	"github.com/cyphal-go/dsdl/pkg/dsdlerr"
	"github.com/cyphal-go/dsdl/pkg/frontend/builder"
	"github.com/cyphal-go/dsdl/pkg/frontend/schemafile"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Result is the output of a successful Read, per §4.7's "Output" step.
type Result struct {
	// Direct holds every composite requested by the target root,
	// newest-first by (full_name, -major, -minor).
	Direct []ast.CompositeType
	// Transitive holds composites pulled in only as a dependency of a
	// Direct member.
	Transitive []ast.CompositeType
}

// Reader builds and validates a DSDL namespace tree, per §4.7.
type Reader struct {
	lookupDirs       []string
	printHandler     builder.PrintOutputHandler
	allowUnregulated bool
	logger           *zap.Logger

	pool       map[string]*schemafile.SchemaFile
	direct     map[string]*entry
	transitive map[string]*entry
}

type entry struct {
	file *schemafile.SchemaFile
	typ  any // ast.CompositeType or *ast.ServiceType
}

// New constructs a Reader. lookupDirs need not include root; it is added
// implicitly and de-duplicated, per §4.7.
func New(lookupDirs []string, printHandler builder.PrintOutputHandler, allowUnregulated bool, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reader{
		lookupDirs: lookupDirs, printHandler: printHandler, allowUnregulated: allowUnregulated, logger: logger,
		pool: map[string]*schemafile.SchemaFile{}, direct: map[string]*entry{}, transitive: map[string]*entry{},
	}
}

// ReadNamespace implements the §6.3 `read_namespace` entry point: build
// every *.dsdl file under root, and every file transitively referenced by
// one, then validate the resulting namespace.
func (r *Reader) ReadNamespace(root string) ([]ast.CompositeType, error) {
	res, err := r.ReadFiles(root, nil)
	if err != nil {
		return nil, err
	}

	return res.Direct, nil
}

// ReadFiles implements the §6.3 `read_files` entry point: build exactly
// the given target files (or, if targetFiles is nil, every *.dsdl file
// found by walking root), classify dependencies as direct/transitive, and
// validate the resulting namespace.
func (r *Reader) ReadFiles(root string, targetFiles []string) (*Result, error) {
	dirs := r.dedupedDirs(root)

	if err := r.preBuildChecks(dirs); err != nil {
		return nil, err
	}

	lookupSet, err := r.enumerate(dirs)
	if err != nil {
		return nil, err
	}

	targets := targetFiles
	if targets == nil {
		targets, err = r.enumerate([]string{root})
		if err != nil {
			return nil, err
		}
	}

	resolver := &namespaceResolver{reader: r, lookupSet: lookupSet}

	for _, path := range targets {
		if _, err := resolver.resolveFile(path); err != nil {
			return nil, err
		}

		delete(r.transitive, path)
	}

	if err := r.postBuildChecks(); err != nil {
		return nil, err
	}

	return r.assembleResult(), nil
}

func (r *Reader) dedupedDirs(root string) []string {
	seen := map[string]bool{}

	var out []string

	dirs := r.lookupDirs
	if root != "" {
		dirs = append([]string{root}, r.lookupDirs...)
	}

	for _, d := range dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			abs = d
		}

		if seen[abs] {
			continue
		}

		seen[abs] = true
		out = append(out, d)
	}

	return out
}

func (r *Reader) preBuildChecks(dirs []string) error {
	for i := range dirs {
		for j := i + 1; j < len(dirs); j++ {
			ai, _ := filepath.Abs(dirs[i])
			aj, _ := filepath.Abs(dirs[j])

			if ai == aj {
				continue
			}

			if strings.EqualFold(filepath.Base(ai), filepath.Base(aj)) {
				return dsdlerr.New(dsdlerr.RootNamespaceNameCollision,
					"lookup directories "+ai+" and "+aj+" share a root namespace name")
			}

			if isStrictPrefix(ai, aj) || isStrictPrefix(aj, ai) {
				return dsdlerr.New(dsdlerr.NestedRootNamespace,
					"lookup directory "+ai+" is nested within "+aj)
			}
		}
	}

	for _, d := range dirs {
		base := filepath.Base(d)
		if base == "dsdl" || base == "public_regulated_data_types" {
			if hasValidNamedSubdir(d) {
				r.logger.Warn("root directory name suggests it may itself be a lookup directory, not a root namespace",
					zap.String("dir", d))
			}
		}
	}

	return nil
}

func isStrictPrefix(a, b string) bool {
	rel, err := filepath.Rel(a, b)
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}

func hasValidNamedSubdir(dir string) bool {
	entries, err := fsReadDir(dir)
	if err != nil {
		return false
	}

	for _, e := range entries {
		if e.IsDir() && ast.ValidateNameComponent(e.Name()) == nil {
			return true
		}
	}

	return false
}

// fsReadDir is a thin indirection over os.ReadDir kept separate so tests
// can substitute an in-memory fs.ReadDirFS.
var fsReadDir = func(dir string) ([]fs.DirEntry, error) {
	return readDirOS(dir)
}

func (r *Reader) enumerate(dirs []string) ([]string, error) {
	var out []string

	for _, d := range dirs {
		err := walkDSDL(d, func(path string) {
			out = append(out, path)
		})
		if err != nil {
			return nil, dsdlerr.Newf(dsdlerr.FileNameFormat, "%s: %v", d, err)
		}
	}

	files := make(map[string]*schemafile.SchemaFile, len(out))

	for _, path := range out {
		sf, ok := r.pool[path]
		if !ok {
			var rootDir string

			for _, d := range dirs {
				if within(d, path) {
					rootDir = d
					break
				}
			}

			var err error

			sf, err = schemafile.Parse(path, rootDir)
			if err != nil {
				return nil, err
			}

			r.pool[path] = sf
		}

		files[path] = sf
	}

	sorted := sortedPaths(files)

	return sorted, nil
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && !strings.HasPrefix(rel, "..")
}

func sortedPaths(files map[string]*schemafile.SchemaFile) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}

	sort.Slice(paths, func(i, j int) bool {
		a, b := files[paths[i]], files[paths[j]]

		if a.FullName().String() != b.FullName().String() {
			return a.FullName().String() < b.FullName().String()
		}

		return a.Version().Less(b.Version())
	})

	return paths
}

func (r *Reader) assembleResult() *Result {
	res := &Result{}

	for _, path := range sortedEntryPaths(r.direct) {
		res.Direct = append(res.Direct, asCompositeList(r.direct[path].typ)...)
	}

	for _, path := range sortedEntryPaths(r.transitive) {
		res.Transitive = append(res.Transitive, asCompositeList(r.transitive[path].typ)...)
	}

	return res
}

func asCompositeList(v any) []ast.CompositeType {
	switch t := v.(type) {
	case ast.CompositeType:
		return []ast.CompositeType{t}
	case *ast.ServiceType:
		return []ast.CompositeType{t.Request, t.Response}
	default:
		return nil
	}
}

func sortedEntryPaths(m map[string]*entry) []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}

	sort.Slice(paths, func(i, j int) bool {
		a, b := m[paths[i]].file, m[paths[j]].file

		if a.FullName().String() != b.FullName().String() {
			return a.FullName().String() < b.FullName().String()
		}

		return a.Version().Less(b.Version())
	})

	return paths
}

func (r *Reader) postBuildChecks() error {
	var errs error

	entries := make([]*entry, 0, len(r.direct))
	for _, e := range r.direct {
		entries = append(entries, e)
	}

	errs = multierr.Append(errs, checkNameCollisions(entries))
	errs = multierr.Append(errs, checkKindAndPortIDCollisions(entries))
	errs = multierr.Append(errs, checkMinorVersionCompatibility(entries))

	return errs
}
