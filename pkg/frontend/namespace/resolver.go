package namespace

import (
	"strings"

	"github.com/cyphal-go/dsdl/pkg/ast"
	"github.com/cyphal-go/dsdl/pkg/dsdlerr"
)

// namespaceResolver implements builder.Resolver against a Reader's
// file-path-keyed SchemaFile pool, per §4.7's recursive dependency
// resolution. Each in-flight build gets its own namespaceResolver value
// with excludePath set to that file's own path, so a composite can never
// reference itself -- "removing the current file from the lookup set at
// recursion time", per §5.
type namespaceResolver struct {
	reader      *Reader
	lookupSet   []string
	excludePath string
	building    map[string]bool
}

// resolveFile builds the SchemaFile at path (if not already built),
// recording it as direct, and returns its composite.
func (n *namespaceResolver) resolveFile(path string) (any, error) {
	return n.buildAndClassify(path, true)
}

func (n *namespaceResolver) buildAndClassify(path string, direct bool) (any, error) {
	r := n.reader

	if e, ok := r.direct[path]; ok {
		return e.typ, nil
	}

	if e, ok := r.transitive[path]; ok {
		if direct {
			r.direct[path] = e
			delete(r.transitive, path)
		}

		return e.typ, nil
	}

	sf, ok := r.pool[path]
	if !ok {
		return nil, dsdlerr.Newf(dsdlerr.Internal, "%s: not found in the schema file pool", path)
	}

	if n.building[path] {
		return nil, dsdlerr.Newf(dsdlerr.UndefinedDataType, "%s: circular dependency detected", path)
	}

	building := cloneBuildingSet(n.building)
	building[path] = true

	child := &namespaceResolver{reader: r, lookupSet: n.lookupSet, excludePath: path, building: building}

	typ, err := sf.Read(child, r.printHandler, r.allowUnregulated)
	if err != nil {
		return nil, err
	}

	e := &entry{file: sf, typ: typ}

	if direct {
		r.direct[path] = e
	} else {
		r.transitive[path] = e
	}

	return typ, nil
}

func cloneBuildingSet(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m)+1)
	for k := range m {
		out[k] = true
	}

	return out
}

// ResolveVersionedType implements builder.Resolver.
func (n *namespaceResolver) ResolveVersionedType(components []string, major, minor uint8, hasMinor bool) (ast.CompositeType, error) {
	candidates := n.matchingFiles(components)
	if len(candidates) == 0 {
		return nil, dsdlerr.Newf(dsdlerr.UndefinedDataType, "no definition found for %s", strings.Join(components, "."))
	}

	path, err := n.pickVersion(candidates, major, minor, hasMinor)
	if err != nil {
		return nil, err
	}

	typ, err := n.buildAndClassify(path, false)
	if err != nil {
		return nil, err
	}

	ct, ok := typ.(ast.CompositeType)
	if !ok {
		return nil, dsdlerr.Newf(dsdlerr.UndefinedDataType,
			"%s is a service type and cannot be used as a field or constant type", strings.Join(components, "."))
	}

	return ct, nil
}

func (n *namespaceResolver) matchingFiles(components []string) []string {
	target := strings.Join(components, ".")

	var out []string

	for _, path := range n.lookupSet {
		if path == n.excludePath {
			continue
		}

		sf, ok := n.reader.pool[path]
		if !ok {
			continue
		}

		if sf.FullName().String() == target {
			out = append(out, path)
		}
	}

	return out
}

// pickVersion selects the file matching major (and, if hasMinor, exactly
// minor); when hasMinor is false the greatest compatible minor is chosen
// implicitly, per §6.2's composite-reference grammar.
func (n *namespaceResolver) pickVersion(candidates []string, major, minor uint8, hasMinor bool) (string, error) {
	var (
		best  string
		bestM uint8
		found bool
	)

	for _, p := range candidates {
		sf, ok := n.reader.pool[p]
		if !ok {
			continue
		}

		v := sf.Version()
		if v.Major != major {
			continue
		}

		if hasMinor {
			if v.Minor == minor {
				return p, nil
			}

			continue
		}

		if !found || v.Minor > bestM {
			best, bestM, found = p, v.Minor, true
		}
	}

	if !found {
		return "", dsdlerr.Newf(dsdlerr.UndefinedDataType, "no definition found for major version %d", major)
	}

	return best, nil
}
