package namespace

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cyphal-go/dsdl/pkg/ast"
	"github.com/cyphal-go/dsdl/pkg/dsdlerr"
	"go.uber.org/multierr"
)

// checkNameCollisions implements §4.7's "no two distinct full names may
// differ only by letter case; no full name may be a prefix of another's
// namespace and vice versa".
func checkNameCollisions(entries []*entry) error {
	names := uniqueNames(entries)

	var errs error

	for i := range names {
		for j := i + 1; j < len(names); j++ {
			a, b := names[i], names[j]

			if a.Equals(b) {
				continue
			}

			if a.EqualsFold(b) {
				errs = multierr.Append(errs, dsdlerr.New(dsdlerr.DataTypeNameCollision,
					"full names "+a.String()+" and "+b.String()+" differ only by letter case"))
				continue
			}

			if isNamespacePrefix(a, b) || isNamespacePrefix(b, a) {
				errs = multierr.Append(errs, dsdlerr.New(dsdlerr.DataTypeNameCollision,
					"full name "+a.String()+" is a prefix of the namespace of "+b.String()))
			}
		}
	}

	return errs
}

func uniqueNames(entries []*entry) []ast.Name {
	seen := map[string]ast.Name{}

	for _, e := range entries {
		n := e.file.FullName()
		seen[n.String()] = n
	}

	names := make([]ast.Name, 0, len(seen))
	for _, n := range seen {
		names = append(names, n)
	}

	sort.Slice(names, func(i, j int) bool { return names[i].String() < names[j].String() })

	return names
}

// isNamespacePrefix reports whether full name a, read as a namespace path,
// is a strict prefix of full name b's components.
func isNamespacePrefix(a, b ast.Name) bool {
	ac, bc := a.Components(), b.Components()
	if len(ac) >= len(bc) {
		return false
	}

	for i, c := range ac {
		if !strings.EqualFold(c, bc[i]) {
			return false
		}
	}

	return true
}

// checkKindAndPortIDCollisions implements §4.7's "different kinds under
// same name" and "fixed-port-ID collisions" checks.
func checkKindAndPortIDCollisions(entries []*entry) error {
	var errs error

	byName := map[string][]*entry{}
	for _, e := range entries {
		name := e.file.FullName().String()
		byName[name] = append(byName[name], e)
	}

	for name, group := range byName {
		isService := isServiceEntry(group[0])
		for _, e := range group[1:] {
			if isServiceEntry(e) != isService {
				errs = multierr.Append(errs, dsdlerr.New(dsdlerr.VersionsOfDifferentKind,
					"full name "+name+" is used for both a message and a service"))
				break
			}
		}
	}

	errs = multierr.Append(errs, checkPortIDCollisions(entries))

	return errs
}

func isServiceEntry(e *entry) bool {
	_, ok := e.typ.(*ast.ServiceType)
	return ok
}

type portIDKey struct {
	id        uint32
	isService bool
}

func checkPortIDCollisions(entries []*entry) error {
	var errs error

	byPortID := map[portIDKey][]*entry{}

	for _, e := range entries {
		id, has := fixedPortIDOf(e)
		if !has {
			continue
		}

		k := portIDKey{id: id, isService: isServiceEntry(e)}
		byPortID[k] = append(byPortID[k], e)
	}

	for k, group := range byPortID {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]

				an, bn := a.file.FullName(), b.file.FullName()
				if !an.Equals(bn) {
					errs = multierr.Append(errs, dsdlerr.Newf(dsdlerr.FixedPortIDCollision,
						"fixed port-ID %d is shared by %s and %s", k.id, an.String(), bn.String()))
					continue
				}

				av, bv := a.file.Version(), b.file.Version()
				if av.Major > 0 && bv.Major > 0 && av.Major != bv.Major {
					errs = multierr.Append(errs, dsdlerr.Newf(dsdlerr.FixedPortIDCollision,
						"fixed port-ID %d is shared across major versions %s and %s of %s",
						k.id, av.String(), bv.String(), an.String()))
				}
			}
		}
	}

	return errs
}

func fixedPortIDOf(e *entry) (uint32, bool) {
	switch t := e.typ.(type) {
	case *ast.ServiceType:
		return t.FixedPortID()
	case ast.CompositeType:
		return t.FixedPortID()
	default:
		return 0, false
	}
}

// checkMinorVersionCompatibility implements §4.7's same-(full_name, major)
// minor-version rules.
func checkMinorVersionCompatibility(entries []*entry) error {
	var errs error

	byNameMajor := map[string][]*entry{}

	for _, e := range entries {
		key := e.file.FullName().String() + "@" + versionMajorKey(e.file.Version())
		byNameMajor[key] = append(byNameMajor[key], e)
	}

	for _, group := range byNameMajor {
		errs = multierr.Append(errs, checkMinorGroup(group))
	}

	return errs
}

func versionMajorKey(v ast.Version) string {
	return strconv.Itoa(int(v.Major))
}

func checkMinorGroup(group []*entry) error {
	if len(group) < 2 {
		return nil
	}

	var errs error

	seenMinors := map[uint8]bool{}

	for i, e := range group {
		v := e.file.Version()
		if seenMinors[v.Minor] {
			errs = multierr.Append(errs, dsdlerr.Newf(dsdlerr.MultipleDefinitionsUnderSameVersion,
				"%s has more than one definition for version %s", e.file.FullName().String(), v.String()))
		}

		seenMinors[v.Minor] = true

		for j := i + 1; j < len(group); j++ {
			errs = multierr.Append(errs, checkMinorPair(e, group[j]))
		}
	}

	return errs
}

func checkMinorPair(a, b *entry) error {
	var errs error

	name := a.file.FullName().String()

	if isServiceEntry(a) != isServiceEntry(b) {
		errs = multierr.Append(errs, dsdlerr.New(dsdlerr.VersionsOfDifferentKind,
			name+" has both a message and a service definition under the same major version"))
		return errs
	}

	aID, aHas := fixedPortIDOf(a)
	bID, bHas := fixedPortIDOf(b)

	av, bv := a.file.Version(), b.file.Version()

	if aHas && bHas && aID != bID {
		errs = multierr.Append(errs, dsdlerr.Newf(dsdlerr.MinorVersionFixedPortID,
			"%s minor versions %s and %s disagree on their fixed port-ID", name, av.String(), bv.String()))
	} else if aHas != bHas {
		older := a
		if bv.Minor < av.Minor {
			older = b
		}

		if _, has := fixedPortIDOf(older); has {
			errs = multierr.Append(errs, dsdlerr.Newf(dsdlerr.MinorVersionFixedPortID,
				"%s: only the newer minor version may introduce a fixed port-ID", name))
		}
	}

	if av.Major == 0 {
		return errs
	}

	// A service is compared section by section: Request against Request,
	// Response against Response.
	bSections := asCompositeList(b.typ)
	for k, aSec := range asCompositeList(a.typ) {
		aExt, _ := extentOfComposite(aSec)
		if bExt, _ := extentOfComposite(bSections[k]); aExt != bExt {
			errs = multierr.Append(errs, dsdlerr.Newf(dsdlerr.ExtentConsistency,
				"%s minor versions %s and %s disagree on extent", name, av.String(), bv.String()))
		}

		aSealed, _ := sealedOfComposite(aSec)
		if bSealed, _ := sealedOfComposite(bSections[k]); aSealed != bSealed {
			errs = multierr.Append(errs, dsdlerr.Newf(dsdlerr.SealingConsistency,
				"%s minor versions %s and %s disagree on sealing", name, av.String(), bv.String()))
		}
	}

	return errs
}

func extentOf(e *entry) (uint, bool) {
	switch t := e.typ.(type) {
	case *ast.ServiceType:
		reqExt, ok1 := extentOfComposite(t.Request)
		respExt, ok2 := extentOfComposite(t.Response)

		if ok1 && ok2 {
			return reqExt + respExt, true
		}

		return 0, false
	case ast.CompositeType:
		return extentOfComposite(t)
	default:
		return 0, false
	}
}

func extentOfComposite(ct ast.CompositeType) (uint, bool) {
	return ct.Extent(), true
}

func sealedOf(e *entry) (bool, bool) {
	switch t := e.typ.(type) {
	case *ast.ServiceType:
		reqSealed, ok1 := sealedOfComposite(t.Request)
		respSealed, ok2 := sealedOfComposite(t.Response)

		if ok1 && ok2 {
			return reqSealed == respSealed, true
		}

		return false, false
	case ast.CompositeType:
		return sealedOfComposite(t)
	default:
		return false, false
	}
}

func sealedOfComposite(ct ast.CompositeType) (bool, bool) {
	_, isDelimited := ct.(*ast.DelimitedType)
	return !isDelimited, true
}
