package diagnostic

import (
	"testing"

	"github.com/cyphal-go/dsdl/pkg/dsdlerr"
)

func TestFromErrorNoPath(t *testing.T) {
	_, ok := FromError(dsdlerr.New(dsdlerr.Internal, "boom"))
	if ok {
		t.Fatalf("expected ok=false for a pathless error")
	}
}

func TestFromErrorLineIsZeroBased(t *testing.T) {
	err := dsdlerr.New(dsdlerr.AssertionCheckFailure, "assertion failed").At("foo/Bar.1.0.dsdl", 5)

	pub, ok := FromError(err)
	if !ok {
		t.Fatalf("expected ok=true for a located error")
	}

	if pub.Diagnostics[0].Range.Start.Line != 4 {
		t.Fatalf("expected 0-based line 4, got %d", pub.Diagnostics[0].Range.Start.Line)
	}

	if pub.Diagnostics[0].Code != "AssertionCheckFailure" {
		t.Fatalf("unexpected code: %v", pub.Diagnostics[0].Code)
	}
}

func TestFromErrorsGroupsByFile(t *testing.T) {
	errs := []error{
		dsdlerr.New(dsdlerr.InvalidName, "a").At("foo/Bar.1.0.dsdl", 1),
		dsdlerr.New(dsdlerr.InvalidName, "b").At("foo/Bar.1.0.dsdl", 2),
		dsdlerr.New(dsdlerr.InvalidName, "c").At("foo/Baz.1.0.dsdl", 1),
	}

	pubs := FromErrors(errs)
	if len(pubs) != 2 {
		t.Fatalf("expected 2 publications, got %d", len(pubs))
	}

	if len(pubs[0].Diagnostics) != 2 {
		t.Fatalf("expected 2 diagnostics grouped under the first file, got %d", len(pubs[0].Diagnostics))
	}
}

func TestFromErrorsSkipsUnknownErrorTypes(t *testing.T) {
	errs := []error{
		dsdlerr.New(dsdlerr.InvalidName, "a").At("foo/Bar.1.0.dsdl", 1),
		errPlain("not a dsdlerr"),
	}

	pubs := FromErrors(errs)
	if len(pubs) != 1 {
		t.Fatalf("expected the plain error to be skipped, got %d publications", len(pubs))
	}
}

type errPlain string

func (e errPlain) Error() string { return string(e) }
