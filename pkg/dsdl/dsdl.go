// Package dsdl is the public facade of the DSDL front-end, implementing
// the §6.3 API surface on top of pkg/frontend/namespace.
package dsdl

import (
	"github.com/cyphal-go/dsdl/pkg/ast"
	"github.com/cyphal-go/dsdl/pkg/frontend/builder"
	"github.com/cyphal-go/dsdl/pkg/frontend/namespace"
	"go.uber.org/zap"
)

// PrintOutputHandler is invoked for every `@print` directive encountered
// while reading a namespace, per §6.3.
type PrintOutputHandler = builder.PrintOutputHandler

// ReadResult is the direct/transitive split returned by ReadFiles, per
// §4.7's "Output" step.
type ReadResult struct {
	Direct     []ast.CompositeType
	Transitive []ast.CompositeType
}

// Option configures a read session.
type Option func(*options)

type options struct {
	allowUnregulated bool
	printHandler     PrintOutputHandler
	logger           *zap.Logger
}

// WithAllowUnregulatedFixedPortID disables the regulated fixed-port-ID
// range check of §3.6/§6.4.
func WithAllowUnregulatedFixedPortID() Option {
	return func(o *options) { o.allowUnregulated = true }
}

// WithPrintHandler installs the callback invoked by `@print` directives.
func WithPrintHandler(h PrintOutputHandler) Option {
	return func(o *options) { o.printHandler = h }
}

// WithLogger installs a structured logger for diagnostic warnings (e.g.
// the namespace pre-build heuristic check of §4.7); the default is a
// no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func resolveOptions(opts []Option) *options {
	o := &options{}
	for _, apply := range opts {
		apply(o)
	}

	return o
}

// ReadNamespace builds and validates every schema file under root against
// the given lookup directories, per §6.3's `read_namespace`. The returned
// slice holds only the direct set, newest-first by (full_name, -major,
// -minor).
func ReadNamespace(root string, lookupDirs []string, opts ...Option) ([]ast.CompositeType, error) {
	o := resolveOptions(opts)
	r := namespace.New(lookupDirs, o.printHandler, o.allowUnregulated, o.logger)

	return r.ReadNamespace(root)
}

// ReadFiles builds and validates exactly the given target files against
// the given lookup directories, per §6.3's `read_files`, classifying every
// type pulled in only as a dependency as Transitive rather than Direct.
func ReadFiles(targetFiles []string, lookupDirs []string, opts ...Option) (*ReadResult, error) {
	o := resolveOptions(opts)
	r := namespace.New(lookupDirs, o.printHandler, o.allowUnregulated, o.logger)

	res, err := r.ReadFiles("", targetFiles)
	if err != nil {
		return nil, err
	}

	return &ReadResult{Direct: res.Direct, Transitive: res.Transitive}, nil
}
