// Package diagnostic converts the structured errors of pkg/dsdlerr into
// Language Server Protocol diagnostics, so an editor integration can
// underline the offending line directly rather than parsing error text.
package diagnostic

import (
	"github.com/cyphal-go/dsdl/pkg/dsdlerr"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// FromError converts a *dsdlerr.Error into a single-file diagnostic
// publication. If err carries no path, ok is false: there is nothing to
// publish against.
func FromError(err *dsdlerr.Error) (protocol.PublishDiagnosticsParams, bool) {
	if err.Path() == "" {
		return protocol.PublishDiagnosticsParams{}, false
	}

	line := err.Line()
	if line > 0 {
		line--
	}

	rng := protocol.Range{
		Start: protocol.Position{Line: uint32(line), Character: 0},
		End:   protocol.Position{Line: uint32(line), Character: 1 << 20},
	}

	return protocol.PublishDiagnosticsParams{
		URI: uri.File(err.Path()),
		Diagnostics: []protocol.Diagnostic{{
			Range:    rng,
			Severity: protocol.DiagnosticSeverityError,
			Source:   "dsdl",
			Message:  err.Error(),
			Code:     err.Kind().String(),
		}},
	}, true
}

// FromErrors converts every *dsdlerr.Error in errs (skipping anything
// else, and anything without a known path) into one publication per file.
func FromErrors(errs []error) []protocol.PublishDiagnosticsParams {
	byFile := map[uri.URI]*protocol.PublishDiagnosticsParams{}

	var order []uri.URI

	for _, e := range errs {
		de, ok := e.(*dsdlerr.Error)
		if !ok {
			continue
		}

		pub, ok := FromError(de)
		if !ok {
			continue
		}

		existing, seen := byFile[pub.URI]
		if !seen {
			byFile[pub.URI] = &pub
			order = append(order, pub.URI)

			continue
		}

		existing.Diagnostics = append(existing.Diagnostics, pub.Diagnostics...)
	}

	out := make([]protocol.PublishDiagnosticsParams, 0, len(order))
	for _, u := range order {
		out = append(out, *byFile[u])
	}

	return out
}
