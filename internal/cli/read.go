package cli

import (
	"os"

	"github.com/cyphal-go/dsdl/internal/telemetry"
	"github.com/cyphal-go/dsdl/pkg/ast"
	"github.com/cyphal-go/dsdl/pkg/dsdl"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var readCmd = &cobra.Command{
	Use:   "read [root] [additional lookup dirs...]",
	Short: "Read and validate a DSDL namespace, printing its composite types as JSON.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRead,
}

// summary is the JSON projection of an ast.CompositeType emitted by `dsdl
// read`; the full type graph is richer than any one wire format needs; this
// mirrors what a generated-bindings tool would actually consume.
type summary struct {
	FullName    string `json:"full_name"`
	Version     string `json:"version"`
	Kind        string `json:"kind"`
	ExtentBits  uint   `json:"extent_bits"`
	FixedPortID *uint32 `json:"fixed_port_id,omitempty"`
	SourcePath  string `json:"source_path"`
	FieldCount  int    `json:"field_count"`
}

func summarize(ct ast.CompositeType) summary {
	s := summary{
		FullName:   ct.FullName().String(),
		Version:    ct.Version().String(),
		ExtentBits: ct.Extent(),
		SourcePath: ct.SourcePath(),
		FieldCount: len(ct.Fields()),
	}

	switch ct.(type) {
	case *ast.UnionType:
		s.Kind = "union"
	case *ast.DelimitedType:
		s.Kind = "delimited"
	default:
		s.Kind = "structure"
	}

	if id, ok := ct.FixedPortID(); ok {
		s.FixedPortID = &id
	}

	return s
}

func runRead(cmd *cobra.Command, args []string) error {
	lookupDirs, _ := cmd.Flags().GetStringSlice("lookup-dir")
	allowUnregulated, _ := cmd.Flags().GetBool("allow-unregulated")
	debug, _ := cmd.Flags().GetBool("debug")

	logger := telemetry.New(debug)
	defer logger.Sync() //nolint:errcheck

	opts := []dsdl.Option{dsdl.WithLogger(logger)}
	if allowUnregulated {
		opts = append(opts, dsdl.WithAllowUnregulatedFixedPortID())
	}

	opts = append(opts, dsdl.WithPrintHandler(func(path string, line int, text string) {
		log.Infof("%s:%d: %s", path, line, text)
	}))

	types, err := dsdl.ReadNamespace(args[0], append(lookupDirs, args[1:]...), opts...)
	if err != nil {
		return reportError(cmd, err)
	}

	telemetry.LogSummary(logger, telemetry.SessionStats{
		Direct: len(types), LookupDirs: len(lookupDirs), Unregulated: allowUnregulated,
	})

	out := make([]summary, len(types))
	for i, ct := range types {
		out[i] = summarize(ct)
	}

	width, _, err2 := term.GetSize(int(os.Stdout.Fd()))
	indent := "  "

	if err2 != nil || width < 80 {
		indent = ""
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", indent)

	return enc.Encode(out)
}
