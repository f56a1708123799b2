// Package cli implements the dsdl command-line front-end: a cobra root
// command with `read` and `lint` subcommands, mirroring the structure of
// the teacher's pkg/cmd/zkc package (a package-level rootCmd plus an
// Execute function called once from main).
package cli

import (
	"os"

	"github.com/cyphal-go/dsdl/internal/diagnostic"
	"github.com/cyphal-go/dsdl/pkg/dsdlerr"
	"github.com/segmentio/encoding/json"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "dsdl",
	Short: "A front-end for the DSDL schema definition language.",
	Long:  "dsdl reads, validates, and introspects Cyphal/UAVCAN DSDL namespaces.",
}

func init() {
	rootCmd.PersistentFlags().StringSlice("lookup-dir", nil, "additional lookup directory (repeatable)")
	rootCmd.PersistentFlags().Bool("allow-unregulated", false, "permit fixed port-IDs outside the regulated ranges")
	rootCmd.PersistentFlags().Bool("debug", false, "enable verbose structured logging")
	rootCmd.PersistentFlags().String("format", "text", "error reporting format: text or lsp")

	rootCmd.AddCommand(readCmd, lintCmd)
}

// Execute runs the root command, exiting the process with status 1 on
// failure. It is called exactly once from cmd/dsdl/main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

// reportError reports a read/lint failure per the command's --format flag:
// as LSP diagnostic publications (one per affected file) when --format=lsp,
// or as structured logrus fields otherwise. Either way it returns err
// unchanged so the caller's RunE propagates the original failure.
func reportError(cmd *cobra.Command, err error) error {
	format, _ := cmd.Flags().GetString("format")

	if format == "lsp" {
		pubs := diagnostic.FromErrors(multierr.Errors(err))
		if len(pubs) > 0 {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(pubs)

			return err
		}
	}

	if de, ok := err.(*dsdlerr.Error); ok {
		log.WithFields(logrusFields(de)).Error(de.Error())
		return de
	}

	log.Error(err)

	return err
}

func logrusFields(e *dsdlerr.Error) logrus.Fields {
	f := logrus.Fields{"kind": e.Kind().String()}
	if e.Path() != "" {
		f["path"] = e.Path()
	}

	if e.Line() > 0 {
		f["line"] = e.Line()
	}

	return f
}
