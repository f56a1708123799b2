package cli

import (
	"github.com/cyphal-go/dsdl/internal/telemetry"
	"github.com/cyphal-go/dsdl/pkg/dsdl"
	"github.com/spf13/cobra"
)

var lintCmd = &cobra.Command{
	Use:   "lint [files...]",
	Short: "Validate a set of DSDL files without printing their contents.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLint,
}

func runLint(cmd *cobra.Command, args []string) error {
	lookupDirs, _ := cmd.Flags().GetStringSlice("lookup-dir")
	allowUnregulated, _ := cmd.Flags().GetBool("allow-unregulated")
	debug, _ := cmd.Flags().GetBool("debug")

	logger := telemetry.New(debug)
	defer logger.Sync() //nolint:errcheck

	opts := []dsdl.Option{dsdl.WithLogger(logger)}
	if allowUnregulated {
		opts = append(opts, dsdl.WithAllowUnregulatedFixedPortID())
	}

	res, err := dsdl.ReadFiles(args, lookupDirs, opts...)
	if err != nil {
		return reportError(cmd, err)
	}

	telemetry.LogSummary(logger, telemetry.SessionStats{
		Direct: len(res.Direct), Transitive: len(res.Transitive),
		LookupDirs: len(lookupDirs), Unregulated: allowUnregulated,
	})

	log.Infof("%d direct, %d transitive composite types validated", len(res.Direct), len(res.Transitive))

	return nil
}
