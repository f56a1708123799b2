// Package telemetry configures the structured build-session logger shared
// by the CLI and the front-end packages that accept a *zap.Logger, mirroring
// the teacher's field-agnostic command wiring in pkg/cmd/zkc with zap in
// place of ad hoc fmt.Printf diagnostics.
package telemetry

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console-encoded logger writing to stderr, verbose when
// debug is set.
func New(debug bool) *zap.Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = ""

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}

	return logger
}

// SessionStats records the summary counters emitted at the end of a
// namespace read, per §5's "a read session owns a private ... pool".
type SessionStats struct {
	Direct      int
	Transitive  int
	LookupDirs  int
	Unregulated bool
}

// LogSummary emits SessionStats as a single structured log line.
func LogSummary(logger *zap.Logger, s SessionStats) {
	logger.Info("namespace read complete",
		zap.Int("direct", s.Direct),
		zap.Int("transitive", s.Transitive),
		zap.Int("lookup_dirs", s.LookupDirs),
		zap.Bool("unregulated_allowed", s.Unregulated),
	)
}
