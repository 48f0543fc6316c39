// Package logging builds the structured diagnostic logger. User-facing output
// goes through pkg/ui; this log records transaction-level detail.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the log level and destination.
type Options struct {
	Verbose bool
	// File, when set, receives the log instead of stderr.
	File string
}

// New returns a JSON logger. Without --verbose or a log file it returns a
// no-op logger: every failure is already reported through pkg/ui.
func New(opts Options) (*zap.Logger, error) {
	if !opts.Verbose && opts.File == "" {
		return zap.NewNop(), nil
	}

	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	config.Sampling = nil

	level := zapcore.InfoLevel
	if opts.File != "" {
		config.OutputPaths = []string{opts.File}
		config.ErrorOutputPaths = []string{opts.File}
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(level)

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
