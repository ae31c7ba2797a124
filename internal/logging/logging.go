// Package logging builds the process-wide structured logger from the resolved
// settings. The returned atomic level lets a configuration reload retune
// verbosity without rebuilding the logger.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a production-ready structured logger configured for JSON output.
// The level argument uses the configuration spelling (DEBUG, INFO, WARNING,
// ERROR, CRITICAL); debug enables development mode and disables sampling.
func New(level string, debug bool) (*zap.Logger, zap.AtomicLevel, error) {
	zapLevel, err := ParseLevel(level)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.StacktraceKey = "stacktrace"
	cfg.DisableStacktrace = false
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	if debug {
		cfg.Development = true
		cfg.Sampling = nil
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("build logger: %w", err)
	}
	return logger, cfg.Level, nil
}

// ParseLevel maps a configuration logging level onto a zap level. CRITICAL
// collapses onto zap's fatal level, the most severe threshold available.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zapcore.DebugLevel, nil
	case "INFO":
		return zapcore.InfoLevel, nil
	case "WARNING":
		return zapcore.WarnLevel, nil
	case "ERROR":
		return zapcore.ErrorLevel, nil
	case "CRITICAL":
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InvalidLevel, fmt.Errorf("unknown logging level %q", level)
	}
}
