package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger flavour.
type Options struct {
	// Level is a LOG_LEVEL value: debug, info, warn (or warning), error.
	// Anything else logs at info.
	Level string
	// Debug forces debug level and enables development behaviour.
	Debug bool
	// JSON selects structured output for the CloudWatch agent; otherwise
	// a console encoder is used.
	JSON bool
}

// New creates a structured logger writing to stderr. An unrecognised level
// falls back to info and is reported once through the new logger.
func New(opts Options) (*zap.Logger, error) {
	level, levelErr := ParseLevel(opts.Level)

	var cfg zap.Config
	if opts.JSON {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "json"
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Encoding = "console"
		cfg.Development = false
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.StacktraceKey = "stacktrace"
	cfg.DisableStacktrace = !opts.Debug

	if opts.Debug {
		level = zapcore.DebugLevel
		cfg.Development = true
		cfg.Sampling = nil
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	if levelErr != nil {
		logger.Warn("unrecognised LOG_LEVEL, using info",
			zap.String("log_level", opts.Level),
			zap.Error(levelErr),
		)
	}
	return logger, nil
}

// ParseLevel maps a LOG_LEVEL value to a zap level. An empty value means info.
// Unknown values return info together with an error describing the input.
func ParseLevel(raw string) (zapcore.Level, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch normalized {
	case "":
		return zapcore.InfoLevel, nil
	case "warning":
		return zapcore.WarnLevel, nil
	case "debug", "info", "warn", "error":
		level, err := zapcore.ParseLevel(normalized)
		if err != nil {
			return zapcore.InfoLevel, fmt.Errorf("parse log level: %w", err)
		}
		return level, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", raw)
}
