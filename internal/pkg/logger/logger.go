// Package logger exposes a global, sugared Zap logger that writes JSON to
// stdout. When an OpenTelemetry LoggerProvider has been registered through
// the telemetry package, an otelzap bridge core is added so log records are
// also exported to the telemetry backend.
package logger

import (
	"context"
	"os"
	"sync"

	"github.com/gabapcia/walletpulse/internal/pkg/telemetry"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// logger defaults to a nop implementation so library code and tests can
	// log before Init is called without blowing up.
	logger = zap.NewNop().Sugar()

	// initOnce guards the one-time configuration performed by Init.
	initOnce sync.Once
)

// config holds configuration options for the logger.
type config struct {
	level string
}

// Option configures the logger before initialization.
type Option func(*config)

// WithLevel sets the minimum log level. Accepted values are the ones
// understood by zapcore.ParseLevel ("debug", "info", "warn", "error", ...).
func WithLevel(l string) Option {
	return func(c *config) {
		c.level = l
	}
}

// Init configures the global logger. The default is JSON output to stdout at
// the "info" level. Subsequent calls after the first successful one have no
// effect. It returns an error if the configured level cannot be parsed.
func Init(opts ...Option) error {
	cfg := config{level: "info"}
	for _, opt := range opts {
		opt(&cfg)
	}

	level, err := zapcore.ParseLevel(cfg.level)
	if err != nil {
		return err
	}

	initOnce.Do(func() {
		cores := []zapcore.Core{
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				level,
			),
		}

		if lp := telemetry.LoggerProvider(); lp != nil {
			cores = append(cores, otelzap.NewCore("", otelzap.WithLoggerProvider(lp)))
		}

		logger = zap.New(zapcore.NewTee(cores...)).Sugar()
	})

	return nil
}

// Sync flushes any buffered log entries. Call it on shutdown.
func Sync() error {
	return logger.Sync()
}

// Debug logs a debug-level message with optional key/value context.
func Debug(ctx context.Context, msg string, keysAndValues ...any) {
	logger.Debugw(msg, keysAndValues...)
}

// Info logs an info-level message with optional key/value context.
func Info(ctx context.Context, msg string, keysAndValues ...any) {
	logger.Infow(msg, keysAndValues...)
}

// Warn logs a warn-level message with optional key/value context.
func Warn(ctx context.Context, msg string, keysAndValues ...any) {
	logger.Warnw(msg, keysAndValues...)
}

// Error logs an error-level message with optional key/value context.
func Error(ctx context.Context, msg string, keysAndValues ...any) {
	logger.Errorw(msg, keysAndValues...)
}

// Fatal logs a fatal-level message and exits the process.
func Fatal(ctx context.Context, msg string, keysAndValues ...any) {
	logger.Fatalw(msg, keysAndValues...)
}
