// Package logging provides zap-based structured logging
package logging

import (
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

// Config configures the zap logger.
type Config struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string

	// Output defaults to stderr.
	Output io.Writer

	// JSON switches from the console encoder to the JSON encoder.
	JSON bool

	// Name is attached to every entry.
	Name string
}

// ZapAdapter wraps zap.Logger to implement billing.Logger.
type ZapAdapter struct {
	logger *zap.Logger
}

// NewZapLogger creates a new zap-based logger.
func NewZapLogger(config Config) *ZapAdapter {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if config.JSON {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	var writer zapcore.WriteSyncer
	if config.Output != nil {
		writer = zapcore.AddSync(config.Output)
	} else {
		writer = zapcore.Lock(os.Stderr)
	}

	logger := zap.New(zapcore.NewCore(encoder, writer, ParseLevel(config.Level)))
	if config.Name != "" {
		logger = logger.Named(config.Name)
	}

	return &ZapAdapter{logger: logger}
}

// NewFromZap wraps an existing zap logger.
func NewFromZap(logger *zap.Logger) *ZapAdapter {
	return &ZapAdapter{logger: logger}
}

// Debug logs a debug message.
func (z *ZapAdapter) Debug(msg string, fields map[string]interface{}) {
	z.logger.Debug(msg, convertFields(fields)...)
}

// Info logs an info message.
func (z *ZapAdapter) Info(msg string, fields map[string]interface{}) {
	z.logger.Info(msg, convertFields(fields)...)
}

// Warn logs a warning message.
func (z *ZapAdapter) Warn(msg string, fields map[string]interface{}) {
	z.logger.Warn(msg, convertFields(fields)...)
}

// Error logs an error message.
func (z *ZapAdapter) Error(msg string, fields map[string]interface{}) {
	z.logger.Error(msg, convertFields(fields)...)
}

// Sync flushes any buffered log entries.
func (z *ZapAdapter) Sync() error {
	return z.logger.Sync()
}

// ParseLevel converts a level name to a zap level.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// convertFields converts a field map to zap fields in key order.
func convertFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	zapFields := make([]zap.Field, 0, len(keys))
	for _, key := range keys {
		if err, ok := fields[key].(error); ok {
			zapFields = append(zapFields, zap.NamedError(key, err))

			continue
		}

		zapFields = append(zapFields, zap.Any(key, fields[key]))
	}

	return zapFields
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]interface{}) {}
func (NopLogger) Info(string, map[string]interface{})  {}
func (NopLogger) Warn(string, map[string]interface{})  {}
func (NopLogger) Error(string, map[string]interface{}) {}

// OrNop returns logger, or a NopLogger when logger is nil.
func OrNop(logger billing.Logger) billing.Logger {
	if logger == nil {
		return NopLogger{}
	}

	return logger
}
