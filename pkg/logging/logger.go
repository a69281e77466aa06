package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// encoderConfig keeps the time/level/msg keys stable across backends
func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.LevelKey = "level"
	cfg.MessageKey = "msg"
	cfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	return cfg
}

// NewLogger creates a JSON logger writing to w
func NewLogger(writer io.Writer, level Level) *ZapLogger {
	atom := zap.NewAtomicLevelAt(level.zapLevel())
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(writer),
		atom,
	)
	return &ZapLogger{logger: zap.New(core), level: atom}
}

// NewConsoleLogger creates a human-readable logger writing to w
func NewConsoleLogger(writer io.Writer, level Level) *ZapLogger {
	atom := zap.NewAtomicLevelAt(level.zapLevel())
	cfg := encoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.00")
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.AddSync(writer),
		atom,
	)
	return &ZapLogger{logger: zap.New(core), level: atom}
}

// NewZapLogger wraps an existing zap logger. The wrapper's level only
// filters on top of whatever the zap core already enables.
func NewZapLogger(l *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: l, level: zap.NewAtomicLevelAt(zapcore.DebugLevel)}
}

// NewDefaultLogger creates a logger that writes to stdout at INFO level
func NewDefaultLogger() *ZapLogger {
	return NewLogger(os.Stdout, InfoLevel)
}

func zapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = zap.Any(f.Key, f.Value)
	}
	return out
}

// Debug logs a debug-level message
func (l *ZapLogger) Debug(msg string, fields ...Field) {
	if l.level.Enabled(zapcore.DebugLevel) {
		l.logger.Debug(msg, zapFields(fields)...)
	}
}

// Info logs an info-level message
func (l *ZapLogger) Info(msg string, fields ...Field) {
	if l.level.Enabled(zapcore.InfoLevel) {
		l.logger.Info(msg, zapFields(fields)...)
	}
}

// Warn logs a warning-level message
func (l *ZapLogger) Warn(msg string, fields ...Field) {
	if l.level.Enabled(zapcore.WarnLevel) {
		l.logger.Warn(msg, zapFields(fields)...)
	}
}

// Error logs an error-level message
func (l *ZapLogger) Error(msg string, fields ...Field) {
	if l.level.Enabled(zapcore.ErrorLevel) {
		l.logger.Error(msg, zapFields(fields)...)
	}
}

// With creates a child logger with the given fields pre-set
func (l *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{
		logger: l.logger.With(zapFields(fields)...),
		level:  l.level,
	}
}

// SetLevel sets the minimum log level
func (l *ZapLogger) SetLevel(level Level) {
	l.level.SetLevel(level.zapLevel())
}

// GetLevel returns the current log level
func (l *ZapLogger) GetLevel() Level {
	return levelFromZap(l.level.Level())
}

// Sync flushes buffered entries
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

// Global default logger
var (
	defaultLogger Logger
	defaultMu     sync.RWMutex
	once          sync.Once
)

// DefaultLogger returns the global default logger
func DefaultLogger() Logger {
	once.Do(func() {
		level := InfoLevel
		if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
			level = ParseLevel(levelStr)
		}
		defaultMu.Lock()
		if defaultLogger == nil {
			defaultLogger = NewLogger(os.Stderr, level)
		}
		defaultMu.Unlock()
	})
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger Logger) {
	once.Do(func() {})
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
}

// Helper functions that use the default logger

// Debug logs a debug-level message using the default logger
func Debug(msg string, fields ...Field) {
	DefaultLogger().Debug(msg, fields...)
}

// Info logs an info-level message using the default logger
func Info(msg string, fields ...Field) {
	DefaultLogger().Info(msg, fields...)
}

// Warn logs a warning-level message using the default logger
func Warn(msg string, fields ...Field) {
	DefaultLogger().Warn(msg, fields...)
}

// ErrorLog logs an error-level message using the default logger
// Named ErrorLog to avoid conflict with Error field constructor
func ErrorLog(msg string, fields ...Field) {
	DefaultLogger().Error(msg, fields...)
}

// With creates a child logger with the given fields pre-set using the default logger
func With(fields ...Field) Logger {
	return DefaultLogger().With(fields...)
}

// StartTimer begins timing an operation
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{
		logger: logger,
		msg:    msg,
		start:  time.Now(),
		fields: fields,
	}
}

// Elapsed returns the time since the timer started
func (t *TimedOperation) Elapsed() time.Duration {
	return time.Since(t.start)
}

// End logs the operation with its duration
func (t *TimedOperation) End() {
	t.logger.Info(t.msg, append(t.fields, Latency(t.Elapsed()))...)
}

// EndWithLevel logs the operation at the specified level with its duration
func (t *TimedOperation) EndWithLevel(level Level, extra ...Field) {
	fields := append(append(t.fields, extra...), Latency(t.Elapsed()))
	switch level {
	case DebugLevel:
		t.logger.Debug(t.msg, fields...)
	case InfoLevel:
		t.logger.Info(t.msg, fields...)
	case WarnLevel:
		t.logger.Warn(t.msg, fields...)
	case ErrorLevel:
		t.logger.Error(t.msg, fields...)
	}
}

// EndError logs the operation as an error with its duration
func (t *TimedOperation) EndError(err error) {
	t.logger.Error(t.msg, append(t.fields, Latency(t.Elapsed()), Error(err))...)
}
