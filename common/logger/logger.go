package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides a unified logging interface for the assistant.
// Messages are printf-style and written by a zap console core to stderr,
// which keeps stdout free for the MCP stdio transport.

// LogLevel represents log severity levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu sync.RWMutex

	// CurrentLevel is the current logging level (default: Info)
	CurrentLevel = LevelInfo

	backend = newBackend(os.Stderr)
)

func newBackend(w io.Writer) *zap.Logger {
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	// The level gate lives in this package, so the core accepts everything.
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(zapcore.DebugLevel))
	return zap.New(core)
}

// Debugf logs a debug message
func Debugf(format string, args ...interface{}) {
	logf(LevelDebug, format, args...)
}

// Infof logs an info message
func Infof(format string, args ...interface{}) {
	logf(LevelInfo, format, args...)
}

// Warnf logs a warning message
func Warnf(format string, args ...interface{}) {
	logf(LevelWarn, format, args...)
}

// Errorf logs an error message
func Errorf(format string, args ...interface{}) {
	logf(LevelError, format, args...)
}

func logf(level LogLevel, format string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	if level < CurrentLevel {
		return
	}
	backend.Log(zapLevel(level), fmt.Sprintf(format, args...))
}

func zapLevel(level LogLevel) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLevel sets the minimum log level
func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	CurrentLevel = level
}

// SetOutput redirects log output. Useful for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	_ = backend.Sync()
	backend = newBackend(w)
}

// Sync flushes buffered output. Call before exit.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = backend.Sync()
}

// ParseLevel maps a config string to a level. Unknown values map to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ContextLogger prefixes every message with a fixed set of key=value pairs.
type ContextLogger struct {
	prefix string
}

// WithContext creates a new logger with context
func WithContext(fields map[string]interface{}) *ContextLogger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v ", k, fields[k])
	}
	return &ContextLogger{prefix: b.String()}
}

// Debugf logs with context
func (c *ContextLogger) Debugf(format string, args ...interface{}) {
	Debugf(c.prefix+format, args...)
}

// Infof logs with context
func (c *ContextLogger) Infof(format string, args ...interface{}) {
	Infof(c.prefix+format, args...)
}

// Warnf logs with context
func (c *ContextLogger) Warnf(format string, args ...interface{}) {
	Warnf(c.prefix+format, args...)
}

// Errorf logs with context
func (c *ContextLogger) Errorf(format string, args ...interface{}) {
	Errorf(c.prefix+format, args...)
}
