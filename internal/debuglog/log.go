// Package debuglog is a leveled file logger. The terminal belongs to the
// TUI, so everything goes to a file and logging is off unless enabled.
package debuglog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/adrg/xdg"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff // Disables all logging
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLogLevel parses a string into a LogLevel. Unknown input means INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "OFF":
		return LevelOff
	default:
		return LevelInfo
	}
}

var (
	mu           sync.RWMutex
	currentLevel = LevelOff
	levelVar     = new(slog.LevelVar)
	logger       *slog.Logger
	logFile      *os.File
)

// DefaultPath is $XDG_STATE_HOME/headlines/headlines.log.
func DefaultPath() (string, error) {
	return xdg.StateFile(filepath.Join("headlines", "headlines.log"))
}

// Setup configures the logging system with the specified level and optional
// file path. If filePath is empty the file lives at DefaultPath.
func Setup(level LogLevel, filePath ...string) error {
	mu.Lock()
	defer mu.Unlock()

	currentLevel = level
	levelVar.Set(level.slogLevel())

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	if level == LevelOff {
		logger = nil
		return nil
	}

	var logPath string
	if len(filePath) > 0 && filePath[0] != "" {
		logPath = filePath[0]
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	} else {
		p, err := DefaultPath()
		if err != nil {
			return fmt.Errorf("failed to resolve log path: %w", err)
		}
		logPath = p
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	logFile = f
	logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: levelVar})).
		With(slog.String("app", "headlines"))
	return nil
}

// SetLevel changes the current logging level
func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
	levelVar.Set(level.slogLevel())
}

func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// Logger returns the configured slog logger, or one that discards
// everything when logging is off. The result does not follow later
// calls to Setup.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil || currentLevel == LevelOff {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

// Close closes the log file if open
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		logger = nil
		return err
	}
	return nil
}

func logf(level LogLevel, attrs []any, format string, args ...any) {
	mu.RLock()
	l, cur := logger, currentLevel
	mu.RUnlock()
	if l == nil || cur == LevelOff || level < cur {
		return
	}
	l.Log(context.Background(), level.slogLevel(), fmt.Sprintf(format, args...), attrs...)
}

func Debugf(format string, args ...any) {
	logf(LevelDebug, nil, format, args...)
}

func Infof(format string, args ...any) {
	logf(LevelInfo, nil, format, args...)
}

func Warnf(format string, args ...any) {
	logf(LevelWarn, nil, format, args...)
}

func Errorf(format string, args ...any) {
	logf(LevelError, nil, format, args...)
}

// FieldLogger attaches key/value pairs to every message.
type FieldLogger struct {
	attrs []any
}

// WithFields returns a logger with the given fields, emitted in key order.
func WithFields(fields map[string]any) *FieldLogger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]any, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	return &FieldLogger{attrs: attrs}
}

func (fl *FieldLogger) Debugf(format string, args ...any) {
	logf(LevelDebug, fl.attrs, format, args...)
}

func (fl *FieldLogger) Infof(format string, args ...any) {
	logf(LevelInfo, fl.attrs, format, args...)
}

func (fl *FieldLogger) Warnf(format string, args ...any) {
	logf(LevelWarn, fl.attrs, format, args...)
}

func (fl *FieldLogger) Errorf(format string, args ...any) {
	logf(LevelError, fl.attrs, format, args...)
}
