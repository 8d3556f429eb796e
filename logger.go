package restrepo

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
)

// Logger is the structured logger used for debug output and diagnostics.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Level orders log verbosity; higher values are more detailed.
type Level int32

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	}
	return fmt.Sprintf("level(%d)", int32(l))
}

// ParseLevel parses a level name as printed by Level.String.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	}
	return LevelError, fmt.Errorf("restrepo: unknown log level %q", s)
}

// LevelLogger writes through an apex/log handler, dropping every call more
// detailed than its active level. The zero value logs errors through apex/log's
// package-level logger.
type LevelLogger struct {
	level  atomic.Int32
	logger log.Interface
}

// NewLevelLogger creates a logger emitting calls at or below level to handler.
func NewLevelLogger(level Level, handler log.Handler) *LevelLogger {
	l := &LevelLogger{
		logger: &log.Logger{Handler: handler, Level: log.DebugLevel},
	}
	l.level.Store(int32(level))
	return l
}

// NewSimpleLogger returns a debug-level console logger on stderr.
func NewSimpleLogger() *LevelLogger {
	return NewLevelLogger(LevelDebug, cli.New(os.Stderr))
}

func (l *LevelLogger) entry(keysAndValues []interface{}) *log.Entry {
	if l.logger == nil {
		return log.WithFields(fieldsOf(keysAndValues))
	}
	return l.logger.WithFields(fieldsOf(keysAndValues))
}

// SetLevel changes the active level.
func (l *LevelLogger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

// Level returns the active level.
func (l *LevelLogger) Level() Level {
	return Level(l.level.Load())
}

// Enabled reports whether calls at level are emitted.
func (l *LevelLogger) Enabled(level Level) bool {
	return level <= l.Level()
}

func (l *LevelLogger) Debug(msg string, keysAndValues ...interface{}) {
	if l.Enabled(LevelDebug) {
		l.entry(keysAndValues).Debug(msg)
	}
}

func (l *LevelLogger) Info(msg string, keysAndValues ...interface{}) {
	if l.Enabled(LevelInfo) {
		l.entry(keysAndValues).Info(msg)
	}
}

func (l *LevelLogger) Warn(msg string, keysAndValues ...interface{}) {
	if l.Enabled(LevelWarn) {
		l.entry(keysAndValues).Warn(msg)
	}
}

func (l *LevelLogger) Error(msg string, keysAndValues ...interface{}) {
	if l.Enabled(LevelError) {
		l.entry(keysAndValues).Error(msg)
	}
}

func fieldsOf(keysAndValues []interface{}) log.Fields {
	fields := make(log.Fields, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		if i+1 == len(keysAndValues) {
			fields["!BADKEY"] = key
			break
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
