package logger

import (
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Logger is a leveled key/value logger. Callers pass a message followed by
// alternating keys and values.
type Logger struct {
	kit log.Logger
}

// NewLogger builds a Logger writing logfmt lines to stderr. levelName is one
// of debug, info, warn, error; anything else means info.
func NewLogger(levelName string) *Logger {
	return NewLoggerWithWriter(levelName, os.Stderr)
}

// NewLoggerWithWriter builds a Logger writing to w.
func NewLoggerWithWriter(levelName string, w io.Writer) *Logger {
	kit := log.NewLogfmtLogger(log.NewSyncWriter(w))
	kit = log.With(kit, "ts", log.DefaultTimestampUTC, "caller", log.Caller(5))
	kit = level.NewFilter(kit, levelOption(levelName))
	return &Logger{kit: kit}
}

// NewNopLogger returns a Logger that discards everything. Intended for tests.
func NewNopLogger() *Logger {
	return &Logger{kit: log.NewNopLogger()}
}

// With returns a Logger with kv pairs attached to every line.
func (l *Logger) With(kv ...interface{}) *Logger {
	return &Logger{kit: log.With(l.kit, kv...)}
}

func (l *Logger) Debug(msg string, kv ...interface{}) {
	_ = level.Debug(l.kit).Log(append([]interface{}{"msg", msg}, kv...)...)
}

func (l *Logger) Info(msg string, kv ...interface{}) {
	_ = level.Info(l.kit).Log(append([]interface{}{"msg", msg}, kv...)...)
}

func (l *Logger) Warn(msg string, kv ...interface{}) {
	_ = level.Warn(l.kit).Log(append([]interface{}{"msg", msg}, kv...)...)
}

func (l *Logger) Error(msg string, kv ...interface{}) {
	_ = level.Error(l.kit).Log(append([]interface{}{"msg", msg}, kv...)...)
}

func levelOption(name string) level.Option {
	switch name {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}
