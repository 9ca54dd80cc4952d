package common

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Severity represents log message severity levels
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity maps a level name to a Severity; ok is false for unknown names.
func ParseSeverity(name string) (Severity, bool) {
	switch name {
	case "debug", "trace":
		return SeverityDebug, true
	case "info", "":
		return SeverityInfo, true
	case "warn", "warning":
		return SeverityWarning, true
	case "error":
		return SeverityError, true
	}
	return SeverityInfo, false
}

// Logger interface defines the logging contract for the decoder pipeline
type Logger interface {
	// Log logs a message with the specified severity
	Log(severity Severity, msg string)

	// Logf logs a formatted message with the specified severity
	Logf(severity Severity, format string, args ...interface{})

	// Error logs an error
	Error(err error)

	// Debug logs a debug message
	Debug(msg string)

	// Info logs an info message
	Info(msg string)

	// Warning logs a warning message
	Warning(msg string)
}

// ZeroLogger implements the Logger interface on top of zerolog
type ZeroLogger struct {
	zl       zerolog.Logger
	minLevel Severity
}

// NewZeroLogger wraps an existing zerolog logger
func NewZeroLogger(zl zerolog.Logger, minLevel Severity) *ZeroLogger {
	return &ZeroLogger{zl: zl, minLevel: minLevel}
}

// NewZeroLoggerWithWriter creates a JSON logger writing to w
func NewZeroLoggerWithWriter(w io.Writer, minLevel Severity) *ZeroLogger {
	if w == nil {
		w = os.Stderr
	}
	return NewZeroLogger(zerolog.New(w).With().Timestamp().Logger(), minLevel)
}

// With returns a child logger that adds a string field to every message
func (l *ZeroLogger) With(key, value string) *ZeroLogger {
	return &ZeroLogger{zl: l.zl.With().Str(key, value).Logger(), minLevel: l.minLevel}
}

// Zerolog exposes the underlying logger for structured call sites
func (l *ZeroLogger) Zerolog() zerolog.Logger {
	return l.zl
}

// Log logs a message with the specified severity
func (l *ZeroLogger) Log(severity Severity, msg string) {
	if severity < l.minLevel {
		return
	}

	switch severity {
	case SeverityDebug:
		l.zl.Debug().Msg(msg)
	case SeverityInfo:
		l.zl.Info().Msg(msg)
	case SeverityWarning:
		l.zl.Warn().Msg(msg)
	case SeverityError:
		l.zl.Error().Msg(msg)
	}
}

// Logf logs a formatted message with the specified severity
func (l *ZeroLogger) Logf(severity Severity, format string, args ...interface{}) {
	if severity < l.minLevel {
		return
	}
	l.Log(severity, fmt.Sprintf(format, args...))
}

// Error logs an error
func (l *ZeroLogger) Error(err error) {
	if err != nil && SeverityError >= l.minLevel {
		l.zl.Error().Err(err).Send()
	}
}

// Debug logs a debug message
func (l *ZeroLogger) Debug(msg string) {
	l.Log(SeverityDebug, msg)
}

// Info logs an info message
func (l *ZeroLogger) Info(msg string) {
	l.Log(SeverityInfo, msg)
}

// Warning logs a warning message
func (l *ZeroLogger) Warning(msg string) {
	l.Log(SeverityWarning, msg)
}

// NoOpLogger is a logger that doesn't log anything
type NoOpLogger struct{}

// NewNoOpLogger creates a new no-op logger
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// Log does nothing
func (l *NoOpLogger) Log(severity Severity, msg string) {}

// Logf does nothing
func (l *NoOpLogger) Logf(severity Severity, format string, args ...interface{}) {}

// Error does nothing
func (l *NoOpLogger) Error(err error) {}

// Debug does nothing
func (l *NoOpLogger) Debug(msg string) {}

// Info does nothing
func (l *NoOpLogger) Info(msg string) {}

// Warning does nothing
func (l *NoOpLogger) Warning(msg string) {}
