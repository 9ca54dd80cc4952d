package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"itmscope/common"
)

// EnvLogLevel overrides the configured log level.
const EnvLogLevel = "ITMSCOPE_LOG_LEVEL"

// InitLogger installs a console logger as the global zerolog logger.
func InitLogger(app, level string) zerolog.Logger {
	return InitLoggerTo(os.Stderr, app, level)
}

// InitLoggerTo is InitLogger with an explicit writer.
func InitLoggerTo(w io.Writer, app, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	lvl := ResolveLevel(level)
	logger := zerolog.New(output).Level(lvl).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// ResolveLevel applies the env override to the configured level name.
func ResolveLevel(configured string) zerolog.Level {
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		return lvl
	}
	if lvl, ok := parseLevel(configured); ok {
		return lvl
	}
	return zerolog.InfoLevel
}

// DecoderLogger adapts a zerolog logger to the pipeline Logger interface,
// filtering at the same level.
func DecoderLogger(zl zerolog.Logger) *common.ZeroLogger {
	return common.NewZeroLogger(zl, severityFor(zl.GetLevel()))
}

// severityFor maps a zerolog level to the pipeline minimum severity; levels
// above error (fatal, panic, disabled) keep only errors.
func severityFor(lvl zerolog.Level) common.Severity {
	if sev, ok := common.ParseSeverity(lvl.String()); ok {
		return sev
	}
	return common.SeverityError
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}
