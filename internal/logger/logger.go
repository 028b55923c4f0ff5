package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Logger is the application logger instance
var Logger = zerolog.Nop()

// Init configures the global logger. Output goes to stderr so command output
// on stdout stays machine readable.
func Init(level, format string) zerolog.Logger {
	Logger = New(os.Stderr, level, format)
	zerolog.SetGlobalLevel(parseLogLevel(level))
	log.Logger = Logger
	return Logger
}

// New builds a logger writing to w. Format "json" gives structured lines,
// anything else a console writer.
func New(w io.Writer, level, format string) zerolog.Logger {
	var out io.Writer = w
	if strings.ToLower(format) != "json" {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.Kitchen,
			NoColor:    !isTerminal(w),
		}
	}

	return zerolog.New(out).
		Level(parseLogLevel(level)).
		With().
		Timestamp().
		Logger()
}

// parseLogLevel parses string log level to zerolog level. A CLI is quiet by
// default.
func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.WarnLevel
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// GetLogger returns the configured logger instance
func GetLogger() zerolog.Logger {
	return Logger
}
