package logging

import (
	"io"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Level represents log severity.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "debug":
		return Debug
	case "warn":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

type Logger struct {
	min Level
	l   *charmlog.Logger
}

// New logs to stderr; JSON output goes to stdout so it can be piped.
func New(level string, jsonOut bool) *Logger {
	out := io.Writer(os.Stderr)
	if jsonOut {
		out = os.Stdout
	}
	return NewWithWriter(out, level, jsonOut)
}

// NewWithWriter is New with an explicit destination (the TUI logs to a file).
func NewWithWriter(out io.Writer, level string, jsonOut bool) *Logger {
	min := ParseLevel(level)
	opts := charmlog.Options{
		Level:           charmLevel(min),
		ReportTimestamp: jsonOut,
		Formatter:       charmlog.TextFormatter,
	}
	if jsonOut {
		opts.Formatter = charmlog.JSONFormatter
	}
	return &Logger{min: min, l: charmlog.NewWithOptions(out, opts)}
}

// Discard returns a logger that drops everything; handy for tests.
func Discard() *Logger { return NewWithWriter(io.Discard, "error", false) }

func (l *Logger) Enabled(v Level) bool { return l != nil && v >= l.min }

func (l *Logger) Debugf(format string, a ...any) {
	if l.Enabled(Debug) {
		l.l.Debugf(format, a...)
	}
}

func (l *Logger) Infof(format string, a ...any) {
	if l.Enabled(Info) {
		l.l.Infof(format, a...)
	}
}

func (l *Logger) Warnf(format string, a ...any) {
	if l.Enabled(Warn) {
		l.l.Warnf(format, a...)
	}
}

func (l *Logger) Errorf(format string, a ...any) {
	if l.Enabled(Error) {
		l.l.Errorf(format, a...)
	}
}

// With returns a child logger carrying key/value pairs on every line.
func (l *Logger) With(keyvals ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{min: l.min, l: l.l.With(keyvals...)}
}

func charmLevel(l Level) charmlog.Level {
	switch l {
	case Debug:
		return charmlog.DebugLevel
	case Warn:
		return charmlog.WarnLevel
	case Error:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}
