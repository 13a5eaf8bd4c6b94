// Package logger defines the logging sink handed to every pipeline stage.
// Stages never reach for a process-wide logger; each conversion gets its own
// child logger so that concurrent files do not share diagnostic context.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLevel maps a config string to a level, defaulting to info
func ParseLevel(s string) LogLevel {
	switch s {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warning(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// ZerologAdapter implements Logger on top of zerolog
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerolog creates a JSON logger. Timestamps are RFC 3339 regardless of the
// process-wide zerolog settings.
func NewZerolog(writer io.Writer, level LogLevel) *ZerologAdapter {
	if writer == nil {
		writer = os.Stderr
	}

	logger := zerolog.New(writer).
		Level(toZerolog(level)).
		Hook(timestampHook{layout: time.RFC3339}).
		With().
		Str("name", "dcmtojpeg").
		Logger()

	return &ZerologAdapter{logger: logger}
}

// timestampHook stamps every event with its own layout
type timestampHook struct {
	layout string
}

func (h timestampHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Str(zerolog.TimestampFieldName, time.Now().Format(h.layout))
}

func NewConsoleLogger(level LogLevel) *ZerologAdapter {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return NewZerolog(consoleWriter, level)
}

func (l *ZerologAdapter) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologAdapter) Info(msg string, fields map[string]interface{}) {
	l.logger.Info().Fields(fields).Msg(msg)
}

func (l *ZerologAdapter) Warning(msg string, fields map[string]interface{}) {
	l.logger.Warn().Fields(fields).Msg(msg)
}

func (l *ZerologAdapter) Error(msg string, err error, fields map[string]interface{}) {
	l.logger.Error().Err(err).Fields(fields).Msg(msg)
}

// With returns a child logger carrying the given fields on every event
func (l *ZerologAdapter) With(fields map[string]interface{}) Logger {
	return &ZerologAdapter{logger: l.logger.With().Fields(fields).Logger()}
}

func toZerolog(level LogLevel) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type nop struct{}

// Nop returns a Logger that discards everything
func Nop() Logger { return nop{} }

func (nop) Debug(string, map[string]interface{}) {}
func (nop) Info(string, map[string]interface{}) {}
func (nop) Warning(string, map[string]interface{}) {}
func (nop) Error(string, error, map[string]interface{}) {}
func (n nop) With(map[string]interface{}) Logger { return n }
