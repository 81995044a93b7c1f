package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	zl zerolog.Logger
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

func New(cfg *Config) (*Logger, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Level))
	if name == "" {
		name = "info"
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var output io.Writer
	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		output = file
	}

	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = cfg.TimeFormat

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: cfg.TimeFormat,
		}
	}

	zl := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		CallerWithSkipFrameCount(3).
		Logger()

	return &Logger{zl: zl}, nil
}

// NewWriter builds a JSON logger over w. Used by tests that assert on output.
func NewWriter(w io.Writer, level zerolog.Level) *Logger {
	return &Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger carrying the given fields on every event.
func (l *Logger) With(fields ...Field) *Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		if f.onContext != nil {
			ctx = f.onContext(ctx)
		}
	}
	return &Logger{zl: ctx.Logger()}
}

func (l *Logger) Debug(msg string, fields ...Field) { emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { emit(l.zl.Error(), msg, fields) }

// emit skips field work entirely when the level is disabled (event is nil).
func emit(event *zerolog.Event, msg string, fields []Field) {
	if event == nil {
		return
	}
	for _, f := range fields {
		if f.onEvent != nil {
			event = f.onEvent(event)
		}
	}
	event.Msg(msg)
}

// Field is one typed key/value, written with the matching zerolog encoder on events
// and on child logger contexts alike.
type Field struct {
	onEvent   func(*zerolog.Event) *zerolog.Event
	onContext func(zerolog.Context) zerolog.Context
}

func String(key, value string) Field {
	return Field{
		onEvent:   func(e *zerolog.Event) *zerolog.Event { return e.Str(key, value) },
		onContext: func(c zerolog.Context) zerolog.Context { return c.Str(key, value) },
	}
}

func Strings(key string, value []string) Field {
	return Field{
		onEvent:   func(e *zerolog.Event) *zerolog.Event { return e.Strs(key, value) },
		onContext: func(c zerolog.Context) zerolog.Context { return c.Strs(key, value) },
	}
}

func Int(key string, value int) Field {
	return Field{
		onEvent:   func(e *zerolog.Event) *zerolog.Event { return e.Int(key, value) },
		onContext: func(c zerolog.Context) zerolog.Context { return c.Int(key, value) },
	}
}

func Int64(key string, value int64) Field {
	return Field{
		onEvent:   func(e *zerolog.Event) *zerolog.Event { return e.Int64(key, value) },
		onContext: func(c zerolog.Context) zerolog.Context { return c.Int64(key, value) },
	}
}

func Float64(key string, value float64) Field {
	return Field{
		onEvent:   func(e *zerolog.Event) *zerolog.Event { return e.Float64(key, value) },
		onContext: func(c zerolog.Context) zerolog.Context { return c.Float64(key, value) },
	}
}

func Bool(key string, value bool) Field {
	return Field{
		onEvent:   func(e *zerolog.Event) *zerolog.Event { return e.Bool(key, value) },
		onContext: func(c zerolog.Context) zerolog.Context { return c.Bool(key, value) },
	}
}

// Duration is written in zerolog's duration unit (milliseconds by default).
func Duration(key string, value time.Duration) Field {
	return Field{
		onEvent:   func(e *zerolog.Event) *zerolog.Event { return e.Dur(key, value) },
		onContext: func(c zerolog.Context) zerolog.Context { return c.Dur(key, value) },
	}
}

// Error logs err under "error"; a nil err adds nothing.
func Error(err error) Field {
	return Field{
		onEvent:   func(e *zerolog.Event) *zerolog.Event { return e.AnErr(zerolog.ErrorFieldName, err) },
		onContext: func(c zerolog.Context) zerolog.Context { return c.AnErr(zerolog.ErrorFieldName, err) },
	}
}

// Any falls back to reflection-based encoding.
func Any(key string, value interface{}) Field {
	return Field{
		onEvent:   func(e *zerolog.Event) *zerolog.Event { return e.Interface(key, value) },
		onContext: func(c zerolog.Context) zerolog.Context { return c.Interface(key, value) },
	}
}
