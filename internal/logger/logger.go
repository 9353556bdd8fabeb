// Package logger is the structured logging surface shared by the executors,
// the scaffolder and the CLI. Entries are zerolog events; callers attach
// context as key/value pairs.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options describes logger configuration supplied at creation time.
type Options struct {
	Level string
	// HumanReadable switches from JSON lines to zerolog's console format.
	HumanReadable bool
	// NoColor disables console colours. NO_COLOR in the environment has the same effect.
	NoColor bool
	// Component is attached to every entry when set.
	Component string
	Writer    io.Writer
}

// Logger is a leveled logger carrying a fixed set of fields.
type Logger struct {
	base zerolog.Logger
}

// New creates a Logger. Entries go to stderr unless Options.Writer is set.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	level := zerolog.InfoLevel
	if name := strings.ToLower(strings.TrimSpace(opts.Level)); name != "" {
		parsed, err := zerolog.ParseLevel(name)
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	output := writer
	if opts.HumanReadable {
		output = zerolog.ConsoleWriter{
			Out:        writer,
			TimeFormat: time.Kitchen,
			NoColor:    opts.NoColor || os.Getenv("NO_COLOR") != "",
		}
	}

	ctx := zerolog.New(output).Level(level).With().Timestamp()
	if opts.Component != "" {
		ctx = ctx.Str("component", opts.Component)
	}
	return &Logger{base: ctx.Logger()}, nil
}

// Nop returns a logger that discards every entry.
func Nop() *Logger {
	return &Logger{base: zerolog.Nop()}
}

// WithFields returns a derived logger that always writes the supplied fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{base: l.base.With().Fields(fields).Logger()}
}

// With is a shorthand for WithFields with a single key.
func (l *Logger) With(key string, value any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{base: l.base.With().Interface(key, value).Logger()}
}

// Component returns a derived logger tagged with name.
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Debug writes a debug entry. kv holds alternating keys and values.
func (l *Logger) Debug(msg string, kv ...any) {
	if l == nil {
		return
	}
	write(l.base.Debug(), msg, kv)
}

// Info writes an informational entry.
func (l *Logger) Info(msg string, kv ...any) {
	if l == nil {
		return
	}
	write(l.base.Info(), msg, kv)
}

// Warn writes a warning entry.
func (l *Logger) Warn(msg string, kv ...any) {
	if l == nil {
		return
	}
	write(l.base.Warn(), msg, kv)
}

// Error writes an error entry including err when it is non-nil.
func (l *Logger) Error(err error, msg string, kv ...any) {
	if l == nil {
		return
	}
	event := l.base.Error()
	if err != nil {
		event = event.Err(err)
	}
	write(event, msg, kv)
}

// DebugEnabled reports whether debug entries would be written.
func (l *Logger) DebugEnabled() bool {
	if l == nil {
		return false
	}
	return l.base.GetLevel() <= zerolog.DebugLevel
}

func write(event *zerolog.Event, msg string, kv []any) {
	if len(kv) > 0 {
		event = event.Fields(kv)
	}
	event.Msg(msg)
}
