package logging

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Format selects the on-wire encoding of a ZerologLogger's output.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text" // rendered via zerolog.ConsoleWriter
)

// ZerologLoggerConfig configures a zerolog-backed Logger.
type ZerologLoggerConfig struct {
	Format Format // FormatJSON for machine consumption, FormatText for a human console
	Level  Level
	Path   string // empty means stderr
}

// ZerologLogger implements Logger on top of github.com/rs/zerolog.
type ZerologLogger struct {
	logger zerolog.Logger
	closer io.Closer
}

// NewZerologLogger constructs a ZerologLogger writing to cfg.Path, or
// stderr when Path is empty, in either JSON or console (text) form.
func NewZerologLogger(cfg ZerologLoggerConfig) (*ZerologLogger, error) {
	var sink io.Writer = os.Stderr
	var closer io.Closer

	if cfg.Path != "" {
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		sink = f
		closer = f
	}

	if cfg.Format == FormatText {
		sink = zerolog.ConsoleWriter{Out: sink, TimeFormat: "15:04:05"}
	}

	zl := zerolog.New(sink).With().Timestamp().Logger().Level(toZerologLevel(cfg.Level))
	return &ZerologLogger{logger: zl, closer: closer}, nil
}

func toZerologLevel(l Level) zerolog.Level {
	switch l {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *ZerologLogger) event(ev *zerolog.Event, fields Fields) *zerolog.Event {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	return ev
}

func (l *ZerologLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.event(l.logger.Debug(), fields).Msg(msg)
}

func (l *ZerologLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.event(l.logger.Info(), fields).Msg(msg)
}

func (l *ZerologLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.event(l.logger.Warn(), fields).Msg(msg)
}

func (l *ZerologLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	ev := l.logger.Error()
	if err != nil {
		ev = ev.Err(err)
	}
	l.event(ev, fields).Msg(msg)
}

// WithFields returns a logger that attaches fields to every subsequent
// call, via zerolog's own context builder.
func (l *ZerologLogger) WithFields(fields Fields) Logger {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &ZerologLogger{logger: ctx.Logger(), closer: l.closer}
}

func (l *ZerologLogger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

var _ Logger = (*ZerologLogger)(nil)
