package logger

import (
	"context"
	"fmt"
	multi "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
)

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

const defaultLogFile = "logs/main.log"

type Logger interface {
	SetLogLevel(levelStr string)
	GetLogLevel() string

	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, err error, args ...any)
	Fatal(msg string, err error, args ...any)
}

type Options struct {
	// File is the rotating JSON log; empty disables file output.
	File    string
	Console io.Writer
}

type SlogLogger struct {
	log        *slog.Logger
	level      *slog.LevelVar
	levelNames map[slog.Leveler]string
	exit       func(code int)
}

func New() *SlogLogger {
	return NewWithOptions(Options{File: defaultLogFile, Console: os.Stdout})
}

func NewWithOptions(o Options) *SlogLogger {
	l := newSlogLogger()
	opts := l.handlerOptions()

	var handlers []slog.Handler
	if o.Console != nil {
		handlers = append(handlers, slog.NewTextHandler(o.Console, opts))
	}
	if o.File != "" {
		handlers = append(handlers, slog.NewJSONHandler(&lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    64,
			MaxBackups: 32,
			MaxAge:     30,
			Compress:   true,
		}, opts))
	}
	if len(handlers) == 0 {
		handlers = append(handlers, slog.DiscardHandler)
	}

	l.log = slog.New(multi.Fanout(handlers...))
	return l
}

// NewNop returns a logger that drops everything, for tests.
func NewNop() *SlogLogger {
	l := newSlogLogger()
	l.log = slog.New(slog.DiscardHandler)
	l.exit = func(int) {}
	return l
}

func newSlogLogger() *SlogLogger {
	l := &SlogLogger{
		level: &slog.LevelVar{},
		levelNames: map[slog.Leveler]string{
			LevelTrace: "TRACE",
			LevelFatal: "FATAL",
		},
		exit: os.Exit,
	}
	l.level.Set(slog.LevelInfo)
	return l
}

func (l *SlogLogger) handlerOptions() *slog.HandlerOptions {
	return &slog.HandlerOptions{
		AddSource: true,
		Level:     l.level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.LevelKey:
				level, ok := a.Value.Any().(slog.Level)
				if !ok {
					return a
				}
				label, exists := l.levelNames[level]
				if !exists {
					label = level.String()
				}
				a.Value = slog.StringValue(label)
			case slog.SourceKey:
				a.Value = slog.StringValue(callerOutsideLogger(10))
			}
			return a
		},
	}
}

func (l *SlogLogger) SetLogLevel(levelStr string) {
	switch levelStr {
	case "trace":
		l.level.Set(LevelTrace)
	case "debug":
		l.level.Set(slog.LevelDebug)
	case "info":
		l.level.Set(slog.LevelInfo)
	case "warn":
		l.level.Set(slog.LevelWarn)
	case "error":
		l.level.Set(slog.LevelError)
	case "fatal":
		l.level.Set(LevelFatal)
	default:
		l.level.Set(slog.LevelInfo)
	}
}

func (l *SlogLogger) GetLogLevel() string {
	switch l.level.Level() {
	case LevelTrace:
		return "trace"
	case slog.LevelDebug:
		return "debug"
	case slog.LevelWarn:
		return "warn"
	case slog.LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}

	return "info"
}

func (l *SlogLogger) Trace(msg string, args ...any) {
	l.log.Log(context.Background(), LevelTrace, msg, args...)
}

func (l *SlogLogger) Debug(msg string, args ...any) {
	l.log.Debug(msg, args...)
}

func (l *SlogLogger) Info(msg string, args ...any) {
	l.log.Info(msg, args...)
}

func (l *SlogLogger) Warn(msg string, args ...any) {
	l.log.Warn(msg, args...)
}

func (l *SlogLogger) Error(msg string, err error, args ...any) {
	l.log.Error(msg, withErr(err, args)...)
}

func (l *SlogLogger) Fatal(msg string, err error, args ...any) {
	l.log.Log(context.Background(), LevelFatal, msg, withErr(err, args)...)
	l.exit(1)
}

func withErr(err error, args []any) []any {
	if err == nil {
		return args
	}
	return append([]any{slog.String("error", err.Error())}, args...)
}

func callerOutsideLogger(skip int) string {
	for i := skip; ; i++ {
		_, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		if !strings.Contains(file, "logger") {
			return fmt.Sprintf("%s:%d", file, line)
		}
	}
	return "unknown"
}
