package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// ZerologAdapter implements the ports.Logger interface using rs/zerolog.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// Config holds configuration for the zerolog adapter.
type Config struct {
	Level  zerolog.Level
	Writer io.Writer // Defaults to os.Stderr
	Pretty bool      // Human-readable console output instead of JSON
}

// New creates a new zerolog-backed logger.
func New(cfg Config) *ZerologAdapter {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	zl := zerolog.New(w).Level(cfg.Level).With().Timestamp().Logger()
	return &ZerologAdapter{logger: zl}
}

// ParseLevel maps a config string (e.g. "DEBUG", "info") to a zerolog level,
// defaulting to Info for unknown values.
func ParseLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func apply(ev *zerolog.Event, fields []map[string]interface{}) *zerolog.Event {
	for _, f := range fields {
		ev = ev.Fields(f)
	}
	return ev
}

// Debug logs a message at Debug level.
func (l *ZerologAdapter) Debug(_ context.Context, msg string, fields ...map[string]interface{}) {
	apply(l.logger.Debug(), fields).Msg(msg)
}

// Info logs a message at Info level.
func (l *ZerologAdapter) Info(_ context.Context, msg string, fields ...map[string]interface{}) {
	apply(l.logger.Info(), fields).Msg(msg)
}

// Warn logs a message at Warning level.
func (l *ZerologAdapter) Warn(_ context.Context, msg string, fields ...map[string]interface{}) {
	apply(l.logger.Warn(), fields).Msg(msg)
}

// Error logs an error message at Error level.
func (l *ZerologAdapter) Error(_ context.Context, err error, msg string, fields ...map[string]interface{}) {
	apply(l.logger.Error().Err(err), fields).Msg(msg)
}
