// Package logging provides the charmbracelet/log backed implementation of
// the engine's Logger interface.
package logging

import (
	"io"
	"strings"
	"time"

	clog "github.com/charmbracelet/log"

	"github.com/Moe03/suparisma/pkg/liveview"
)

// Config controls logger construction.
type Config struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
	// JSON switches to the JSON formatter; the default is logfmt-style
	// text output.
	JSON bool
}

// New creates a logger writing to w.
func New(w io.Writer, cfg Config) liveview.Logger {
	clogger := clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           parseLevel(cfg.Level),
	})
	if cfg.JSON {
		clogger.SetFormatter(clog.JSONFormatter)
	}
	return &logger{c: clogger}
}

// parseLevel converts a string level to clog.Level.
func parseLevel(level string) clog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return clog.DebugLevel
	case "info", "":
		return clog.InfoLevel
	case "warn", "warning":
		return clog.WarnLevel
	case "error":
		return clog.ErrorLevel
	default:
		return clog.InfoLevel
	}
}

type logger struct {
	c *clog.Logger
}

func (l *logger) Debug(msg string, args ...any) { l.c.Debug(msg, args...) }
func (l *logger) Info(msg string, args ...any)  { l.c.Info(msg, args...) }
func (l *logger) Warn(msg string, args ...any)  { l.c.Warn(msg, args...) }
func (l *logger) Error(msg string, args ...any) { l.c.Error(msg, args...) }

func (l *logger) With(args ...any) liveview.Logger {
	return &logger{c: l.c.With(args...)}
}
