// Package logging builds the zerolog logger used for diagnostics. User-facing
// progress goes through the ux package; the logger records what happened to
// each turn, to stderr at warn and above by default and, when a log file is
// configured, as rotated JSON lines.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jorge-barreto/sitepatch/internal/config"
)

// Options are the knobs that do not come from the config file.
type Options struct {
	File         string        // resolved log file path, "" for none
	Console      io.Writer     // defaults to os.Stderr
	ConsoleLevel zerolog.Level // minimum level shown on the console
}

// Logger wraps the zerolog logger with the file it may hold open.
type Logger struct {
	zerolog.Logger
	file *lumberjack.Logger
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// New builds a logger from the log section of the config.
func New(cfg config.Log, opts Options) (*Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		lv, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		level = lv
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	if cfg.Format != "json" {
		console = zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen}
	}
	writers := []io.Writer{&levelFilter{w: console, min: opts.ConsoleLevel}}

	l := &Logger{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, fmt.Errorf("logging: creating log directory: %w", err)
		}
		l.file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			LocalTime:  true,
		}
		writers = append(writers, l.file)
	}

	l.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
	return l, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// levelFilter drops events below min before they reach w.
type levelFilter struct {
	w   io.Writer
	min zerolog.Level
}

func (f *levelFilter) Write(p []byte) (int, error) {
	return f.w.Write(p)
}

func (f *levelFilter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < f.min {
		return len(p), nil
	}
	return f.w.Write(p)
}
