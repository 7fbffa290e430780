// Package logging builds the root zerolog logger: human readable output on
// stdout and JSON lines in a rotated file.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level string
	// File is the rotated JSON log; empty disables file logging.
	File string

	// Console overrides stdout, mainly for tests.
	Console io.Writer
}

// New returns the root logger and a closer for the log file.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	out := opts.Console
	if out == nil {
		out = os.Stdout
	}
	writers := []io.Writer{zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime}}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    20, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}
		writers = append(writers, file)
		closer = file
	}

	log := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
	return log, closer, nil
}

// Component tags a child logger with the subsystem it belongs to.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

func parseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
