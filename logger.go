package main

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the logging interface passed into each component. Keeping it
// small lets tests plug in a silent implementation.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// ConsoleLogger writes human-oriented output via zerolog's console writer.
type ConsoleLogger struct {
	zl zerolog.Logger
}

// NewConsoleLogger builds a logger from the --log flag string:
// d enables debug output, t adds timestamps, c enables color.
func NewConsoleLogger(flags string) *ConsoleLogger {
	w := zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: !strings.ContainsRune(flags, 'c'),
	}
	if strings.ContainsRune(flags, 't') {
		w.TimeFormat = "15:04:05"
	} else {
		w.PartsExclude = []string{zerolog.TimestampFieldName}
	}

	level := zerolog.InfoLevel
	if strings.ContainsRune(flags, 'd') {
		level = zerolog.DebugLevel
	}

	zl := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &ConsoleLogger{zl: zl}
}

func (c *ConsoleLogger) Debugf(format string, args ...any) {
	c.zl.Debug().Msgf(format, args...)
}

func (c *ConsoleLogger) Infof(format string, args ...any) {
	c.zl.Info().Msgf(format, args...)
}

func (c *ConsoleLogger) Warnf(format string, args ...any) {
	c.zl.Warn().Msgf(format, args...)
}

func (c *ConsoleLogger) Errorf(format string, args ...any) {
	c.zl.Error().Msgf(format, args...)
}

// nopLogger discards everything. Used as a default and in tests.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
