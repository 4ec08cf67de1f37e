// Package logging wires the LOG_LEVEL environment key (SPEC_FULL.md §6) into the stdlib
// *log.Logger every component already uses, rather than adopting a structured logging library
// the teacher itself never reaches for (see DESIGN.md's logging justification).
package logging

import (
	"io"
	"log"
	"strings"
)

// Level is a logging severity threshold. Calls below a Logger's configured Level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps LOG_LEVEL's recognized values to a Level, defaulting to LevelInfo for anything
// unrecognized so a typo in the env never turns into a fatal startup error.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger wraps *log.Logger with a minimum severity below which Debugf/Infof/Warnf calls are
// dropped; Errorf always prints.
type Logger struct {
	*log.Logger
	level Level
}

// New builds a Logger writing to out with the given prefix, gated at level.
func New(out io.Writer, prefix string, level Level) *Logger {
	return &Logger{Logger: log.New(out, prefix, log.LstdFlags), level: level}
}

// WithPrefix derives a child Logger sharing this Logger's writer and level under a new prefix,
// for per-component loggers (e.g. "[scanner] ", "[subscription:<program>] ").
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{Logger: log.New(l.Writer(), prefix, log.LstdFlags), level: l.level}
}

// Debugf logs at debug severity.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.level <= LevelDebug {
		l.Printf(format, args...)
	}
}

// Infof logs at info severity.
func (l *Logger) Infof(format string, args ...interface{}) {
	if l.level <= LevelInfo {
		l.Printf(format, args...)
	}
}

// Warnf logs at warn severity.
func (l *Logger) Warnf(format string, args ...interface{}) {
	if l.level <= LevelWarn {
		l.Printf(format, args...)
	}
}

// Errorf always logs, regardless of level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Printf(format, args...)
}
