// Package cliutil holds the command-line-facing pieces left to an
// external collaborator rather than the simulation engine itself: a
// leveled logger and a human-readable run summary. Neither is imported
// by the simulation core.
package cliutil

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Level orders the logger's verbosity, lowest first.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger writes leveled, optionally ANSI-colored lines to an io.Writer,
// the hand-rolled way the color codes are emitted: color escapes are
// only written when the destination is a real terminal.
type Logger struct {
	w     io.Writer
	level Level
	color bool
}

// NewLogger builds a Logger writing to w at the given minimum level.
// Coloring is enabled only if w is *os.File and isatty reports a
// terminal.
func NewLogger(w io.Writer, level Level) *Logger {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Logger{w: w, level: level, color: color}
}

func (l *Logger) paint(code, msg string) string {
	if !l.color {
		return msg
	}
	return "\033[" + code + "m" + msg + "\033[0m"
}

func (l *Logger) emit(level Level, code, prefix, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	line := fmt.Sprintf(format, args...)
	fmt.Fprintln(l.w, l.paint(code, prefix+line))
}

// Debug logs at debug level (enabled by -v/--debug).
func (l *Logger) Debug(format string, args ...interface{}) {
	l.emit(LevelDebug, "36", "debug: ", format, args...)
}

// Info logs at info level, the default verbosity.
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit(LevelInfo, "32", "", format, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit(LevelWarn, "33", "warn: ", format, args...)
}

// Error logs at error level (the only level emitted under -v0/--error).
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit(LevelError, "31", "error: ", format, args...)
}
