// Package log is a small wrapper around the standard logger that knows how to
// write to a terminal in raw mode and can switch debug output on and off.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"sync/atomic"
)

type Logger struct {
	l       *log.Logger
	rawMode atomic.Bool
	verbose atomic.Bool
}

var (
	crlfPrefixer = regexp.MustCompile(`(?:([^\r])\n|^\n)`)
)

var std = NewFromLogger(log.New(os.Stderr, "", log.LstdFlags), false)

// Default returns the standard logger used by the package-level output functions.
func Default() *Logger { return std }

func New(out io.Writer, prefix string, flag int, rawMode bool) *Logger {
	return NewFromLogger(log.New(out, prefix, flag), rawMode)
}

func NewFromLogger(l *log.Logger, rawMode bool) *Logger {
	logger := &Logger{l: l}
	logger.rawMode.Store(rawMode)
	return logger
}

// fixString makes sure every line feed is preceded by a carriage return while
// the terminal is in raw mode, otherwise lines would drift to the right.
func (l *Logger) fixString(str string) string {
	if !l.rawMode.Load() {
		return str
	}

	s := crlfPrefixer.ReplaceAllString(str, "$1\r\n")
	if len(s) == 0 || s[len(s)-1] != '\n' {
		s += "\r\n"
	}
	return s
}

// RawMode returns the raw mode for the logger.
func (l *Logger) RawMode() bool {
	return l.rawMode.Load()
}

// SetRawMode sets the raw mode for the logger.
func (l *Logger) SetRawMode(rawMode bool) {
	l.rawMode.Store(rawMode)
}

// Verbose reports whether debug output is enabled.
func (l *Logger) Verbose() bool {
	return l.verbose.Load()
}

// SetVerbose enables or disables debug output.
func (l *Logger) SetVerbose(verbose bool) {
	l.verbose.Store(verbose)
}

// SetOutput sets the output destination for the logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.l.SetOutput(w)
}

// Writer returns the output destination for the logger.
func (l *Logger) Writer() io.Writer {
	return l.l.Writer()
}

// Output writes the output for a logging event. Calldepth is used to recover
// the PC when Lshortfile or Llongfile is set.
func (l *Logger) Output(calldepth int, s string) error {
	return l.l.Output(calldepth+1, l.fixString(s))
}

// Printf calls l.Output to print to the logger.
// Arguments are handled in the manner of [fmt.Printf].
func (l *Logger) Printf(format string, v ...any) {
	l.Output(2, fmt.Sprintf(format, v...))
}

// Println calls l.Output to print to the logger.
// Arguments are handled in the manner of [fmt.Println].
func (l *Logger) Println(v ...any) {
	l.Output(2, fmt.Sprintln(v...))
}

// Debugf is like Printf but only prints when the logger is verbose.
func (l *Logger) Debugf(format string, v ...any) {
	if !l.verbose.Load() {
		return
	}
	l.Output(2, "debug: "+fmt.Sprintf(format, v...))
}

// SetOutput sets the output destination for the standard logger.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// SetVerbose enables or disables debug output on the standard logger.
func SetVerbose(verbose bool) {
	std.SetVerbose(verbose)
}

// These functions write to the standard logger.

// Printf calls Output to print to the standard logger.
// Arguments are handled in the manner of [fmt.Printf].
func Printf(format string, v ...any) {
	std.Output(2, fmt.Sprintf(format, v...))
}

// Println calls Output to print to the standard logger.
// Arguments are handled in the manner of [fmt.Println].
func Println(v ...any) {
	std.Output(2, fmt.Sprintln(v...))
}

// Debugf prints to the standard logger when it is verbose.
func Debugf(format string, v ...any) {
	if !std.Verbose() {
		return
	}
	std.Output(2, "debug: "+fmt.Sprintf(format, v...))
}
