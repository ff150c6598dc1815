// Package logger provides the leveled logger used across docsync.
// A Logger is constructed once at startup and passed to every service and
// adapter that needs it; there is no package-level logging state.
//
// Debug and Info lines are only written in verbose mode. Warn and Error
// lines are always written because they describe skipped files and failed
// operations that an operator needs to see.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger writes prefixed log lines to an output writer.
type Logger struct {
	mu      sync.RWMutex
	verbose bool
	output  io.Writer
	prefix  string
}

// New creates a logger writing to w. A nil writer means os.Stderr.
func New(w io.Writer, verbose bool) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		verbose: verbose,
		output:  w,
	}
}

// Discard returns a logger that drops every line.
func Discard() *Logger {
	return New(io.Discard, false)
}

// With returns a logger sharing the same output whose lines are tagged with
// the given component name, e.g. "[INFO] sync: ...".
func (l *Logger) With(component string) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	prefix := component + ": "
	if l.prefix != "" {
		prefix = l.prefix + component + ": "
	}
	return &Logger{
		verbose: l.verbose,
		output:  l.output,
		prefix:  prefix,
	}
}

// SetVerbose enables or disables debug and info output.
func (l *Logger) SetVerbose(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = v
}

// IsVerbose reports whether verbose mode is enabled.
func (l *Logger) IsVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verbose
}

// SetOutput replaces the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

// Debug prints a message if verbose mode is enabled.
func (l *Logger) Debug(format string, args ...any) {
	l.write(true, "[DEBUG] ", format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func (l *Logger) Info(format string, args ...any) {
	l.write(true, "[INFO] ", format, args...)
}

// Warn prints a warning.
func (l *Logger) Warn(format string, args ...any) {
	l.write(false, "[WARN] ", format, args...)
}

// Error prints an error.
func (l *Logger) Error(format string, args ...any) {
	l.write(false, "[ERROR] ", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func (l *Logger) Section(name string) {
	if l == nil {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.verbose {
		fmt.Fprintf(l.output, "\n=== %s ===\n", name)
	}
}

func (l *Logger) write(verboseOnly bool, level, format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if verboseOnly && !l.verbose {
		return
	}
	fmt.Fprintf(l.output, level+l.prefix+format+"\n", args...)
}
