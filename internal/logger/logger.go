// Package logger is the leveled logging facility used by the outer layers
// of the pricer (market data, engine, REST server, CLI). The pricing
// package itself never logs.
//
// Verbosity levels (in increasing order):
//
//	Error < Info < Debug < Trace
//
// Example usage:
//
//	logger.SetVerbosity(2) // Debug
//	logger.Infof("pricing %d contracts", n)
//	logger.Debugf("spot=%f vol=%f", spot, vol)
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level represents a logging verbosity level.
// Higher values mean more verbose logging.
type Level int

const (
	Error Level = iota // Error logs failures that need attention.
	Info               // Info logs lifecycle events (startup, batch done).
	Debug              // Debug logs per-contract diagnostics.
	Trace              // Trace logs resolved inputs and intermediate terms.
)

// current holds the active verbosity level.
// Only messages with level <= current are logged.
var current Level = Info

func init() {
	// stderr keeps log lines out of report output piped from stdout.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

// SetVerbosity sets the global logging verbosity.
// Typically called once during startup after flags and config are read.
func SetVerbosity(v int) {
	current = Level(v)
}

// Verbosity returns the active level.
func Verbosity() Level {
	return current
}

// ParseLevel maps "error", "info", "debug" and "trace" to a Level.
// Unknown names fall back to Info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return Error
	case "debug":
		return Debug
	case "trace":
		return Trace
	}
	return Info
}

// SetOutput redirects log output, e.g. to a buffer in tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

func logf(l Level, prefix, format string, args ...any) {
	if current >= l {
		// calldepth 3 reports the caller of Errorf/Infof/...
		_ = log.Output(3, prefix+fmt.Sprintf(format, args...))
	}
}

// Errorf logs an error-level message.
func Errorf(format string, args ...any) {
	logf(Error, "[ERROR] ", format, args...)
}

// Infof logs an informational message.
func Infof(format string, args ...any) {
	logf(Info, "[INFO]  ", format, args...)
}

// Debugf logs debugging information.
func Debugf(format string, args ...any) {
	logf(Debug, "[DEBUG] ", format, args...)
}

// Tracef logs very detailed execution traces.
// Use this sparingly due to high volume.
func Tracef(format string, args ...any) {
	logf(Trace, "[TRACE] ", format, args...)
}
