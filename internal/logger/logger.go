// Package logger writes leveled, line-oriented messages to stderr.
//
// Debug, Info and Section are verbose-only (--verbose). Warn is always
// written because it reports a degraded result the user should see.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
)

var prefixes = [...]string{
	levelDebug: "[DEBUG] ",
	levelInfo:  "[INFO] ",
	levelWarn:  "[WARN] ",
}

var (
	mu      sync.Mutex
	verbose bool
	output  io.Writer = os.Stderr
	now               = time.Now
)

// SetVerbose turns verbose-only output on or off.
func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
}

func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

// SetOutput redirects all log output. Tests use it to capture lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
}

// emit formats and writes one line under the lock.
func emit(l level, format string, args []any) {
	mu.Lock()
	defer mu.Unlock()
	if l < levelWarn && !verbose {
		return
	}
	line := prefixes[l] + fmt.Sprintf(format, args...) + "\n"
	_, _ = io.WriteString(output, line)
}

func Debug(format string, args ...any) { emit(levelDebug, format, args) }

func Info(format string, args ...any) { emit(levelInfo, format, args) }

// Warn is written regardless of verbosity.
func Warn(format string, args ...any) { emit(levelWarn, format, args) }

// Section writes a blank line and a "=== name ===" banner in verbose mode.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		_, _ = fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Timer starts a stopwatch; calling the result logs the elapsed time at
// debug level, rounded to the millisecond.
//
//	defer logger.Timer("embed")()
func Timer(label string) func() {
	start := now()
	return func() {
		Debug("%s took %s", label, now().Sub(start).Round(time.Millisecond))
	}
}
