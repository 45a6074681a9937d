// Package logger provides a minimal leveled logger for CLI output.
// All diagnostics go to stderr so that formatted documents written to
// stdout stay machine-readable.
package logger

import (
	"fmt"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	verbose bool
	quiet   bool
)

// SetVerbose enables debug output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// SetQuiet suppresses info-level chatter. Debug (when verbose), warnings
// and errors are still emitted.
func SetQuiet(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// Debug logs a debug message when verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.Lock()
	v := verbose
	mu.Unlock()
	if !v {
		return
	}
	emit("DEBUG", format, args...)
}

// Info logs an informational message.
func Info(format string, args ...any) {
	mu.Lock()
	q := quiet
	mu.Unlock()
	if q {
		return
	}
	emit("INFO", format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...any) {
	emit("WARN", format, args...)
}

// Error logs an error message.
func Error(format string, args ...any) {
	emit("ERROR", format, args...)
}

func emit(level, format string, args ...any) {
	ts := time.Now().Format("15:04:05")
	fmt.Fprintf(os.Stderr, "%s %-5s %s\n", ts, level, fmt.Sprintf(format, args...))
}
