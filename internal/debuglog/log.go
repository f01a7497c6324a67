// Package debuglog is the SDK's own diagnostic log. It is silent unless the
// client was created with Options.Debug.
package debuglog

import (
	"io"
	"log"
	"sync"
)

var (
	logger = log.New(io.Discard, "[Rollbar] ", log.LstdFlags)
	mu     sync.RWMutex
)

// SetLogger replaces the current debug logger with a new one.
func SetLogger(l *log.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// SetOutput redirects the current logger to w.
func SetOutput(w io.Writer) {
	mu.RLock()
	defer mu.RUnlock()
	logger.SetOutput(w)
}

// GetLogger returns the current logger instance.
func GetLogger() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Printf calls Printf on the underlying logger.
func Printf(format string, args ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

// Println calls Println on the underlying logger.
func Println(args ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		l.Println(args...)
	}
}
