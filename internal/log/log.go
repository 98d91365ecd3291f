// Package log provides structured diagnostic logging for dmxcheck.
// It wraps zerolog with the package-level Debug/Info/Warn/Error helpers and
// category fields used throughout the codebase. Logging is disabled by
// default so that nothing duplicates the issue payload on stderr; it is
// enabled via --debug or the DMXCHECK_DEBUG env var.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Category groups related log messages.
type Category string

const (
	CatCatalog  Category = "catalog"  // Reference catalog loading
	CatRegistry Category = "registry" // Registry and pack loading
	CatValidate Category = "validate" // Validator stages
	CatResolve  Category = "resolve"  // Conversion resolution
	CatFixture  Category = "fixture"  // Fixture runner
	CatConfig   Category = "config"   // Configuration loading/saving
	CatWatcher  Category = "watcher"  // File watcher events
	CatCache    Category = "cache"    // Pack cache operations
)

var (
	mu     sync.RWMutex
	logger = zerolog.Nop()
)

// Init enables logging to the given writer (usually os.Stderr).
func Init(out io.Writer) {
	console := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	l := zerolog.New(console).With().Timestamp().Str("app", "dmxcheck").Logger()

	mu.Lock()
	logger = l
	mu.Unlock()
}

// InitFromEnv enables logging when the DMXCHECK_DEBUG env var is set.
func InitFromEnv() {
	if os.Getenv("DMXCHECK_DEBUG") != "" {
		Init(os.Stderr)
	}
}

// Disable silences all logging.
func Disable() {
	mu.Lock()
	logger = zerolog.Nop()
	mu.Unlock()
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	emit(current().Debug(), cat, msg, fields)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	emit(current().Info(), cat, msg, fields)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	emit(current().Warn(), cat, msg, fields)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	emit(current().Error(), cat, msg, fields)
}

// ErrorErr logs an error with the error value attached.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	emit(current().Error().Err(err), cat, msg, fields)
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

func emit(e *zerolog.Event, cat Category, msg string, fields []any) {
	e = e.Str("category", string(cat))
	for i := 0; i+1 < len(fields); i += 2 {
		e = e.Interface(fmt.Sprint(fields[i]), fields[i+1])
	}
	if len(fields)%2 != 0 {
		e = e.Interface(fmt.Sprint(fields[len(fields)-1]), "<missing>")
	}
	e.Msg(msg)
}
