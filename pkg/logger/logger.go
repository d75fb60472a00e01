// Package logger holds the process-wide zerolog logger shared by the api,
// agent and observer binaries.
//
// Call Init once from main, then hand the returned logger to constructors.
// Get and Component are for code that cannot receive it by injection.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the logger built by Init.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Unknown values mean info.
	Level string
	// Pretty switches to zerolog's console writer for local runs.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
	// Service is added to every line as "service" when set.
	Service string
}

var (
	mu     sync.RWMutex
	active *zerolog.Logger
)

// Init builds the shared logger. Only the first call since start (or since
// Reset) has an effect; later calls return the existing logger.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if active != nil {
		return *active
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	w := opts.Output
	if w == nil {
		w = os.Stdout
	}
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	level := parseLevel(opts.Level)
	zerolog.SetGlobalLevel(level)

	fields := zerolog.New(w).Level(level).With().Timestamp().Caller()
	if opts.Service != "" {
		fields = fields.Str("service", opts.Service)
	}
	l := fields.Logger()
	active = &l
	return l
}

// Get returns the shared logger and panics when Init was never called.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if active == nil {
		panic("logger: Get() called before Init()")
	}
	return *active
}

// Component returns the shared logger tagged with a "component" field.
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Reset drops the shared logger so the next Init rebuilds it. Tests only.
func Reset() {
	mu.Lock()
	active = nil
	mu.Unlock()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}
