// Package logging provides structured logging for md5dir, shared by the
// CLI and the library packages. Log output goes to stderr so report lines
// on stdout stay machine-parseable.
//
// Basic usage:
//
//	if err := logging.Init(logging.Config{Level: "info"}); err != nil {
//	    log.Fatal(err)
//	}
//
//	logger := logging.Get("walker")
//	logger.Info("walk started", "root", "/srv/music")
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a level string into a charmbracelet/log level.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel, nil
	case "info", "":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default level (debug, info, warn, error). Empty means info.
	Level string

	// Components maps component names to level overrides.
	Components map[string]string

	// Writer overrides the destination, mainly for tests. Nil means stderr.
	Writer io.Writer
}

// state holds the global logging state.
type state struct {
	mu         sync.RWMutex
	writer     io.Writer
	level      log.Level
	components map[string]log.Level
	loggers    map[string]*log.Logger
}

var globalState = &state{
	writer:     io.Discard,
	level:      log.InfoLevel,
	components: make(map[string]log.Level),
	loggers:    make(map[string]*log.Logger),
}

// Init initializes the logging system. Before Init is called all loggers
// write to io.Discard, so library packages can log unconditionally.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	components := make(map[string]log.Level, len(cfg.Components))
	for name, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("component %q: %w", name, err)
		}
		components[name] = parsed
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}

	globalState.mu.Lock()
	defer globalState.mu.Unlock()
	globalState.writer = writer
	globalState.level = level
	globalState.components = components
	globalState.loggers = make(map[string]*log.Logger)
	return nil
}

// Get returns the logger for a component, creating it on first use.
func Get(component string) *log.Logger {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if logger, ok := globalState.loggers[component]; ok {
		return logger
	}

	level := globalState.level
	if override, ok := globalState.components[component]; ok {
		level = override
	}

	logger := log.NewWithOptions(globalState.writer, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          component,
	})
	globalState.loggers[component] = logger
	return logger
}
