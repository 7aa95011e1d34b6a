// Package logging holds the process-wide zap logger singleton used by guard
// components that are not handed an explicit logger.
package logging

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalMu     sync.RWMutex
	globalLogger = zap.NewNop()
)

// L returns the global logger singleton.
func L() *zap.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetLogger replaces the global logger singleton.
//
// Passing nil resets the logger to a no-op implementation.
func SetLogger(next *zap.Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if next == nil {
		globalLogger = zap.NewNop()
		return
	}
	globalLogger = next
}

// New builds a production JSON logger at the given level. Unknown level
// strings fall back to info. The GUARDTHEORY_LOG_LEVEL environment variable
// overrides the argument when set.
func New(level string) (*zap.Logger, error) {
	if env := strings.TrimSpace(os.Getenv("GUARDTHEORY_LOG_LEVEL")); env != "" {
		level = env
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
