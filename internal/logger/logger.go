package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Fields map[string]any

var (
	mu  sync.RWMutex
	log = zap.NewNop()
)

// Init replaces the package logger with a production zap logger at the
// given level ("debug", "info", "warn", "error"). Until Init is called the
// package logs nothing, which keeps tests quiet.
func Init(level string) error {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.DisableStacktrace = true

	built, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	mu.Lock()
	log = built
	mu.Unlock()
	return nil
}

func Debug(message string, fields Fields) {
	current().Debug(message, zapFields(fields, nil)...)
}

func Info(message string, fields Fields) {
	current().Info(message, zapFields(fields, nil)...)
}

func Warn(message string, fields Fields) {
	current().Warn(message, zapFields(fields, nil)...)
}

func Error(message string, err error, fields Fields) {
	current().Error(message, zapFields(fields, err)...)
}

// Sync flushes buffered entries; callers run it on shutdown.
func Sync() {
	_ = current().Sync()
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func zapFields(fields Fields, err error) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	for key, value := range fields {
		out = append(out, zap.Any(key, value))
	}
	if err != nil {
		out = append(out, zap.Error(err))
	}
	return out
}
