// Package mflog provides the process-wide logger handle shared by every
// package in the runtime. It follows an explicit init/shutdown pattern so a
// caller can flush buffered sinks before exit.
package mflog

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.Mutex
	logger *zap.Logger
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Guard releases resources acquired by Init. Callers defer Guard.Sync().
type Guard struct {
	l *zap.Logger
}

// Sync flushes any buffered log entries.
func (g Guard) Sync() error {
	if g.l == nil {
		return nil
	}
	return g.l.Sync()
}

// Init installs the process-wide logger, built from zap's development
// config when development is true and its production config otherwise,
// filtered by the shared level SetLevel adjusts (Info by default), and
// returns a teardown guard. Safe to call more than once; the last call wins.
func Init(development bool) Guard {
	mu.Lock()
	defer mu.Unlock()

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = level

	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	logger = l
	return Guard{l: l}
}

// SetLevel adjusts the global filter level without taking a lock on the hot
// path; zap.AtomicLevel is itself backed by an atomic int32.
func SetLevel(lvl zapcore.Level) {
	level.SetLevel(lvl)
}

// L returns the process-wide logger, lazily constructing a no-op logger if
// Init was never called (e.g. in tests or library use).
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// Named returns a child logger scoped to a component, mirroring the
// "sinks are a small vector" design note: every component logs through one
// shared, mutex-protected set of cores, but carries its own name field.
func Named(component string) *zap.Logger {
	return L().Named(component)
}
