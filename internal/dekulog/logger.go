// Package dekulog holds the module-wide logger, used by the declaration
// parser (internal/decl) to warn about deprecated attribute keys. It defaults to a
// no-op logger, matching how the retrieval pack's WASM runtime exposes
// its linker-package logger: package-level state behind a setter, so a
// library user opts in rather than the library forcing output on them.
package dekulog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
	mu         sync.Mutex
)

// Logger returns the package's shared logger instance, defaulting to a
// no-op logger until SetLogger is called.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// SetLogger installs l as the shared logger. Passing nil restores the
// no-op default.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}
