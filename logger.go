package recolor

import (
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.DiscardHandler))
}

// SetLogger sets the logger shared by recolor and its sub-packages, and
// forwards it to the registered accelerator. Pass nil to restore the
// silent default.
//
// Levels:
//   - [slog.LevelDebug]: cache hits and misses, backend selection, migration
//   - [slog.LevelInfo]: GPU adapter selection, bake summary
//   - [slog.LevelWarn]: CPU fallback, skipped targets, high-precision
//     setup falling back to global matching
//
// Example:
//
//	recolor.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	logger.Store(l)

	if a := RegisteredAccelerator(); a != nil {
		propagateLogger(a, l)
	}
}

// Logger returns the current logger. Safe for concurrent use.
func Logger() *slog.Logger {
	return logger.Load()
}

// propagateLogger hands l to accelerators that accept one.
func propagateLogger(a Accelerator, l *slog.Logger) {
	if ls, ok := a.(interface{ SetLogger(*slog.Logger) }); ok {
		ls.SetLogger(l)
	}
}
