package glass

import (
	"log/slog"
	"sync/atomic"
)

// silent discards everything; its handler reports every level disabled, so
// attributes are never formatted.
var silent = slog.New(slog.DiscardHandler)

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(silent)
}

// SetLogger routes the log output of glass and the registered blob
// accelerator to l. glass is silent until SetLogger is called; nil makes it
// silent again. SetLogger may be called concurrently with rendering.
//
// Levels:
//   - [slog.LevelDebug]: map generation, graph builds, GPU buffer sizes
//   - [slog.LevelInfo]: adapter selection, accelerator registration, pipeline boot
//   - [slog.LevelWarn]: suppressed filters and hidden overlays
//
// A boot cancelled by Dispose or its context is never logged.
//
//	glass.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	loggerPtr.Store(l)
	if a := Accelerator(); a != nil {
		propagateLogger(a, l)
	}
}

// Logger returns the active logger. Accelerator packages log through it so
// they follow SetLogger without importing anything else.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger hands l to accelerators that keep their own logger.
func propagateLogger(a BlobAccelerator, l *slog.Logger) {
	if ls, ok := a.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
