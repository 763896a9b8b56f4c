package tsync

import (
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.DiscardHandler))
}

// SetLogger installs the logger used for diagnostics: misuse such as
// unlocking a Mutex owned by another goroutine is reported at Debug level,
// and unexpected failures of an underlying primitive at Warn level.
// Nothing is logged on the fast paths. The default discards everything;
// passing nil restores it.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	logger.Store(l)
}

func lg() *slog.Logger {
	return logger.Load()
}
