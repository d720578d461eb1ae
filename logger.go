package xmalloc

import (
	"context"
	"log/slog"
	"os"
	"time"

	"golang.org/x/time/rate"
)

// Logger wraps slog.Logger with allocator-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger

	// contention throttles LogContentionFallback, which can fire on every
	// allocation under sustained contention.
	contention *rate.Limiter
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return newLogger(slog.New(handler))
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return newLogger(slog.New(handler))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return newLogger(slog.New(handler))
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return newLogger(slog.New(slog.DiscardHandler))
}

func newLogger(l *slog.Logger) *Logger {
	return &Logger{
		Logger:     l,
		contention: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// WithArena adds an arena field to the logger. The copy shares the
// contention rate limit.
func (l *Logger) WithArena(id int) *Logger {
	return &Logger{
		Logger:     l.Logger.With("arena", id),
		contention: l.contention,
	}
}

// LogPageMapped logs the growth of an arena ring. Use a logger from
// WithArena to name the arena.
func (l *Logger) LogPageMapped(ctx context.Context, slotSize int) {
	l.DebugContext(ctx, "page mapped",
		"slot_size", slotSize,
	)
}

// LogLargeBlock logs a large block mapping or unmapping.
func (l *Logger) LogLargeBlock(ctx context.Context, op string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "large block "+op+" failed",
			"size", size,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "large block "+op,
			"size", size,
		)
	}
}

// LogAllocateFailure logs an allocation that could not be served.
func (l *Logger) LogAllocateFailure(ctx context.Context, size int, err error) {
	l.ErrorContext(ctx, "allocate failed",
		"size", size,
		"error", err,
	)
}

// LogInvalidFree logs a rejected deallocation in debug mode.
func (l *Logger) LogInvalidFree(ctx context.Context, addr uintptr, err error) {
	l.WarnContext(ctx, "invalid free",
		"addr", addr,
		"error", err,
	)
}

// LogContentionFallback logs an allocation that gave up on non-blocking
// attempts and blocked on its home arena, named via WithArena. Output is
// rate limited.
func (l *Logger) LogContentionFallback(ctx context.Context, attempts int) {
	if !l.contention.Allow() {
		return
	}
	l.WarnContext(ctx, "arena contention, blocking on home arena",
		"attempts", attempts,
	)
}

// LogClose logs allocator shutdown.
func (l *Logger) LogClose(ctx context.Context, stats Stats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "close failed",
			"pages", stats.PagesMapped,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "allocator closed",
			"pages", stats.PagesMapped,
			"bytes_mapped", stats.BytesMapped,
		)
	}
}
