package xmalloc

import (
	"log/slog"
	"unsafe"
)

// Mapper obtains page-aligned memory from the operating system.
//
// Map must return memory aligned to at least PageSize. Unmap receives exactly
// the base and size of an earlier Map call. The default Mapper creates
// private anonymous mappings.
type Mapper interface {
	Map(size int) (unsafe.Pointer, error)
	Unmap(p unsafe.Pointer, size int) error
}

// DefaultSpinRounds is the number of full non-blocking passes over the arenas
// an allocation makes before blocking on its home arena.
const DefaultSpinRounds = 4

type options struct {
	mapper           Mapper
	memoryLimit      int64
	spinRounds       int
	debug            bool
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures an Allocator.
type Option func(*options)

// WithMapper replaces the OS mapping primitive. Mostly useful for tests and
// for layering custom accounting below the allocator.
//
// If nil is passed, anonymous OS mappings are used.
func WithMapper(m Mapper) Option {
	return func(o *options) {
		o.mapper = m
	}
}

// WithMemoryLimit caps the total bytes the allocator may have mapped at any
// time, pages and large blocks alike. Mappings that would exceed the cap fail
// with ErrMemoryLimitExceeded. Zero means unlimited.
//
// The arena directory maps NumArenas*9 pages on first use, so limits below
// that fail every allocation.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithSpinRounds sets how many full passes of non-blocking lock attempts an
// allocation makes across the arenas before it blocks on its home arena.
//
// Zero makes every allocation block on its home arena directly; such waits
// are not counted as contention.
// Negative values are ignored.
func WithSpinRounds(rounds int) Option {
	return func(o *options) {
		if rounds >= 0 {
			o.spinRounds = rounds
		}
	}
}

// WithDebug enables validation of every address passed to Deallocate and
// Reallocate. Invalid and repeated frees return ErrInvalidFree and
// ErrDoubleFree instead of silently corrupting allocator state.
//
// Validation serializes frees through one tracker and costs a bitmap update
// per operation.
func WithDebug() Option {
	return func(o *options) {
		o.debug = true
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &xmalloc.BasicMetricsCollector{}
//	a := xmalloc.New(xmalloc.WithMetricsCollector(metrics))
//	// ... use a ...
//	stats := metrics.GetStats()
//	fmt.Printf("Allocs: %d, Avg latency: %dns\n", stats.AllocateCount, stats.AllocateAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := xmalloc.NewJSONLogger(slog.LevelDebug)
//	a := xmalloc.New(xmalloc.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		spinRounds:       DefaultSpinRounds,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
