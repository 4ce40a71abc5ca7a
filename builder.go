package logmux

import (
	"io"
)

// Builder provides a fluent API for constructing an aggregator without a
// config file. It accumulates a handler specification and construction
// options, deferring errors to Build.
type Builder struct {
	cfg  *Config
	opts []Option
	err  error
}

// NewBuilder creates a builder with an empty handler specification.
func NewBuilder() *Builder {
	return &Builder{
		cfg: &Config{Handlers: make(map[string]HandlerSpec)},
	}
}

// Build validates the accumulated specification and constructs the
// aggregator.
func (b *Builder) Build() (*Manager, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.cfg.validate(); err != nil {
		return nil, err
	}
	return NewFromConfig(b.cfg, b.opts...)
}

// RootLevel sets the root facade level.
func (b *Builder) RootLevel(level string) *Builder {
	if b.err != nil {
		return b
	}
	if _, err := ParseLevel(level); err != nil {
		b.err = err
		return b
	}
	b.cfg.Root.Level = level
	return b
}

// Propagate sets the root propagation flag.
func (b *Builder) Propagate(propagate bool) *Builder {
	if b.err != nil {
		return b
	}
	b.cfg.Root.Propagate = propagate
	return b
}

// Handler registers a fully specified handler under name.
func (b *Builder) Handler(name string, spec HandlerSpec) *Builder {
	if b.err != nil {
		return b
	}
	b.cfg.Handlers[name] = spec
	return b
}

// Stream registers a console handler.
func (b *Builder) Stream(name, level string) *Builder {
	return b.Handler(name, HandlerSpec{Type: SinkStream, Level: level})
}

// File registers a plain file handler in append mode.
func (b *Builder) File(name, filename, level string) *Builder {
	return b.Handler(name, HandlerSpec{Type: SinkFile, Level: level, Filename: filename})
}

// RotatingFile registers a size-rotated file handler.
func (b *Builder) RotatingFile(name, filename, level string, maxBytes int64, backupCount int) *Builder {
	return b.Handler(name, HandlerSpec{
		Type:        SinkRotatingFile,
		Level:       level,
		Filename:    filename,
		MaxBytes:    maxBytes,
		BackupCount: backupCount,
	})
}

// TimedRotatingFile registers a time-rotated file handler.
func (b *Builder) TimedRotatingFile(name, filename, level, when string, interval, backupCount int) *Builder {
	return b.Handler(name, HandlerSpec{
		Type:        SinkTimedRotatingFile,
		Level:       level,
		Filename:    filename,
		When:        when,
		Interval:    interval,
		BackupCount: backupCount,
	})
}

// Multiprocessing switches the built aggregator to queue-based aggregation.
func (b *Builder) Multiprocessing() *Builder {
	b.opts = append(b.opts, WithMultiprocessing())
	return b
}

// QueueSize bounds the record queue.
func (b *Builder) QueueSize(size int) *Builder {
	b.opts = append(b.opts, WithQueueSize(size))
	return b
}

// Queue supplies an owner's queue, making the built aggregator a worker.
func (b *Builder) Queue(q *Queue) *Builder {
	b.opts = append(b.opts, WithQueue(q))
	return b
}

// Diagnostics redirects the fallback error channel.
func (b *Builder) Diagnostics(w io.Writer) *Builder {
	b.opts = append(b.opts, WithDiagnostics(w))
	return b
}

// Example usage:
//
//	mgr, err := logmux.NewBuilder().
//		RootLevel("DEBUG").
//		Stream("console", "WARNING").
//		RotatingFile("app", "/var/log/app/app.log", "DEBUG", 10<<20, 5).
//		Multiprocessing().
//		Build()
//
//	if err == nil {
//		defer mgr.Close()
//		mgr.GetLogger("main").Info("aggregator ready")
//	}
