package logmux

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

// recordEmitter is a facade's emit path. The binding is chosen once, when the
// facade is bound, by single dispatch on the aggregator role; it is never
// re-checked per record.
type recordEmitter interface {
	emit(r Record)
}

// chainEmitter delivers records straight to the handler chain
// (single-process role).
type chainEmitter struct {
	chain *HandlerChain
}

func (e *chainEmitter) emit(r Record) {
	e.chain.dispatch(r, true)
}

// queueEmitter serializes records into the shared queue (owner and worker
// roles). Enqueue failures are diagnostics, never surfaced to producers.
type queueEmitter struct {
	queue *Queue
	diag  io.Writer
}

func (e *queueEmitter) emit(r Record) {
	if err := e.queue.Enqueue(r); err != nil {
		fmt.Fprintf(e.diag, "logmux: dropping record from '%s': %v\n", r.Logger, err)
	}
}

// discardEmitter absorbs records when no valid binding exists. Misuse is
// benign by design: the producer keeps working, the records go nowhere.
type discardEmitter struct{}

func (discardEmitter) emit(Record) {}

// emitterBox wraps the binding so atomic.Value sees one concrete type across
// rebinds.
type emitterBox struct {
	e recordEmitter
}

// Logger is a named facade handed out by the aggregator. It holds exactly one
// emit path: the handler chain in single-process mode or the record queue in
// multi-process mode, never both. Records below its level are dropped before
// any formatting or serialization.
type Logger struct {
	name      string
	level     atomic.Int32
	propagate atomic.Bool
	out       atomic.Value // stores *emitterBox
	pid       int
}

func newFacade(name string) *Logger {
	l := &Logger{name: name, pid: os.Getpid()}
	l.out.Store(&emitterBox{e: discardEmitter{}})
	return l
}

// bind replaces the facade's level and emit path. Rebinding is wholesale so
// repeated configuration never accumulates duplicate write paths.
func (l *Logger) bind(level Level, propagate bool, out recordEmitter) {
	l.level.Store(int32(level))
	l.propagate.Store(propagate)
	l.out.Store(&emitterBox{e: out})
}

// Name returns the facade name carried on every record it emits.
func (l *Logger) Name() string {
	return l.name
}

// Level returns the facade's producer-side threshold.
func (l *Logger) Level() Level {
	return Level(l.level.Load())
}

// SetLevel adjusts the producer-side threshold.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

// Propagate reports the root propagation flag the facade was bound with.
func (l *Logger) Propagate() bool {
	return l.propagate.Load()
}

// Debug logs a message at debug level.
func (l *Logger) Debug(args ...any) {
	l.log(LevelDebug, args...)
}

// Info logs a message at info level.
func (l *Logger) Info(args ...any) {
	l.log(LevelInfo, args...)
}

// Warning logs a message at warning level.
func (l *Logger) Warning(args ...any) {
	l.log(LevelWarning, args...)
}

// Error logs a message at error level.
func (l *Logger) Error(args ...any) {
	l.log(LevelError, args...)
}

// Critical logs a message at critical level.
func (l *Logger) Critical(args ...any) {
	l.log(LevelCritical, args...)
}

// log builds and emits one record. The level check happens here, at the
// producer, so filtered records cost neither formatting nor serialization.
func (l *Logger) log(level Level, args ...any) {
	if level < Level(l.level.Load()) {
		return
	}

	record := Record{
		Time:    time.Now(),
		Logger:  l.name,
		Level:   level,
		Message: renderMessage(args),
		PID:     l.pid,
	}
	l.out.Load().(*emitterBox).e.emit(record)
}
