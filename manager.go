package logmux

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// Option configures aggregator construction.
type Option func(*options)

type options struct {
	multiprocessing bool
	queueSize       int
	queue           *Queue
	diag            io.Writer
}

// WithMultiprocessing enables queue-based aggregation. Without a supplied
// queue the instance becomes the owner and starts the listener; with one it
// becomes a worker.
func WithMultiprocessing() Option {
	return func(o *options) {
		o.multiprocessing = true
	}
}

// WithQueueSize bounds the record queue. Zero or negative means unbounded,
// which is the default.
func WithQueueSize(size int) Option {
	return func(o *options) {
		o.queueSize = size
	}
}

// WithQueue supplies an existing queue created by an owner instance. The
// receiving instance becomes a worker: it builds no handlers and no listener,
// and its facades write only into this queue.
func WithQueue(q *Queue) Option {
	return func(o *options) {
		o.queue = q
	}
}

// WithDiagnostics redirects the fallback error channel used for sink I/O
// failures and skipped handlers. Defaults to stderr.
func WithDiagnostics(w io.Writer) Option {
	return func(o *options) {
		o.diag = w
	}
}

// Manager resolves the operating role and owns the aggregation resources for
// one process: the handler chain, and in owner mode the queue and listener.
// Only the instance that created a queue/listener pair may stop it.
type Manager struct {
	cfg   *Config
	mode  Mode
	owner bool
	diag  io.Writer

	chain    *HandlerChain
	queue    *Queue
	listener *Listener

	mu      sync.Mutex
	loggers map[string]*Logger

	stopCalled atomic.Bool
}

// New loads the handler specification from a config file and constructs an
// aggregator. Config errors surface here, synchronously, before any handler,
// queue, or listener exists.
func New(configPath string, opts ...Option) (*Manager, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg, opts...)
}

// NewFromConfig constructs an aggregator from an already-resolved handler
// specification.
func NewFromConfig(cfg *Config, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, fmtErrorf("configuration cannot be nil")
	}

	o := &options{diag: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}

	m := &Manager{
		cfg:     cfg,
		diag:    o.diag,
		loggers: make(map[string]*Logger),
	}

	switch {
	case !o.multiprocessing:
		m.mode = ModeSingleProcess
		m.chain = newHandlerChain(cfg, m.diag)

	case o.queue == nil:
		m.mode = ModeOwner
		m.owner = true
		m.chain = newHandlerChain(cfg, m.diag)
		m.queue = NewQueue(o.queueSize)
		m.listener = newListener(m.queue, m.chain, true, m.diag)
		if err := m.listener.Start(); err != nil {
			_ = m.chain.Close()
			return nil, err
		}

	default:
		m.mode = ModeWorker
		m.queue = o.queue
	}

	return m, nil
}

// GetLogger returns the facade registered under name, creating and binding it
// on first use. Every call rebinds the facade fresh, so repeated
// configuration never stacks duplicate write paths. The facade level comes
// from the root config, falling back to defaultLevel (INFO when omitted).
func (m *Manager) GetLogger(name string, defaultLevel ...Level) *Logger {
	fallback := LevelInfo
	if len(defaultLevel) > 0 {
		fallback = defaultLevel[0]
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	logger, ok := m.loggers[name]
	if !ok {
		logger = newFacade(name)
		m.loggers[name] = logger
	}

	logger.bind(m.cfg.rootLevel(fallback), m.cfg.Root.Propagate, m.emitter())
	return logger
}

// emitter resolves the single emit path for the current role. Called with
// m.mu held.
func (m *Manager) emitter() recordEmitter {
	switch m.mode {
	case ModeSingleProcess:
		return &chainEmitter{chain: m.chain}
	default:
		if m.queue == nil {
			// Worker constructed without a queue; misuse stays benign.
			return discardEmitter{}
		}
		return &queueEmitter{queue: m.queue, diag: m.diag}
	}
}

// Queue returns the shared record queue, or nil in single-process mode.
// Owners pass this handle to their workers.
func (m *Manager) Queue() *Queue {
	return m.queue
}

// Mode returns the resolved operating role.
func (m *Manager) Mode() Mode {
	return m.mode
}

// Owner reports whether this instance created the queue/listener pair.
func (m *Manager) Owner() bool {
	return m.owner
}

// Stop drains and releases the resources this instance owns. It is
// idempotent, and on a worker it is a deliberate no-op: a worker must never
// tear down the listener other workers still depend on. Records enqueued
// strictly before Stop are delivered; records racing the sentinel may be
// lost.
func (m *Manager) Stop() error {
	if m.mode == ModeWorker {
		return nil
	}
	if !m.stopCalled.CompareAndSwap(false, true) {
		return nil
	}

	var finalErr error
	if m.owner {
		if err := m.listener.Stop(); err != nil {
			finalErr = combineErrors(finalErr, err)
		}
	}
	if err := m.chain.Close(); err != nil {
		finalErr = combineErrors(finalErr, err)
	}
	return finalErr
}

// Close implements io.Closer so construction and release pair up in a
// deterministic defer. There is no finalizer fallback.
func (m *Manager) Close() error {
	return m.Stop()
}
