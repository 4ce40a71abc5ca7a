package logmux

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrHandlerCreation indicates a single handler spec could not be
// materialized. It is recovered locally: the handler is skipped and chain
// construction continues.
var ErrHandlerCreation = errors.New("logmux: handler creation failed")

// Handler is one level-filtered, formatted write path to a sink.
type Handler struct {
	name      string
	level     Level
	formatter *Formatter
	sink      io.WriteCloser

	// Serializes sink writes. On the synchronous path producers dispatch
	// from their own goroutines, and the rotating sinks mutate rotation
	// state inside Write.
	mu sync.Mutex
}

// Level returns the handler's threshold.
func (h *Handler) Level() Level {
	return h.level
}

// handle formats and writes one record. The caller is responsible for the
// level check so that level-respecting can be toggled at the dispatch site.
func (h *Handler) handle(r Record) error {
	line := h.formatter.Format(r)
	line = append(line, '\n')

	h.mu.Lock()
	_, err := h.sink.Write(line)
	h.mu.Unlock()

	if err != nil {
		return fmtErrorf("handler '%s' write failed: %w", h.name, err)
	}
	return nil
}

// HandlerChain is the ordered set of materialized handlers. It is built once
// per owning instance and never shared across processes; sink handles belong
// exclusively to the instance that built the chain.
type HandlerChain struct {
	handlers []*Handler
	diag     io.Writer
}

// newHandlerChain materializes handlers from the config. Handlers are built
// in lexical name order so dispatch order is deterministic. A handler that
// fails to build is reported on the diagnostic writer and skipped.
func newHandlerChain(cfg *Config, diag io.Writer) *HandlerChain {
	chain := &HandlerChain{diag: diag}

	names := make([]string, 0, len(cfg.Handlers))
	for name := range cfg.Handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		handler, err := newHandler(name, cfg.Handlers[name])
		if err != nil {
			fmt.Fprintf(diag, "logmux: skipping handler '%s': %v\n", name, err)
			continue
		}
		chain.handlers = append(chain.handlers, handler)
	}

	return chain
}

// dispatch fans one record out to every handler. When respectLevels is set,
// handlers whose threshold exceeds the record level are skipped. A failing
// handler never blocks delivery to the remaining handlers; its error goes to
// the diagnostic writer only.
func (c *HandlerChain) dispatch(r Record, respectLevels bool) {
	for _, h := range c.handlers {
		if respectLevels && r.Level < h.level {
			continue
		}
		if err := h.handle(r); err != nil {
			fmt.Fprintf(c.diag, "%v\n", err)
		}
	}
}

// Len returns the number of materialized handlers.
func (c *HandlerChain) Len() int {
	return len(c.handlers)
}

// Close releases every sink, combining errors.
func (c *HandlerChain) Close() error {
	var finalErr error
	for _, h := range c.handlers {
		if err := h.sink.Close(); err != nil {
			finalErr = combineErrors(finalErr, fmtErrorf("failed to close handler '%s': %w", h.name, err))
		}
	}
	return finalErr
}

// newHandler materializes a single handler from its spec.
func newHandler(name string, spec HandlerSpec) (*Handler, error) {
	if err := checkEncoding(spec.Encoding); err != nil {
		return nil, err
	}

	kind := spec.Type
	if kind == "" {
		kind = SinkStream
	}

	var sink io.WriteCloser
	var err error
	switch kind {
	case SinkStream:
		sink = &streamSink{w: os.Stderr}
	case SinkFile:
		sink, err = newFileSink(spec.Filename, truncateMode(spec.Mode))
	case SinkRotatingFile:
		sink, err = newRotatingFileSink(spec.Filename, spec.MaxBytes, spec.BackupCount)
	case SinkTimedRotatingFile:
		sink, err = newTimedRotatingFileSink(spec.Filename, spec.When, spec.Interval, spec.BackupCount)
	default:
		return nil, fmtErrorf("%w: unrecognized type '%s'", ErrHandlerCreation, kind)
	}
	if err != nil {
		return nil, fmtErrorf("%w: %v", ErrHandlerCreation, err)
	}

	return &Handler{
		name:      name,
		level:     spec.threshold(),
		formatter: NewFormatter(spec.Formatter.Format, spec.Formatter.Datefmt),
		sink:      sink,
	}, nil
}

// checkEncoding rejects charsets the sinks cannot produce. Only UTF-8 is
// supported; the field exists so configs carrying it remain loadable.
func checkEncoding(encoding string) error {
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
		return nil
	default:
		return fmtErrorf("%w: unsupported encoding '%s'", ErrHandlerCreation, encoding)
	}
}

func truncateMode(mode string) bool {
	return mode == "truncate" || mode == "w"
}

// streamSink writes synchronously and unbuffered to a console stream.
// Closing it never closes the underlying stream.
type streamSink struct {
	w io.Writer
}

func (s *streamSink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

func (s *streamSink) Close() error {
	return nil
}

// fileSink appends (or truncates, per mode) to a single path.
type fileSink struct {
	file *os.File
}

func newFileSink(path string, truncate bool) (*fileSink, error) {
	file, err := openLogFile(path, truncate)
	if err != nil {
		return nil, err
	}
	return &fileSink{file: file}, nil
}

func (s *fileSink) Write(p []byte) (int, error) {
	return s.file.Write(p)
}

func (s *fileSink) Close() error {
	if err := s.file.Sync(); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}

// openLogFile creates parent directories and opens the sink file.
func openLogFile(path string, truncate bool) (*os.File, error) {
	if path == "" {
		return nil, fmtErrorf("filename cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmtErrorf("failed to create log directory '%s': %w", dir, err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if truncate {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}

	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmtErrorf("failed to open log file '%s': %w", path, err)
	}
	return file, nil
}
