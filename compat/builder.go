package compat

import (
	"fmt"

	"github.com/lixenwraith/logmux"
)

// Builder creates configured logger adapters for gnet and fasthttp backed by
// a shared aggregator. It can use an existing *logmux.Manager or construct
// one from a *logmux.Config.
type Builder struct {
	manager *logmux.Manager
	cfg     *logmux.Config
	name    string
	err     error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{name: "server"}
}

// WithManager specifies an existing aggregator to back the adapters.
// Recommended for applications that already constructed one. If this is set,
// WithConfig is ignored.
func (b *Builder) WithManager(m *logmux.Manager) *Builder {
	if m == nil {
		b.err = fmt.Errorf("logmux/compat: provided manager cannot be nil")
		return b
	}
	b.manager = m
	return b
}

// WithConfig provides a handler specification for a new aggregator. Used
// only when no manager was supplied via WithManager.
func (b *Builder) WithConfig(cfg *logmux.Config) *Builder {
	b.cfg = cfg
	return b
}

// WithLoggerName sets the facade name the adapters log under. Defaults to
// "server".
func (b *Builder) WithLoggerName(name string) *Builder {
	b.name = name
	return b
}

// getLogger resolves the facade to be used, constructing the aggregator if
// necessary.
func (b *Builder) getLogger() (*logmux.Logger, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.manager == nil {
		cfg := b.cfg
		if cfg == nil {
			// No spec provided; a bare console handler keeps output visible.
			cfg = &logmux.Config{
				Handlers: map[string]logmux.HandlerSpec{
					"console": {Type: logmux.SinkStream},
				},
			}
		}
		m, err := logmux.NewFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		b.manager = m
	}

	return b.manager.GetLogger(b.name), nil
}

// BuildGnet creates a gnet adapter
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(l, opts...), nil
}

// BuildFastHTTP creates a fasthttp adapter
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(l, opts...), nil
}

// GetManager returns the underlying aggregator, constructing it if needed so
// the caller can defer Close.
func (b *Builder) GetManager() (*logmux.Manager, error) {
	if _, err := b.getLogger(); err != nil {
		return nil, err
	}
	return b.manager, nil
}
