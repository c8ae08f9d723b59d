package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/deferhttp/component"
	"github.com/kbukum/deferhttp/logger"
)

// Component manages a Session's lifecycle: Start builds it from the
// config, Stop closes it.
type Component struct {
	name    string
	cfg     Config
	factory BaseFactory
	opts    []Option

	mu      sync.RWMutex
	session *Session
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a session component.
func NewComponent(cfg Config, factory BaseFactory, opts ...Option) *Component {
	cfg.ApplyDefaults()
	return &Component{
		name:    "session:" + cfg.Name,
		cfg:     cfg,
		factory: factory,
		opts:    opts,
	}
}

// Name implements component.Component.
func (c *Component) Name() string {
	return c.name
}

// Start builds the session. Starting a started component is a no-op.
func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return nil
	}
	s, err := NewFromConfig(c.cfg, c.factory, c.opts...)
	if err != nil {
		return fmt.Errorf("starting %s: %w", c.name, err)
	}
	c.session = s
	logger.Get("deferhttp.session").Info("session started", logger.Fields(
		logger.FieldComponent, c.name,
		"error_mode", c.cfg.ErrorMode,
	))
	return nil
}

// Stop closes the session.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Close(ctx)
}

// Health reports unhealthy before Start and degraded while the transport
// refuses requests, e.g. with an open circuit breaker.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.RLock()
	s := c.session
	c.mu.RUnlock()

	switch {
	case s == nil:
		return component.Health{Name: c.name, Status: component.StatusUnhealthy, Message: "not started"}
	case !s.Client().IsAvailable(ctx):
		return component.Health{Name: c.name, Status: component.StatusDegraded, Message: "transport unavailable"}
	default:
		return component.Health{Name: c.name, Status: component.StatusHealthy}
	}
}

// Session returns the running session, or nil.
func (c *Component) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	details := "mode=" + c.cfg.ErrorMode
	if u, ok := c.cfg.Options["base_url"]; ok {
		details = fmt.Sprintf("%v %s", u, details)
	}
	return component.Description{
		Name:    c.cfg.Name,
		Type:    "http-session",
		Details: details,
	}
}
