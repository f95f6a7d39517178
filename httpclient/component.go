package httpclient

import (
	"context"
	"sync"

	"github.com/kbukum/pipehttp/component"
)

// Component wraps a Client with lifecycle management. The client is
// created in Start.
type Component struct {
	config Config
	opts   []Option

	mu     sync.RWMutex
	client *Client
}

// compile-time assertions
var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a new HTTP client component.
func NewComponent(cfg Config, opts ...Option) *Component {
	return &Component{config: cfg, opts: opts}
}

// Name returns the component name.
func (c *Component) Name() string {
	name := c.config.Name
	if name == "" {
		name = "http"
	}
	return name
}

// Start creates the client.
func (c *Component) Start(_ context.Context) error {
	cl, err := New(c.config, c.opts...)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.client = cl
	c.mu.Unlock()
	return nil
}

// Stop releases idle connections.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		c.client.Close()
		c.client = nil
	}
	return nil
}

// Health reports healthy once the client has been started.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if c.Client() == nil {
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	}
	return h
}

// Describe returns a component description for startup logs.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    c.Name(),
		Type:    "http-client",
		Details: c.config.BaseURL,
	}
}

// Client returns the underlying client, or nil before Start.
func (c *Component) Client() *Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}
