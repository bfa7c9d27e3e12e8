package redis

import (
	"context"
	"fmt"

	"github.com/kbukum/authkit/component"
	"github.com/kbukum/authkit/logger"
)

// Component wraps Client for the component registry.
type Component struct {
	client *Client
	cfg    Config
	log    *logger.Logger
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a Redis component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	return &Component{cfg: cfg, log: log}
}

// Client returns the underlying *Client, or nil if not started.
func (c *Component) Client() *Client { return c.client }

// Name returns the component name.
func (c *Component) Name() string { return "redis" }

// Start creates the client and verifies connectivity.
func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("redis start: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis start: %w", err)
	}
	c.client = client
	return nil
}

// Stop closes the connection pool.
func (c *Component) Stop(_ context.Context) error {
	return c.client.Close()
}

// Health pings Redis.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if c.client == nil {
		h.Status = component.StatusUnhealthy
		h.Message = "redis not initialized"
		return h
	}
	if err := c.client.Ping(ctx); err != nil {
		h.Status = component.StatusUnhealthy
		h.Message = err.Error()
	}
	return h
}
