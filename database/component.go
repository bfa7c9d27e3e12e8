package database

import (
	"context"
	"fmt"

	"github.com/kbukum/authkit/component"
	"github.com/kbukum/authkit/logger"
)

// Component wraps DB for the component registry.
type Component struct {
	db     *DB
	cfg    Config
	log    *logger.Logger
	models []interface{}
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a database component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log}
}

// WithAutoMigrate registers models migrated on Start when cfg.AutoMigrate is set.
func (c *Component) WithAutoMigrate(models ...interface{}) *Component {
	c.models = append(c.models, models...)
	return c
}

// DB returns the underlying *DB, or nil if not started.
func (c *Component) DB() *DB { return c.db }

// Name returns the component name.
func (c *Component) Name() string { return "database" }

// Start connects to the database and optionally runs auto-migration.
func (c *Component) Start(ctx context.Context) error {
	db, err := New(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("database start: %w", err)
	}
	c.db = db

	if c.cfg.AutoMigrate && len(c.models) > 0 {
		if err := c.db.AutoMigrate(c.models...); err != nil {
			return fmt.Errorf("database auto-migrate: %w", err)
		}
	}
	return nil
}

// Stop closes the connection pool.
func (c *Component) Stop(_ context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Health pings the database.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case c.db == nil:
		h.Status = component.StatusUnhealthy
		h.Message = "database not initialized"
	case c.db.PingContext(ctx) != nil:
		h.Status = component.StatusUnhealthy
		h.Message = "ping failed"
	}
	return h
}
