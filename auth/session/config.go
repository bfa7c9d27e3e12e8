package session

import (
	"fmt"
	"strings"
	"time"
)

// Policy controls what a fresh sign-in does to the account's other sessions.
type Policy string

const (
	// PolicySingleLineage purges every session of the account before a
	// sign-in creates its own.
	PolicySingleLineage Policy = "single_lineage"
	// PolicyMultiDevice keeps existing sessions alive on sign-in.
	PolicyMultiDevice Policy = "multi_device"
)

// Config configures session handling.
type Config struct {
	Policy Policy `mapstructure:"policy"`
	// SweepInterval is how often expired sessions are deleted. Zero disables the sweeper.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	c.Policy = Policy(strings.ToLower(strings.TrimSpace(string(c.Policy))))
	if c.Policy == "" {
		c.Policy = PolicySingleLineage
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = time.Hour
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Policy {
	case PolicySingleLineage, PolicyMultiDevice:
	default:
		return fmt.Errorf("session: unknown policy %q", c.Policy)
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("session: sweep_interval must not be negative")
	}
	return nil
}
