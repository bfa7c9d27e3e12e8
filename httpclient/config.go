package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/authkit/resilience"
)

const defaultTimeout = 10 * time.Second

// Config configures the HTTP client.
type Config struct {
	// Name labels the client in errors and breaker transitions.
	Name string `mapstructure:"-"`

	// Timeout bounds each request end to end. Defaults to 10s.
	Timeout time.Duration `mapstructure:"timeout"`

	// UserAgent is sent on every request.
	UserAgent string `mapstructure:"user_agent"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `mapstructure:"headers"`

	// CircuitBreaker configures the breaker. Zero values take defaults.
	CircuitBreaker resilience.CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = "authkit"
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	return nil
}
