package app

import (
	"fmt"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/auth/oauth2"
	"github.com/kbukum/authkit/config"
	"github.com/kbukum/authkit/database"
	"github.com/kbukum/authkit/observability"
	"github.com/kbukum/authkit/redis"
	"github.com/kbukum/authkit/server"
	"github.com/kbukum/authkit/version"
)

// ServiceName is the config and env prefix of the daemon.
const ServiceName = "authd"

// Config is the complete daemon configuration. The service and auth blocks
// are squashed, so keys such as "jwt" and "session" sit at the top level.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	auth.Config          `yaml:",inline" mapstructure:",squash"`

	Server   server.Config              `yaml:"server" mapstructure:"server"`
	Database database.Config            `yaml:"database" mapstructure:"database"`
	Redis    redis.Config               `yaml:"redis" mapstructure:"redis"`
	Tracing  observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics  observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// ApplyDefaults sets defaults on every block.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	if c.OAuth2.HTTP.UserAgent == "" {
		c.OAuth2.HTTP.UserAgent = version.UserAgent(c.Name)
	}
	c.ServiceConfig.ApplyDefaults()
	c.Config.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Tracing.ApplyDefaults()
	c.Metrics.ApplyDefaults()
}

// Validate checks every block and the dependencies between them.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if c.OAuth2.StateStore == oauth2.StateStoreRedis && !c.Redis.Enabled {
		return fmt.Errorf("oauth2: state_store %q requires redis.enabled", oauth2.StateStoreRedis)
	}
	if err := c.Tracing.Validate(); err != nil {
		return err
	}
	return c.Metrics.Validate()
}

// Load reads the config file and environment into a Config, then applies
// defaults and validates it.
func Load(opts ...config.LoaderOption) (*Config, error) {
	var cfg Config
	if err := config.LoadConfig(ServiceName, &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
