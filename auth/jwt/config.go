package jwt

import (
	"fmt"
	"time"
)

// Config configures credential lifetimes. TTLs are expressed in seconds to
// match the environment surface (JWT_ACCESS_TOKEN_EXPIRY=900).
type Config struct {
	// AccessTokenExpiry is the access credential lifetime in seconds (default: 900).
	AccessTokenExpiry int64 `yaml:"access_token_expiry" mapstructure:"access_token_expiry"`
	// RefreshTokenExpiry is the refresh credential lifetime in seconds (default: 7 days).
	RefreshTokenExpiry int64 `yaml:"refresh_token_expiry" mapstructure:"refresh_token_expiry"`
	// Issuer is the "iss" claim. When set it is also required on verification.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.AccessTokenExpiry == 0 {
		c.AccessTokenExpiry = int64((15 * time.Minute).Seconds())
	}
	if c.RefreshTokenExpiry == 0 {
		c.RefreshTokenExpiry = int64((7 * 24 * time.Hour).Seconds())
	}
}

// Validate checks that both lifetimes are positive and ordered.
func (c *Config) Validate() error {
	if c.AccessTokenExpiry <= 0 {
		return fmt.Errorf("jwt.access_token_expiry must be positive (got: %d)", c.AccessTokenExpiry)
	}
	if c.RefreshTokenExpiry < c.AccessTokenExpiry {
		return fmt.Errorf("jwt.refresh_token_expiry (%d) must not be shorter than jwt.access_token_expiry (%d)",
			c.RefreshTokenExpiry, c.AccessTokenExpiry)
	}
	return nil
}

// AccessTTL returns the access credential lifetime.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenExpiry) * time.Second
}

// RefreshTTL returns the refresh credential lifetime.
func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpiry) * time.Second
}
