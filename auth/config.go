package auth

import (
	"fmt"

	"github.com/kbukum/authkit/auth/jwt"
	"github.com/kbukum/authkit/auth/keys"
	"github.com/kbukum/authkit/auth/oauth2"
	"github.com/kbukum/authkit/auth/password"
	"github.com/kbukum/authkit/auth/session"
)

// Config composes the configuration of every authentication component.
// It is squashed into the service config, so each block is a top-level key.
type Config struct {
	Keys     keys.Config     `mapstructure:"keys"`
	JWT      jwt.Config      `mapstructure:"jwt"`
	Password password.Config `mapstructure:"password"`
	Session  session.Config  `mapstructure:"session"`
	OAuth2   oauth2.Config   `mapstructure:"oauth2"`
}

// ApplyDefaults sets defaults on every block.
func (c *Config) ApplyDefaults() {
	c.Keys.ApplyDefaults()
	c.JWT.ApplyDefaults()
	c.Password.ApplyDefaults()
	c.Session.ApplyDefaults()
	c.OAuth2.ApplyDefaults()
}

// Validate checks every block.
func (c *Config) Validate() error {
	if err := c.Keys.Validate(); err != nil {
		return err
	}
	if err := c.JWT.Validate(); err != nil {
		return err
	}
	if err := c.Password.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	return c.OAuth2.Validate()
}

// Describe returns a one-liner for the startup summary.
// Example: "RS256 access=15m0s refresh=168h0m0s password=argon2id session=single_lineage oauth2=[GOOGLE]"
func (c *Config) Describe() string {
	var providers []string
	if c.OAuth2.Google.Enabled() {
		providers = append(providers, oauth2.ProviderGoogle)
	}
	if c.OAuth2.GitHub.Enabled() {
		providers = append(providers, oauth2.ProviderGitHub)
	}
	return fmt.Sprintf("%s access=%s refresh=%s password=%s session=%s oauth2=%v",
		c.Keys.Algorithm, c.JWT.AccessTTL(), c.JWT.RefreshTTL(),
		c.Password.Algorithm, c.Session.Policy, providers)
}
