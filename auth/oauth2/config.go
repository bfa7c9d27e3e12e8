package oauth2

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/authkit/httpclient"
)

// State store backends.
const (
	StateStoreMemory = "memory"
	StateStoreRedis  = "redis"
)

// LinkPolicy decides how a federated login attaches to an account that
// already exists under the same email.
type LinkPolicy string

const (
	// LinkVerifiedEmail links only when the provider vouches for the email.
	LinkVerifiedEmail LinkPolicy = "verified_email"
	// LinkEmail matches on email alone without recording a provider link.
	LinkEmail LinkPolicy = "email"
)

// ProviderConfig holds one provider's client registration. Endpoint URLs
// default to the provider's public endpoints.
type ProviderConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	RedirectURL  string   `mapstructure:"redirect_url"`
	Scopes       []string `mapstructure:"scopes"`
	AuthURL      string   `mapstructure:"auth_url"`
	TokenURL     string   `mapstructure:"token_url"`
	UserInfoURL  string   `mapstructure:"userinfo_url"`
	// EmailsURL is only used by GitHub.
	EmailsURL string `mapstructure:"emails_url"`
}

// Enabled reports whether the provider has client credentials.
func (p ProviderConfig) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// Config configures the OAuth2 flow coordinator.
type Config struct {
	// StateTTL bounds how long an authorization attempt may stay pending.
	StateTTL time.Duration `mapstructure:"state_ttl"`
	// SweepInterval is how often the memory store drops expired attempts.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	// StateStore selects "memory" or "redis".
	StateStore string     `mapstructure:"state_store"`
	LinkPolicy LinkPolicy `mapstructure:"link_policy"`

	HTTP   httpclient.Config `mapstructure:"http"`
	Google ProviderConfig    `mapstructure:"google"`
	GitHub ProviderConfig    `mapstructure:"github"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.StateTTL <= 0 {
		c.StateTTL = 10 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	c.StateStore = strings.ToLower(strings.TrimSpace(c.StateStore))
	if c.StateStore == "" {
		c.StateStore = StateStoreMemory
	}
	if c.LinkPolicy == "" {
		c.LinkPolicy = LinkVerifiedEmail
	}
	c.HTTP.ApplyDefaults()
	applyGoogleDefaults(&c.Google)
	applyGitHubDefaults(&c.GitHub)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.StateStore {
	case StateStoreMemory, StateStoreRedis:
	default:
		return fmt.Errorf("oauth2: unknown state_store %q", c.StateStore)
	}
	switch c.LinkPolicy {
	case LinkVerifiedEmail, LinkEmail:
	default:
		return fmt.Errorf("oauth2: unknown link_policy %q", c.LinkPolicy)
	}
	for name, p := range map[string]ProviderConfig{ProviderGoogle: c.Google, ProviderGitHub: c.GitHub} {
		if p.Enabled() && p.RedirectURL == "" {
			return fmt.Errorf("oauth2: %s redirect_url is required", strings.ToLower(name))
		}
	}
	return c.HTTP.Validate()
}
