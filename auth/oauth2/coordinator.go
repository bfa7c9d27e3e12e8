package oauth2

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/httpclient"
	"github.com/kbukum/authkit/logger"
)

// Authorization is returned by Init.
type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// CallbackParams carries what the provider redirected back with.
type CallbackParams struct {
	State string
	Code  string
	// Error is set when the user denied consent or the provider failed.
	Error string
	// Provider is optional; when set it must match the provider recorded at Init.
	Provider string
}

// Identity is the outcome of a completed callback.
type Identity struct {
	Provider string
	Profile
}

// Coordinator runs the authorization-code flow: Init issues the
// authorization URL and records the pending attempt, Callback consumes it
// exactly once and resolves the provider identity.
type Coordinator struct {
	cfg       Config
	states    StateStore
	providers map[string]Provider
	log       *logger.Logger
	now       func() time.Time
}

// New creates a coordinator with a provider for every configured client
// registration. Each provider gets its own HTTP client and circuit breaker.
func New(cfg Config, states StateStore, log *logger.Logger) (*Coordinator, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var providers []Provider
	if cfg.Google.Enabled() {
		client, err := newProviderClient(cfg.HTTP, ProviderGoogle)
		if err != nil {
			return nil, err
		}
		providers = append(providers, NewGoogle(cfg.Google, client))
	}
	if cfg.GitHub.Enabled() {
		client, err := newProviderClient(cfg.HTTP, ProviderGitHub)
		if err != nil {
			return nil, err
		}
		providers = append(providers, NewGitHub(cfg.GitHub, client))
	}
	return NewCoordinator(cfg, states, log, providers...), nil
}

func newProviderClient(cfg httpclient.Config, provider string) (*httpclient.Client, error) {
	cfg.Name = "oauth2-" + strings.ToLower(provider)
	return httpclient.New(cfg)
}

// NewCoordinator creates a coordinator over explicit providers.
func NewCoordinator(cfg Config, states StateStore, log *logger.Logger, providers ...Provider) *Coordinator {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	m := make(map[string]Provider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &Coordinator{
		cfg:       cfg,
		states:    states,
		providers: m,
		log:       log.WithComponent("oauth2"),
		now:       time.Now,
	}
}

// LinkPolicy returns the configured account linking policy.
func (c *Coordinator) LinkPolicy() LinkPolicy { return c.cfg.LinkPolicy }

// Providers returns the names of the configured providers, sorted.
func (c *Coordinator) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for name := range c.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseProvider normalizes a provider name. Unknown names are BAD_REQUEST.
func ParseProvider(name string) (string, error) {
	switch n := strings.ToUpper(strings.TrimSpace(name)); n {
	case ProviderGoogle, ProviderGitHub:
		return n, nil
	case "":
		return "", errors.BadRequest("provider is required")
	default:
		return "", errors.BadRequest(fmt.Sprintf("unknown provider %q", name))
	}
}

func (c *Coordinator) provider(name string) (Provider, error) {
	n, err := ParseProvider(name)
	if err != nil {
		return nil, err
	}
	p, ok := c.providers[n]
	if !ok {
		return nil, errors.BadRequest(fmt.Sprintf("provider %s is not configured", n))
	}
	return p, nil
}

// Init starts a login attempt with the named provider.
func (c *Coordinator) Init(ctx context.Context, providerName string) (*Authorization, error) {
	p, err := c.provider(providerName)
	if err != nil {
		return nil, err
	}

	state, err := NewState()
	if err != nil {
		return nil, errors.Internal(err)
	}
	pending := Pending{Provider: p.Name(), CreatedAt: c.now().UTC()}

	var pkce *PKCE
	if p.UsesPKCE() {
		pkce = NewPKCE()
		pending.Verifier = pkce.Verifier
	}

	if err := c.states.Put(ctx, state, pending, c.cfg.StateTTL); err != nil {
		return nil, errors.Internal(fmt.Errorf("store oauth2 state: %w", err))
	}

	c.log.WithContext(ctx).Debug("OAuth2 authorization started", map[string]interface{}{
		logger.FieldProvider: p.Name(),
	})
	return &Authorization{AuthorizationURL: p.AuthURL(state, pkce), State: state}, nil
}

// Callback consumes the pending attempt for params.State, exchanges the
// code and fetches the user's profile. A state is honored at most once,
// including when the provider reported an error.
func (c *Coordinator) Callback(ctx context.Context, params CallbackParams) (*Identity, error) {
	if params.State == "" {
		return nil, errors.BadRequest("state is required")
	}

	pending, err := c.states.Take(ctx, params.State)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("load oauth2 state: %w", err))
	}
	if pending == nil {
		return nil, errors.BadRequest("invalid or expired state")
	}

	log := c.log.WithContext(ctx).WithFields(map[string]interface{}{logger.FieldProvider: pending.Provider})

	if params.Error != "" {
		log.Info("OAuth2 authorization denied by provider", map[string]interface{}{"reason": params.Error})
		return nil, errors.BadRequest("authorization was not granted: " + params.Error)
	}
	if params.Provider != "" {
		if n, perr := ParseProvider(params.Provider); perr != nil || n != pending.Provider {
			return nil, errors.BadRequest("provider does not match state")
		}
	}
	if params.Code == "" {
		return nil, errors.BadRequest("code is required")
	}

	p, err := c.provider(pending.Provider)
	if err != nil {
		return nil, err
	}
	service := strings.ToLower(p.Name())

	token, err := p.Exchange(ctx, params.Code, pending.Verifier)
	if err != nil {
		log.Warn("OAuth2 code exchange failed", logger.ErrorFields("exchange", err))
		return nil, errors.ExternalServiceError(service, err)
	}

	profile, err := p.Profile(ctx, token)
	if err != nil {
		log.Warn("OAuth2 profile fetch failed", logger.ErrorFields("profile", err))
		return nil, errors.ExternalServiceError(service, err)
	}
	if profile.Email == "" {
		return nil, errors.ExternalServiceError(service, missingField("email"))
	}

	return &Identity{Provider: p.Name(), Profile: *profile}, nil
}
