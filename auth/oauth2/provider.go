package oauth2

import (
	"context"
	"fmt"

	xoauth2 "golang.org/x/oauth2"

	"github.com/kbukum/authkit/httpclient"
)

// Provider names as accepted on the wire.
const (
	ProviderGoogle = "GOOGLE"
	ProviderGitHub = "GITHUB"
)

// Profile is the identity a provider reports for the signed-in user.
type Profile struct {
	// Subject is the provider's stable user id.
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Provider drives one identity provider's authorization-code flow.
type Provider interface {
	// Name returns the upper-case provider name.
	Name() string
	// UsesPKCE reports whether AuthURL expects a challenge.
	UsesPKCE() bool
	// AuthURL builds the authorization URL. pkce is nil when UsesPKCE is false.
	AuthURL(state string, pkce *PKCE) string
	// Exchange trades an authorization code for a provider access token.
	Exchange(ctx context.Context, code, verifier string) (string, error)
	// Profile fetches the user's identity with a provider access token.
	Profile(ctx context.Context, accessToken string) (*Profile, error)
}

// base holds what both providers share: the client registration and the
// outbound client. Token requests go through x/oauth2 on the same breaker
// as profile requests.
type base struct {
	name   string
	cfg    ProviderConfig
	oauth  *xoauth2.Config
	client *httpclient.Client
	pkce   bool
}

func newBase(name string, cfg ProviderConfig, client *httpclient.Client, pkce bool) base {
	return base{
		name:   name,
		cfg:    cfg,
		client: client,
		pkce:   pkce,
		oauth: &xoauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: xoauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: xoauth2.AuthStyleInParams,
			},
		},
	}
}

func (b *base) Name() string   { return b.name }
func (b *base) UsesPKCE() bool { return b.pkce }

func (b *base) AuthURL(state string, pkce *PKCE) string {
	if pkce == nil {
		return b.oauth.AuthCodeURL(state)
	}
	return b.oauth.AuthCodeURL(state, xoauth2.S256ChallengeOption(pkce.Verifier))
}

func (b *base) Exchange(ctx context.Context, code, verifier string) (string, error) {
	var opts []xoauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, xoauth2.VerifierOption(verifier))
	}

	if b.client != nil {
		ctx = context.WithValue(ctx, xoauth2.HTTPClient, b.client.HTTPClient())
	}

	tok, err := b.oauth.Exchange(ctx, code, opts...)
	if err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", httpclient.NewDecodeError(missingField("access_token"))
	}
	return tok.AccessToken, nil
}

func missingField(name string) error {
	return fmt.Errorf("response missing %s", name)
}
