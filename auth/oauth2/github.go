package oauth2

import (
	"context"
	"strconv"

	"github.com/kbukum/authkit/httpclient"
)

func applyGitHubDefaults(c *ProviderConfig) {
	if len(c.Scopes) == 0 {
		c.Scopes = []string{"read:user", "user:email"}
	}
	if c.AuthURL == "" {
		c.AuthURL = "https://github.com/login/oauth/authorize"
	}
	if c.TokenURL == "" {
		c.TokenURL = "https://github.com/login/oauth/access_token"
	}
	if c.UserInfoURL == "" {
		c.UserInfoURL = "https://api.github.com/user"
	}
	if c.EmailsURL == "" {
		c.EmailsURL = "https://api.github.com/user/emails"
	}
}

// GitHub signs users in with GitHub. GitHub OAuth apps do not take PKCE.
type GitHub struct {
	base
}

// NewGitHub creates the GitHub provider.
func NewGitHub(cfg ProviderConfig, client *httpclient.Client) *GitHub {
	applyGitHubDefaults(&cfg)
	return &GitHub{newBase(ProviderGitHub, cfg, client, false)}
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Profile reads /user and resolves the email through /user/emails, which
// is the only place GitHub reports verification.
func (g *GitHub) Profile(ctx context.Context, accessToken string) (*Profile, error) {
	var u githubUser
	if err := g.client.GetJSON(ctx, g.cfg.UserInfoURL, accessToken, &u); err != nil {
		return nil, err
	}
	if u.ID == 0 {
		return nil, httpclient.NewDecodeError(missingField("id"))
	}

	var emails []githubEmail
	if err := g.client.GetJSON(ctx, g.cfg.EmailsURL, accessToken, &emails); err != nil {
		return nil, err
	}

	p := &Profile{
		Subject: strconv.FormatInt(u.ID, 10),
		Name:    u.Name,
		Picture: u.AvatarURL,
	}
	if p.Name == "" {
		p.Name = u.Login
	}
	p.Email, p.EmailVerified = pickGitHubEmail(u.Email, emails)
	return p, nil
}

// pickGitHubEmail prefers the primary verified address, then any verified
// address, then the unverified public profile email.
func pickGitHubEmail(public string, emails []githubEmail) (string, bool) {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, true
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, true
		}
	}
	return public, false
}
