package oauth2

import (
	"context"

	"github.com/kbukum/authkit/httpclient"
)

func applyGoogleDefaults(c *ProviderConfig) {
	if len(c.Scopes) == 0 {
		c.Scopes = []string{"openid", "email", "profile"}
	}
	if c.AuthURL == "" {
		c.AuthURL = "https://accounts.google.com/o/oauth2/v2/auth"
	}
	if c.TokenURL == "" {
		c.TokenURL = "https://oauth2.googleapis.com/token"
	}
	if c.UserInfoURL == "" {
		c.UserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	}
}

// Google signs users in with Google using PKCE.
type Google struct {
	base
}

// NewGoogle creates the Google provider.
func NewGoogle(cfg ProviderConfig, client *httpclient.Client) *Google {
	applyGoogleDefaults(&cfg)
	return &Google{newBase(ProviderGoogle, cfg, client, true)}
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Profile reads the v2 userinfo endpoint.
func (g *Google) Profile(ctx context.Context, accessToken string) (*Profile, error) {
	var u googleUser
	if err := g.client.GetJSON(ctx, g.cfg.UserInfoURL, accessToken, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, httpclient.NewDecodeError(missingField("id"))
	}
	return &Profile{
		Subject:       u.ID,
		Email:         u.Email,
		EmailVerified: u.VerifiedEmail,
		Name:          u.Name,
		Picture:       u.Picture,
	}, nil
}
