package jwt

import (
	gojwt "github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of every issued credential:
// {sub, jti, role?, iat, exp}.
type Claims struct {
	Role string `json:"role,omitempty"`
	gojwt.RegisteredClaims
}

// AccountID returns the subject.
func (c *Claims) AccountID() string { return c.Subject }

// JTI returns the unique issuance id.
func (c *Claims) JTI() string { return c.ID }

// HasRole reports whether a role is present.
func (c *Claims) HasRole() bool { return c.Role != "" }
