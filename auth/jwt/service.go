// Package jwt issues and verifies the access and refresh bearer credentials.
//
// Access and refresh credentials are signed with distinct key bundles, so a
// credential of one kind never verifies as the other. Verification fails
// closed: bad signatures, malformed input, unexpected algorithms and expired
// credentials all yield UNAUTHORIZED.
package jwt

import (
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/authkit/auth/keys"
	"github.com/kbukum/authkit/errors"
)

// KeySource supplies the key bundles. *keys.Manager satisfies it.
type KeySource interface {
	Access() (*keys.Bundle, error)
	Refresh() (*keys.Bundle, error)
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for iat/exp and validation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service issues and verifies credentials.
type Service struct {
	cfg     Config
	access  *keys.Bundle
	refresh *keys.Bundle
	now     func() time.Time
}

// NewService resolves both key bundles up front; key failures surface here
// rather than on the first request.
func NewService(cfg Config, src KeySource, opts ...Option) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	access, err := src.Access()
	if err != nil {
		return nil, fmt.Errorf("jwt: access keys: %w", err)
	}
	refresh, err := src.Refresh()
	if err != nil {
		return nil, fmt.Errorf("jwt: refresh keys: %w", err)
	}

	s := &Service{cfg: cfg, access: access, refresh: refresh, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AccessTTL returns the access credential lifetime.
func (s *Service) AccessTTL() time.Duration { return s.cfg.AccessTTL() }

// RefreshTTL returns the refresh credential lifetime.
func (s *Service) RefreshTTL() time.Duration { return s.cfg.RefreshTTL() }

// IssueAccess signs an access credential for accountID.
func (s *Service) IssueAccess(accountID, jti, role string) (string, error) {
	return s.issue(s.access, s.cfg.AccessTTL(), accountID, jti, role)
}

// IssueRefresh signs a refresh credential for accountID.
func (s *Service) IssueRefresh(accountID, jti, role string) (string, error) {
	return s.issue(s.refresh, s.cfg.RefreshTTL(), accountID, jti, role)
}

// VerifyAccess validates an access credential and returns its claims.
func (s *Service) VerifyAccess(token string) (*Claims, error) {
	return s.verify(s.access, token)
}

// VerifyRefresh validates a refresh credential and returns its claims.
func (s *Service) VerifyRefresh(token string) (*Claims, error) {
	return s.verify(s.refresh, token)
}

func (s *Service) issue(b *keys.Bundle, ttl time.Duration, accountID, jti, role string) (string, error) {
	now := s.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   accountID,
			ID:        jti,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := gojwt.NewWithClaims(b.Method, claims).SignedString(b.SignKey)
	if err != nil {
		return "", errors.InternalServer(fmt.Errorf("jwt: sign token: %w", err))
	}
	return signed, nil
}

func (s *Service) verify(b *keys.Bundle, token string) (*Claims, error) {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{b.Method.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithIssuedAt(),
		gojwt.WithStrictDecoding(),
		gojwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.cfg.Issuer))
	}

	claims := &Claims{}
	parsed, err := gojwt.ParseWithClaims(token, claims, func(t *gojwt.Token) (any, error) {
		if t.Method.Alg() != b.Method.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return b.VerifyKey, nil
	}, opts...)
	if err != nil {
		return nil, errors.Unauthorized("Invalid or expired token.").WithCause(err)
	}
	if !parsed.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, errors.Unauthorized("Invalid or expired token.")
	}
	return claims, nil
}
