package auth

import "github.com/kbukum/authkit/auth/jwt"

// TokenVerifier verifies access credentials. The authentication middleware
// depends on this contract rather than on the token service.
type TokenVerifier interface {
	VerifyAccess(token string) (*jwt.Claims, error)
}

// TokenVerifierFunc adapts an ordinary function to the TokenVerifier interface.
type TokenVerifierFunc func(token string) (*jwt.Claims, error)

// VerifyAccess implements TokenVerifier.
func (f TokenVerifierFunc) VerifyAccess(token string) (*jwt.Claims, error) {
	return f(token)
}

var _ TokenVerifier = (*jwt.Service)(nil)
