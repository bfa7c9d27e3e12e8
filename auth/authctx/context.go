// Package authctx carries the verified credential claims of a request
// through context.Context.
//
//	ctx = authctx.Set(ctx, claims)       // authentication middleware
//	claims, err := authctx.Require(ctx)  // handlers and role checks
package authctx

import (
	"context"

	"github.com/kbukum/authkit/auth/jwt"
	"github.com/kbukum/authkit/errors"
)

type contextKey struct{}

// Set stores verified claims in the context.
func Set(ctx context.Context, claims *jwt.Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// Get returns the claims stored by Set.
func Get(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*jwt.Claims)
	return claims, ok && claims != nil
}

// Require returns the claims or an UNAUTHORIZED error when the request was
// never authenticated.
func Require(ctx context.Context) (*jwt.Claims, error) {
	claims, ok := Get(ctx)
	if !ok {
		return nil, errors.Unauthorized("")
	}
	return claims, nil
}

// MustGet returns the claims and panics if they are missing. Only use it
// behind the authentication middleware.
func MustGet(ctx context.Context) *jwt.Claims {
	claims, ok := Get(ctx)
	if !ok {
		panic("authctx: claims not found in context")
	}
	return claims
}
