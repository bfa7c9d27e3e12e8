package authctx

import (
	"context"
	"testing"

	"github.com/kbukum/authkit/auth/jwt"
	"github.com/kbukum/authkit/errors"
)

func TestSetGet(t *testing.T) {
	ctx := context.Background()
	if _, ok := Get(ctx); ok {
		t.Fatal("empty context reported claims")
	}
	if _, err := Require(ctx); !errors.HasCode(err, errors.ErrCodeUnauthorized) {
		t.Fatalf("Require on empty context = %v", err)
	}

	claims := &jwt.Claims{Role: "ADMIN"}
	claims.Subject = "acc-1"
	ctx = Set(ctx, claims)

	got, err := Require(ctx)
	if err != nil || got.AccountID() != "acc-1" || got.Role != "ADMIN" {
		t.Fatalf("Require = %+v, %v", got, err)
	}
	if MustGet(ctx) != claims {
		t.Fatal("MustGet returned a different pointer")
	}
}

func TestSetNilClaims(t *testing.T) {
	ctx := Set(context.Background(), nil)
	if _, ok := Get(ctx); ok {
		t.Fatal("nil claims reported as present")
	}
	defer func() {
		if recover() == nil {
			t.Fatal("MustGet did not panic")
		}
	}()
	MustGet(ctx)
}
