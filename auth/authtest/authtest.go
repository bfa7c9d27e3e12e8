// Package authtest assembles a complete authentication service over an
// in-memory database and a fake identity provider.
package authtest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/auth/jwt"
	"github.com/kbukum/authkit/auth/keys"
	"github.com/kbukum/authkit/auth/oauth2"
	"github.com/kbukum/authkit/auth/oauth2/oauth2test"
	"github.com/kbukum/authkit/auth/password"
	"github.com/kbukum/authkit/auth/session"
	"github.com/kbukum/authkit/database/testutil"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/store"
)

// Env is a wired service and its collaborators.
type Env struct {
	Service  *auth.Service
	Store    *store.Store
	Tokens   *jwt.Service
	Sessions *session.Manager
	IdP      *oauth2test.Server
}

// Options tweaks the environment.
type Options struct {
	Policy     session.Policy
	LinkPolicy oauth2.LinkPolicy
}

// New builds an Env closed at test cleanup. Passwords use bcrypt at the
// minimum cost to keep tests fast.
func New(t testing.TB, opts Options) *Env {
	t.Helper()

	km, err := keys.NewManager(keys.Config{Dir: filepath.Join(t.TempDir(), "keys")}, nil)
	if err != nil {
		t.Fatalf("keys.NewManager: %v", err)
	}
	tokens, err := jwt.NewService(jwt.Config{}, km)
	if err != nil {
		t.Fatalf("jwt.NewService: %v", err)
	}
	passwords, err := password.NewService(password.Config{Algorithm: password.AlgorithmBcrypt, BcryptCost: 4})
	if err != nil {
		t.Fatalf("password.NewService: %v", err)
	}

	st := store.New(testutil.NewSQLite(t, store.Models()...))
	log := logger.NewNop()
	sessions := session.NewManager(session.Config{Policy: opts.Policy}, st.Sessions, tokens, log)

	idp := oauth2test.NewServer(t)
	ocfg := idp.Config()
	ocfg.LinkPolicy = opts.LinkPolicy
	ocfg.HTTP.Timeout = 5 * time.Second
	coordinator, err := oauth2.New(ocfg, oauth2.NewMemoryStateStore(0, log), log)
	if err != nil {
		t.Fatalf("oauth2.New: %v", err)
	}

	svc := auth.NewService(auth.Deps{
		Store:     st,
		Tokens:    tokens,
		Passwords: passwords,
		Sessions:  sessions,
		OAuth2:    coordinator,
	}, log)

	return &Env{Service: svc, Store: st, Tokens: tokens, Sessions: sessions, IdP: idp}
}
