package auth_test

import (
	"context"
	"testing"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/auth/authtest"
	"github.com/kbukum/authkit/auth/oauth2"
	"github.com/kbukum/authkit/auth/oauth2/oauth2test"
	"github.com/kbukum/authkit/auth/session"
	"github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/store"
)

var meta = session.Metadata{IPAddress: "203.0.113.7", UserAgent: "test", DeviceType: session.DeviceDesktop}

func signUp(t *testing.T, env *authtest.Env, email, password string) *store.Account {
	t.Helper()
	account, err := env.Service.SignUp(context.Background(), auth.Credentials{Email: email, Password: password})
	if err != nil {
		t.Fatalf("SignUp(%s): %v", email, err)
	}
	return account
}

func signIn(t *testing.T, env *authtest.Env, email, password string) *session.Tokens {
	t.Helper()
	tokens, err := env.Service.SignIn(context.Background(), auth.Credentials{Email: email, Password: password}, meta)
	if err != nil {
		t.Fatalf("SignIn(%s): %v", email, err)
	}
	return tokens
}

func TestSignUpAndSignIn(t *testing.T) {
	env := authtest.New(t, authtest.Options{})
	ctx := context.Background()

	account := signUp(t, env, "a@b.com", "password123")
	if account.Email != "a@b.com" || account.Username != "a" || account.EmailVerified || !account.IsActive {
		t.Errorf("account = %+v", account)
	}

	_, err := env.Service.SignUp(ctx, auth.Credentials{Email: "a@b.com", Password: "password123"})
	if !errors.HasCode(err, errors.ErrCodeConflict) {
		t.Fatalf("second SignUp error = %v, want CONFLICT", err)
	}
	accounts, _ := env.Store.Accounts.FindAll(ctx, "email = ?", "a@b.com")
	providers, _ := env.Store.Providers.FindByAccount(ctx, account.ID)
	if len(accounts) != 1 || len(providers) != 1 {
		t.Errorf("accounts = %d, providers = %d; want 1, 1", len(accounts), len(providers))
	}

	tokens := signIn(t, env, "a@b.com", "password123")
	claims, err := env.Tokens.VerifyAccess(tokens.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.AccountID() != account.ID || claims.HasRole() {
		t.Errorf("claims sub = %q role = %q", claims.AccountID(), claims.Role)
	}
}

func TestSignUpValidation(t *testing.T) {
	env := authtest.New(t, authtest.Options{})
	tests := []struct {
		name string
		in   auth.Credentials
	}{
		{"malformed email", auth.Credentials{Email: "not-an-email", Password: "password123"}},
		{"missing password", auth.Credentials{Email: "a@b.com"}},
		{"short password", auth.Credentials{Email: "a@b.com", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Service.SignUp(context.Background(), tt.in)
			if !errors.HasCode(err, errors.ErrCodeValidation) {
				t.Errorf("error = %v, want VALIDATION_ERROR", err)
			}
		})
	}
}

func TestSignInFailures(t *testing.T) {
	env := authtest.New(t, authtest.Options{})
	ctx := context.Background()
	signUp(t, env, "a@b.com", "password123")

	_, err := env.Store.Provision(ctx, store.Provision{
		Account:  store.Account{Username: "fed", Email: "fed@b.com", IsActive: true},
		Provider: store.ProviderGoogle,
		Identify: "g-1",
	})
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}

	tests := []struct {
		name string
		in   auth.Credentials
		want errors.ErrorCode
	}{
		{"unknown email", auth.Credentials{Email: "x@b.com", Password: "password123"}, errors.ErrCodeNotFound},
		{"wrong password", auth.Credentials{Email: "a@b.com", Password: "password124"}, errors.ErrCodeUnauthorized},
		{"federated only", auth.Credentials{Email: "fed@b.com", Password: "password123"}, errors.ErrCodeUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Service.SignIn(ctx, tt.in, meta)
			if !errors.HasCode(err, tt.want) {
				t.Errorf("error = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestSignInEmailIsCaseInsensitive(t *testing.T) {
	env := authtest.New(t, authtest.Options{})
	signUp(t, env, "Mixed@Example.com", "password123")
	signIn(t, env, "mixed@example.COM", "password123")
}

func TestRefreshRotation(t *testing.T) {
	env := authtest.New(t, authtest.Options{})
	ctx := context.Background()
	account := signUp(t, env, "a@b.com", "password123")
	first := signIn(t, env, "a@b.com", "password123")
	oldClaims, _ := env.Tokens.VerifyRefresh(first.RefreshToken)

	if err := env.Store.Roles.Assign(ctx, account.ID, store.RoleAdmin); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	second, err := env.Service.Refresh(ctx, first.RefreshToken, meta)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	newClaims, err := env.Tokens.VerifyRefresh(second.RefreshToken)
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if newClaims.JTI() == oldClaims.JTI() {
		t.Fatal("refresh reused the jti")
	}
	if newClaims.Role != store.RoleAdmin {
		t.Errorf("role = %q, want role picked up on refresh", newClaims.Role)
	}
	if _, err := env.Store.Sessions.FindByJTI(ctx, oldClaims.JTI()); err == nil {
		t.Error("old session still live")
	}
	if _, err := env.Store.Sessions.FindByJTI(ctx, newClaims.JTI()); err != nil {
		t.Errorf("new session missing: %v", err)
	}

	if _, err := env.Service.Refresh(ctx, first.RefreshToken, meta); !errors.HasCode(err, errors.ErrCodeUnauthorized) {
		t.Errorf("reused refresh error = %v, want UNAUTHORIZED", err)
	}
	if _, err := env.Service.Refresh(ctx, second.AccessToken, meta); !errors.HasCode(err, errors.ErrCodeUnauthorized) {
		t.Errorf("access-as-refresh error = %v, want UNAUTHORIZED", err)
	}
	if _, err := env.Service.Refresh(ctx, "", meta); !errors.HasCode(err, errors.ErrCodeValidation) {
		t.Errorf("empty refresh error = %v, want VALIDATION_ERROR", err)
	}
}

func TestSignOut(t *testing.T) {
	env := authtest.New(t, authtest.Options{})
	ctx := context.Background()
	signUp(t, env, "a@b.com", "password123")
	tokens := signIn(t, env, "a@b.com", "password123")

	claims, _ := env.Tokens.VerifyAccess(tokens.AccessToken)
	if err := env.Service.SignOut(ctx, claims); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if err := env.Service.SignOut(ctx, claims); !errors.HasCode(err, errors.ErrCodeUnauthorized) {
		t.Errorf("second SignOut error = %v, want UNAUTHORIZED", err)
	}
	if _, err := env.Service.Refresh(ctx, tokens.RefreshToken, meta); !errors.HasCode(err, errors.ErrCodeUnauthorized) {
		t.Errorf("Refresh after sign-out error = %v, want UNAUTHORIZED", err)
	}
}

func TestSignInPolicy(t *testing.T) {
	tests := []struct {
		policy session.Policy
		want   int
	}{
		{session.PolicySingleLineage, 1},
		{session.PolicyMultiDevice, 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			env := authtest.New(t, authtest.Options{Policy: tt.policy})
			account := signUp(t, env, "a@b.com", "password123")
			signIn(t, env, "a@b.com", "password123")
			signIn(t, env, "a@b.com", "password123")

			sessions, err := env.Service.ListSessions(context.Background(), account.ID)
			if err != nil {
				t.Fatalf("ListSessions: %v", err)
			}
			if len(sessions) != tt.want {
				t.Errorf("sessions = %d, want %d", len(sessions), tt.want)
			}
		})
	}
}

func oauthLogin(t *testing.T, env *authtest.Env, provider, code string, u oauth2test.User) (*session.Tokens, error) {
	t.Helper()
	ctx := context.Background()
	authz, err := env.Service.OAuth2Init(ctx, provider)
	if err != nil {
		t.Fatalf("OAuth2Init: %v", err)
	}
	env.IdP.AddCode(code, u)
	return env.Service.OAuth2Callback(ctx, oauth2.CallbackParams{State: authz.State, Code: code}, meta)
}

func TestOAuth2CallbackProvisionsAccount(t *testing.T) {
	env := authtest.New(t, authtest.Options{})
	ctx := context.Background()
	user := oauth2test.User{Subject: "g-1", Email: "new@b.com", EmailVerified: true, Name: "New"}

	tokens, err := oauthLogin(t, env, "GOOGLE", "c1", user)
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	claims, _ := env.Tokens.VerifyAccess(tokens.AccessToken)
	account, err := env.Store.Accounts.FindByEmail(ctx, "new@b.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if claims.AccountID() != account.ID || !account.EmailVerified {
		t.Errorf("claims sub = %q, account = %+v", claims.AccountID(), account)
	}
	link, err := env.Store.Providers.FindBySubject(ctx, store.ProviderGoogle, "g-1")
	if err != nil || link.AccountID != account.ID {
		t.Fatalf("link = %+v, %v", link, err)
	}

	// A later login with a changed email still resolves through the link.
	user.Email = "renamed@b.com"
	tokens, err = oauthLogin(t, env, "GOOGLE", "c2", user)
	if err != nil {
		t.Fatalf("second callback: %v", err)
	}
	claims, _ = env.Tokens.VerifyAccess(tokens.AccessToken)
	if claims.AccountID() != account.ID {
		t.Errorf("second login resolved to %q, want %q", claims.AccountID(), account.ID)
	}
}

func TestOAuth2CallbackReplay(t *testing.T) {
	env := authtest.New(t, authtest.Options{})
	ctx := context.Background()

	authz, err := env.Service.OAuth2Init(ctx, "GITHUB")
	if err != nil {
		t.Fatalf("OAuth2Init: %v", err)
	}
	env.IdP.AddCode("c1", oauth2test.User{Subject: "77", Email: "gh@b.com", EmailVerified: true, Name: "gh"})
	params := oauth2.CallbackParams{State: authz.State, Code: "c1"}

	if _, err := env.Service.OAuth2Callback(ctx, params, meta); err != nil {
		t.Fatalf("first callback: %v", err)
	}
	if _, err := env.Service.OAuth2Callback(ctx, params, meta); !errors.HasCode(err, errors.ErrCodeBadRequest) {
		t.Errorf("replay error = %v, want BAD_REQUEST", err)
	}
}

func TestOAuth2LinkPolicy(t *testing.T) {
	tests := []struct {
		name      string
		policy    oauth2.LinkPolicy
		verified  bool
		wantErr   errors.ErrorCode
		wantLinks int
	}{
		{"verified email links", oauth2.LinkVerifiedEmail, true, "", 2},
		{"unverified email refused", oauth2.LinkVerifiedEmail, false, errors.ErrCodeConflict, 1},
		{"email policy matches without link", oauth2.LinkEmail, false, "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := authtest.New(t, authtest.Options{LinkPolicy: tt.policy})
			account := signUp(t, env, "a@b.com", "password123")

			tokens, err := oauthLogin(t, env, "GOOGLE", "c1",
				oauth2test.User{Subject: "g-9", Email: "A@b.com", EmailVerified: tt.verified})
			if tt.wantErr != "" {
				if !errors.HasCode(err, tt.wantErr) {
					t.Fatalf("error = %v, want %s", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("callback: %v", err)
				}
				claims, _ := env.Tokens.VerifyAccess(tokens.AccessToken)
				if claims.AccountID() != account.ID {
					t.Errorf("resolved to %q, want existing %q", claims.AccountID(), account.ID)
				}
			}

			links, _ := env.Store.Providers.FindByAccount(context.Background(), account.ID)
			if len(links) != tt.wantLinks {
				t.Errorf("provider links = %d, want %d", len(links), tt.wantLinks)
			}
		})
	}
}

func TestRevokeSession(t *testing.T) {
	env := authtest.New(t, authtest.Options{})
	ctx := context.Background()

	alice := signUp(t, env, "alice@b.com", "password123")
	bob := signUp(t, env, "bob@b.com", "password123")
	if err := env.Store.Roles.Assign(ctx, bob.ID, store.RoleAdmin); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	aliceTokens := signIn(t, env, "alice@b.com", "password123")
	bobTokens := signIn(t, env, "bob@b.com", "password123")
	aliceClaims, _ := env.Tokens.VerifyAccess(aliceTokens.AccessToken)
	bobClaims, _ := env.Tokens.VerifyAccess(bobTokens.AccessToken)

	bobSessions, _ := env.Service.ListSessions(ctx, bob.ID)
	if err := env.Service.RevokeSession(ctx, aliceClaims, bobSessions[0].ID); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("revoking a foreign session error = %v, want NOT_FOUND", err)
	}

	aliceSessions, _ := env.Service.ListSessions(ctx, alice.ID)
	if err := env.Service.RevokeSession(ctx, bobClaims, aliceSessions[0].ID); err != nil {
		t.Fatalf("admin revoke: %v", err)
	}
	if left, _ := env.Service.ListSessions(ctx, alice.ID); len(left) != 0 {
		t.Errorf("alice sessions = %d, want 0", len(left))
	}
	if _, err := env.Service.ListSessions(ctx, ""); !errors.HasCode(err, errors.ErrCodeValidation) {
		t.Errorf("ListSessions(\"\") error = %v", err)
	}
}
