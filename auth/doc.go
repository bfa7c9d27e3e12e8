// Package auth is the authentication orchestrator.
//
// It composes the subpackages into the account use cases:
//
//   - auth/keys      key material, loaded or generated once at start-up
//   - auth/jwt       access and refresh credential issuance and verification
//   - auth/password  password policy and hashing
//   - auth/session   session creation, rotation, revocation and sweeping
//   - auth/oauth2    authorization-code flow with Google and GitHub
//   - auth/authctx   per-request claims propagation
//
// Service is constructed once by the composition root and shared by the
// HTTP handlers:
//
//	svc := auth.NewService(auth.Deps{
//	    Store:     st,
//	    Tokens:    tokens,
//	    Passwords: passwords,
//	    Sessions:  sessions,
//	    OAuth2:    coordinator,
//	}, log)
//	tokens, err := svc.SignIn(ctx, auth.Credentials{Email: e, Password: p}, meta)
//
// Config gathers every block so the service config can squash it into
// top-level keys (keys, jwt, password, session, oauth2).
package auth
