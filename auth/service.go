package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/authkit/auth/jwt"
	"github.com/kbukum/authkit/auth/oauth2"
	"github.com/kbukum/authkit/auth/password"
	"github.com/kbukum/authkit/auth/session"
	apperrors "github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/metrics"
	"github.com/kbukum/authkit/observability"
	"github.com/kbukum/authkit/store"
	"github.com/kbukum/authkit/validation"
)

// Credentials is the sign-up and sign-in request body.
type Credentials struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required"`
}

// Deps are the collaborators of Service.
type Deps struct {
	Store     *store.Store
	Tokens    *jwt.Service
	Passwords *password.Service
	Sessions  *session.Manager
	OAuth2    *oauth2.Coordinator
	// Metrics is optional.
	Metrics *metrics.Auth
}

// Service composes credentials, tokens, sessions and federation into the
// sign-up, sign-in, refresh, sign-out and OAuth2 use cases. It is the only
// writer of Session and Provider records.
type Service struct {
	store     *store.Store
	tokens    *jwt.Service
	passwords *password.Service
	sessions  *session.Manager
	oauth     *oauth2.Coordinator
	metrics   *metrics.Auth
	log       *logger.Logger
}

// NewService creates the orchestrator.
func NewService(d Deps, log *logger.Logger) *Service {
	if d.Metrics == nil {
		d.Metrics = metrics.NewNop()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		store:     d.Store,
		tokens:    d.Tokens,
		passwords: d.Passwords,
		sessions:  d.Sessions,
		oauth:     d.OAuth2,
		metrics:   d.Metrics,
		log:       log.WithComponent("auth"),
	}
}

// Tokens returns the token service, for the authentication middleware.
func (s *Service) Tokens() *jwt.Service { return s.tokens }

// SignUp creates a password account. The username defaults to the local
// part of the email; the email starts unverified and no role is assigned.
func (s *Service) SignUp(ctx context.Context, in Credentials) (account *store.Account, err error) {
	ctx, span := observability.StartSpan(ctx, "auth.sign_up")
	defer s.finish(ctx, span, metrics.OpSignUp, time.Now(), &err)

	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	if err := s.passwords.CheckPolicy(in.Password); err != nil {
		return nil, err
	}

	email := store.NormalizeEmail(in.Email)
	_, err = s.store.Accounts.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperrors.Conflict("An account with this email already exists.")
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	account, err = s.store.Provision(ctx, store.Provision{
		Account: store.Account{
			Username: usernameFromEmail(email),
			Email:    email,
			IsActive: true,
		},
		Provider: store.ProviderPassword,
		Identify: hash,
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Account created", map[string]interface{}{
		logger.FieldAccountID: account.ID,
		logger.FieldProvider:  store.ProviderPassword,
	})
	return account, nil
}

// SignIn verifies a password and opens a session.
func (s *Service) SignIn(ctx context.Context, in Credentials, meta session.Metadata) (tokens *session.Tokens, err error) {
	ctx, span := observability.StartSpan(ctx, "auth.sign_in")
	defer s.finish(ctx, span, metrics.OpSignIn, time.Now(), &err)

	if err := validation.Validate(in); err != nil {
		return nil, err
	}

	account, err := s.store.Accounts.FindByEmail(ctx, in.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound("account", "")
	}
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, apperrors.Forbidden("This account is disabled.")
	}

	providers, role, err := s.providersAndRole(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	link, ok := store.Password(providers)
	if !ok {
		return nil, apperrors.Unauthorized("Password sign-in is not available for this account.")
	}
	if !s.passwords.Verify(in.Password, link.Identify) {
		s.log.WithContext(ctx).Info("Password mismatch", map[string]interface{}{logger.FieldAccountID: account.ID})
		return nil, apperrors.Unauthorized("Invalid email or password.")
	}

	tokens, err = s.sessions.Start(ctx, account.ID, role, meta)
	if err != nil {
		return nil, err
	}
	s.metrics.Session(ctx, metrics.SessionCreated, 1)
	span.SetAttributes(attribute.String(observability.AttrAccountID, account.ID))
	return tokens, nil
}

// providersAndRole loads the account's provider links and role concurrently.
func (s *Service) providersAndRole(ctx context.Context, accountID string) ([]store.Provider, string, error) {
	var (
		providers []store.Provider
		role      string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		providers, err = s.store.Providers.FindByAccount(gctx, accountID)
		return err
	})
	g.Go(func() error {
		var err error
		role, err = s.store.Roles.FindByAccount(gctx, accountID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, "", err
	}
	return providers, role, nil
}

// Refresh rotates the session behind a refresh credential. The role in the
// new pair is read fresh, so role changes apply on the next refresh.
func (s *Service) Refresh(ctx context.Context, refreshToken string, meta session.Metadata) (tokens *session.Tokens, err error) {
	ctx, span := observability.StartSpan(ctx, "auth.refresh")
	defer s.finish(ctx, span, metrics.OpRefresh, time.Now(), &err)

	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.Validation("refresh_token is required")
	}
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	var (
		account *store.Account
		role    string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		account, err = s.store.Accounts.FindByID(gctx, claims.AccountID())
		return err
	})
	g.Go(func() error {
		var err error
		role, err = s.store.Roles.FindByAccount(gctx, claims.AccountID())
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.Unauthorized("Account no longer exists.")
		}
		return nil, err
	}
	if !account.IsActive {
		return nil, apperrors.Forbidden("This account is disabled.")
	}

	tokens, err = s.sessions.Rotate(ctx, claims, role, meta)
	if err != nil {
		return nil, err
	}
	s.metrics.Session(ctx, metrics.SessionRotated, 1)
	return tokens, nil
}

// SignOut ends the session bound to the caller's access credential.
func (s *Service) SignOut(ctx context.Context, claims *jwt.Claims) (err error) {
	ctx, span := observability.StartSpan(ctx, "auth.sign_out")
	defer s.finish(ctx, span, metrics.OpSignOut, time.Now(), &err)

	if err := s.sessions.End(ctx, claims); err != nil {
		return err
	}
	s.metrics.Session(ctx, metrics.SessionEnded, 1)
	return nil
}

// OAuth2Init starts a federated login.
func (s *Service) OAuth2Init(ctx context.Context, provider string) (auth *oauth2.Authorization, err error) {
	ctx, span := observability.StartSpan(ctx, "auth.oauth2_init", attribute.String(observability.AttrProvider, provider))
	defer s.finish(ctx, span, metrics.OpOAuth2Init, time.Now(), &err)

	return s.oauth.Init(ctx, provider)
}

// OAuth2Callback completes a federated login and opens a session for the
// resolved, possibly newly provisioned, account.
func (s *Service) OAuth2Callback(ctx context.Context, params oauth2.CallbackParams, meta session.Metadata) (tokens *session.Tokens, err error) {
	ctx, span := observability.StartSpan(ctx, "auth.oauth2_callback")
	defer s.finish(ctx, span, metrics.OpOAuth2Callback, time.Now(), &err)

	var provider string
	defer func() { s.metrics.OAuth2Callback(ctx, provider, err) }()

	identity, err := s.oauth.Callback(ctx, params)
	if err != nil {
		return nil, err
	}
	provider = identity.Provider
	span.SetAttributes(attribute.String(observability.AttrProvider, provider))

	account, err := s.resolveAccount(ctx, identity)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, apperrors.Forbidden("This account is disabled.")
	}

	role, err := s.store.Roles.FindByAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	tokens, err = s.sessions.Start(ctx, account.ID, role, meta)
	if err != nil {
		return nil, err
	}
	s.metrics.Session(ctx, metrics.SessionCreated, 1)
	return tokens, nil
}

// resolveAccount maps a provider identity to an account. An existing
// (provider, subject) link wins. Otherwise the email decides: unknown
// emails provision a new account, known ones are linked according to the
// link policy.
func (s *Service) resolveAccount(ctx context.Context, id *oauth2.Identity) (*store.Account, error) {
	log := s.log.WithContext(ctx).WithFields(map[string]interface{}{logger.FieldProvider: id.Provider})

	link, err := s.store.Providers.FindBySubject(ctx, id.Provider, id.Subject)
	switch {
	case err == nil:
		account, err := s.store.Accounts.FindByID(ctx, link.AccountID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("account", "")
		}
		return account, err
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	email := store.NormalizeEmail(id.Email)
	account, err := s.store.Accounts.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		account, err = s.store.Provision(ctx, store.Provision{
			Account: store.Account{
				Username:      usernameFromEmail(email),
				Email:         email,
				EmailVerified: id.EmailVerified,
				IsActive:      true,
				Avatar:        id.Picture,
			},
			Provider: id.Provider,
			Identify: id.Subject,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Account created", map[string]interface{}{logger.FieldAccountID: account.ID})
		return account, nil
	}
	if err != nil {
		return nil, err
	}

	switch s.oauth.LinkPolicy() {
	case oauth2.LinkEmail:
		return account, nil
	default:
		if !id.EmailVerified {
			log.Warn("Refusing to link unverified provider email", map[string]interface{}{logger.FieldAccountID: account.ID})
			return nil, apperrors.Conflict("An account with this email already exists. Sign in with your password first.")
		}
		if err := s.store.Link(ctx, account.ID, id.Provider, id.Subject); err != nil {
			return nil, err
		}
		log.Info("Provider linked to existing account", map[string]interface{}{logger.FieldAccountID: account.ID})
		return account, nil
	}
}

// ListSessions returns the live sessions of accountID.
func (s *Service) ListSessions(ctx context.Context, accountID string) ([]store.Session, error) {
	if accountID == "" {
		return nil, apperrors.Validation("account_id is required")
	}
	return s.sessions.List(ctx, accountID)
}

// RevokeSession deletes one session. Administrators may revoke any session;
// everyone else only their own.
func (s *Service) RevokeSession(ctx context.Context, claims *jwt.Claims, sessionID string) error {
	admin := claims.Role == store.RoleAdmin
	if err := s.sessions.Revoke(ctx, sessionID, claims.AccountID(), admin); err != nil {
		return err
	}
	s.metrics.Session(ctx, metrics.SessionRevoked, 1)
	s.log.WithContext(ctx).Info("Session revoked", map[string]interface{}{
		logger.FieldSessionID: sessionID,
		"admin":               admin,
	})
	return nil
}

// finish records the outcome of a use case on its span and metrics.
// Server-side failures are logged with their cause; client errors are not.
func (s *Service) finish(ctx context.Context, span trace.Span, op string, start time.Time, errp *error) {
	err := *errp
	s.metrics.Operation(ctx, op, start, err)
	span.SetAttributes(attribute.String(observability.AttrOutcome, metrics.Outcome(err)))
	observability.EndSpan(span, err)

	if err == nil {
		return
	}
	if appErr, ok := apperrors.AsAppError(err); ok && appErr.HTTPStatus < 500 {
		return
	}
	s.log.WithContext(ctx).Error("Authentication operation failed", logger.ErrorFields(op, err))
}

func usernameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
