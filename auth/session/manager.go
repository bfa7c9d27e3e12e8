// Package session owns the lifecycle of server-side sessions: creation on
// sign-in, rotation on refresh, revocation on sign-out, and expiry sweeping.
//
// A session row is bound to the jti shared by one access/refresh pair. A
// refresh credential is only honored while its jti still resolves to a live
// session, so signature validity and session liveness are checked separately.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/authkit/auth/jwt"
	apperrors "github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/store"
)

// Store is the persistence contract the manager depends on.
type Store interface {
	Create(ctx context.Context, s *store.Session) error
	FindByID(ctx context.Context, id string) (*store.Session, error)
	FindByJTI(ctx context.Context, jti string) (*store.Session, error)
	Delete(ctx context.Context, id string) error
	RemoveAllForAccount(ctx context.Context, accountID string) (int64, error)
	List(ctx context.Context, f store.SessionFilter) ([]store.Session, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Issuer signs credential pairs.
type Issuer interface {
	IssueAccess(accountID, jti, role string) (string, error)
	IssueRefresh(accountID, jti, role string) (string, error)
	RefreshTTL() time.Duration
}

// Tokens is an issued credential pair.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Manager creates, rotates and revokes sessions.
type Manager struct {
	store  Store
	issuer Issuer
	cfg    Config
	log    *logger.Logger
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a session manager.
func NewManager(cfg Config, st Store, issuer Issuer, log *logger.Logger, opts ...Option) *Manager {
	cfg.ApplyDefaults()
	m := &Manager{
		store:  st,
		issuer: issuer,
		cfg:    cfg,
		log:    log.WithComponent("session"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Policy returns the sign-in policy in effect.
func (m *Manager) Policy() Policy { return m.cfg.Policy }

// Start opens a session for a fresh sign-in and issues its credential pair.
// Under the single-lineage policy all other sessions of the account are
// purged first.
func (m *Manager) Start(ctx context.Context, accountID, role string, meta Metadata) (*Tokens, error) {
	if m.cfg.Policy == PolicySingleLineage {
		n, err := m.store.RemoveAllForAccount(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			m.log.WithContext(ctx).Debug("Purged sessions before sign-in", map[string]interface{}{
				logger.FieldAccountID: accountID,
				"purged":              n,
			})
		}
	}
	tokens, _, err := m.open(ctx, accountID, role, meta)
	return tokens, err
}

// Rotate exchanges the session behind verified refresh claims for a new one.
// The new session is created before the old one is deleted; if the old one
// was already gone (a concurrent rotation won), the new session is discarded
// and the call fails.
func (m *Manager) Rotate(ctx context.Context, claims *jwt.Claims, role string, meta Metadata) (*Tokens, error) {
	old, err := m.live(ctx, claims)
	if err != nil {
		return nil, err
	}

	tokens, created, err := m.open(ctx, claims.AccountID(), role, meta)
	if err != nil {
		return nil, err
	}

	if err := m.store.Delete(ctx, old.ID); err != nil {
		if derr := m.store.Delete(ctx, created.ID); derr != nil {
			m.log.WithContext(ctx).Warn("Failed to discard rotated session", map[string]interface{}{
				logger.FieldAccountID: claims.AccountID(),
				logger.FieldSessionID: created.ID,
				logger.FieldError:     derr.Error(),
			})
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.Unauthorized("Session has already been used.")
		}
		return nil, err
	}

	m.log.WithContext(ctx).Debug("Session rotated", map[string]interface{}{
		logger.FieldAccountID: claims.AccountID(),
		logger.FieldSessionID: created.ID,
	})
	return tokens, nil
}

// End deletes the session bound to the claims' jti.
func (m *Manager) End(ctx context.Context, claims *jwt.Claims) error {
	sess, err := m.live(ctx, claims)
	if err != nil {
		return err
	}
	if err := m.store.Delete(ctx, sess.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.Unauthorized("Session not found.")
		}
		return err
	}
	return nil
}

// List returns the live sessions of an account, newest first.
func (m *Manager) List(ctx context.Context, accountID string) ([]store.Session, error) {
	return m.store.List(ctx, store.SessionFilter{AccountID: accountID, ActiveAt: m.now()})
}

// Revoke deletes a session by id. Unless admin is set, the session must
// belong to accountID; other accounts' sessions are reported as not found.
func (m *Manager) Revoke(ctx context.Context, sessionID, accountID string, admin bool) error {
	sess, err := m.store.FindByID(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !admin && sess.AccountID != accountID) {
		return apperrors.NotFound("session", sessionID)
	}
	if err != nil {
		return err
	}
	if err := m.store.Delete(ctx, sess.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound("session", sessionID)
		}
		return err
	}
	return nil
}

// Sweep deletes expired sessions.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx, m.now())
}

// live resolves the session behind claims and checks it belongs to the
// claims' subject and has not expired.
func (m *Manager) live(ctx context.Context, claims *jwt.Claims) (*store.Session, error) {
	if claims == nil || claims.JTI() == "" {
		return nil, apperrors.Unauthorized("")
	}
	sess, err := m.store.FindByJTI(ctx, claims.JTI())
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Unauthorized("Session not found.")
	}
	if err != nil {
		return nil, err
	}
	if sess.AccountID != claims.AccountID() {
		m.log.WithContext(ctx).Warn("Session does not belong to credential subject", map[string]interface{}{
			logger.FieldSessionID: sess.ID,
			logger.FieldAccountID: claims.AccountID(),
		})
		return nil, apperrors.Unauthorized("Session does not belong to the account.")
	}
	if !sess.ExpiresAt.After(m.now()) {
		return nil, apperrors.Unauthorized("Session has expired.")
	}
	return sess, nil
}

// open mints a jti, persists its session and signs the pair.
func (m *Manager) open(ctx context.Context, accountID, role string, meta Metadata) (*Tokens, *store.Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}
	jti := id.String()

	access, err := m.issuer.IssueAccess(accountID, jti, role)
	if err != nil {
		return nil, nil, err
	}
	refresh, err := m.issuer.IssueRefresh(accountID, jti, role)
	if err != nil {
		return nil, nil, err
	}

	sess := &store.Session{
		AccountID:  accountID,
		JTI:        jti,
		ExpiresAt:  m.now().Add(m.issuer.RefreshTTL()),
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		DeviceType: meta.DeviceType,
	}
	if err := m.store.Create(ctx, sess); err != nil {
		return nil, nil, err
	}
	return &Tokens{AccessToken: access, RefreshToken: refresh}, sess, nil
}
