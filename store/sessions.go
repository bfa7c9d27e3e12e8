package store

import (
	"context"
	"time"

	"github.com/kbukum/authkit/database"
)

// SessionFilter narrows a session listing. Zero fields do not filter.
type SessionFilter struct {
	AccountID string
	// ActiveAt excludes sessions that expired at or before this instant.
	ActiveAt time.Time
	Limit    int
	Offset   int
}

// SessionRepository persists sessions. Deletes are physical: a removed
// session must never resolve again.
type SessionRepository struct {
	Repository[Session]
}

// NewSessionRepository creates a session repository.
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{newRepository[Session](db, "session", true)}
}

// FindByJTI returns the session bound to a credential id.
func (r *SessionRepository) FindByJTI(ctx context.Context, jti string) (*Session, error) {
	return r.FindOne(ctx, "jti = ?", jti)
}

// RemoveAllForAccount deletes every session of the account.
func (r *SessionRepository) RemoveAllForAccount(ctx context.Context, accountID string) (int64, error) {
	return r.DeleteWhere(ctx, "account_id = ?", accountID)
}

// DeleteExpired deletes sessions whose expiry is at or before now.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.DeleteWhere(ctx, "expires_at <= ?", now)
}

// List returns sessions matching f, newest first.
func (r *SessionRepository) List(ctx context.Context, f SessionFilter) ([]Session, error) {
	q := r.conn(ctx).Model(&Session{})
	if f.AccountID != "" {
		q = q.Where("account_id = ?", f.AccountID)
	}
	if !f.ActiveAt.IsZero() {
		q = q.Where("expires_at > ?", f.ActiveAt)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var out []Session
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, r.fail(err)
	}
	return out, nil
}
