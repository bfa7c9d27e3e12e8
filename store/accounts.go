package store

import (
	"context"
	"strings"

	"github.com/kbukum/authkit/database"
)

// AccountRepository persists accounts.
type AccountRepository struct {
	Repository[Account]
}

// NewAccountRepository creates an account repository.
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{newRepository[Account](db, "account", false)}
}

// FindByEmail looks an account up by its normalized email.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return r.FindOne(ctx, "email = ?", NormalizeEmail(email))
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
