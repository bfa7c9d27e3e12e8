package store

import (
	"context"

	"github.com/kbukum/authkit/database"
)

// ProviderRepository persists account provider links.
type ProviderRepository struct {
	Repository[Provider]
}

// NewProviderRepository creates a provider repository.
func NewProviderRepository(db *database.DB) *ProviderRepository {
	return &ProviderRepository{newRepository[Provider](db, "provider", false)}
}

// FindByAccount returns every provider linked to the account.
func (r *ProviderRepository) FindByAccount(ctx context.Context, accountID string) ([]Provider, error) {
	return r.FindAll(ctx, "account_id = ?", accountID)
}

// FindBySubject returns the link for an external subject id.
func (r *ProviderRepository) FindBySubject(ctx context.Context, provider, subject string) (*Provider, error) {
	return r.FindOne(ctx, "provider = ? AND identify = ?", provider, subject)
}

// Password returns the PASSWORD provider from a set of links.
func Password(providers []Provider) (*Provider, bool) {
	for i := range providers {
		if providers[i].Provider == ProviderPassword {
			return &providers[i], true
		}
	}
	return nil, false
}
