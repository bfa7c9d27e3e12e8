package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/kbukum/authkit/database"
)

// Store groups the entity repositories over one database.
type Store struct {
	db        *database.DB
	Accounts  *AccountRepository
	Providers *ProviderRepository
	Roles     *RoleRepository
	Sessions  *SessionRepository
}

// New creates a Store.
func New(db *database.DB) *Store {
	return &Store{
		db:        db,
		Accounts:  NewAccountRepository(db),
		Providers: NewProviderRepository(db),
		Roles:     NewRoleRepository(db),
		Sessions:  NewSessionRepository(db),
	}
}

// Migrate creates or updates the schema.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(Models()...)
}

// Provision describes an account created together with its first provider link.
type Provision struct {
	Account  Account
	Provider string
	Identify string
	// Role is optional.
	Role string
}

// Provision creates the account, its provider link and optional role in one
// transaction. A taken email yields CONFLICT and nothing is written.
func (s *Store) Provision(ctx context.Context, p Provision) (*Account, error) {
	account := p.Account
	account.Email = NormalizeEmail(account.Email)

	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		txCtx := WithTx(ctx, tx)
		if err := s.Accounts.Create(txCtx, &account); err != nil {
			return err
		}
		link := &Provider{AccountID: account.ID, Provider: p.Provider, Identify: p.Identify}
		if err := s.Providers.Create(txCtx, link); err != nil {
			return err
		}
		if p.Role != "" {
			return s.Roles.Assign(txCtx, account.ID, p.Role)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Link adds a provider link to an existing account.
func (s *Store) Link(ctx context.Context, accountID, provider, identify string) error {
	return s.Providers.Create(ctx, &Provider{AccountID: accountID, Provider: provider, Identify: identify})
}
