package store

import (
	"context"
	"errors"

	"gorm.io/gorm/clause"

	"github.com/kbukum/authkit/database"
)

// RoleRepository persists account roles.
type RoleRepository struct {
	Repository[Role]
}

// NewRoleRepository creates a role repository.
func NewRoleRepository(db *database.DB) *RoleRepository {
	return &RoleRepository{newRepository[Role](db, "role", false)}
}

// FindByAccount returns the account's role name, or "" when none is assigned.
func (r *RoleRepository) FindByAccount(ctx context.Context, accountID string) (string, error) {
	role, err := r.FindOne(ctx, "account_id = ?", accountID)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return role.RoleName, nil
}

// Assign sets the account's role, replacing any previous one.
func (r *RoleRepository) Assign(ctx context.Context, accountID, roleName string) error {
	role := &Role{AccountID: accountID, RoleName: roleName}
	err := r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role_name", "updated_at", "deleted_at"}),
	}).Create(role).Error
	if err != nil {
		return r.fail(err)
	}
	return nil
}
