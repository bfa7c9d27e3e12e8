package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kbukum/authkit/database"
)

// ErrNotFound is returned when a lookup matches no live record.
var ErrNotFound = errors.New("store: record not found")

type txKey struct{}

// WithTx returns a context whose repository calls run inside tx.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// Repository implements the operations shared by every entity.
type Repository[T any] struct {
	db       *database.DB
	resource string
	// hard deletes bypass the deleted_at marker
	hard bool
}

func newRepository[T any](db *database.DB, resource string, hard bool) Repository[T] {
	return Repository[T]{db: db, resource: resource, hard: hard}
}

func (r *Repository[T]) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *Repository[T]) fail(err error) error {
	if database.IsNotFoundError(err) {
		return ErrNotFound
	}
	return database.FromError(err, r.resource)
}

// Create inserts entity, assigning its id.
func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	if err := r.conn(ctx).Create(entity).Error; err != nil {
		return r.fail(err)
	}
	return nil
}

// FindByID returns the record with the given id.
func (r *Repository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	return r.FindOne(ctx, "id = ?", id)
}

// FindOne returns the first record matching the condition.
func (r *Repository[T]) FindOne(ctx context.Context, query string, args ...any) (*T, error) {
	var entity T
	if err := r.conn(ctx).Where(query, args...).Take(&entity).Error; err != nil {
		return nil, r.fail(err)
	}
	return &entity, nil
}

// FindAll returns every record matching the condition, oldest first.
func (r *Repository[T]) FindAll(ctx context.Context, query string, args ...any) ([]T, error) {
	var out []T
	if err := r.conn(ctx).Where(query, args...).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, r.fail(err)
	}
	return out, nil
}

// Delete removes the record with the given id, or returns ErrNotFound.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	n, err := r.DeleteWhere(ctx, "id = ?", id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteWhere removes every record matching the condition and reports how many went.
func (r *Repository[T]) DeleteWhere(ctx context.Context, query string, args ...any) (int64, error) {
	db := r.conn(ctx)
	if r.hard {
		db = db.Unscoped()
	}
	var entity T
	res := db.Where(query, args...).Delete(&entity)
	if res.Error != nil {
		return 0, r.fail(res.Error)
	}
	return res.RowsAffected, nil
}
