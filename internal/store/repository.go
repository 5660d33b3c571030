package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/gersa/internal/logger"
	"github.com/diewo77/gersa/internal/models"
	"gorm.io/gorm"
)

// Repository is the generic CRUD surface over one table keyed by an integer id.
type Repository[T any] struct {
	db     *gorm.DB
	log    *logger.Logger
	entity string
	order  string
}

// NewRepository binds a repository; order is the default listing order.
func NewRepository[T any](db *gorm.DB, log *logger.Logger, entity, order string) *Repository[T] {
	return &Repository[T]{db: db, log: log.With("repo", entity), entity: entity, order: order}
}

func (r *Repository[T]) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

// Get returns the row or nil when absent.
func (r *Repository[T]) Get(ctx context.Context, tx *gorm.DB, id int) (*T, error) {
	var out T
	err := r.conn(ctx, tx).First(&out, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", r.entity, id, err)
	}
	return &out, nil
}

// Exists reports whether a row with id is present.
func (r *Repository[T]) Exists(ctx context.Context, tx *gorm.DB, id int) (bool, error) {
	var n int64
	if err := r.conn(ctx, tx).Model(new(T)).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("exists %s %d: %w", r.entity, id, err)
	}
	return n > 0, nil
}

// List returns one page and the total under the same predicates.
func (r *Repository[T]) List(ctx context.Context, page Page, preds ...Predicate) ([]T, int64, error) {
	items, total, err := List[T](r.db.WithContext(ctx).Model(new(T)), preds, r.order, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", r.entity, err)
	}
	return items, total, nil
}

func (r *Repository[T]) Create(ctx context.Context, tx *gorm.DB, obj *T) error {
	if err := r.conn(ctx, tx).Create(obj).Error; err != nil {
		return fmt.Errorf("create %s: %w", r.entity, Translate(r.entity, err))
	}
	return nil
}

// CreateBatch inserts rows in one transaction; nothing is kept on failure.
func (r *Repository[T]) CreateBatch(ctx context.Context, objs []T, batchSize int) error {
	if len(objs) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(objs, batchSize).Error
	})
	if err != nil {
		return fmt.Errorf("create batch %s: %w", r.entity, Translate(r.entity, err))
	}
	r.log.Debug("batch created", "count", len(objs))
	return nil
}

// Update merges the supplied patch fields and returns the stored row, or nil when absent.
func (r *Repository[T]) Update(ctx context.Context, tx *gorm.DB, id int, patch any) (*T, error) {
	changes := models.Changes(patch)
	q := r.conn(ctx, tx)
	if len(changes) > 0 {
		res := q.Model(new(T)).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return nil, fmt.Errorf("update %s %d: %w", r.entity, id, Translate(r.entity, res.Error))
		}
	}
	return r.Get(ctx, tx, id)
}

// Delete removes the row and reports whether it existed.
func (r *Repository[T]) Delete(ctx context.Context, tx *gorm.DB, id int) (bool, error) {
	res := r.conn(ctx, tx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return false, fmt.Errorf("delete %s %d: %w", r.entity, id, Translate(r.entity, res.Error))
	}
	return res.RowsAffected > 0, nil
}
