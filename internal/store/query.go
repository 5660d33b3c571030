package store

import (
	"strings"

	"gorm.io/gorm"
)

// Predicate narrows a query. A nil Predicate is skipped.
type Predicate func(*gorm.DB) *gorm.DB

// Apply folds the non-nil predicates onto q.
func Apply(q *gorm.DB, preds ...Predicate) *gorm.DB {
	for _, p := range preds {
		if p != nil {
			q = p(q)
		}
	}
	return q
}

// Eq filters column = *v when v is non-nil.
func Eq[T any](column string, v *T) Predicate {
	if v == nil {
		return nil
	}
	val := *v
	return func(q *gorm.DB) *gorm.DB { return q.Where(column+" = ?", val) }
}

// Gte filters column >= *v when v is non-nil.
func Gte[T any](column string, v *T) Predicate {
	if v == nil {
		return nil
	}
	val := *v
	return func(q *gorm.DB) *gorm.DB { return q.Where(column+" >= ?", val) }
}

// Lte filters column <= *v when v is non-nil.
func Lte[T any](column string, v *T) Predicate {
	if v == nil {
		return nil
	}
	val := *v
	return func(q *gorm.DB) *gorm.DB { return q.Where(column+" <= ?", val) }
}

// Contains is a case-insensitive substring match, skipped for blank input.
func Contains(column, s string) Predicate {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	pattern := "%" + escapeLike(strings.ToLower(s)) + "%"
	return func(q *gorm.DB) *gorm.DB {
		return q.Where("LOWER("+column+") LIKE ? ESCAPE '\\'", pattern)
	}
}

// In filters column IN ids. An empty non-nil slice matches nothing.
func In(column string, ids []int) Predicate {
	if ids == nil {
		return nil
	}
	if len(ids) == 0 {
		return func(q *gorm.DB) *gorm.DB { return q.Where("1 = 0") }
	}
	return func(q *gorm.DB) *gorm.DB { return q.Where(column+" IN ?", ids) }
}

// Where wraps a raw condition.
func Where(cond string, args ...any) Predicate {
	return func(q *gorm.DB) *gorm.DB { return q.Where(cond, args...) }
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Page bounds a listing. Limit <= 0 means no limit.
type Page struct {
	Skip  int
	Limit int
}

// DefaultLimit is applied by callers that want a bounded first page.
const DefaultLimit = 100

func (p Page) Scope(q *gorm.DB) *gorm.DB {
	if p.Skip > 0 {
		q = q.Offset(p.Skip)
	}
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	return q
}

// List counts and fetches one page using the same predicate set for both queries.
func List[T any](base *gorm.DB, preds []Predicate, order string, page Page) ([]T, int64, error) {
	var total int64
	if err := Apply(base.Session(&gorm.Session{}), preds...).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	items := []T{}
	q := Apply(base.Session(&gorm.Session{}), preds...)
	if order != "" {
		q = q.Order(order)
	}
	if err := page.Scope(q).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
