package store

import (
	"context"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The helpers below take the raw *gorm.DB so they behave the same on the
// pool and inside Transaction.

// findOne loads the single T whose column equals value, mapping a missing row
// to notFound.
func findOne[T any](db *gorm.DB, ctx context.Context, column string, value any, notFound error) (*T, error) {
	row := new(T)
	err := db.WithContext(ctx).Where(column+" = ?", value).First(row).Error
	if err != nil {
		return nil, convertNotFoundError(err, notFound)
	}
	return row, nil
}

// findAll loads every T matching cond (all rows when cond is nil) sorted by
// order. The result is never nil.
func findAll[T any](db *gorm.DB, ctx context.Context, order string, cond any, args ...any) ([]*T, error) {
	q := db.WithContext(ctx)
	if cond != nil {
		q = q.Where(cond, args...)
	}
	if order != "" {
		q = q.Order(order)
	}

	rows := []*T{}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// insert creates row, assigning a UUID through id when it is empty. Unique
// index violations become dup.
func insert[T any](db *gorm.DB, ctx context.Context, row *T, id *string, dup error) (string, error) {
	if *id == "" {
		*id = uuid.NewString()
	}
	err := db.WithContext(ctx).Create(row).Error
	switch {
	case err == nil:
		return *id, nil
	case isUniqueConstraintError(err):
		return "", dup
	default:
		return "", err
	}
}

// underPrefix matches values of column starting with prefix. LIKE is not
// usable: SQLite folds ASCII case and names may contain % or _.
func underPrefix(column, prefix string) (string, []any) {
	return "SUBSTR(" + column + ", 1, ?) = ?", []any{utf8.RuneCountInString(prefix), prefix}
}
