package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ledger/internal/core"
)

const categoryColumns = `id, owner_id, name, icon, type, created_at`

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c       core.Category
		typ     string
		created int64
	)
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Icon, &typ, &created); err != nil {
		return core.Category{}, err
	}
	c.Type = core.TransactionType(typ)
	c.CreatedAt = time.Unix(0, created).UTC()
	return c, nil
}

const createCategory = `
INSERT INTO categories (` + categoryColumns + `) VALUES (?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := q.db.ExecContext(ctx, createCategory,
		c.ID, c.OwnerID, c.Name, c.Icon, string(c.Type), c.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

const getCategory = `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id string) (core.Category, error) {
	c, err := scanCategory(q.db.QueryRowContext(ctx, getCategory, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.NotFound("category", id)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	return c, nil
}

const firstCategoryByType = `
SELECT ` + categoryColumns + ` FROM categories
WHERE owner_id = ? AND type = ?
ORDER BY created_at, rowid
LIMIT 1
`

// FirstCategoryByType returns the owner's oldest category of the given type.
func (q *Queries) FirstCategoryByType(ctx context.Context, ownerID string, t core.TransactionType) (core.Category, error) {
	c, err := scanCategory(q.db.QueryRowContext(ctx, firstCategoryByType, ownerID, string(t)))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("%w: no %s category for owner %s", core.ErrNotFound, t, ownerID)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("first %s category: %w", t, err)
	}
	return c, nil
}
