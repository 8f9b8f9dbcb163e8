package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ledger/internal/core"
)

const createUser = `
INSERT INTO users (id, name, email, created_at) VALUES (?, ?, ?, ?)
`

func (q *Queries) CreateUser(ctx context.Context, u core.User) error {
	_, err := q.db.ExecContext(ctx, createUser, u.ID, u.Name, u.Email, u.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

const getUser = `
SELECT id, name, email, created_at FROM users WHERE id = ?
`

func (q *Queries) GetUser(ctx context.Context, id string) (core.User, error) {
	var (
		u       core.User
		created int64
	)
	err := q.db.QueryRowContext(ctx, getUser, id).Scan(&u.ID, &u.Name, &u.Email, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.NotFound("user", id)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	u.CreatedAt = time.Unix(0, created).UTC()
	return u, nil
}
