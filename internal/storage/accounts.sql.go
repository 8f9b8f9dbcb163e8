package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ledger/internal/core"
)

const accountColumns = `id, owner_id, name, kind, initial_balance_cents, current_balance_cents, color, created_at, updated_at`

func scanAccount(row rowScanner) (core.Account, error) {
	var (
		a                core.Account
		kind             string
		initial, current int64
		created, updated int64
	)
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &kind, &initial, &current, &a.Color, &created, &updated); err != nil {
		return core.Account{}, err
	}
	a.Kind = core.AccountKind(kind)
	a.InitialBalance = core.FromCents(initial)
	a.CurrentBalance = core.FromCents(current)
	a.CreatedAt = time.Unix(0, created).UTC()
	a.UpdatedAt = time.Unix(0, updated).UTC()
	return a, nil
}

const createAccount = `
INSERT INTO accounts (` + accountColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateAccount(ctx context.Context, a core.Account) error {
	initial, err := core.ToCents(a.InitialBalance)
	if err != nil {
		return fmt.Errorf("account %s initial balance: %w", a.ID, err)
	}
	current, err := core.ToCents(a.CurrentBalance)
	if err != nil {
		return fmt.Errorf("account %s balance: %w", a.ID, err)
	}
	_, err = q.db.ExecContext(ctx, createAccount,
		a.ID, a.OwnerID, a.Name, string(a.Kind), initial, current,
		a.Color, a.CreatedAt.UnixNano(), a.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

const getAccount = `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`

func (q *Queries) GetAccount(ctx context.Context, id string) (core.Account, error) {
	a, err := scanAccount(q.db.QueryRowContext(ctx, getAccount, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.NotFound("account", id)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %s: %w", id, err)
	}
	return a, nil
}

const listAccountsByOwner = `SELECT ` + accountColumns + ` FROM accounts WHERE owner_id = ? ORDER BY created_at, rowid`

func (q *Queries) ListAccountsByOwner(ctx context.Context, ownerID string) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccountsByOwner, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var items []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return items, nil
}

const updateAccount = `
UPDATE accounts
SET name = ?, kind = ?, current_balance_cents = ?, color = ?, updated_at = ?
WHERE id = ?
`

// UpdateAccount persists every mutable field, the balance included.
func (q *Queries) UpdateAccount(ctx context.Context, a core.Account) error {
	current, err := core.ToCents(a.CurrentBalance)
	if err != nil {
		return fmt.Errorf("account %s balance: %w", a.ID, err)
	}
	res, err := q.db.ExecContext(ctx, updateAccount,
		a.Name, string(a.Kind), current, a.Color, a.UpdatedAt.UnixNano(), a.ID)
	if err != nil {
		return fmt.Errorf("update account %s: %w", a.ID, err)
	}
	return expectOne(res, "account", a.ID)
}

const deleteAccount = `DELETE FROM accounts WHERE id = ?`

func (q *Queries) DeleteAccount(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, deleteAccount, id)
	if err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}
	return expectOne(res, "account", id)
}

const sumAccountBalances = `SELECT COALESCE(SUM(current_balance_cents), 0) FROM accounts WHERE owner_id = ?`

func (q *Queries) SumAccountBalances(ctx context.Context, ownerID string) (int64, error) {
	var total int64
	if err := q.db.QueryRowContext(ctx, sumAccountBalances, ownerID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum account balances: %w", err)
	}
	return total, nil
}

func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.NotFound(kind, id)
	}
	return nil
}
