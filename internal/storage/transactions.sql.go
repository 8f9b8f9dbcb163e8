package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ledger/internal/core"
)

const transactionColumns = `id, owner_id, account_id, category_id, name, amount_cents, date, type, is_recurring, frequency, parent_transaction_id, goal_id, created_at, updated_at`

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                core.Transaction
		amount           int64
		date, typ, freq  string
		recurring        int64
		parent, goal     sql.NullString
		created, updated int64
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.AccountID, &t.CategoryID, &t.Name, &amount, &date, &typ,
		&recurring, &freq, &parent, &goal, &created, &updated); err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	t.Amount = core.FromCents(amount)
	t.Date = d
	t.Type = core.TransactionType(typ)
	t.IsRecurring = recurring != 0
	t.Frequency = core.Frequency(freq)
	t.ParentID = parent.String
	t.GoalID = goal.String
	t.CreatedAt = time.Unix(0, created).UTC()
	t.UpdatedAt = time.Unix(0, updated).UTC()
	return t, nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var items []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createTransaction = `
INSERT INTO transactions (` + transactionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateTransaction(ctx context.Context, t core.Transaction) error {
	cents, err := core.ToCents(t.Amount)
	if err != nil {
		return fmt.Errorf("transaction %s amount: %w", t.ID, err)
	}
	_, err = q.db.ExecContext(ctx, createTransaction,
		t.ID, t.OwnerID, t.AccountID, t.CategoryID, t.Name, cents,
		t.Date.String(), string(t.Type), boolInt(t.IsRecurring), string(t.Frequency),
		nullString(t.ParentID), nullString(t.GoalID),
		t.CreatedAt.UnixNano(), t.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	t, err := scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.NotFound("transaction", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

const updateTransaction = `
UPDATE transactions
SET account_id = ?, category_id = ?, name = ?, amount_cents = ?, date = ?, type = ?,
    is_recurring = ?, frequency = ?, updated_at = ?
WHERE id = ?
`

// UpdateTransaction persists the user-editable fields. Parent and goal links never change.
func (q *Queries) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	cents, err := core.ToCents(t.Amount)
	if err != nil {
		return fmt.Errorf("transaction %s amount: %w", t.ID, err)
	}
	res, err := q.db.ExecContext(ctx, updateTransaction,
		t.AccountID, t.CategoryID, t.Name, cents, t.Date.String(), string(t.Type),
		boolInt(t.IsRecurring), string(t.Frequency), t.UpdatedAt.UnixNano(), t.ID)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", t.ID, err)
	}
	return expectOne(res, "transaction", t.ID)
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return expectOne(res, "transaction", id)
}

// TransactionFilter narrows ListTransactions. Zero-valued fields are unconstrained.
type TransactionFilter struct {
	OwnerID   string
	From, To  core.Date // inclusive
	AccountID string
	Type      core.TransactionType
}

// ListTransactions returns the owner's transactions newest first, ties
// broken by creation time, newest first.
func (q *Queries) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	var (
		sb   strings.Builder
		args = []interface{}{f.OwnerID}
	)
	sb.WriteString(`SELECT ` + transactionColumns + ` FROM transactions WHERE owner_id = ?`)
	if !f.From.IsEmpty() {
		sb.WriteString(` AND date >= ?`)
		args = append(args, f.From.String())
	}
	if !f.To.IsEmpty() {
		sb.WriteString(` AND date <= ?`)
		args = append(args, f.To.String())
	}
	if f.AccountID != "" {
		sb.WriteString(` AND account_id = ?`)
		args = append(args, f.AccountID)
	}
	if f.Type != "" {
		sb.WriteString(` AND type = ?`)
		args = append(args, string(f.Type))
	}
	sb.WriteString(` ORDER BY date DESC, created_at DESC, rowid DESC`)

	rows, err := q.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	items, err := scanTransactions(rows)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return items, nil
}

const listRecurringTemplates = `
SELECT ` + transactionColumns + ` FROM transactions
WHERE is_recurring = 1 AND parent_transaction_id IS NULL
ORDER BY created_at, rowid
`

// ListRecurringTemplates returns every recurring template across all owners.
func (q *Queries) ListRecurringTemplates(ctx context.Context) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listRecurringTemplates)
	if err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}
	items, err := scanTransactions(rows)
	if err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}
	return items, nil
}

const existsChildInRange = `
SELECT EXISTS (
    SELECT 1 FROM transactions
    WHERE parent_transaction_id = ? AND date >= ? AND date <= ?
)
`

// ExistsChildInRange reports whether the template already has a child dated within [start, end].
func (q *Queries) ExistsChildInRange(ctx context.Context, parentID string, start, end core.Date) (bool, error) {
	var exists int64
	err := q.db.QueryRowContext(ctx, existsChildInRange, parentID, start.String(), end.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check child of %s: %w", parentID, err)
	}
	return exists != 0, nil
}

const countTransactionsByAccount = `SELECT COUNT(*) FROM transactions WHERE account_id = ?`

func (q *Queries) CountTransactionsByAccount(ctx context.Context, accountID string) (int64, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, countTransactionsByAccount, accountID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions of account %s: %w", accountID, err)
	}
	return n, nil
}

// SumParams selects the transactions summed by SumByType and SumByCategory.
type SumParams struct {
	OwnerID      string
	Type         core.TransactionType
	From, To     core.Date // inclusive
	ExcludeGoals bool
}

// where renders the filter with columns qualified by col, e.g. "t.".
func (p SumParams) where(col string) (string, []interface{}) {
	clause := col + `owner_id = ? AND ` + col + `type = ? AND ` + col + `date >= ? AND ` + col + `date <= ?`
	if p.ExcludeGoals {
		clause += ` AND ` + col + `goal_id IS NULL`
	}
	return clause, []interface{}{p.OwnerID, string(p.Type), p.From.String(), p.To.String()}
}

// SumByType totals amounts in cents. No matching rows yields zero.
func (q *Queries) SumByType(ctx context.Context, p SumParams) (int64, error) {
	where, args := p.where("")
	var total int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE `+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum %s: %w", p.Type, err)
	}
	return total, nil
}

// CategorySum is one row of SumByCategory.
type CategorySum struct {
	CategoryID   string
	CategoryName string
	TotalCents   int64
}

// SumByCategory groups matching amounts by category, largest total first.
func (q *Queries) SumByCategory(ctx context.Context, p SumParams) ([]CategorySum, error) {
	where, args := p.where("t.")
	query := `
SELECT c.id, c.name, SUM(t.amount_cents) AS total
FROM transactions t
JOIN categories c ON c.id = t.category_id
WHERE ` + where + `
GROUP BY c.id, c.name
ORDER BY total DESC, c.name
`
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sum %s by category: %w", p.Type, err)
	}
	defer rows.Close()

	var items []CategorySum
	for rows.Next() {
		var cs CategorySum
		if err := rows.Scan(&cs.CategoryID, &cs.CategoryName, &cs.TotalCents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		items = append(items, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sum %s by category: %w", p.Type, err)
	}
	return items, nil
}
