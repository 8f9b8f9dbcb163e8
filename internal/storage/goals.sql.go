package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ledger/internal/core"
)

const goalColumns = `id, owner_id, name, target_amount_cents, current_amount_cents, status, start_date, end_date, color, created_at, updated_at`

func scanGoal(row rowScanner) (core.SavingsGoal, error) {
	var (
		g                core.SavingsGoal
		target, current  int64
		status           string
		start, end       string
		created, updated int64
	)
	if err := row.Scan(&g.ID, &g.OwnerID, &g.Name, &target, &current, &status, &start, &end,
		&g.Color, &created, &updated); err != nil {
		return core.SavingsGoal{}, err
	}
	var err error
	if g.StartDate, err = core.ParseDate(start); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("goal %s: %w", g.ID, err)
	}
	if g.EndDate, err = core.ParseDate(end); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("goal %s: %w", g.ID, err)
	}
	g.TargetAmount = core.FromCents(target)
	g.CurrentAmount = core.FromCents(current)
	g.Status = core.GoalStatus(status)
	g.CreatedAt = time.Unix(0, created).UTC()
	g.UpdatedAt = time.Unix(0, updated).UTC()
	return g, nil
}

const createGoal = `
INSERT INTO savings_goals (` + goalColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateGoal(ctx context.Context, g core.SavingsGoal) error {
	target, current, err := goalCents(g)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx, createGoal,
		g.ID, g.OwnerID, g.Name, target, current,
		string(g.Status), g.StartDate.String(), g.EndDate.String(), g.Color,
		g.CreatedAt.UnixNano(), g.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

const getGoal = `SELECT ` + goalColumns + ` FROM savings_goals WHERE id = ?`

// GetGoal returns the goal whatever its status; soft-deleted goals included.
func (q *Queries) GetGoal(ctx context.Context, id string) (core.SavingsGoal, error) {
	g, err := scanGoal(q.db.QueryRowContext(ctx, getGoal, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsGoal{}, core.NotFound("goal", id)
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get goal %s: %w", id, err)
	}
	return g, nil
}

const listGoalsByOwner = `
SELECT ` + goalColumns + ` FROM savings_goals
WHERE owner_id = ? AND status <> 'DELETED'
ORDER BY created_at DESC, rowid DESC
`

func (q *Queries) ListGoalsByOwner(ctx context.Context, ownerID string) ([]core.SavingsGoal, error) {
	rows, err := q.db.QueryContext(ctx, listGoalsByOwner, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var items []core.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		items = append(items, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return items, nil
}

const updateGoal = `
UPDATE savings_goals
SET name = ?, target_amount_cents = ?, current_amount_cents = ?, status = ?, end_date = ?, color = ?, updated_at = ?
WHERE id = ?
`

func (q *Queries) UpdateGoal(ctx context.Context, g core.SavingsGoal) error {
	target, current, err := goalCents(g)
	if err != nil {
		return err
	}
	res, err := q.db.ExecContext(ctx, updateGoal,
		g.Name, target, current, string(g.Status),
		g.EndDate.String(), g.Color, g.UpdatedAt.UnixNano(), g.ID)
	if err != nil {
		return fmt.Errorf("update goal %s: %w", g.ID, err)
	}
	return expectOne(res, "goal", g.ID)
}

func goalCents(g core.SavingsGoal) (target, current int64, err error) {
	if target, err = core.ToCents(g.TargetAmount); err != nil {
		return 0, 0, fmt.Errorf("goal %s target: %w", g.ID, err)
	}
	if current, err = core.ToCents(g.CurrentAmount); err != nil {
		return 0, 0, fmt.Errorf("goal %s current amount: %w", g.ID, err)
	}
	return target, current, nil
}
