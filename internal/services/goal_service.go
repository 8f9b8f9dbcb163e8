package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ledger/internal/amqp"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

// GoalService manages savings goals and moves money between accounts and
// goals. A transfer changes the goal and books a linked transaction against
// the account in one atomic unit.
type GoalService struct {
	storage      *storage.SQLiteRepository
	transactions *TransactionService
	now          func() time.Time
}

func NewGoalService(storage *storage.SQLiteRepository, transactions *TransactionService) *GoalService {
	return &GoalService{
		storage:      storage,
		transactions: transactions,
		now:          time.Now,
	}
}

type CreateGoalInput struct {
	Name         string
	TargetAmount decimal.Decimal
	EndDate      core.Date // optional
	Color        string
}

// UpdateGoalInput holds a partial update; nil fields keep their value.
type UpdateGoalInput struct {
	Name         *string
	TargetAmount *decimal.Decimal
	EndDate      *core.Date // a zero Date clears it
	Color        *string
}

// TransferInput describes a contribution or withdrawal. CategoryID is
// optional; when empty the owner's oldest category of the matching type is
// used (EXPENSE for contributions, INCOME for withdrawals).
type TransferInput struct {
	GoalID     string
	OwnerID    string
	AccountID  string
	CategoryID string
	Amount     decimal.Decimal
}

// GoalTransfer is the outcome of a contribution or withdrawal.
type GoalTransfer struct {
	Goal        core.SavingsGoal
	Transaction core.Transaction
}

func (s *GoalService) Create(ctx context.Context, ownerID string, in CreateGoalInput) (core.SavingsGoal, error) {
	now := s.now()
	g := core.SavingsGoal{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Name:          in.Name,
		TargetAmount:  in.TargetAmount,
		CurrentAmount: decimal.Zero,
		Status:        core.GoalActive,
		StartDate:     core.DateOf(now.In(s.transactions.loc)),
		EndDate:       in.EndDate,
		Color:         in.Color,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	if _, err := s.storage.Queries().GetUser(ctx, ownerID); err != nil {
		return core.SavingsGoal{}, err
	}
	if err := s.storage.Queries().CreateGoal(ctx, g); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create goal: %w", err)
	}

	slog.InfoContext(ctx, "Savings goal created",
		applog.FieldGoalID, g.ID,
		applog.FieldOwnerID, ownerID,
		applog.FieldAmount, core.FormatAmount(g.TargetAmount))
	return g, nil
}

// Get returns a goal of the owner. Soft-deleted goals are reported as not found.
func (s *GoalService) Get(ctx context.Context, id, ownerID string) (core.SavingsGoal, error) {
	return ownedGoal(ctx, s.storage.Queries(), id, ownerID)
}

// List returns the owner's goals, newest first, without soft-deleted ones.
func (s *GoalService) List(ctx context.Context, ownerID string) ([]core.SavingsGoal, error) {
	goals, err := s.storage.Queries().ListGoalsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if goals == nil {
		goals = []core.SavingsGoal{}
	}
	return goals, nil
}

// Update edits the descriptive fields and the target. Changing the target
// recomputes the status in both directions unless the goal is cancelled.
func (s *GoalService) Update(ctx context.Context, id, ownerID string, in UpdateGoalInput) (core.SavingsGoal, error) {
	var updated core.SavingsGoal
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		g, err := ownedGoal(ctx, q, id, ownerID)
		if err != nil {
			return err
		}
		if in.Name != nil {
			g.Name = *in.Name
		}
		if in.TargetAmount != nil {
			g.TargetAmount = *in.TargetAmount
		}
		if in.EndDate != nil {
			g.EndDate = *in.EndDate
		}
		if in.Color != nil {
			g.Color = *in.Color
		}
		if err := g.Validate(); err != nil {
			return err
		}
		g.Recompute()
		g.UpdatedAt = s.now()
		if err := q.UpdateGoal(ctx, g); err != nil {
			return err
		}
		updated = g
		return nil
	})
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update goal %s: %w", id, err)
	}
	return updated, nil
}

// Cancel stops a goal from accepting contributions. Its money can still be withdrawn.
func (s *GoalService) Cancel(ctx context.Context, id, ownerID string) (core.SavingsGoal, error) {
	return s.setStatus(ctx, id, ownerID, core.GoalCancelled)
}

// Delete soft-deletes a goal. Linked transactions keep their reference.
func (s *GoalService) Delete(ctx context.Context, id, ownerID string) error {
	_, err := s.setStatus(ctx, id, ownerID, core.GoalDeleted)
	return err
}

func (s *GoalService) setStatus(ctx context.Context, id, ownerID string, status core.GoalStatus) (core.SavingsGoal, error) {
	var updated core.SavingsGoal
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		g, err := ownedGoal(ctx, q, id, ownerID)
		if err != nil {
			return err
		}
		if g.Status == status {
			updated = g
			return nil
		}
		g.Status = status
		g.UpdatedAt = s.now()
		if err := q.UpdateGoal(ctx, g); err != nil {
			return err
		}
		updated = g
		return nil
	})
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("set goal %s %s: %w", id, status, err)
	}

	slog.InfoContext(ctx, "Savings goal status changed",
		applog.FieldGoalID, id,
		applog.FieldOwnerID, ownerID,
		"status", status)
	return updated, nil
}

// Contribute moves money from an account into a goal. The contribution may
// not exceed what is left to reach the target.
func (s *GoalService) Contribute(ctx context.Context, in TransferInput) (GoalTransfer, error) {
	return s.transfer(ctx, in, core.Expense, applog.OpContribute)
}

// Withdraw moves money from a goal back into an account.
func (s *GoalService) Withdraw(ctx context.Context, in TransferInput) (GoalTransfer, error) {
	return s.transfer(ctx, in, core.Income, applog.OpWithdraw)
}

func (s *GoalService) transfer(ctx context.Context, in TransferInput, t core.TransactionType, op string) (GoalTransfer, error) {
	var out GoalTransfer

	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		g, err := ownedGoal(ctx, q, in.GoalID, in.OwnerID)
		if err != nil {
			return err
		}

		name := "Withdrawal from " + g.Name
		if t == core.Expense {
			name = "Contribution to " + g.Name
			err = g.ApplyContribution(in.Amount)
		} else {
			err = g.ApplyWithdrawal(in.Amount)
		}
		if err != nil {
			return err
		}

		category, err := transferCategory(ctx, q, in.CategoryID, in.OwnerID, t)
		if err != nil {
			return err
		}

		tx, err := s.transactions.createGoalTransaction(ctx, q, goalTransfer{
			OwnerID:    in.OwnerID,
			AccountID:  in.AccountID,
			CategoryID: category.ID,
			GoalID:     g.ID,
			Name:       name,
			Amount:     in.Amount,
			Type:       t,
		})
		if err != nil {
			return err
		}

		g.UpdatedAt = tx.UpdatedAt
		if err := q.UpdateGoal(ctx, g); err != nil {
			return err
		}
		out = GoalTransfer{Goal: g, Transaction: tx}
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "Goal transfer failed", applog.NewFields().
			WithOperation(op).
			WithOwner(in.OwnerID).
			WithError(err, core.ErrorKind(err)).
			ToSlice()...)
		return GoalTransfer{}, fmt.Errorf("%s goal %s: %w", op, in.GoalID, err)
	}

	slog.InfoContext(ctx, "Goal transfer recorded",
		applog.FieldOperation, op,
		applog.FieldGoalID, out.Goal.ID,
		applog.FieldTransactionID, out.Transaction.ID,
		applog.FieldAmount, core.FormatAmount(in.Amount),
		"status", out.Goal.Status)
	s.transactions.publish(ctx, amqp.OpCreated, out.Transaction)
	return out, nil
}

func transferCategory(ctx context.Context, q *storage.Queries, id, ownerID string, t core.TransactionType) (core.Category, error) {
	if id == "" {
		return q.FirstCategoryByType(ctx, ownerID, t)
	}
	c, err := ownedCategory(ctx, q, id, ownerID)
	if err != nil {
		return core.Category{}, err
	}
	if c.Type != t {
		return core.Category{}, fmt.Errorf("%w: category %s is %s, transfer needs %s",
			core.ErrCategoryTypeMismatch, c.ID, c.Type, t)
	}
	return c, nil
}

func ownedGoal(ctx context.Context, q *storage.Queries, id, ownerID string) (core.SavingsGoal, error) {
	g, err := q.GetGoal(ctx, id)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	if g.Status == core.GoalDeleted {
		return core.SavingsGoal{}, core.NotFound("goal", id)
	}
	if err := core.CheckOwnership(g, "goal", id, ownerID); err != nil {
		return core.SavingsGoal{}, err
	}
	return g, nil
}
