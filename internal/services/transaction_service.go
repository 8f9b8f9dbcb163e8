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

// JournalPublisher receives a snapshot of every committed transaction change.
type JournalPublisher interface {
	PublishJournal(ctx context.Context, ev *amqp.JournalEvent) error
}

// TransactionService is the transaction lifecycle manager. Every create,
// update and delete routes its balance effect through the reconciler and
// commits the transaction row and the touched accounts together.
type TransactionService struct {
	storage *storage.SQLiteRepository
	journal JournalPublisher
	now     func() time.Time
	loc     *time.Location
}

// NewTransactionService creates the service. journal may be nil.
func NewTransactionService(storage *storage.SQLiteRepository, journal JournalPublisher) *TransactionService {
	return &TransactionService{
		storage: storage,
		journal: journal,
		now:     time.Now,
		loc:     time.Local,
	}
}

// WithLocation sets the zone whose calendar decides the date of goal
// transfers. It defaults to time.Local.
func (s *TransactionService) WithLocation(loc *time.Location) *TransactionService {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// CreateTransactionInput carries the caller-supplied fields of a new transaction.
type CreateTransactionInput struct {
	AccountID   string
	CategoryID  string
	Name        string
	Amount      decimal.Decimal
	Date        core.Date
	Type        core.TransactionType
	IsRecurring bool
	Frequency   core.Frequency // MONTHLY when recurring and unset
}

// UpdateTransactionInput holds a partial update; nil fields keep their value.
type UpdateTransactionInput struct {
	AccountID   *string
	CategoryID  *string
	Name        *string
	Amount      *decimal.Decimal
	Date        *core.Date
	Type        *core.TransactionType
	IsRecurring *bool
	Frequency   *core.Frequency
}

// touchesEffect reports whether the update changes anything beyond name and date.
func (in UpdateTransactionInput) touchesEffect() bool {
	return in.AccountID != nil || in.CategoryID != nil || in.Amount != nil || in.Type != nil ||
		in.IsRecurring != nil || in.Frequency != nil
}

// ListFilter narrows List. Year and Month go together.
type ListFilter struct {
	Year      int
	Month     int
	AccountID string
	Type      core.TransactionType
}

func (s *TransactionService) Create(ctx context.Context, ownerID string, in CreateTransactionInput) (core.Transaction, error) {
	now := s.now()
	t := core.Transaction{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		AccountID:   in.AccountID,
		CategoryID:  in.CategoryID,
		Name:        in.Name,
		Amount:      in.Amount,
		Date:        in.Date,
		Type:        in.Type,
		IsRecurring: in.IsRecurring,
		Frequency:   in.Frequency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	// The resolved frequency is stored so a later change of default never
	// alters existing templates.
	if t.IsRecurring {
		t.Frequency = t.Frequency.OrDefault()
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		return insertTransaction(ctx, q, &t)
	})
	if err != nil {
		s.logFailure(ctx, applog.OpCreate, ownerID, err)
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created", applog.NewFields().
		WithOwner(ownerID).
		WithTransaction(t.ID, t.AccountID, string(t.Type), core.FormatAmount(t.Amount)).
		ToSlice()...)
	s.publish(ctx, amqp.OpCreated, t)
	return t, nil
}

// insertTransaction resolves the references of t, applies its effect and
// writes the account and the row. It must run inside InTx.
func insertTransaction(ctx context.Context, q *storage.Queries, t *core.Transaction) error {
	account, err := ownedAccount(ctx, q, t.AccountID, t.OwnerID)
	if err != nil {
		return err
	}
	category, err := ownedCategory(ctx, q, t.CategoryID, t.OwnerID)
	if err != nil {
		return err
	}
	if category.Type != t.Type {
		return fmt.Errorf("%w: category %s is %s, transaction is %s",
			core.ErrCategoryTypeMismatch, category.ID, category.Type, t.Type)
	}

	if err := core.ApplyEffect(&account, t.Amount, t.Type); err != nil {
		return err
	}
	account.UpdatedAt = t.UpdatedAt
	if err := q.UpdateAccount(ctx, account); err != nil {
		return err
	}
	return q.CreateTransaction(ctx, *t)
}

func (s *TransactionService) Get(ctx context.Context, id, ownerID string) (core.Transaction, error) {
	t, err := s.storage.Queries().GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := core.CheckOwnership(t, "transaction", id, ownerID); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// List returns the owner's transactions newest first; equal dates are
// ordered by creation time, newest first.
func (s *TransactionService) List(ctx context.Context, ownerID string, f ListFilter) ([]core.Transaction, error) {
	filter := storage.TransactionFilter{OwnerID: ownerID, AccountID: f.AccountID, Type: f.Type}

	switch {
	case f.Year == 0 && f.Month == 0:
	case f.Year == 0 || f.Month == 0:
		return nil, fmt.Errorf("%w: year and month must be given together", core.ErrInvalidArgument)
	case f.Month < 1 || f.Month > 12:
		return nil, fmt.Errorf("%w: month %d", core.ErrInvalidArgument, f.Month)
	default:
		filter.From, filter.To = core.MonthRange(f.Year, f.Month)
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, core.ErrInvalidType
	}
	if f.AccountID != "" {
		if _, err := ownedAccount(ctx, s.storage.Queries(), f.AccountID, ownerID); err != nil {
			return nil, err
		}
	}

	items, err := s.storage.Queries().ListTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []core.Transaction{}
	}
	return items, nil
}

// Update reverses the old effect on the old account before applying the new
// effect on the (possibly different) new account, so amount, type and
// account may all change in one call without double-booking.
func (s *TransactionService) Update(ctx context.Context, id, ownerID string, in UpdateTransactionInput) (core.Transaction, error) {
	var updated core.Transaction

	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		old, err := q.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if err := core.CheckOwnership(old, "transaction", id, ownerID); err != nil {
			return err
		}
		if old.GoalID != "" && in.touchesEffect() {
			return fmt.Errorf("%w: goal transfers only allow name and date changes", core.ErrInvalidArgument)
		}

		next := old
		applyUpdate(&next, in)
		next.UpdatedAt = s.now()
		if err := next.Validate(); err != nil {
			return err
		}

		oldAccount, err := ownedAccount(ctx, q, old.AccountID, ownerID)
		if err != nil {
			return err
		}
		if err := core.ReverseEffect(&oldAccount, old.Amount, old.Type); err != nil {
			return err
		}

		newAccount := &oldAccount
		if next.AccountID != old.AccountID {
			acc, err := ownedAccount(ctx, q, next.AccountID, ownerID)
			if err != nil {
				return err
			}
			newAccount = &acc
		}

		category, err := ownedCategory(ctx, q, next.CategoryID, ownerID)
		if err != nil {
			return err
		}
		if category.Type != next.Type {
			return fmt.Errorf("%w: category %s is %s, transaction is %s",
				core.ErrCategoryTypeMismatch, category.ID, category.Type, next.Type)
		}

		if err := core.ApplyEffect(newAccount, next.Amount, next.Type); err != nil {
			return err
		}

		oldAccount.UpdatedAt = next.UpdatedAt
		if err := q.UpdateAccount(ctx, oldAccount); err != nil {
			return err
		}
		if newAccount != &oldAccount {
			newAccount.UpdatedAt = next.UpdatedAt
			if err := q.UpdateAccount(ctx, *newAccount); err != nil {
				return err
			}
		}
		if err := q.UpdateTransaction(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		s.logFailure(ctx, applog.OpUpdate, ownerID, err)
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}

	slog.InfoContext(ctx, "Transaction updated", applog.NewFields().
		WithOwner(ownerID).
		WithTransaction(updated.ID, updated.AccountID, string(updated.Type), core.FormatAmount(updated.Amount)).
		ToSlice()...)
	s.publish(ctx, amqp.OpUpdated, updated)
	return updated, nil
}

func applyUpdate(t *core.Transaction, in UpdateTransactionInput) {
	if in.AccountID != nil {
		t.AccountID = *in.AccountID
	}
	if in.CategoryID != nil {
		t.CategoryID = *in.CategoryID
	}
	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.Amount != nil {
		t.Amount = *in.Amount
	}
	if in.Date != nil {
		t.Date = *in.Date
	}
	if in.Type != nil {
		t.Type = *in.Type
	}
	if in.IsRecurring != nil {
		t.IsRecurring = *in.IsRecurring
		if !t.IsRecurring {
			t.Frequency = ""
		}
	}
	if in.Frequency != nil {
		t.Frequency = *in.Frequency
	}
	if t.IsRecurring {
		t.Frequency = t.Frequency.OrDefault()
	}
}

// Delete reverses the transaction's effect on its account and, for a goal
// transfer, on the goal, then removes the row.
func (s *TransactionService) Delete(ctx context.Context, id, ownerID string) error {
	var deleted core.Transaction

	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		t, err := q.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if err := core.CheckOwnership(t, "transaction", id, ownerID); err != nil {
			return err
		}

		now := s.now()
		account, err := ownedAccount(ctx, q, t.AccountID, ownerID)
		if err != nil {
			return err
		}
		if err := core.ReverseEffect(&account, t.Amount, t.Type); err != nil {
			return err
		}
		account.UpdatedAt = now
		if err := q.UpdateAccount(ctx, account); err != nil {
			return err
		}

		if t.GoalID != "" {
			goal, err := q.GetGoal(ctx, t.GoalID)
			if err != nil {
				return err
			}
			if err := goal.ReverseTransfer(t.Amount, t.Type); err != nil {
				return err
			}
			goal.UpdatedAt = now
			if err := q.UpdateGoal(ctx, goal); err != nil {
				return err
			}
		}

		deleted = t
		return q.DeleteTransaction(ctx, id)
	})
	if err != nil {
		s.logFailure(ctx, applog.OpDelete, ownerID, err)
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}

	slog.InfoContext(ctx, "Transaction deleted", applog.NewFields().
		WithOwner(ownerID).
		WithTransaction(deleted.ID, deleted.AccountID, string(deleted.Type), core.FormatAmount(deleted.Amount)).
		ToSlice()...)
	s.publish(ctx, amqp.OpDeleted, deleted)
	return nil
}

// goalTransfer describes the synthetic transaction behind a contribution or withdrawal.
type goalTransfer struct {
	OwnerID    string
	AccountID  string
	CategoryID string
	GoalID     string
	Name       string
	Amount     decimal.Decimal
	Type       core.TransactionType
}

// createGoalTransaction records a goal transfer dated today. It runs inside
// the caller's transaction so the goal and the account move together.
func (s *TransactionService) createGoalTransaction(ctx context.Context, q *storage.Queries, g goalTransfer) (core.Transaction, error) {
	now := s.now()
	t := core.Transaction{
		ID:         uuid.NewString(),
		OwnerID:    g.OwnerID,
		AccountID:  g.AccountID,
		CategoryID: g.CategoryID,
		Name:       g.Name,
		Amount:     g.Amount,
		Date:       core.DateOf(now.In(s.loc)),
		Type:       g.Type,
		GoalID:     g.GoalID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := insertTransaction(ctx, q, &t); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// CreateRecurringChild materializes one occurrence of a recurring template
// dated target. The child copies the template's account, category, name,
// amount and type, is never itself recurring, and points back at its
// template. ErrInsufficientBalance is returned unchanged for the caller to
// handle per template.
func (s *TransactionService) CreateRecurringChild(ctx context.Context, parent core.Transaction, target core.Date) (core.Transaction, error) {
	if !parent.IsRecurring || parent.ParentID != "" {
		return core.Transaction{}, fmt.Errorf("%w: %s is not a recurring template", core.ErrInvalidArgument, parent.ID)
	}

	now := s.now()
	child := core.Transaction{
		ID:         uuid.NewString(),
		OwnerID:    parent.OwnerID,
		AccountID:  parent.AccountID,
		CategoryID: parent.CategoryID,
		Name:       parent.Name,
		Amount:     parent.Amount,
		Date:       target,
		Type:       parent.Type,
		ParentID:   parent.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := child.Validate(); err != nil {
		return core.Transaction{}, err
	}

	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		return insertTransaction(ctx, q, &child)
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create child of %s: %w", parent.ID, err)
	}

	s.publish(ctx, amqp.OpCreated, child)
	return child, nil
}

func (s *TransactionService) publish(ctx context.Context, op string, t core.Transaction) {
	if s.journal == nil {
		return
	}
	if err := s.journal.PublishJournal(ctx, amqp.NewJournalEvent(op, t)); err != nil {
		// the ledger change is committed; the mirror just misses this event
		slog.WarnContext(ctx, "Failed to publish journal event",
			applog.FieldOperation, op,
			applog.FieldTransactionID, t.ID,
			applog.FieldError, err)
	}
}

func (s *TransactionService) logFailure(ctx context.Context, op, ownerID string, err error) {
	kind := core.ErrorKind(err)
	fields := applog.NewFields().WithOperation(op).WithOwner(ownerID).WithError(err, kind).ToSlice()
	if kind == core.KindInternal {
		slog.ErrorContext(ctx, "Transaction operation failed", fields...)
		return
	}
	slog.WarnContext(ctx, "Transaction operation rejected", fields...)
}

func ownedAccount(ctx context.Context, q *storage.Queries, id, ownerID string) (core.Account, error) {
	a, err := q.GetAccount(ctx, id)
	if err != nil {
		return core.Account{}, err
	}
	if err := core.CheckOwnership(a, "account", id, ownerID); err != nil {
		return core.Account{}, err
	}
	return a, nil
}

func ownedCategory(ctx context.Context, q *storage.Queries, id, ownerID string) (core.Category, error) {
	c, err := q.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if err := core.CheckOwnership(c, "category", id, ownerID); err != nil {
		return core.Category{}, err
	}
	return c, nil
}
