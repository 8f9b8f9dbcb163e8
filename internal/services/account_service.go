package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

// AccountService manages the owner's accounts. Balances only move through
// transactions; nothing here edits them directly.
type AccountService struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
}

func NewAccountService(storage *storage.SQLiteRepository) *AccountService {
	return &AccountService{storage: storage, now: time.Now}
}

type CreateAccountInput struct {
	Name           string
	Kind           core.AccountKind
	InitialBalance decimal.Decimal
	Color          string
}

// UpdateAccountInput holds a partial update; nil fields keep their value.
type UpdateAccountInput struct {
	Name  *string
	Kind  *core.AccountKind
	Color *string
}

func (s *AccountService) Create(ctx context.Context, ownerID string, in CreateAccountInput) (core.Account, error) {
	now := s.now()
	a := core.Account{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Name:           in.Name,
		Kind:           in.Kind,
		InitialBalance: in.InitialBalance,
		CurrentBalance: in.InitialBalance,
		Color:          in.Color,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	q := s.storage.Queries()
	if _, err := q.GetUser(ctx, ownerID); err != nil {
		return core.Account{}, err
	}
	if err := q.CreateAccount(ctx, a); err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}

	slog.InfoContext(ctx, "Account created",
		applog.FieldAccountID, a.ID,
		applog.FieldOwnerID, ownerID,
		applog.FieldBalance, core.FormatAmount(a.CurrentBalance))
	return a, nil
}

func (s *AccountService) Get(ctx context.Context, id, ownerID string) (core.Account, error) {
	return ownedAccount(ctx, s.storage.Queries(), id, ownerID)
}

func (s *AccountService) List(ctx context.Context, ownerID string) ([]core.Account, error) {
	items, err := s.storage.Queries().ListAccountsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []core.Account{}
	}
	return items, nil
}

func (s *AccountService) Update(ctx context.Context, id, ownerID string, in UpdateAccountInput) (core.Account, error) {
	var updated core.Account
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		a, err := ownedAccount(ctx, q, id, ownerID)
		if err != nil {
			return err
		}
		if in.Name != nil {
			a.Name = *in.Name
		}
		if in.Kind != nil {
			a.Kind = *in.Kind
		}
		if in.Color != nil {
			a.Color = *in.Color
		}
		if err := a.Validate(); err != nil {
			return err
		}
		a.UpdatedAt = s.now()
		if err := q.UpdateAccount(ctx, a); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		return core.Account{}, fmt.Errorf("update account %s: %w", id, err)
	}
	return updated, nil
}

// Delete removes an account that no transaction references.
func (s *AccountService) Delete(ctx context.Context, id, ownerID string) error {
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		if _, err := ownedAccount(ctx, q, id, ownerID); err != nil {
			return err
		}
		n, err := q.CountTransactionsByAccount(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: account has %d transactions", core.ErrInvalidArgument, n)
		}
		return q.DeleteAccount(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}

	slog.InfoContext(ctx, "Account deleted", applog.FieldAccountID, id, applog.FieldOwnerID, ownerID)
	return nil
}
