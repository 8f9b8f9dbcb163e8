package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/storage"
)

type recordingJournal struct {
	mu     sync.Mutex
	events []*amqp.JournalEvent
}

func (j *recordingJournal) PublishJournal(_ context.Context, ev *amqp.JournalEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, ev)
	return nil
}

func (j *recordingJournal) ops() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	ops := make([]string, 0, len(j.events))
	for _, ev := range j.events {
		ops = append(ops, ev.Op)
	}
	return ops
}

type testEnv struct {
	ctx      context.Context
	repo     *storage.SQLiteRepository
	journal  *recordingJournal
	txs      *TransactionService
	goals    *GoalService
	accounts *AccountService
	summary  *SummaryService

	owner    core.User
	checking core.Account
	salary   core.Category
	food     core.Category
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	e := &testEnv{
		ctx:     context.Background(),
		repo:    repo,
		journal: &recordingJournal{},
	}
	e.txs = NewTransactionService(repo, e.journal)
	e.goals = NewGoalService(repo, e.txs)
	e.accounts = NewAccountService(repo)
	e.summary = NewSummaryService(repo)

	e.owner = e.addUser(t, "Ada", "ada@example.com")
	e.checking = e.addAccount(t, e.owner.ID, "1000.00")
	e.salary = e.addCategory(t, e.owner.ID, "Salary", core.Income)
	e.food = e.addCategory(t, e.owner.ID, "Food", core.Expense)
	return e
}

func (e *testEnv) addUser(t *testing.T, name, email string) core.User {
	t.Helper()
	u := core.User{ID: uuid.NewString(), Name: name, Email: email, CreatedAt: time.Now()}
	require.NoError(t, e.repo.Queries().CreateUser(e.ctx, u))
	return u
}

func (e *testEnv) addAccount(t *testing.T, ownerID, balance string) core.Account {
	t.Helper()
	a, err := e.accounts.Create(e.ctx, ownerID, CreateAccountInput{
		Name:           "Account " + balance,
		Kind:           core.Checking,
		InitialBalance: decimal.RequireFromString(balance),
	})
	require.NoError(t, err)
	return a
}

func (e *testEnv) addCategory(t *testing.T, ownerID, name string, typ core.TransactionType) core.Category {
	t.Helper()
	c := core.Category{ID: uuid.NewString(), OwnerID: ownerID, Name: name, Type: typ, CreatedAt: time.Now()}
	require.NoError(t, e.repo.Queries().CreateCategory(e.ctx, c))
	return c
}

func (e *testEnv) balance(t *testing.T, accountID string) string {
	t.Helper()
	a, err := e.repo.Queries().GetAccount(e.ctx, accountID)
	require.NoError(t, err)
	return core.FormatAmount(a.CurrentBalance)
}

func (e *testEnv) expense(name, amount string, date core.Date) CreateTransactionInput {
	return CreateTransactionInput{
		AccountID:  e.checking.ID,
		CategoryID: e.food.ID,
		Name:       name,
		Amount:     decimal.RequireFromString(amount),
		Date:       date,
		Type:       core.Expense,
	}
}

func ptr[T any](v T) *T { return &v }

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }
