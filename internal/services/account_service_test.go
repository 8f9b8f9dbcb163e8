package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func TestAccountService_CreateStartsAtInitialBalance(t *testing.T) {
	e := newEnv(t)

	a, err := e.accounts.Create(e.ctx, e.owner.ID, CreateAccountInput{
		Name:           "Wallet",
		Kind:           core.Cash,
		InitialBalance: amount("42.10"),
		Color:          "#ffaa00",
	})
	require.NoError(t, err)
	assert.True(t, a.InitialBalance.Equal(a.CurrentBalance))

	got, err := e.accounts.Get(e.ctx, a.ID, e.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "42.10", core.FormatAmount(got.CurrentBalance))
	assert.Equal(t, core.Cash, got.Kind)

	list, err := e.accounts.List(e.ctx, e.owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = e.accounts.Create(e.ctx, "ghost", CreateAccountInput{Name: "x", Kind: core.Cash})
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = e.accounts.Create(e.ctx, e.owner.ID, CreateAccountInput{Name: "x", Kind: "BROKER"})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestAccountService_UpdateLeavesBalanceAlone(t *testing.T) {
	e := newEnv(t)

	_, err := e.txs.Create(e.ctx, e.owner.ID, e.expense("Tea", "5", core.NewDate(2025, 1, 1)))
	require.NoError(t, err)

	a, err := e.accounts.Update(e.ctx, e.checking.ID, e.owner.ID, UpdateAccountInput{
		Name: ptr("Everyday"),
		Kind: ptr(core.Investment),
	})
	require.NoError(t, err)
	assert.Equal(t, "Everyday", a.Name)
	assert.Equal(t, "995.00", e.balance(t, e.checking.ID))
}

func TestAccountService_Delete(t *testing.T) {
	e := newEnv(t)
	stranger := e.addUser(t, "Eve", "eve@example.com")

	tx, err := e.txs.Create(e.ctx, e.owner.ID, e.expense("Tea", "5", core.NewDate(2025, 1, 1)))
	require.NoError(t, err)

	assert.ErrorIs(t, e.accounts.Delete(e.ctx, e.checking.ID, stranger.ID), core.ErrNotOwned)
	assert.ErrorIs(t, e.accounts.Delete(e.ctx, e.checking.ID, e.owner.ID), core.ErrInvalidArgument)

	require.NoError(t, e.txs.Delete(e.ctx, tx.ID, e.owner.ID))
	require.NoError(t, e.accounts.Delete(e.ctx, e.checking.ID, e.owner.ID))

	_, err = e.accounts.Get(e.ctx, e.checking.ID, e.owner.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
