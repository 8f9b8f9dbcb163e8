package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ApplyEffect adds an INCOME amount to the account balance or subtracts an
// EXPENSE amount from it. An EXPENSE that would leave the balance below zero
// fails with ErrInsufficientBalance and an INCOME that would lift it above
// MaxAmount fails with ErrAmountOutOfRange; either way the account is left
// untouched. The caller persists the account.
func ApplyEffect(a *Account, amount decimal.Decimal, t TransactionType) error {
	switch t {
	case Income:
		next, err := creditBalance(a, amount)
		if err != nil {
			return err
		}
		a.CurrentBalance = next
	case Expense:
		next := a.CurrentBalance.Sub(amount)
		if next.IsNegative() {
			return fmt.Errorf("%w: account %s holds %s, expense is %s",
				ErrInsufficientBalance, a.ID, FormatAmount(a.CurrentBalance), FormatAmount(amount))
		}
		a.CurrentBalance = next
	default:
		return ErrInvalidType
	}
	return nil
}

// ReverseEffect undoes ApplyEffect. It is not balance-checked against zero:
// reversing an INCOME may leave the balance negative.
func ReverseEffect(a *Account, amount decimal.Decimal, t TransactionType) error {
	switch t {
	case Income:
		a.CurrentBalance = a.CurrentBalance.Sub(amount)
	case Expense:
		next, err := creditBalance(a, amount)
		if err != nil {
			return err
		}
		a.CurrentBalance = next
	default:
		return ErrInvalidType
	}
	return nil
}

func creditBalance(a *Account, amount decimal.Decimal) (decimal.Decimal, error) {
	next := a.CurrentBalance.Add(amount)
	if next.GreaterThan(MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: account %s holds %s, credit is %s",
			ErrAmountOutOfRange, a.ID, FormatAmount(a.CurrentBalance), FormatAmount(amount))
	}
	return next, nil
}
