package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Remaining is how much can still be contributed before the target is reached.
func (g SavingsGoal) Remaining() decimal.Decimal {
	r := g.TargetAmount.Sub(g.CurrentAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// Progress is current/target as a percentage, rounded half-up to two places.
func (g SavingsGoal) Progress() decimal.Decimal {
	if g.TargetAmount.IsZero() {
		return decimal.Zero
	}
	return g.CurrentAmount.Div(g.TargetAmount).Round(4).Mul(hundred).Round(2)
}

// ApplyContribution moves amount into the goal. The remaining gap is a hard
// cap: a contribution larger than it is rejected, never clamped.
func (g *SavingsGoal) ApplyContribution(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	switch g.Status {
	case GoalCompleted:
		return fmt.Errorf("%w: %s", ErrGoalCompleted, g.ID)
	case GoalCancelled, GoalDeleted:
		return fmt.Errorf("%w: goal %s is %s", ErrInvalidArgument, g.ID, g.Status)
	}
	if remaining := g.Remaining(); amount.GreaterThan(remaining) {
		return fmt.Errorf("%w: contribution %s exceeds remaining %s",
			ErrInvalidArgument, FormatAmount(amount), FormatAmount(remaining))
	}
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	g.Recompute()
	return nil
}

// ApplyWithdrawal moves amount out of the goal.
func (g *SavingsGoal) ApplyWithdrawal(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if g.Status == GoalDeleted {
		return fmt.Errorf("%w: goal %s is deleted", ErrInvalidArgument, g.ID)
	}
	if amount.GreaterThan(g.CurrentAmount) {
		return fmt.Errorf("%w: withdrawal %s exceeds goal balance %s",
			ErrInvalidArgument, FormatAmount(amount), FormatAmount(g.CurrentAmount))
	}
	g.CurrentAmount = g.CurrentAmount.Sub(amount)
	g.Recompute()
	return nil
}

// ReverseTransfer undoes the goal side of a deleted goal transaction. An
// EXPENSE (contribution) is taken back out of the goal; an INCOME
// (withdrawal) is put back. A COMPLETED goal that falls under target is
// demoted; no goal is promoted here.
func (g *SavingsGoal) ReverseTransfer(amount decimal.Decimal, t TransactionType) error {
	switch t {
	case Expense:
		next := g.CurrentAmount.Sub(amount)
		if next.IsNegative() {
			return fmt.Errorf("%w: reversing %s would leave goal %s at %s",
				ErrInvalidArgument, FormatAmount(amount), g.ID, FormatAmount(next))
		}
		g.CurrentAmount = next
	case Income:
		g.CurrentAmount = g.CurrentAmount.Add(amount)
	default:
		return ErrInvalidType
	}
	if g.Status == GoalCompleted && g.CurrentAmount.LessThan(g.TargetAmount) {
		g.Status = GoalActive
	}
	return nil
}

// Recompute sets ACTIVE/COMPLETED from the amounts. CANCELLED and DELETED goals keep their status.
func (g *SavingsGoal) Recompute() {
	if g.Status != GoalActive && g.Status != GoalCompleted {
		return
	}
	if g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount) {
		g.Status = GoalCompleted
	} else {
		g.Status = GoalActive
	}
}
