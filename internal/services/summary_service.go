package services

import (
	"context"
	"fmt"
	"time"

	"ledger/internal/core"
	"ledger/internal/storage"
)

// SummaryService produces read-only rollups.
type SummaryService struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
	loc     *time.Location
}

func NewSummaryService(storage *storage.SQLiteRepository) *SummaryService {
	return &SummaryService{storage: storage, now: time.Now, loc: time.Local}
}

// WithLocation sets the zone that decides which month Dashboard reports.
func (s *SummaryService) WithLocation(loc *time.Location) *SummaryService {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// MonthlySummary totals the owner's expenses for a calendar month and breaks
// them down by category, largest first. Goal transfers are left out.
func (s *SummaryService) MonthlySummary(ctx context.Context, ownerID string, year, month int) (core.MonthlySummary, error) {
	if month < 1 || month > 12 {
		return core.MonthlySummary{}, fmt.Errorf("%w: month %d", core.ErrInvalidArgument, month)
	}
	from, to := core.MonthRange(year, month)
	p := storage.SumParams{OwnerID: ownerID, Type: core.Expense, From: from, To: to, ExcludeGoals: true}
	q := s.storage.Queries()

	total, err := q.SumByType(ctx, p)
	if err != nil {
		return core.MonthlySummary{}, err
	}
	groups, err := q.SumByCategory(ctx, p)
	if err != nil {
		return core.MonthlySummary{}, err
	}

	out := core.MonthlySummary{
		Year:       year,
		Month:      month,
		Total:      core.FromCents(total),
		ByCategory: make([]core.CategoryAmount, 0, len(groups)),
	}
	for _, g := range groups {
		out.ByCategory = append(out.ByCategory, core.CategoryAmount{
			CategoryID:   g.CategoryID,
			CategoryName: g.CategoryName,
			Amount:       core.FromCents(g.TotalCents),
		})
	}
	return out, nil
}

// Dashboard reports the balance across all accounts and the current month's
// income and expense, goal transfers included.
func (s *SummaryService) Dashboard(ctx context.Context, ownerID string) (core.Dashboard, error) {
	today := core.DateOf(s.now().In(s.loc))
	from, to := core.MonthRange(today.Year(), today.Month())
	q := s.storage.Queries()

	balance, err := q.SumAccountBalances(ctx, ownerID)
	if err != nil {
		return core.Dashboard{}, err
	}
	income, err := q.SumByType(ctx, storage.SumParams{OwnerID: ownerID, Type: core.Income, From: from, To: to})
	if err != nil {
		return core.Dashboard{}, err
	}
	expense, err := q.SumByType(ctx, storage.SumParams{OwnerID: ownerID, Type: core.Expense, From: from, To: to})
	if err != nil {
		return core.Dashboard{}, err
	}

	return core.Dashboard{
		Year:         today.Year(),
		Month:        today.Month(),
		TotalBalance: core.FromCents(balance),
		Income:       core.FromCents(income),
		Expense:      core.FromCents(expense),
	}, nil
}
