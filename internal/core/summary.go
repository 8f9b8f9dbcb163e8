package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	CategoryID   string
	CategoryName string
	Amount       decimal.Decimal
}

// MonthlySummary is the expense rollup for a specific year+month.
// Goal transfers are never part of it.
type MonthlySummary struct {
	Year       int
	Month      int // 1-12
	Total      decimal.Decimal
	ByCategory []CategoryAmount
}

// Dashboard is the owner's headline numbers for one month.
type Dashboard struct {
	Year         int
	Month        int
	TotalBalance decimal.Decimal
	Income       decimal.Decimal
	Expense      decimal.Decimal
}
