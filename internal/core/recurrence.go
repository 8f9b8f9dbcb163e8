package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period is one generation window of a recurring template.
type Period struct {
	Target Date // day the child is dated
	Start  Date // first day of the window, inclusive
	End    Date // last day of the window, inclusive
}

// DaysIn returns the number of days in the given month.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthRange returns the first and last day of a calendar month.
func MonthRange(year, month int) (Date, Date) {
	return NewDate(year, month, 1), NewDate(year, month, DaysIn(year, month))
}

// YearRange returns the first and last day of a calendar year.
func YearRange(year int) (Date, Date) {
	return NewDate(year, 1, 1), NewDate(year, 12, 31)
}

// RecurrencePeriod computes the window containing today for a template
// dated templateDate. MONTHLY keeps the template's day of month, YEARLY its
// month and day; both clamp to the last valid day (a day-31 template lands
// on the 30th in a 30-day month, Feb 29 lands on Feb 28 in common years).
// An unset frequency is treated as MONTHLY.
func RecurrencePeriod(templateDate Date, freq Frequency, today Date) Period {
	year := today.Year()
	if freq.OrDefault() == Yearly {
		month := templateDate.Month()
		day := min(templateDate.Day(), DaysIn(year, month))
		start, end := YearRange(year)
		return Period{Target: NewDate(year, month, day), Start: start, End: end}
	}
	month := today.Month()
	day := min(templateDate.Day(), DaysIn(year, month))
	start, end := MonthRange(year, month)
	return Period{Target: NewDate(year, month, day), Start: start, End: end}
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start.Time) && !d.After(p.End.Time)
}

// SkippedRecurrence describes a child that was not generated because the
// template's account could not cover it.
type SkippedRecurrence struct {
	OwnerID      string
	OwnerName    string
	OwnerEmail   string
	TemplateID   string
	TemplateName string
	Amount       decimal.Decimal
	Date         Date
}
