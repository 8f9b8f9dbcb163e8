package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

const (
	Monthly Frequency = "MONTHLY"
	Yearly  Frequency = "YEARLY"
)

const (
	Checking   AccountKind = "CHECKING"
	Investment AccountKind = "INVESTMENT"
	Cash       AccountKind = "CASH"
)

// Goal lifecycle. DELETED is the soft-delete marker; lookups treat it as absent.
const (
	GoalActive    GoalStatus = "ACTIVE"
	GoalCompleted GoalStatus = "COMPLETED"
	GoalCancelled GoalStatus = "CANCELLED"
	GoalDeleted   GoalStatus = "DELETED"
)

const (
	maxAccountName     = 100
	maxCategoryName    = 100
	maxTransactionName = 150
	maxGoalName        = 120
	maxColor           = 30
)

type (
	TransactionType string
	Frequency       string
	AccountKind     string
	GoalStatus      string

	// Date is a calendar day. The time part is always midnight UTC.
	Date struct {
		time.Time
	}

	User struct {
		ID        string
		Name      string
		Email     string
		CreatedAt time.Time
	}

	Account struct {
		ID             string
		OwnerID        string
		Name           string
		Kind           AccountKind
		InitialBalance decimal.Decimal
		CurrentBalance decimal.Decimal
		Color          string
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}

	Category struct {
		ID        string
		OwnerID   string
		Name      string
		Icon      string
		Type      TransactionType
		CreatedAt time.Time
	}

	Transaction struct {
		ID          string
		OwnerID     string
		AccountID   string
		CategoryID  string
		Name        string
		Amount      decimal.Decimal
		Date        Date
		Type        TransactionType
		IsRecurring bool
		Frequency   Frequency // set only on templates
		ParentID    string    // set only on generated children
		GoalID      string    // set only on goal transfers
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	SavingsGoal struct {
		ID            string
		OwnerID       string
		Name          string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		Status        GoalStatus
		StartDate     Date
		EndDate       Date // zero when open-ended
		Color         string
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrEmptyName        = fmt.Errorf("%w: empty name", ErrInvalidArgument)
	ErrInvalidType      = fmt.Errorf("%w: transaction type must be INCOME or EXPENSE", ErrInvalidArgument)
	ErrInvalidFrequency = fmt.Errorf("%w: frequency must be MONTHLY or YEARLY", ErrInvalidArgument)
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (f Frequency) Valid() bool {
	return f == Monthly || f == Yearly
}

// OrDefault resolves an unset frequency to MONTHLY.
func (f Frequency) OrDefault() Frequency {
	if f == "" {
		return Monthly
	}
	return f
}

func (k AccountKind) Valid() bool {
	switch k {
	case Checking, Investment, Cash:
		return true
	}
	return false
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Time.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String formats the date as YYYY-MM-DD, the storage representation.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string. The empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q: %v", ErrInvalidArgument, s, err)
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is zero (for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (a Account) Owner() string     { return a.OwnerID }
func (c Category) Owner() string    { return c.OwnerID }
func (t Transaction) Owner() string { return t.OwnerID }
func (g SavingsGoal) Owner() string { return g.OwnerID }

func (a Account) Validate() error {
	if err := validateName(a.Name, maxAccountName); err != nil {
		return err
	}
	if !a.Kind.Valid() {
		return fmt.Errorf("%w: account kind must be CHECKING, INVESTMENT or CASH", ErrInvalidArgument)
	}
	if a.InitialBalance.IsNegative() {
		return fmt.Errorf("%w: initial balance cannot be negative", ErrInvalidArgument)
	}
	if !a.InitialBalance.Equal(a.InitialBalance.Round(2)) {
		return fmt.Errorf("%w: initial balance has more than two decimal places", ErrInvalidArgument)
	}
	if a.InitialBalance.GreaterThan(MaxAmount) || a.CurrentBalance.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: balance", ErrAmountOutOfRange)
	}
	if len(a.Color) > maxColor {
		return fmt.Errorf("%w: color too long (max %d characters)", ErrInvalidArgument, maxColor)
	}
	return nil
}

func (c Category) Validate() error {
	if err := validateName(c.Name, maxCategoryName); err != nil {
		return err
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// Validate checks the fields a caller supplies; references are resolved by the lifecycle manager.
func (t Transaction) Validate() error {
	if err := validateName(t.Name, maxTransactionName); err != nil {
		return err
	}
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.IsRecurring && !t.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if !t.IsRecurring && t.Frequency != "" {
		return fmt.Errorf("%w: frequency set on a non-recurring transaction", ErrInvalidArgument)
	}
	if t.IsRecurring && t.ParentID != "" {
		return fmt.Errorf("%w: generated transactions cannot be recurring", ErrInvalidArgument)
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if err := validateName(g.Name, maxGoalName); err != nil {
		return err
	}
	if err := ValidateAmount(g.TargetAmount); err != nil {
		return fmt.Errorf("target: %w", err)
	}
	if g.CurrentAmount.IsNegative() {
		return fmt.Errorf("%w: current amount cannot be negative", ErrInvalidArgument)
	}
	if !g.EndDate.IsEmpty() && !g.StartDate.IsEmpty() && g.EndDate.Before(g.StartDate.Time) {
		return fmt.Errorf("%w: end date must not be before start date", ErrInvalidArgument)
	}
	if len(g.Color) > maxColor {
		return fmt.Errorf("%w: color too long (max %d characters)", ErrInvalidArgument, maxColor)
	}
	return nil
}

func validateName(name string, max int) error {
	if len(strings.TrimSpace(name)) == 0 {
		return ErrEmptyName
	}
	if len(name) > max {
		return fmt.Errorf("%w: name too long (max %d characters)", ErrInvalidArgument, max)
	}
	return nil
}
