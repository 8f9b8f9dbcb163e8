package core

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every ledger operation. Callers match with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrNotOwned             = errors.New("access denied: resource belongs to another owner")
	ErrCategoryTypeMismatch = errors.New("transaction type does not match category type")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInvalidArgument      = errors.New("invalid argument")

	ErrGoalCompleted = fmt.Errorf("%w: goal already completed", ErrInvalidArgument)
)

// Error kinds as reported in logs and to outer layers.
const (
	KindNotFound             = "not_found"
	KindNotOwned             = "not_owned"
	KindCategoryTypeMismatch = "category_type_mismatch"
	KindInsufficientBalance  = "insufficient_balance"
	KindInvalidArgument      = "invalid_argument"
	KindInternal             = "internal"
)

// ErrorKind classifies err into one of the Kind constants.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrNotOwned):
		return KindNotOwned
	case errors.Is(err, ErrCategoryTypeMismatch):
		return KindCategoryTypeMismatch
	case errors.Is(err, ErrInsufficientBalance):
		return KindInsufficientBalance
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	default:
		return KindInternal
	}
}

// NotFound builds an ErrNotFound naming the missing resource.
func NotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
}

// NotOwned builds an ErrNotOwned naming the resource.
func NotOwned(kind, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotOwned, kind, id)
}
