package ledger

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/sobres/internal/model"
)

var (
	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is wrapped by every *NotFoundError.
	ErrNotFound = errors.New("transaction not found")
	// ErrOverspendDeclined is returned when the caller did not confirm an
	// expense larger than the funds in its envelope.
	ErrOverspendDeclined = errors.New("overspend not confirmed")
)

// ValidationError reports malformed input. No state was changed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports an unknown transaction id. No state was changed.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("transaction %d not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// OverspendWarning describes an expense that exceeds its envelope.
// It is not an error: the expense is recorded once the caller confirms.
type OverspendWarning struct {
	Category  model.Category
	Available model.Money
	Amount    model.Money
}

// Shortfall is how far the envelope would go below zero.
func (w OverspendWarning) Shortfall() model.Money {
	if w.Available < 0 {
		return w.Amount
	}
	return w.Amount - w.Available
}

func (w OverspendWarning) String() string {
	return fmt.Sprintf("%s has %s available, expense is %s", w.Category.Name, w.Available, w.Amount)
}

// ConfirmFunc is asked whether to proceed with an overspending expense.
// A nil ConfirmFunc always proceeds.
type ConfirmFunc func(OverspendWarning) bool

// Confirm and Decline are fixed answers for non-interactive callers.
var (
	Confirm ConfirmFunc = func(OverspendWarning) bool { return true }
	Decline ConfirmFunc = func(OverspendWarning) bool { return false }
)

func (f ConfirmFunc) allow(w OverspendWarning) bool {
	if f == nil {
		return true
	}
	return f(w)
}
