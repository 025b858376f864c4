package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/clinic-ledger/generic"
)

var (
	ErrUnbalanced            = generic.Validation("ledger: journal entry debits and credits do not balance")
	ErrTooFewLines           = generic.Validation("ledger: journal entry requires at least two lines")
	ErrEmptyLine             = generic.Validation("ledger: journal line has neither debit nor credit")
	ErrNegativeAmount        = generic.Validation("ledger: amounts must not be negative")
	ErrInvalidAccount        = generic.Validation("ledger: invalid account")
	ErrReservedReference     = generic.Validation("ledger: custom references are reserved for closing and payroll entries")
	ErrDuplicateCode         = generic.Conflict("ledger: account code already exists")
	ErrDuplicateRef          = generic.Conflict("ledger: journal reference already exists")
	ErrAccountInUse          = generic.Conflict("ledger: account is referenced by journal lines or child accounts")
	ErrPeriodClosed          = generic.Conflict("ledger: accounting period is closed")
	ErrNoActivity            = generic.Conflict("ledger: no revenue or expense activity to close")
	ErrAlreadyPaid           = generic.Conflict("ledger: expense is already paid")
	ErrAccountNotFound       = generic.NotFound("ledger: account not found")
	ErrEntryNotFound         = generic.NotFound("ledger: journal entry not found")
	ErrExpenseNotFound       = generic.NotFound("ledger: expense not found")
	ErrControlAccountMissing = generic.Configuration("ledger: control account not configured")
)

// UnbalancedError carries the rounded totals of a rejected entry.
type UnbalancedError struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("ledger: journal entry does not balance: debit %s, credit %s, difference %s",
		e.Debit.StringFixed(2), e.Credit.StringFixed(2), e.Debit.Sub(e.Credit).StringFixed(2))
}

func (e *UnbalancedError) Unwrap() error {
	return ErrUnbalanced
}
