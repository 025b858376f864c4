// Package timeoff keeps the append-only ledger of banked rest days.
// Employees who work on an off day or a holiday and choose to bank it
// instead of being paid get the days credited here when payroll closes.
package timeoff

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/clinic-ledger/generic"
)

// TxKind classifies a time-off transaction.
type TxKind string

const (
	TxCredit      TxKind = "credit"      // rest days banked at payroll close
	TxConsumption TxKind = "consumption" // days taken off
	TxAdjustment  TxKind = "adjustment"  // manual correction, either sign
)

// Transaction is one immutable change to an employee's balance.
type Transaction struct {
	ID             string
	EmployeeID     string
	EffectiveAt    time.Time
	Delta          decimal.Decimal
	Kind           TxKind
	Reason         string
	Reference      string
	IdempotencyKey string
	CreatedAt      time.Time
}

// Store persists transactions and the employee's stored balance. Both
// writes of one change happen in the same transaction.
type Store interface {
	generic.TxRunner

	AppendTimeOff(ctx context.Context, tx Transaction) error
	ListTimeOff(ctx context.Context, employeeID string) ([]Transaction, error)
	AddTimeOffBalance(ctx context.Context, employeeID string, delta decimal.Decimal) error
	TimeOffBalance(ctx context.Context, employeeID string) (decimal.Decimal, error)
}

var (
	ErrInsufficientBalance = generic.Conflict("timeoff: insufficient balance")
	ErrNonPositiveDays     = generic.Validation("timeoff: days must be positive")
)

// InsufficientBalanceError details a consumption that exceeds the balance.
type InsufficientBalanceError struct {
	EmployeeID string
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("timeoff: insufficient balance for %s: available %s, requested %s",
		e.EmployeeID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// Summary compares the stored balance with the replayed ledger.
type Summary struct {
	EmployeeID string
	Stored     decimal.Decimal
	Replayed   decimal.Decimal
	InSync     bool
	Credited   decimal.Decimal
	Consumed   decimal.Decimal
	Adjusted   decimal.Decimal
}
