/*
ledger.go - Append-only ledger of banked rest days

PURPOSE:
  Records every change to an employee's time-off balance as an immutable
  transaction and keeps the employee's stored balance in step.

INVARIANT:
  Stored balance == sum of transaction deltas.

  Both writes happen in one store transaction. Balance() replays the
  transactions and reports whether the stored value still agrees.

IDEMPOTENCY:
  Payroll credits use the key "payroll:<period>:<employee>" so that a
  retried close cannot bank the same rest days twice. A duplicate key
  returns generic.ErrDuplicateIdempotencyKey.

SEE ALSO:
  - payroll/posting.go: Credits rest days at payroll close
  - store/sqlstore/timeoff.go: Persistence
*/
package timeoff

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/clinic-ledger/generic"
)

// Ledger is the time-off ledger.
type Ledger struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewLedger returns a ledger backed by store.
func NewLedger(store Store, log zerolog.Logger) *Ledger {
	return &Ledger{
		store: store,
		log:   log.With().Str("component", "timeoff").Logger(),
		now:   time.Now,
	}
}

// Credit banks days for an employee.
func (l *Ledger) Credit(ctx context.Context, employeeID string, days decimal.Decimal, at time.Time, reason, reference, idempotencyKey string) (Transaction, error) {
	if !days.IsPositive() {
		return Transaction{}, ErrNonPositiveDays
	}
	return l.append(ctx, Transaction{
		EmployeeID:     employeeID,
		EffectiveAt:    at,
		Delta:          days,
		Kind:           TxCredit,
		Reason:         reason,
		Reference:      reference,
		IdempotencyKey: idempotencyKey,
	})
}

// Consume takes days off the balance. The balance cannot go negative.
func (l *Ledger) Consume(ctx context.Context, employeeID string, days decimal.Decimal, at time.Time, reason string) (Transaction, error) {
	if !days.IsPositive() {
		return Transaction{}, ErrNonPositiveDays
	}

	var out Transaction
	err := l.store.WithTx(ctx, func(ctx context.Context) error {
		available, err := l.store.TimeOffBalance(ctx, employeeID)
		if err != nil {
			return err
		}
		if available.LessThan(days) {
			return &InsufficientBalanceError{EmployeeID: employeeID, Available: available, Requested: days}
		}
		out, err = l.append(ctx, Transaction{
			EmployeeID:  employeeID,
			EffectiveAt: at,
			Delta:       days.Neg(),
			Kind:        TxConsumption,
			Reason:      reason,
		})
		return err
	})
	return out, err
}

// Adjust applies a manual correction of either sign. A reason is required.
func (l *Ledger) Adjust(ctx context.Context, employeeID string, delta decimal.Decimal, at time.Time, reason string) (Transaction, error) {
	if delta.IsZero() {
		return Transaction{}, generic.Field("delta", "must not be zero")
	}
	if strings.TrimSpace(reason) == "" {
		return Transaction{}, generic.Field("reason", "required")
	}
	return l.append(ctx, Transaction{
		EmployeeID:  employeeID,
		EffectiveAt: at,
		Delta:       delta,
		Kind:        TxAdjustment,
		Reason:      reason,
	})
}

// History returns the employee's transactions in effective order.
func (l *Ledger) History(ctx context.Context, employeeID string) ([]Transaction, error) {
	return l.store.ListTimeOff(ctx, employeeID)
}

// Balance replays the ledger and compares it with the stored balance.
func (l *Ledger) Balance(ctx context.Context, employeeID string) (Summary, error) {
	var txs []Transaction
	var stored decimal.Decimal
	err := l.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if stored, err = l.store.TimeOffBalance(ctx, employeeID); err != nil {
			return err
		}
		txs, err = l.store.ListTimeOff(ctx, employeeID)
		return err
	})
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		EmployeeID: employeeID,
		Stored:     stored,
		Replayed:   decimal.Zero,
		Credited:   decimal.Zero,
		Consumed:   decimal.Zero,
		Adjusted:   decimal.Zero,
	}
	for _, tx := range txs {
		s.Replayed = s.Replayed.Add(tx.Delta)
		switch tx.Kind {
		case TxCredit:
			s.Credited = s.Credited.Add(tx.Delta)
		case TxConsumption:
			s.Consumed = s.Consumed.Add(tx.Delta.Neg())
		case TxAdjustment:
			s.Adjusted = s.Adjusted.Add(tx.Delta)
		}
	}
	s.InSync = s.Stored.Equal(s.Replayed)
	if !s.InSync {
		l.log.Warn().
			Str("employee_id", employeeID).
			Str("stored", stored.String()).
			Str("replayed", s.Replayed.String()).
			Msg("time-off balance out of sync with ledger")
	}
	return s, nil
}

func (l *Ledger) append(ctx context.Context, tx Transaction) (Transaction, error) {
	tx.ID = uuid.NewString()
	tx.CreatedAt = l.now().UTC()
	if tx.EffectiveAt.IsZero() {
		tx.EffectiveAt = tx.CreatedAt
	}
	tx.EffectiveAt = generic.TruncateDay(tx.EffectiveAt)

	err := l.store.WithTx(ctx, func(ctx context.Context) error {
		if err := l.store.AppendTimeOff(ctx, tx); err != nil {
			return err
		}
		return l.store.AddTimeOffBalance(ctx, tx.EmployeeID, tx.Delta)
	})
	if err != nil {
		return Transaction{}, fmt.Errorf("timeoff %s for %s: %w", tx.Kind, tx.EmployeeID, err)
	}

	l.log.Info().
		Str("employee_id", tx.EmployeeID).
		Str("kind", string(tx.Kind)).
		Str("delta", tx.Delta.String()).
		Str("reference", tx.Reference).
		Msg("time-off transaction recorded")
	return tx, nil
}
