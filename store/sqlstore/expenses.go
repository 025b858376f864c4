package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/clinic-ledger/ledger"
)

// =============================================================================
// EXPENSES
// =============================================================================

const expenseColumns = `id, vendor, description, amount, expense_date, due_date, account_id, department,
	paid, paid_date, entry_id, payment_entry_id, created_at`

func (s *Store) InsertExpense(ctx context.Context, e ledger.ExpenseRecord) error {
	_, err := s.exec(ctx, `
		INSERT INTO expenses (`+expenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Vendor, e.Description, e.Amount.String(), formatDate(e.Date), nullDate(e.DueDate),
		e.AccountID, e.Department, e.Paid, nullDate(e.PaidDate), nullString(e.EntryID),
		nullString(e.PaymentEntryID), formatTimestamp(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (s *Store) GetExpense(ctx context.Context, id string) (ledger.ExpenseRecord, error) {
	e, err := scanExpense(s.queryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ExpenseRecord{}, fmt.Errorf("%w: %s", ledger.ErrExpenseNotFound, id)
	}
	return e, err
}

// ListUnpaidExpenses returns unpaid expenses by vendor then date.
func (s *Store) ListUnpaidExpenses(ctx context.Context) ([]ledger.ExpenseRecord, error) {
	rows, err := s.query(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE paid = ?
		ORDER BY vendor, expense_date, created_at
	`, false)
	if err != nil {
		return nil, fmt.Errorf("list unpaid expenses: %w", err)
	}
	defer rows.Close()

	var out []ledger.ExpenseRecord
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkExpensePaid flips an unpaid expense to paid and reports whether this
// call made the change.
func (s *Store) MarkExpensePaid(ctx context.Context, id string, paidDate time.Time, entryID string) (bool, error) {
	res, err := s.exec(ctx, `
		UPDATE expenses
		SET paid = ?, paid_date = ?, payment_entry_id = ?
		WHERE id = ? AND paid = ?
	`, true, formatDate(paidDate), entryID, id, false)
	if err != nil {
		return false, fmt.Errorf("mark expense paid: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func scanExpense(row scanner) (ledger.ExpenseRecord, error) {
	var e ledger.ExpenseRecord
	var amount, date, createdAt string
	var dueDate, paidDate, entryID, paymentEntryID sql.NullString
	if err := row.Scan(&e.ID, &e.Vendor, &e.Description, &amount, &date, &dueDate, &e.AccountID,
		&e.Department, &e.Paid, &paidDate, &entryID, &paymentEntryID, &createdAt); err != nil {
		return ledger.ExpenseRecord{}, err
	}
	var err error
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return ledger.ExpenseRecord{}, fmt.Errorf("expense %s amount: %w", e.ID, err)
	}
	e.Date = parseDate(date)
	e.DueDate = parseNullDate(dueDate)
	e.PaidDate = parseNullDate(paidDate)
	e.EntryID = entryID.String
	e.PaymentEntryID = paymentEntryID.String
	e.CreatedAt = parseTimestamp(createdAt)
	return e, nil
}
