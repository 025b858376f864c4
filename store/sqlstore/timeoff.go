package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/warp/clinic-ledger/generic"
	"github.com/warp/clinic-ledger/timeoff"
)

// =============================================================================
// TIME-OFF TRANSACTIONS (append-only)
// =============================================================================

// AppendTimeOff inserts a transaction. A repeated idempotency key returns
// generic.ErrDuplicateIdempotencyKey.
func (s *Store) AppendTimeOff(ctx context.Context, tx timeoff.Transaction) error {
	_, err := s.exec(ctx, `
		INSERT INTO timeoff_transactions (
			id, employee_id, effective_at, delta, kind, reason, reference, idempotency_key, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, tx.ID, tx.EmployeeID, formatDate(tx.EffectiveAt), tx.Delta.String(), string(tx.Kind),
		tx.Reason, tx.Reference, nullString(tx.IdempotencyKey), formatTimestamp(tx.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", generic.ErrDuplicateIdempotencyKey, tx.IdempotencyKey)
	}
	if err != nil {
		return fmt.Errorf("append time-off transaction: %w", err)
	}
	return nil
}

// ListTimeOff returns the employee's transactions in effective order.
func (s *Store) ListTimeOff(ctx context.Context, employeeID string) ([]timeoff.Transaction, error) {
	rows, err := s.query(ctx, `
		SELECT id, employee_id, effective_at, delta, kind, reason, reference, idempotency_key, created_at
		FROM timeoff_transactions
		WHERE employee_id = ?
		ORDER BY effective_at, created_at, id
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list time-off transactions: %w", err)
	}
	defer rows.Close()

	var out []timeoff.Transaction
	for rows.Next() {
		var tx timeoff.Transaction
		var effectiveAt, delta, kind, createdAt string
		var key sql.NullString
		if err := rows.Scan(&tx.ID, &tx.EmployeeID, &effectiveAt, &delta, &kind, &tx.Reason,
			&tx.Reference, &key, &createdAt); err != nil {
			return nil, err
		}
		tx.EffectiveAt = parseDate(effectiveAt)
		tx.Delta = generic.MustParseDecimal(delta)
		tx.Kind = timeoff.TxKind(kind)
		tx.IdempotencyKey = key.String
		tx.CreatedAt = parseTimestamp(createdAt)
		out = append(out, tx)
	}
	return out, rows.Err()
}
