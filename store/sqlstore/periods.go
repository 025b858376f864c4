package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/warp/clinic-ledger/generic"
	"github.com/warp/clinic-ledger/ledger"
)

// =============================================================================
// ACCOUNTING PERIODS
// =============================================================================
//
// A month has no row until it is closed. Closing inserts the row if needed
// and then flips it with a conditional update, so of two concurrent closes
// exactly one sees a row affected.

// GetAccountingPeriod returns the month's state. A month without a row is
// open.
func (s *Store) GetAccountingPeriod(ctx context.Context, m generic.Month) (ledger.AccountingPeriod, error) {
	row := s.queryRow(ctx, `
		SELECT year, month, status, closing_entry_id, version, closed_at
		FROM accounting_periods
		WHERE year = ? AND month = ?
	`, m.Year, int(m.Month))
	p, err := scanAccountingPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.AccountingPeriod{Year: m.Year, Month: m.Month, Status: ledger.PeriodOpen}, nil
	}
	return p, err
}

// ListAccountingPeriods returns every month with a row, oldest first.
func (s *Store) ListAccountingPeriods(ctx context.Context) ([]ledger.AccountingPeriod, error) {
	rows, err := s.query(ctx, `
		SELECT year, month, status, closing_entry_id, version, closed_at
		FROM accounting_periods
		ORDER BY year, month
	`)
	if err != nil {
		return nil, fmt.Errorf("list accounting periods: %w", err)
	}
	defer rows.Close()

	var periods []ledger.AccountingPeriod
	for rows.Next() {
		p, err := scanAccountingPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (s *Store) CloseAccountingPeriod(ctx context.Context, m generic.Month, entryID string, at time.Time) (bool, error) {
	if _, err := s.exec(ctx, `
		INSERT INTO accounting_periods (year, month, status, version)
		VALUES (?, ?, 'open', 0)
		ON CONFLICT (year, month) DO NOTHING
	`, m.Year, int(m.Month)); err != nil {
		return false, fmt.Errorf("ensure accounting period %s: %w", m.Key(), err)
	}

	res, err := s.exec(ctx, `
		UPDATE accounting_periods
		SET status = 'closed', closing_entry_id = ?, closed_at = ?, version = version + 1
		WHERE year = ? AND month = ? AND status = 'open'
	`, entryID, formatTimestamp(at), m.Year, int(m.Month))
	if err != nil {
		return false, fmt.Errorf("close accounting period %s: %w", m.Key(), err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func scanAccountingPeriod(row scanner) (ledger.AccountingPeriod, error) {
	var p ledger.AccountingPeriod
	var month int
	var status string
	var entryID, closedAt sql.NullString
	if err := row.Scan(&p.Year, &month, &status, &entryID, &p.Version, &closedAt); err != nil {
		return ledger.AccountingPeriod{}, err
	}
	p.Month = time.Month(month)
	p.Status = ledger.PeriodStatus(status)
	p.ClosingEntryID = entryID.String
	p.ClosedAt = parseNullTimestamp(closedAt)
	return p, nil
}
