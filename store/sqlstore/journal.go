package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/clinic-ledger/ledger"
)

// =============================================================================
// JOURNAL ENTRIES
// =============================================================================

const entryColumns = `id, seq, entry_date, description, reference, source, revision_reason, revised_at, created_at`

func (s *Store) NextEntrySeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.queryRow(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM journal_entries`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next entry seq: %w", err)
	}
	return seq, nil
}

// InsertEntry writes the header and all lines. Callers run it inside WithTx
// so a failing line leaves nothing behind.
func (s *Store) InsertEntry(ctx context.Context, e ledger.Entry) error {
	_, err := s.exec(ctx, `
		INSERT INTO journal_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, NULL, NULL, ?)
	`, e.ID, e.Seq, formatDate(e.Date), e.Description, e.Reference, string(e.Source), formatTimestamp(e.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ledger.ErrDuplicateRef, e.Reference)
	}
	if err != nil {
		return fmt.Errorf("insert entry %s: %w", e.Reference, err)
	}

	for _, l := range e.Lines {
		_, err := s.exec(ctx, `
			INSERT INTO journal_lines (id, entry_id, line_no, account_id, debit, credit, department, memo)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, l.ID, e.ID, l.LineNo, l.AccountID, l.Debit.String(), l.Credit.String(), l.Department, l.Memo)
		if err != nil {
			return fmt.Errorf("insert line %d of %s: %w", l.LineNo, e.Reference, err)
		}
	}
	return nil
}

func (s *Store) GetEntry(ctx context.Context, id string) (ledger.Entry, error) {
	e, err := scanEntry(s.queryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Entry{}, fmt.Errorf("%w: %s", ledger.ErrEntryNotFound, id)
	}
	if err != nil {
		return ledger.Entry{}, err
	}
	if e.Lines, err = s.entryLines(ctx, e.ID); err != nil {
		return ledger.Entry{}, err
	}
	return e, nil
}

// ListEntries returns entries in posting order, newest last.
func (s *Store) ListEntries(ctx context.Context, f ledger.EntryFilter) ([]ledger.Entry, error) {
	var where []string
	var args []any
	if !f.Range.Start.IsZero() {
		where = append(where, "entry_date >= ?")
		args = append(args, formatDate(f.Range.Start))
	}
	if !f.Range.End.IsZero() {
		where = append(where, "entry_date <= ?")
		args = append(args, formatDate(f.Range.End))
	}
	if f.Source != "" {
		where = append(where, "source = ?")
		args = append(args, string(f.Source))
	}

	q := `SELECT ` + entryColumns + ` FROM journal_entries`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY entry_date, seq"
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	var entries []ledger.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Lines are loaded after the cursor is closed: a single connection
	// cannot run a second query while rows are open.
	for i := range entries {
		if entries[i].Lines, err = s.entryLines(ctx, entries[i].ID); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// ReviseEntry changes the description and records why. Lines are never
// touched.
func (s *Store) ReviseEntry(ctx context.Context, id, description, reason string, at time.Time) error {
	res, err := s.exec(ctx, `
		UPDATE journal_entries
		SET description = ?, revision_reason = ?, revised_at = ?
		WHERE id = ?
	`, description, reason, formatTimestamp(at), id)
	if err != nil {
		return fmt.Errorf("revise entry: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ledger.ErrEntryNotFound, id)
	}
	return nil
}

func (s *Store) entryLines(ctx context.Context, entryID string) ([]ledger.Line, error) {
	rows, err := s.query(ctx, `
		SELECT id, entry_id, line_no, account_id, debit, credit, department, memo
		FROM journal_lines
		WHERE entry_id = ?
		ORDER BY line_no
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("entry lines: %w", err)
	}
	defer rows.Close()

	var lines []ledger.Line
	for rows.Next() {
		var l ledger.Line
		var debit, credit string
		if err := rows.Scan(&l.ID, &l.EntryID, &l.LineNo, &l.AccountID, &debit, &credit, &l.Department, &l.Memo); err != nil {
			return nil, err
		}
		if l.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, fmt.Errorf("line %s debit: %w", l.ID, err)
		}
		if l.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, fmt.Errorf("line %s credit: %w", l.ID, err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ListPostedLines joins lines with their entry and account. Results are in
// (entry date, entry seq, line number) order, which is the order running
// balances are computed in.
func (s *Store) ListPostedLines(ctx context.Context, f ledger.LineFilter) ([]ledger.PostedLine, error) {
	var where []string
	var args []any
	if f.AccountID != "" {
		where = append(where, "jl.account_id = ?")
		args = append(args, f.AccountID)
	}
	if !f.Range.Start.IsZero() {
		where = append(where, "je.entry_date >= ?")
		args = append(args, formatDate(f.Range.Start))
	}
	if !f.Range.End.IsZero() {
		where = append(where, "je.entry_date <= ?")
		args = append(args, formatDate(f.Range.End))
	}
	if !f.Before.IsZero() {
		where = append(where, "je.entry_date < ?")
		args = append(args, formatDate(f.Before))
	}
	if len(f.Types) > 0 {
		where = append(where, "a.type IN ("+placeholders(len(f.Types))+")")
		for _, t := range f.Types {
			args = append(args, string(t))
		}
	}
	if len(f.ExcludeSources) > 0 {
		where = append(where, "je.source NOT IN ("+placeholders(len(f.ExcludeSources))+")")
		for _, src := range f.ExcludeSources {
			args = append(args, string(src))
		}
	}

	q := `
		SELECT jl.id, jl.entry_id, jl.line_no, jl.account_id, jl.debit, jl.credit, jl.department, jl.memo,
		       je.entry_date, je.seq, je.reference, je.description, je.source,
		       a.code, a.name, a.type
		FROM journal_lines jl
		JOIN journal_entries je ON je.id = jl.entry_id
		JOIN accounts a ON a.id = jl.account_id`
	if len(where) > 0 {
		q += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	q += "\n\t\tORDER BY je.entry_date, je.seq, jl.line_no"

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list posted lines: %w", err)
	}
	defer rows.Close()

	var lines []ledger.PostedLine
	for rows.Next() {
		var pl ledger.PostedLine
		var debit, credit, entryDate, source, typ string
		if err := rows.Scan(
			&pl.ID, &pl.EntryID, &pl.LineNo, &pl.AccountID, &debit, &credit, &pl.Department, &pl.Memo,
			&entryDate, &pl.EntrySeq, &pl.EntryReference, &pl.EntryDesc, &source,
			&pl.AccountCode, &pl.AccountName, &typ,
		); err != nil {
			return nil, err
		}
		if pl.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, fmt.Errorf("line %s debit: %w", pl.ID, err)
		}
		if pl.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, fmt.Errorf("line %s credit: %w", pl.ID, err)
		}
		pl.EntryDate = parseDate(entryDate)
		pl.EntrySource = ledger.Source(source)
		pl.AccountType = ledger.AccountType(typ)
		lines = append(lines, pl)
	}
	return lines, rows.Err()
}

func scanEntry(row scanner) (ledger.Entry, error) {
	var e ledger.Entry
	var date, source, createdAt string
	var reason, revisedAt sql.NullString
	if err := row.Scan(&e.ID, &e.Seq, &date, &e.Description, &e.Reference, &source, &reason, &revisedAt, &createdAt); err != nil {
		return ledger.Entry{}, err
	}
	e.Date = parseDate(date)
	e.Source = ledger.Source(source)
	e.RevisionReason = reason.String
	e.RevisedAt = parseNullTimestamp(revisedAt)
	e.CreatedAt = parseTimestamp(createdAt)
	return e, nil
}
