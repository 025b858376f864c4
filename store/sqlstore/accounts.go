package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warp/clinic-ledger/ledger"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

const accountColumns = `id, code, name, type, parent_id, created_at`

func (s *Store) InsertAccount(ctx context.Context, a ledger.Account) error {
	_, err := s.exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.Code, a.Name, string(a.Type), nullString(a.ParentID), formatTimestamp(a.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ledger.ErrDuplicateCode, a.Code)
	}
	if err != nil {
		return fmt.Errorf("insert account %s: %w", a.Code, err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (ledger.Account, error) {
	row := s.queryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Account{}, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, id)
	}
	return a, err
}

func (s *Store) GetAccountByCode(ctx context.Context, code string) (ledger.Account, error) {
	row := s.queryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE code = ?`, code)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Account{}, fmt.Errorf("%w: code %s", ledger.ErrAccountNotFound, code)
	}
	return a, err
}

// ListAccounts returns all accounts ordered by code.
func (s *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	rows, err := s.query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	res, err := s.exec(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, id)
	}
	return nil
}

func (s *Store) AccountHasLines(ctx context.Context, id string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM journal_lines WHERE account_id = ? LIMIT 1`, id)
}

func (s *Store) AccountHasChildren(ctx context.Context, id string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM accounts WHERE parent_id = ? LIMIT 1`, id)
}

func (s *Store) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := s.queryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (ledger.Account, error) {
	var a ledger.Account
	var typ, createdAt string
	var parentID sql.NullString
	if err := row.Scan(&a.ID, &a.Code, &a.Name, &typ, &parentID, &createdAt); err != nil {
		return ledger.Account{}, err
	}
	a.Type = ledger.AccountType(typ)
	a.ParentID = parentID.String
	a.CreatedAt = parseTimestamp(createdAt)
	return a, nil
}
