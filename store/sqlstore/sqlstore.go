/*
Package sqlstore provides the SQL implementation of the ledger, payroll and
time-off storage interfaces.

PURPOSE:
  One schema and one set of queries serve both SQLite (mattn/go-sqlite3,
  the default and the test backend) and PostgreSQL (jackc/pgx/v5 through
  database/sql). Queries are written with ? placeholders and rebound to
  $n for PostgreSQL.

INTERFACES IMPLEMENTED:
  ledger.Store:  Accounts, journal, accounting periods, expenses
  payroll.Store: Employees, attendance, codes, periods, slips
  timeoff.Store: Time-off transactions and stored balances

TRANSACTIONS:
  WithTx stores the *sql.Tx in the context. Every method runs on the
  transaction found in its context, or on the pool when there is none,
  so services compose: payroll close -> journal post -> time-off credit
  all commit or roll back together.

APPEND-ONLY ENFORCEMENT:
  journal_lines and timeoff_transactions are never updated or deleted.
  journal_entries only ever changes description and revision columns.

STORAGE FORMATS:
  Amounts:    TEXT decimal strings, summed in Go with shopspring/decimal
  Dates:      TEXT YYYY-MM-DD (lexical order == date order)
  Timestamps: TEXT RFC3339

KEY TABLES:
  accounts:             Chart of accounts
  journal_entries:      Entry headers (unique seq, unique reference)
  journal_lines:        Debit/credit lines
  accounting_periods:   Month close state machine
  expenses:             Supplier expenses for aging
  departments:          Cost centers
  employees:            Payroll master data and time-off balance
  employee_attendance:  Monthly day counts
  payroll_codes:        Earning/deduction codes and their GL account
  payroll_periods:      Payroll month state machine
  salary_slips:         One per (period, employee)
  timeoff_transactions: Banked rest days

CONCURRENCY:
  SQLite runs on a single connection, so writers are serialized. With
  PostgreSQL, the conditional period updates and unique constraints stop
  double closes and duplicate references.

MIGRATION:
  Schema is created idempotently on Open().

SEE ALSO:
  - ledger/store.go, payroll/store.go, timeoff/types.go: Interfaces
*/
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
	"github.com/warp/clinic-ledger/ledger"
	"github.com/warp/clinic-ledger/payroll"
	"github.com/warp/clinic-ledger/timeoff"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Store implements all storage interfaces on database/sql.
type Store struct {
	db     *sql.DB
	driver string
}

var (
	_ ledger.Store  = (*Store)(nil)
	_ payroll.Store = (*Store)(nil)
	_ timeoff.Store = (*Store)(nil)
)

// New opens a SQLite store at dbPath. Use ":memory:" for an in-memory
// database.
func New(dbPath string) (*Store, error) {
	return Open(DriverSQLite, dbPath)
}

// Open opens a store for the given driver and DSN and creates the schema.
func Open(driver, dsn string) (*Store, error) {
	var db *sql.DB
	var err error

	switch driver {
	case DriverSQLite:
		db, err = sql.Open(DriverSQLite, dsn+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
		if err == nil {
			// One connection: keeps :memory: databases shared and serializes
			// writers.
			db.SetMaxOpenConns(1)
		}
	case DriverPostgres:
		db, err = sql.Open(DriverPostgres, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, driver: driver}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

type txKey struct{}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn in a transaction carried by the context. A nested call
// joins the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.conn(ctx).ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.conn(ctx).QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.conn(ctx).QueryRowContext(ctx, s.rebind(query), args...)
}

// rebind turns ? placeholders into $1..$n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// =============================================================================
// SCHEMA
// =============================================================================

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		parent_id TEXT REFERENCES accounts(id),
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_accounts_parent ON accounts(parent_id)`,

	`CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		seq BIGINT NOT NULL UNIQUE,
		entry_date TEXT NOT NULL,
		description TEXT NOT NULL,
		reference TEXT NOT NULL UNIQUE,
		source TEXT NOT NULL,
		revision_reason TEXT,
		revised_at TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_entries_date ON journal_entries(entry_date, seq)`,

	`CREATE TABLE IF NOT EXISTS journal_lines (
		id TEXT PRIMARY KEY,
		entry_id TEXT NOT NULL REFERENCES journal_entries(id),
		line_no INTEGER NOT NULL,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		debit TEXT NOT NULL,
		credit TEXT NOT NULL,
		department TEXT NOT NULL DEFAULT '',
		memo TEXT NOT NULL DEFAULT '',
		UNIQUE(entry_id, line_no)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_lines_account ON journal_lines(account_id)`,

	`CREATE TABLE IF NOT EXISTS accounting_periods (
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		closing_entry_id TEXT REFERENCES journal_entries(id),
		version INTEGER NOT NULL DEFAULT 0,
		closed_at TEXT,
		PRIMARY KEY (year, month)
	)`,

	`CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		vendor TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		expense_date TEXT NOT NULL,
		due_date TEXT,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		department TEXT NOT NULL DEFAULT '',
		paid BOOLEAN NOT NULL DEFAULT FALSE,
		paid_date TEXT,
		entry_id TEXT REFERENCES journal_entries(id),
		payment_entry_id TEXT REFERENCES journal_entries(id),
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_unpaid ON expenses(vendor) WHERE paid = FALSE`,

	`CREATE TABLE IF NOT EXISTS departments (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,

	`CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		department_id TEXT NOT NULL DEFAULT '',
		basic_salary TEXT NOT NULL,
		variable_salary TEXT NOT NULL DEFAULT '0',
		insurance_salary TEXT NOT NULL DEFAULT '0',
		time_off_balance TEXT NOT NULL DEFAULT '0',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		hire_date TEXT,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS employee_attendance (
		employee_id TEXT NOT NULL REFERENCES employees(id),
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		present_days INTEGER NOT NULL DEFAULT 0,
		off_days INTEGER NOT NULL DEFAULT 0,
		holiday_days INTEGER NOT NULL DEFAULT 0,
		absent_days INTEGER NOT NULL DEFAULT 0,
		unpaid_days INTEGER NOT NULL DEFAULT 0,
		worked_off_days INTEGER NOT NULL DEFAULT 0,
		worked_holiday_days INTEGER NOT NULL DEFAULT 0,
		action TEXT NOT NULL DEFAULT 'pay',
		PRIMARY KEY (employee_id, year, month)
	)`,

	`CREATE TABLE IF NOT EXISTS payroll_codes (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		gl_account_id TEXT REFERENCES accounts(id) ON DELETE SET NULL
	)`,

	`CREATE TABLE IF NOT EXISTS payroll_periods (
		id TEXT PRIMARY KEY,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		journal_entry_id TEXT REFERENCES journal_entries(id),
		version INTEGER NOT NULL DEFAULT 0,
		closed_at TEXT,
		created_at TEXT NOT NULL,
		UNIQUE(year, month)
	)`,

	`CREATE TABLE IF NOT EXISTS salary_slips (
		id TEXT PRIMARY KEY,
		period_id TEXT NOT NULL REFERENCES payroll_periods(id),
		employee_id TEXT NOT NULL REFERENCES employees(id),
		employee_name TEXT NOT NULL,
		department TEXT NOT NULL DEFAULT '',
		basic_salary TEXT NOT NULL,
		payable_days INTEGER NOT NULL,
		computed_basic TEXT NOT NULL,
		earnings_json TEXT NOT NULL,
		deductions_json TEXT NOT NULL,
		total_earnings TEXT NOT NULL,
		total_deductions TEXT NOT NULL,
		net_salary TEXT NOT NULL,
		company_insurance TEXT NOT NULL DEFAULT '0',
		action TEXT NOT NULL,
		rest_days_worked INTEGER NOT NULL DEFAULT 0,
		warnings_json TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(period_id, employee_id)
	)`,

	`CREATE TABLE IF NOT EXISTS timeoff_transactions (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		effective_at TEXT NOT NULL,
		delta TEXT NOT NULL,
		kind TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		reference TEXT NOT NULL DEFAULT '',
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_timeoff_employee ON timeoff_transactions(employee_id, effective_at)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

// ResetActivity deletes journal entries, periods, expenses, payroll and
// time-off data. The chart of accounts and payroll codes are kept, so
// resolved control accounts stay valid. Used by demo scenarios and tests.
func (s *Store) ResetActivity(ctx context.Context) error {
	tables := []string{
		"timeoff_transactions", "salary_slips", "payroll_periods",
		"employee_attendance", "employees", "departments", "expenses",
		"accounting_periods", "journal_lines", "journal_entries",
	}
	return s.WithTx(ctx, func(ctx context.Context) error {
		for _, t := range tables {
			if _, err := s.exec(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("reset %s: %w", t, err)
			}
		}
		return nil
	})
}

// =============================================================================
// HELPERS
// =============================================================================

const timestampLayout = time.RFC3339Nano

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) time.Time {
	t, _ := time.Parse(timestampLayout, s)
	return t
}

func parseNullTimestamp(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTimestamp(ns.String)
	return &t
}

func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func parseDate(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatDate(*t), Valid: true}
}

func parseNullDate(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseDate(ns.String)
	return &t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// isUniqueViolation recognizes unique and primary key violations from
// either driver.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
