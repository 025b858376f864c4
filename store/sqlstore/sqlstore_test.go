package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/clinic-ledger/generic"
	"github.com/warp/clinic-ledger/ledger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func insertAccount(t *testing.T, s *Store, id, code string, typ ledger.AccountType) ledger.Account {
	t.Helper()
	a := ledger.Account{ID: id, Code: code, Name: code, Type: typ, CreatedAt: time.Now().UTC()}
	require.NoError(t, s.InsertAccount(context.Background(), a))
	return a
}

func insertEntry(t *testing.T, s *Store, id, ref string, date time.Time, lines ...ledger.Line) {
	t.Helper()
	for i := range lines {
		lines[i].ID = id + "-" + lines[i].AccountID
		lines[i].LineNo = i + 1
	}
	ctx := context.Background()
	seq, err := s.NextEntrySeq(ctx)
	require.NoError(t, err)
	require.NoError(t, s.InsertEntry(ctx, ledger.Entry{
		ID: id, Seq: seq, Date: date, Description: ref, Reference: ref,
		Source: ledger.SourceManual, CreatedAt: time.Now().UTC(), Lines: lines,
	}))
}

// =============================================================================
// PLACEHOLDERS
// =============================================================================

func TestRebind(t *testing.T) {
	q := `SELECT id FROM accounts WHERE code = ? AND type = ?`

	sqlite := &Store{driver: DriverSQLite}
	assert.Equal(t, q, sqlite.rebind(q))

	pg := &Store{driver: DriverPostgres}
	assert.Equal(t, `SELECT id FROM accounts WHERE code = $1 AND type = $2`, pg.rebind(q))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "x")
	assert.Error(t, err)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.InsertAccount(ctx, ledger.Account{ID: "a1", Code: "101", Name: "Cash", Type: ledger.Asset}))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	_, err = s.GetAccountByCode(ctx, "101")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestWithTx_NestedJoinsOuter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.WithTx(ctx, func(ctx context.Context) error {
			return s.InsertAccount(ctx, ledger.Account{ID: "a1", Code: "101", Name: "Cash", Type: ledger.Asset})
		}))
		return errors.New("outer fails")
	})

	require.Error(t, err)
	_, err = s.GetAccount(ctx, "a1")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound, "inner write must roll back with the outer transaction")
}

// =============================================================================
// ACCOUNTS AND ENTRIES
// =============================================================================

func TestInsertAccount_DuplicateCode(t *testing.T) {
	s := newTestStore(t)
	insertAccount(t, s, "a1", "101", ledger.Asset)

	err := s.InsertAccount(context.Background(), ledger.Account{ID: "a2", Code: "101", Name: "Again", Type: ledger.Asset})

	assert.ErrorIs(t, err, ledger.ErrDuplicateCode)
	assert.True(t, generic.IsConflict(err))
}

func TestInsertEntry_RoundTripsAmounts(t *testing.T) {
	s := newTestStore(t)
	insertAccount(t, s, "cash", "101", ledger.Asset)
	insertAccount(t, s, "rev", "401", ledger.Revenue)
	date := generic.NewDate(2025, 3, 10)

	insertEntry(t, s, "e1", "JV-000001", date,
		ledger.Line{AccountID: "cash", Debit: decimal.RequireFromString("250.50"), Credit: decimal.Zero},
		ledger.Line{AccountID: "rev", Debit: decimal.Zero, Credit: decimal.RequireFromString("250.50"), Department: "lab"},
	)

	e, err := s.GetEntry(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, date, e.Date)
	require.Len(t, e.Lines, 2)
	assert.Equal(t, "250.50", e.Lines[0].Debit.StringFixed(2))
	assert.Equal(t, "lab", e.Lines[1].Department)

	has, err := s.AccountHasLines(context.Background(), "rev")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestInsertEntry_DuplicateReference(t *testing.T) {
	s := newTestStore(t)
	insertAccount(t, s, "cash", "101", ledger.Asset)
	insertEntry(t, s, "e1", "JV-000001", generic.NewDate(2025, 3, 1))

	seq, err := s.NextEntrySeq(context.Background())
	require.NoError(t, err)
	err = s.InsertEntry(context.Background(), ledger.Entry{
		ID: "e2", Seq: seq, Date: generic.NewDate(2025, 3, 2), Reference: "JV-000001", Source: ledger.SourceManual,
	})

	assert.ErrorIs(t, err, ledger.ErrDuplicateRef)
}

// =============================================================================
// PERIODS
// =============================================================================

func TestCloseAccountingPeriod_OnlyOnce(t *testing.T) {
	// GIVEN: An open month with a closing entry
	s := newTestStore(t)
	ctx := context.Background()
	m := generic.Month{Year: 2025, Month: time.March}
	insertEntry(t, s, "cls", "CLS-2025-03", m.End())

	p, err := s.GetAccountingPeriod(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, ledger.PeriodOpen, p.Status)

	// WHEN: Closing twice
	first, err := s.CloseAccountingPeriod(ctx, m, "cls", time.Now())
	require.NoError(t, err)
	second, err := s.CloseAccountingPeriod(ctx, m, "cls", time.Now())
	require.NoError(t, err)

	// THEN: Only the first flips the row
	assert.True(t, first)
	assert.False(t, second)

	p, err = s.GetAccountingPeriod(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, ledger.PeriodClosed, p.Status)
	assert.Equal(t, "cls", p.ClosingEntryID)
	assert.Equal(t, 1, p.Version)
	require.NotNil(t, p.ClosedAt)

	periods, err := s.ListAccountingPeriods(ctx)
	require.NoError(t, err)
	assert.Len(t, periods, 1)
}

func TestMarkExpensePaid_OnlyOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertAccount(t, s, "util", "510", ledger.Expense)
	insertEntry(t, s, "pay", "PMT-000001", generic.NewDate(2025, 4, 1))
	require.NoError(t, s.InsertExpense(ctx, ledger.ExpenseRecord{
		ID: "x1", Vendor: "Power Co", Amount: decimal.NewFromInt(800),
		Date: generic.NewDate(2025, 3, 1), AccountID: "util", CreatedAt: time.Now().UTC(),
	}))

	unpaid, err := s.ListUnpaidExpenses(ctx)
	require.NoError(t, err)
	assert.Len(t, unpaid, 1)

	ok, err := s.MarkExpensePaid(ctx, "x1", generic.NewDate(2025, 4, 1), "pay")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.MarkExpensePaid(ctx, "x1", generic.NewDate(2025, 4, 2), "pay")
	require.NoError(t, err)
	assert.False(t, ok)

	e, err := s.GetExpense(ctx, "x1")
	require.NoError(t, err)
	assert.True(t, e.Paid)
	require.NotNil(t, e.PaidDate)
	assert.Equal(t, generic.NewDate(2025, 4, 1), *e.PaidDate)

	unpaid, err = s.ListUnpaidExpenses(ctx)
	require.NoError(t, err)
	assert.Empty(t, unpaid)
}
