package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/warp/clinic-ledger/generic"
	"github.com/warp/clinic-ledger/ledger"
	"github.com/warp/clinic-ledger/store/sqlstore"
)

// fixture is a seeded ledger on an in-memory database.
type fixture struct {
	ctx         context.Context
	store       *sqlstore.Store
	chart       *ledger.Chart
	journal     *ledger.Journal
	reports     *ledger.Reports
	closer      *ledger.Closer
	settlements *ledger.Settlements
	controls    ledger.ControlAccounts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlstore.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	log := zerolog.Nop()
	f := &fixture{
		ctx:     ctx,
		store:   store,
		chart:   ledger.NewChart(store, log),
		journal: ledger.NewJournal(store, log),
		reports: ledger.NewReports(store, log),
	}
	_, err = f.chart.Seed(ctx, ledger.DefaultChart)
	require.NoError(t, err)

	f.controls, err = ledger.ResolveControlAccounts(ctx, store, ledger.ControlCodes{
		Cash: "101", RetainedEarnings: "310", Payables: "201", PayrollSuspense: "290",
	})
	require.NoError(t, err)
	f.closer = ledger.NewCloser(store, f.journal, f.controls, log)
	f.settlements = ledger.NewSettlements(store, f.journal, f.controls, log)
	return f
}

func (f *fixture) account(t *testing.T, code string) ledger.Account {
	t.Helper()
	acct, err := f.chart.GetByCode(f.ctx, code)
	require.NoError(t, err)
	return acct
}

// post posts a two-line entry, debit first.
func (f *fixture) post(t *testing.T, date time.Time, debitCode, creditCode, amount, dept string) ledger.Entry {
	t.Helper()
	entry, err := f.journal.Post(f.ctx, ledger.PostingInput{
		Date:        date,
		Description: "test " + debitCode + "/" + creditCode,
		Lines: []ledger.PostingLine{
			{AccountCode: debitCode, Debit: dec(amount), Department: dept},
			{AccountCode: creditCode, Credit: dec(amount), Department: dept},
		},
	})
	require.NoError(t, err)
	return entry
}

func (f *fixture) trialRow(t *testing.T, code string) ledger.TrialBalanceRow {
	t.Helper()
	tb, err := f.reports.TrialBalance(f.ctx)
	require.NoError(t, err)
	for _, r := range tb.Rows {
		if r.Code == code {
			return r
		}
	}
	t.Fatalf("account %s not in trial balance", code)
	return ledger.TrialBalanceRow{}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d int) time.Time { return generic.NewDate(y, m, d) }

func month(t *testing.T, y int, m time.Month) generic.Month {
	t.Helper()
	mo, err := generic.MonthOf(y, m)
	require.NoError(t, err)
	return mo
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}
