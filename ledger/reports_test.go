package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/clinic-ledger/generic"
	"github.com/warp/clinic-ledger/ledger"
)

func TestAccountStatement_OpeningRunningAndClosing(t *testing.T) {
	// GIVEN: Cash activity in February and March
	f := newFixture(t)
	cash := f.account(t, "101")
	f.post(t, day(2025, 2, 10), "101", "301", "1000", "")
	f.post(t, day(2025, 3, 2), "101", "401", "200", "clinic")
	f.post(t, day(2025, 3, 9), "510", "101", "50", "clinic")

	// WHEN: Reading March
	st, err := f.reports.AccountStatement(f.ctx, cash.ID, month(t, 2025, 3).Range())
	require.NoError(t, err)

	// THEN: Opening carries February and each line continues the balance
	assertDecimal(t, "1000", st.Opening)
	require.Len(t, st.Lines, 2)
	assertDecimal(t, "1200", st.Lines[0].Balance)
	assertDecimal(t, "1150", st.Lines[1].Balance)
	assertDecimal(t, "1150", st.Closing)

	// AND: The next statement opens where this one closed
	april, err := f.reports.AccountStatement(f.ctx, cash.ID, month(t, 2025, 4).Range())
	require.NoError(t, err)
	assert.True(t, april.Opening.Equal(st.Closing))
	assert.Empty(t, april.Lines)
}

func TestAccountStatement_SameDayLinesFollowPostingOrder(t *testing.T) {
	// GIVEN: Two cash lines on March 5 and a later-posted one on March 4
	f := newFixture(t)
	cash := f.account(t, "101")
	first := f.post(t, day(2025, 3, 5), "101", "401", "100", "")
	second := f.post(t, day(2025, 3, 5), "510", "101", "30", "")
	earlier := f.post(t, day(2025, 3, 4), "101", "401", "5", "")

	// WHEN: Reading March
	st, err := f.reports.AccountStatement(f.ctx, cash.ID, month(t, 2025, 3).Range())
	require.NoError(t, err)

	// THEN: Lines run by date, then by posting sequence within the day
	require.Len(t, st.Lines, 3)
	assert.Equal(t, earlier.Reference, st.Lines[0].Reference)
	assert.Equal(t, first.Reference, st.Lines[1].Reference)
	assert.Equal(t, second.Reference, st.Lines[2].Reference)
	assertDecimal(t, "5", st.Lines[0].Balance)
	assertDecimal(t, "105", st.Lines[1].Balance)
	assertDecimal(t, "75", st.Lines[2].Balance)
	assertDecimal(t, "75", st.Closing)
}

func TestAccountStatement_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.reports.AccountStatement(f.ctx, "missing", generic.DateRange{})
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	cash := f.account(t, "101")
	_, err = f.reports.AccountStatement(f.ctx, cash.ID, generic.DateRange{Start: day(2025, 3, 2), End: day(2025, 3, 1)})
	assert.True(t, generic.IsValidation(err))
}

func TestTrialBalance_RepeatedReadsAreIdentical(t *testing.T) {
	// GIVEN: Some posted activity
	f := newFixture(t)
	f.post(t, day(2025, 3, 2), "101", "401", "120.25", "clinic")
	f.post(t, day(2025, 3, 3), "510", "101", "20", "")

	// WHEN: Reading the trial balance twice with no posting in between
	a, err := f.reports.TrialBalance(f.ctx)
	require.NoError(t, err)
	b, err := f.reports.TrialBalance(f.ctx)
	require.NoError(t, err)

	// THEN: Both reads agree row for row
	assert.True(t, a.Balanced)
	assertDecimal(t, "140.25", a.TotalDebit)
	assert.True(t, a.TotalDebit.Equal(b.TotalDebit))
	assert.True(t, a.TotalCredit.Equal(b.TotalCredit))
	require.Len(t, b.Rows, len(a.Rows))
	for i := range a.Rows {
		assert.Equal(t, a.Rows[i].Code, b.Rows[i].Code)
		assert.True(t, a.Rows[i].Debit.Equal(b.Rows[i].Debit), a.Rows[i].Code)
		assert.True(t, a.Rows[i].Credit.Equal(b.Rows[i].Credit), a.Rows[i].Code)
		assert.True(t, a.Rows[i].Net.Equal(b.Rows[i].Net), a.Rows[i].Code)
	}
}

func TestProfitAndLoss_ByDepartment(t *testing.T) {
	f := newFixture(t)
	f.post(t, day(2025, 3, 2), "101", "401", "1000", "clinic")
	f.post(t, day(2025, 3, 3), "101", "402", "400", "lab")
	f.post(t, day(2025, 3, 4), "520", "101", "150", "lab")
	f.post(t, day(2025, 3, 5), "530", "101", "300", "")

	pl, err := f.reports.ProfitAndLoss(f.ctx, month(t, 2025, 3).Range())
	require.NoError(t, err)

	byDept := map[string]ledger.DepartmentResult{}
	for _, d := range pl.Departments {
		byDept[d.Department] = d
	}
	require.Len(t, byDept, 3)
	assertDecimal(t, "1000", byDept["clinic"].Profit)
	assertDecimal(t, "400", byDept["lab"].Revenue)
	assertDecimal(t, "150", byDept["lab"].Expenses)
	assertDecimal(t, "250", byDept["lab"].Profit)
	assertDecimal(t, "-300", byDept[ledger.UnassignedDepartment].Profit)
	assertDecimal(t, "950", pl.NetProfit)
	assertDecimal(t, "1400", pl.TotalRevenue)
	assertDecimal(t, "450", pl.TotalExpenses)
}

func TestProfitAndLoss_UnchangedByClosing(t *testing.T) {
	f := newFixture(t)
	f.post(t, day(2025, 3, 2), "101", "401", "800", "clinic")
	f.post(t, day(2025, 3, 4), "510", "101", "300", "clinic")
	m := month(t, 2025, 3)

	before, err := f.reports.ProfitAndLoss(f.ctx, m.Range())
	require.NoError(t, err)
	_, err = f.closer.Close(f.ctx, m)
	require.NoError(t, err)
	after, err := f.reports.ProfitAndLoss(f.ctx, m.Range())
	require.NoError(t, err)

	assertDecimal(t, "500", before.NetProfit)
	assert.True(t, before.NetProfit.Equal(after.NetProfit))
	assert.True(t, before.TotalRevenue.Equal(after.TotalRevenue))
}

func TestBalanceSheet_CurrentEarningsLine(t *testing.T) {
	// GIVEN: Capital and an open month with a profit of 300
	f := newFixture(t)
	f.post(t, day(2025, 3, 1), "101", "301", "5000", "")
	f.post(t, day(2025, 3, 2), "101", "401", "500", "clinic")
	f.post(t, day(2025, 3, 3), "510", "101", "200", "clinic")

	// WHEN: Reading the balance sheet before closing
	bs, err := f.reports.BalanceSheet(f.ctx, generic.NewDate(2025, 3, 31))
	require.NoError(t, err)

	// THEN: Unclosed profit appears as a synthetic equity line
	assert.True(t, bs.Balanced)
	assertDecimal(t, "5300", bs.TotalAssets)
	assertDecimal(t, "300", bs.CurrentEarnings)
	last := bs.Equity[len(bs.Equity)-1]
	assert.True(t, last.Synthetic)
	assert.Equal(t, ledger.CurrentEarningsName, last.Name)
	assert.Equal(t, "2025-03-31", bs.AsOf)

	// AND: After closing, the profit sits in retained earnings instead
	_, err = f.closer.Close(f.ctx, month(t, 2025, 3))
	require.NoError(t, err)
	bs, err = f.reports.BalanceSheet(f.ctx, generic.NewDate(2025, 3, 31))
	require.NoError(t, err)
	assert.True(t, bs.Balanced)
	assert.True(t, bs.CurrentEarnings.IsZero())
	for _, l := range bs.Equity {
		assert.False(t, l.Synthetic)
		if l.Code == "310" {
			assertDecimal(t, "300", l.Balance)
		}
	}
}

func TestBalanceSheet_AsOfExcludesLaterPostings(t *testing.T) {
	f := newFixture(t)
	f.post(t, day(2025, 3, 1), "101", "301", "100", "")
	f.post(t, day(2025, 4, 1), "101", "301", "50", "")

	bs, err := f.reports.BalanceSheet(f.ctx, generic.NewDate(2025, 3, 31))
	require.NoError(t, err)
	assertDecimal(t, "100", bs.TotalAssets)

	all, err := f.reports.BalanceSheet(f.ctx, time.Time{})
	require.NoError(t, err)
	assertDecimal(t, "150", all.TotalAssets)
	assert.Empty(t, all.AsOf)
}
