package ledger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/clinic-ledger/generic"
	"github.com/warp/clinic-ledger/ledger"
)

func TestPost_SettleThenExpenseTrialBalance(t *testing.T) {
	// GIVEN: A seeded chart
	f := newFixture(t)

	// WHEN: Cash sale of 200, then a 500 utilities bill paid in cash
	f.post(t, day(2025, 3, 2), "101", "401", "200", "clinic")
	f.post(t, day(2025, 3, 3), "510", "101", "500", "clinic")

	// THEN: Nets are debit minus credit per account
	assertDecimal(t, "-300", f.trialRow(t, "101").Net)
	assertDecimal(t, "-200", f.trialRow(t, "401").Net)
	assertDecimal(t, "500", f.trialRow(t, "510").Net)

	tb, err := f.reports.TrialBalance(f.ctx)
	require.NoError(t, err)
	assert.True(t, tb.Balanced)
	assertDecimal(t, "700", tb.TotalDebit)
}

func TestPost_UnbalancedLeavesLedgerUnchanged(t *testing.T) {
	f := newFixture(t)

	_, err := f.journal.Post(f.ctx, ledger.PostingInput{
		Date:        day(2025, 3, 2),
		Description: "unbalanced",
		Lines: []ledger.PostingLine{
			{AccountCode: "101", Debit: dec("100")},
			{AccountCode: "401", Credit: dec("90")},
		},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrUnbalanced)
	assert.True(t, generic.IsValidation(err))
	var ue *ledger.UnbalancedError
	require.True(t, errors.As(err, &ue))
	assertDecimal(t, "100", ue.Debit)
	assertDecimal(t, "90", ue.Credit)

	entries, err := f.journal.List(f.ctx, ledger.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPost_AmountsRoundedToCentsBeforeBalanceCheck(t *testing.T) {
	f := newFixture(t)

	entry, err := f.journal.Post(f.ctx, ledger.PostingInput{
		Date:        day(2025, 3, 2),
		Description: "rounding",
		Lines: []ledger.PostingLine{
			{AccountCode: "101", Debit: dec("10.004")},
			{AccountCode: "401", Credit: dec("10.001")},
		},
	})

	require.NoError(t, err)
	debit, credit := entry.Totals()
	assertDecimal(t, "10.00", debit)
	assertDecimal(t, "10.00", credit)
}

func TestPost_Rejections(t *testing.T) {
	f := newFixture(t)
	date := day(2025, 3, 2)

	tests := []struct {
		name  string
		lines []ledger.PostingLine
		want  error
	}{
		{"single line", []ledger.PostingLine{{AccountCode: "101", Debit: dec("1")}}, ledger.ErrTooFewLines},
		{"empty line", []ledger.PostingLine{
			{AccountCode: "101", Debit: dec("1")},
			{AccountCode: "401", Credit: dec("1")},
			{AccountCode: "402"},
		}, ledger.ErrEmptyLine},
		{"negative amount", []ledger.PostingLine{
			{AccountCode: "101", Debit: dec("-1")},
			{AccountCode: "401", Credit: dec("-1")},
		}, ledger.ErrNegativeAmount},
		{"unknown account", []ledger.PostingLine{
			{AccountCode: "999", Debit: dec("1")},
			{AccountCode: "401", Credit: dec("1")},
		}, ledger.ErrAccountNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.journal.Post(f.ctx, ledger.PostingInput{Date: date, Description: tt.name, Lines: tt.lines})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	entries, err := f.journal.List(f.ctx, ledger.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPost_ReferencesFollowSourceAndSequence(t *testing.T) {
	f := newFixture(t)

	first := f.post(t, day(2025, 3, 2), "101", "401", "10", "")
	second := f.post(t, day(2025, 3, 1), "101", "401", "10", "")

	assert.Equal(t, "JV-000001", first.Reference)
	assert.Equal(t, "JV-000002", second.Reference)
	assert.Greater(t, second.Seq, first.Seq)

	_, err := f.journal.Post(f.ctx, ledger.PostingInput{
		Date:        day(2025, 3, 3),
		Description: "duplicate reference",
		Source:      ledger.SourcePayroll,
		Reference:   first.Reference,
		Lines: []ledger.PostingLine{
			{AccountCode: "101", Debit: dec("1")},
			{AccountCode: "401", Credit: dec("1")},
		},
	})
	assert.ErrorIs(t, err, ledger.ErrDuplicateRef)
}

func TestPost_CustomReferenceOnlyForEngineSources(t *testing.T) {
	// GIVEN: Entries that claim the March closing reference
	f := newFixture(t)
	f.post(t, day(2025, 3, 2), "101", "401", "100", "")

	for _, source := range []ledger.Source{"", ledger.SourceManual, ledger.SourceInvoice, ledger.SourceExpense, ledger.SourcePayment} {
		_, err := f.journal.Post(f.ctx, ledger.PostingInput{
			Date:        day(2025, 3, 3),
			Description: "squatting",
			Source:      source,
			Reference:   ledger.ClosingReference(month(t, 2025, 3)),
			Lines: []ledger.PostingLine{
				{AccountCode: "101", Debit: dec("1")},
				{AccountCode: "401", Credit: dec("1")},
			},
		})
		// THEN: Each is rejected before anything is written
		assert.ErrorIs(t, err, ledger.ErrReservedReference, "source %q", source)
		assert.True(t, generic.IsValidation(err))
	}

	// AND: The month still closes under its own reference
	res, err := f.closer.Close(f.ctx, month(t, 2025, 3))
	require.NoError(t, err)
	assert.Equal(t, "CLS-2025-03", res.Reference)
	assertDecimal(t, "100", res.NetProfit)
}

func TestRevise_ChangesDescriptionOnly(t *testing.T) {
	f := newFixture(t)
	entry := f.post(t, day(2025, 3, 2), "101", "401", "75", "")

	revised, err := f.journal.Revise(f.ctx, entry.ID, "Corrected description", "typo")
	require.NoError(t, err)

	assert.Equal(t, "Corrected description", revised.Description)
	assert.Equal(t, "typo", revised.RevisionReason)
	require.NotNil(t, revised.RevisedAt)
	debit, _ := revised.Totals()
	assertDecimal(t, "75", debit)

	_, err = f.journal.Revise(f.ctx, entry.ID, "again", "")
	assert.True(t, generic.IsValidation(err))
	_, err = f.journal.Revise(f.ctx, "missing", "x", "y")
	assert.ErrorIs(t, err, ledger.ErrEntryNotFound)
}

func TestList_FiltersByRangeAndSource(t *testing.T) {
	f := newFixture(t)
	f.post(t, day(2025, 2, 27), "101", "401", "10", "")
	f.post(t, day(2025, 3, 5), "101", "401", "20", "")

	entries, err := f.journal.List(f.ctx, ledger.EntryFilter{Range: month(t, 2025, 3).Range()})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2025-03-05", generic.FormatDate(entries[0].Date))

	entries, err = f.journal.List(f.ctx, ledger.EntryFilter{Source: ledger.SourceInvoice})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
