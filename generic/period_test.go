package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/clinic-ledger/generic"
)

func TestMonth_Bounds(t *testing.T) {
	tests := []struct {
		month     generic.Month
		wantStart string
		wantEnd   string
		wantDays  int
		wantKey   string
	}{
		{generic.Month{Year: 2025, Month: time.March}, "2025-03-01", "2025-03-31", 31, "2025-03"},
		{generic.Month{Year: 2025, Month: time.February}, "2025-02-01", "2025-02-28", 28, "2025-02"},
		{generic.Month{Year: 2024, Month: time.February}, "2024-02-01", "2024-02-29", 29, "2024-02"},
		{generic.Month{Year: 2025, Month: time.December}, "2025-12-01", "2025-12-31", 31, "2025-12"},
	}

	for _, tt := range tests {
		t.Run(tt.wantKey, func(t *testing.T) {
			assert.Equal(t, tt.wantStart, generic.FormatDate(tt.month.Start()))
			assert.Equal(t, tt.wantEnd, generic.FormatDate(tt.month.End()))
			assert.Equal(t, tt.wantDays, tt.month.Days())
			assert.Equal(t, tt.wantKey, tt.month.Key())
		})
	}
}

func TestMonthOf_Validation(t *testing.T) {
	_, err := generic.MonthOf(2025, 13)
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
	assert.True(t, generic.IsValidation(err))

	_, err = generic.MonthOf(2025, 0)
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)

	_, err = generic.MonthOf(10000, time.January)
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)

	m, err := generic.MonthOf(2025, time.June)
	require.NoError(t, err)
	assert.Equal(t, "June 2025", m.String())
}

func TestMonthContaining(t *testing.T) {
	m := generic.MonthContaining(time.Date(2025, time.April, 30, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, generic.Month{Year: 2025, Month: time.April}, m)
}

func TestDateRange(t *testing.T) {
	r := generic.DateRange{Start: generic.NewDate(2025, 3, 1), End: generic.NewDate(2025, 3, 31)}

	assert.True(t, r.Contains(generic.NewDate(2025, 3, 1)))
	assert.True(t, r.Contains(time.Date(2025, 3, 31, 18, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(generic.NewDate(2025, 4, 1)))
	assert.False(t, r.Contains(generic.NewDate(2025, 2, 28)))
	assert.NoError(t, r.Validate())
	assert.Equal(t, "[2025-03-01, 2025-03-31]", r.String())

	open := generic.DateRange{End: generic.NewDate(2025, 3, 31)}
	assert.True(t, open.Contains(generic.NewDate(1999, 1, 1)))
	assert.Equal(t, "[-inf, 2025-03-31]", open.String())

	backwards := generic.DateRange{Start: r.End, End: r.Start}
	assert.ErrorIs(t, backwards.Validate(), generic.ErrInvalidPeriod)
}

func TestParseDate(t *testing.T) {
	d, err := generic.ParseDate("2025-03-15")
	require.NoError(t, err)
	assert.Equal(t, generic.NewDate(2025, 3, 15), d)

	_, err = generic.ParseDate("15/03/2025")
	assert.True(t, generic.IsValidation(err))
}

func TestDaysOverdue(t *testing.T) {
	due := generic.NewDate(2025, 3, 1)

	assert.Equal(t, 0, generic.DaysOverdue(due, due))
	assert.Equal(t, 0, generic.DaysOverdue(due, due.AddDate(0, 0, -5)))
	assert.Equal(t, 1, generic.DaysOverdue(due, due.Add(time.Hour)))
	assert.Equal(t, 30, generic.DaysOverdue(due, generic.NewDate(2025, 3, 31)))
}
