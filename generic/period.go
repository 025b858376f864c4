package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH - the unit of closing for both the ledger and payroll
// =============================================================================

// Month identifies a calendar month. Accounting periods and payroll periods
// are both keyed by it.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf builds a Month and validates it.
func MonthOf(year int, month time.Month) (Month, error) {
	m := Month{Year: year, Month: month}
	return m, m.Validate()
}

// MonthContaining returns the month a date falls in.
func MonthContaining(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// Validate rejects months outside 1..12 and implausible years.
func (m Month) Validate() error {
	if m.Month < time.January || m.Month > time.December {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidPeriod, m.Month)
	}
	if m.Year < 1900 || m.Year > 9999 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidPeriod, m.Year)
	}
	return nil
}

// Start returns the first day of the month.
func (m Month) Start() time.Time { return NewDate(m.Year, m.Month, 1) }

// End returns the last day of the month.
func (m Month) End() time.Time { return EndOfMonth(m.Start()) }

// Days returns the number of calendar days.
func (m Month) Days() int { return DaysInMonth(m.Year, m.Month) }

// Range returns the month as an inclusive date range.
func (m Month) Range() DateRange {
	return DateRange{Start: m.Start(), End: m.End()}
}

// Key renders the month as YYYY-MM. Used in period references.
func (m Month) Key() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

func (m Month) String() string { return fmt.Sprintf("%s %d", m.Month, m.Year) }

// =============================================================================
// DATE RANGE - inclusive, either side may be open
// =============================================================================

// DateRange bounds a report. A zero Start or End leaves that side open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Validate rejects ranges whose end is before their start.
func (r DateRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidPeriod, FormatDate(r.End), FormatDate(r.Start))
	}
	return nil
}

// Contains reports whether the day is inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := TruncateDay(t)
	if !r.Start.IsZero() && d.Before(TruncateDay(r.Start)) {
		return false
	}
	if !r.End.IsZero() && d.After(TruncateDay(r.End)) {
		return false
	}
	return true
}

func (r DateRange) String() string {
	start, end := "-inf", "+inf"
	if !r.Start.IsZero() {
		start = FormatDate(r.Start)
	}
	if !r.End.IsZero() {
		end = FormatDate(r.End)
	}
	return "[" + start + ", " + end + "]"
}
