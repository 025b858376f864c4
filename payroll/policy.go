package payroll

import "github.com/shopspring/decimal"

// Bracket is one band of the annual income tax table. A zero UpTo marks the
// open top band.
type Bracket struct {
	UpTo decimal.Decimal
	Rate decimal.Decimal
}

// Policy holds the statutory constants. They change by law, so they are data.
type Policy struct {
	MinInsurable      decimal.Decimal
	MaxInsurable      decimal.Decimal
	EmployeeRate      decimal.Decimal
	CompanyRate       decimal.Decimal
	PersonalExemption decimal.Decimal
	Brackets          []Bracket
	// DaysPerMonth is the divisor for the daily rate.
	DaysPerMonth decimal.Decimal
	// OvertimeMultiplier applies to rest days worked and paid.
	OvertimeMultiplier decimal.Decimal
}

func mustDecimal(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// DefaultPolicy returns the 2024 Egyptian figures.
func DefaultPolicy() Policy {
	return Policy{
		MinInsurable:      mustDecimal("2000"),
		MaxInsurable:      mustDecimal("12600"),
		EmployeeRate:      mustDecimal("0.11"),
		CompanyRate:       mustDecimal("0.1875"),
		PersonalExemption: mustDecimal("20000"),
		Brackets: []Bracket{
			{UpTo: mustDecimal("40000"), Rate: mustDecimal("0")},
			{UpTo: mustDecimal("55000"), Rate: mustDecimal("0.10")},
			{UpTo: mustDecimal("70000"), Rate: mustDecimal("0.15")},
			{UpTo: mustDecimal("200000"), Rate: mustDecimal("0.20")},
			{UpTo: mustDecimal("400000"), Rate: mustDecimal("0.225")},
			{UpTo: mustDecimal("1200000"), Rate: mustDecimal("0.25")},
			{UpTo: decimal.Zero, Rate: mustDecimal("0.275")},
		},
		DaysPerMonth:       mustDecimal("30"),
		OvertimeMultiplier: mustDecimal("1"),
	}
}
