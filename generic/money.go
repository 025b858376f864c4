package generic

import "github.com/shopspring/decimal"

// =============================================================================
// MONEY - decimal amounts rounded half-even to cents
// =============================================================================

// MoneyPlaces is the number of decimal places kept for every posted amount.
const MoneyPlaces = 2

// RoundMoney rounds to cents using banker's rounding.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(MoneyPlaces)
}

// MustParseDecimal parses a decimal string or panics. Used for stored values
// and constants.
func MustParseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
