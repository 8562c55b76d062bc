package admission

import (
	"fmt"

	"github.com/shopspring/decimal"

	"staybook/internal/domain/shared/daterange"
)

// Quote is the priced outcome of an admissible request.
type Quote struct {
	Days             decimal.Decimal
	Total            decimal.Decimal
	RemainingBalance decimal.Decimal
}

// Price computes nightly rate x fractional days. A 1.5 day stay costs 1.5x
// the rate, no truncation to whole days.
func Price(nightlyRate decimal.Decimal, stay daterange.DateRange) (decimal.Decimal, error) {
	if err := stay.Validate(); err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrMalformedInterval, err)
	}
	days := stay.Days()
	if !days.IsPositive() {
		return decimal.Decimal{}, ErrMalformedInterval
	}
	return nightlyRate.Mul(days), nil
}
