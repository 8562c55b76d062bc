package daterange

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrMalformedInterval = errors.New("daterange: check-out must be strictly after check-in")

const secondsPerDay = 24 * 60 * 60

// DateRange represents a half-open stay interval [CheckIn, CheckOut).
// Two ranges conflict iff they share a point in continuous time; a check-out
// equal to another range's check-in does not.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: checkIn.UTC(), CheckOut: checkOut.UTC()}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.CheckIn.IsZero() || dr.CheckOut.IsZero() {
		return ErrMalformedInterval
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrMalformedInterval
	}
	return nil
}

// Overlaps reports whether the two half-open intervals intersect.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) Duration() time.Duration {
	return dr.CheckOut.Sub(dr.CheckIn)
}

// Days returns the stay length as a fractional number of days with second
// resolution. A 36h stay yields 1.5.
func (dr DateRange) Days() decimal.Decimal {
	seconds := int64(dr.Duration() / time.Second)
	return decimal.NewFromInt(seconds).Div(decimal.NewFromInt(secondsPerDay))
}

func (dr DateRange) String() string {
	return "[" + dr.CheckIn.Format(time.RFC3339) + ", " + dr.CheckOut.Format(time.RFC3339) + ")"
}
