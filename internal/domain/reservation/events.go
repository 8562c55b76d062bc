package reservation

import (
	"time"

	"github.com/shopspring/decimal"

	"staybook/internal/domain/account"
	"staybook/internal/domain/listing"
	"staybook/internal/domain/shared/daterange"
)

type ReservationCommitted struct {
	ReservationID    ReservationID
	AccountID        account.AccountID
	ListingID        listing.ListingID
	Stay             daterange.DateRange
	Guests           int
	TotalPrice       decimal.Decimal
	RemainingBalance decimal.Decimal
	At               time.Time
}

func (e ReservationCommitted) EventName() string     { return "reservation.committed" }
func (e ReservationCommitted) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationCommitted) OccurredAt() time.Time { return e.At }
