package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"staybook/internal/domain/account"
	"staybook/internal/domain/listing"
	"staybook/internal/domain/shared/daterange"
)

var (
	ErrNotFound      = errors.New("reservation: not found")
	ErrDuplicateID   = errors.New("reservation: id already exists")
	ErrInvalidGuests = errors.New("reservation: guest count must be positive")
)

type ReservationID string

// Reservation is a committed, immutable booking record. It is created only by
// a successful admission commit; cancellation is a separate collaborator and
// out of scope here.
type Reservation struct {
	ID         ReservationID
	AccountID  account.AccountID
	ListingID  listing.ListingID
	Stay       daterange.DateRange
	Guests     int
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
}

type CreateParams struct {
	ID         ReservationID
	AccountID  account.AccountID
	ListingID  listing.ListingID
	Stay       daterange.DateRange
	Guests     int
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
}

func New(params CreateParams) (*Reservation, error) {
	if params.ID == "" {
		return nil, errors.New("reservation: id required")
	}
	if params.AccountID == "" {
		return nil, errors.New("reservation: account id required")
	}
	if params.ListingID == "" {
		return nil, errors.New("reservation: listing id required")
	}
	if err := params.Stay.Validate(); err != nil {
		return nil, err
	}
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if params.TotalPrice.IsNegative() {
		return nil, errors.New("reservation: total price cannot be negative")
	}
	return &Reservation{
		ID:         params.ID,
		AccountID:  params.AccountID,
		ListingID:  params.ListingID,
		Stay:       params.Stay,
		Guests:     params.Guests,
		TotalPrice: params.TotalPrice,
		CreatedAt:  params.CreatedAt.UTC(),
	}, nil
}

// Repository is the reservation-side ledger contract. Insert participates in
// the commit transaction; committed rows become visible to both list calls.
type Repository interface {
	ByID(ctx context.Context, id ReservationID) (*Reservation, error)
	ListByListing(ctx context.Context, id listing.ListingID) ([]*Reservation, error)
	ListByGuest(ctx context.Context, id account.AccountID) ([]*Reservation, error)
	Insert(ctx context.Context, r *Reservation) error
}
