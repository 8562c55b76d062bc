package listing

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound    = errors.New("listing: not found")
	ErrInvalidRate = errors.New("listing: nightly rate cannot be negative")
)

type ListingID string

type HostID string

// Listing is the bookable, date-ranged resource. The admission engine treats
// it as immutable; publishing and editing live in the catalog service.
type Listing struct {
	ID          ListingID
	Host        HostID
	Title       string
	NightlyRate decimal.Decimal
	CreatedAt   time.Time
}

func New(id ListingID, host HostID, title string, nightlyRate decimal.Decimal, now time.Time) (*Listing, error) {
	if id == "" {
		return nil, errors.New("listing: id required")
	}
	if host == "" {
		return nil, errors.New("listing: host id required")
	}
	if nightlyRate.IsNegative() {
		return nil, ErrInvalidRate
	}
	return &Listing{
		ID:          id,
		Host:        host,
		Title:       title,
		NightlyRate: nightlyRate,
		CreatedAt:   now.UTC(),
	}, nil
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, l *Listing) error
}
