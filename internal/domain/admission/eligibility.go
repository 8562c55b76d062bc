package admission

import (
	"fmt"

	"staybook/internal/domain/account"
	"staybook/internal/domain/listing"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
)

// Request is the structured admission input after transport-level decoding.
type Request struct {
	AccountID account.AccountID
	ListingID listing.ListingID
	Stay      daterange.DateRange
	Guests    int
}

// Evaluate runs the admission checks against a single consistent snapshot of
// state and returns the quote for an admissible request. First failure wins:
// ownership, then affordability (the price is computed first, so a malformed
// interval surfaces before affordability), then availability. Callers must
// hold the commit scope for the listing and account while acting on the
// result; evaluating against stale state reintroduces the double-booking
// race.
func Evaluate(acct *account.Account, lst *listing.Listing, existing []*reservation.Reservation, req Request) (Quote, error) {
	if lst.Host == listing.HostID(req.AccountID) {
		return Quote{}, ErrSelfBooking
	}

	total, err := Price(lst.NightlyRate, req.Stay)
	if err != nil {
		return Quote{}, err
	}
	remaining := acct.Balance.Sub(total)
	if remaining.IsNegative() {
		return Quote{}, fmt.Errorf("%w: balance %s, price %s", ErrUnaffordable, acct.Balance, total)
	}

	for _, existing := range existing {
		if existing.ListingID != lst.ID {
			continue
		}
		if req.Stay.Overlaps(existing.Stay) {
			return Quote{}, fmt.Errorf("%w: conflicts with %s", ErrDateConflict, existing.ID)
		}
	}

	return Quote{Days: req.Stay.Days(), Total: total, RemainingBalance: remaining}, nil
}
