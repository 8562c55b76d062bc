package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	domainaccount "staybook/internal/domain/account"
	domainlisting "staybook/internal/domain/listing"
	domainreservation "staybook/internal/domain/reservation"
)

// AccountRepository keeps account balances in memory.
type AccountRepository struct {
	mu    sync.RWMutex
	items map[domainaccount.AccountID]*domainaccount.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{items: make(map[domainaccount.AccountID]*domainaccount.Account)}
}

// ByID returns a copy so callers cannot mutate stored state directly.
func (r *AccountRepository) ByID(ctx context.Context, id domainaccount.AccountID) (*domainaccount.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.items[id]
	if !ok {
		return nil, domainaccount.ErrNotFound
	}
	clone := *acct
	return &clone, nil
}

func (r *AccountRepository) Save(ctx context.Context, acct *domainaccount.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *acct
	r.items[acct.ID] = &clone
	return nil
}

// Debit enforces the non-negative balance invariant at the store level.
func (r *AccountRepository) Debit(ctx context.Context, id domainaccount.AccountID, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.items[id]
	if !ok {
		return domainaccount.ErrNotFound
	}
	clone := *acct
	if err := clone.Debit(amount); err != nil {
		return err
	}
	r.items[id] = &clone
	return nil
}

// ListingRepository is an in-memory listing snapshot store.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlisting.ListingID]*domainlisting.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{items: make(map[domainlisting.ListingID]*domainlisting.Listing)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlisting.ListingID) (*domainlisting.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lst, ok := r.items[id]
	if !ok {
		return nil, domainlisting.ErrNotFound
	}
	clone := *lst
	return &clone, nil
}

func (r *ListingRepository) Save(ctx context.Context, lst *domainlisting.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *lst
	r.items[lst.ID] = &clone
	return nil
}

// ReservationRepository stores committed reservations in memory.
type ReservationRepository struct {
	mu    sync.RWMutex
	items map[domainreservation.ReservationID]*domainreservation.Reservation
}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{items: make(map[domainreservation.ReservationID]*domainreservation.Reservation)}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ReservationID) (*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.items[id]
	if !ok {
		return nil, domainreservation.ErrNotFound
	}
	clone := *res
	return &clone, nil
}

func (r *ReservationRepository) ListByListing(ctx context.Context, id domainlisting.ListingID) ([]*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreservation.Reservation, 0)
	for _, res := range r.items {
		if res.ListingID != id {
			continue
		}
		clone := *res
		matches = append(matches, &clone)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Stay.CheckIn.Before(matches[j].Stay.CheckIn)
	})
	return matches, nil
}

func (r *ReservationRepository) ListByGuest(ctx context.Context, id domainaccount.AccountID) ([]*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreservation.Reservation, 0)
	for _, res := range r.items {
		if res.AccountID != id {
			continue
		}
		clone := *res
		matches = append(matches, &clone)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *ReservationRepository) Insert(ctx context.Context, res *domainreservation.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[res.ID]; exists {
		return domainreservation.ErrDuplicateID
	}
	clone := *res
	r.items[res.ID] = &clone
	return nil
}

func (r *ReservationRepository) remove(id domainreservation.ReservationID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}
