package uow

import (
	"context"
	"errors"

	domainaccount "staybook/internal/domain/account"
	domainlisting "staybook/internal/domain/listing"
	domainreservation "staybook/internal/domain/reservation"
)

// ErrConflict is returned by Begin or Commit when the transaction scope could
// not be acquired or committed because of a concurrent competing writer. The
// whole unit of work is safe to retry.
var ErrConflict = errors.New("uow: concurrent commit conflict")

// UnitOfWork is the ledger gateway: it scopes the eligibility read-set and
// the commit write-set (reservation insert + balance debit) to a single
// isolation boundary. Reading through one unit and writing through another
// reintroduces the check-then-write race.
type UnitOfWork interface {
	Accounts() domainaccount.Repository
	Listings() domainlisting.Repository
	Reservations() domainreservation.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries. ListingID and AccountID name
// the commit scope: backends serialize concurrent units that share either
// key, while units with disjoint scopes proceed in parallel.
type TxOptions struct {
	ReadOnly  bool
	ListingID domainlisting.ListingID
	AccountID domainaccount.AccountID
}
