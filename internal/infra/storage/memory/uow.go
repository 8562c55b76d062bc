package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"staybook/internal/app/uow"
	domainaccount "staybook/internal/domain/account"
	domainlisting "staybook/internal/domain/listing"
	domainreservation "staybook/internal/domain/reservation"
)

const defaultLockWait = 500 * time.Millisecond

var errUnitClosed = errors.New("memory: unit of work already closed")

// Factory produces in-memory units of work. Writable units take keyed locks
// over the listing and account named in the transaction scope, so admissions
// touching the same listing or the same account execute one at a time.
type Factory struct {
	accounts     *AccountRepository
	listings     *ListingRepository
	reservations *ReservationRepository
	locks        *keyedLocks
	lockWait     time.Duration
}

func NewFactory(accounts *AccountRepository, listings *ListingRepository, reservations *ReservationRepository) *Factory {
	return &Factory{
		accounts:     accounts,
		listings:     listings,
		reservations: reservations,
		locks:        newKeyedLocks(),
		lockWait:     defaultLockWait,
	}
}

// WithLockWait bounds how long Begin blocks on a contended scope before
// giving up with uow.ErrConflict.
func (f *Factory) WithLockWait(wait time.Duration) *Factory {
	if wait > 0 {
		f.lockWait = wait
	}
	return f
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	var release func()
	if !opts.ReadOnly {
		keys := scopeKeys(opts)
		if len(keys) > 0 {
			var err error
			release, err = f.locks.acquire(ctx, f.lockWait, keys...)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", uow.ErrConflict, err)
			}
		}
	}
	return &Unit{factory: f, release: release}, nil
}

func scopeKeys(opts uow.TxOptions) []string {
	keys := make([]string, 0, 2)
	if opts.ListingID != "" {
		keys = append(keys, "listing:"+string(opts.ListingID))
	}
	if opts.AccountID != "" {
		keys = append(keys, "account:"+string(opts.AccountID))
	}
	return keys
}

type stagedOp struct {
	apply func(ctx context.Context) error
	undo  func(ctx context.Context)
}

// Unit stages writes and applies them only at Commit, so concurrent readers
// never observe a partially admitted booking. A unit does not read its own
// staged writes. Rollback discards the stage and releases the scope locks.
type Unit struct {
	factory *Factory
	release func()
	staged  []stagedOp
	closed  bool
}

func (u *Unit) Accounts() domainaccount.Repository         { return &accountTx{unit: u} }
func (u *Unit) Listings() domainlisting.Repository         { return &listingTx{unit: u} }
func (u *Unit) Reservations() domainreservation.Repository { return &reservationTx{unit: u} }

func (u *Unit) stage(op stagedOp) { u.staged = append(u.staged, op) }

func (u *Unit) Commit(ctx context.Context) error {
	if u.closed {
		return errUnitClosed
	}
	u.closed = true
	defer u.releaseLocks()

	applied := make([]stagedOp, 0, len(u.staged))
	for _, op := range u.staged {
		if err := op.apply(ctx); err != nil {
			for i := len(applied) - 1; i >= 0; i-- {
				applied[i].undo(ctx)
			}
			u.staged = nil
			return err
		}
		applied = append(applied, op)
	}
	u.staged = nil
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.closed {
		return nil
	}
	u.closed = true
	u.staged = nil
	u.releaseLocks()
	return nil
}

func (u *Unit) releaseLocks() {
	if u.release != nil {
		u.release()
		u.release = nil
	}
}

type accountTx struct {
	unit *Unit
}

func (t *accountTx) ByID(ctx context.Context, id domainaccount.AccountID) (*domainaccount.Account, error) {
	return t.unit.factory.accounts.ByID(ctx, id)
}

func (t *accountTx) Save(ctx context.Context, acct *domainaccount.Account) error {
	if t.unit.closed {
		return errUnitClosed
	}
	clone := *acct
	var prev *domainaccount.Account
	t.unit.stage(stagedOp{
		apply: func(ctx context.Context) error {
			existing, err := t.unit.factory.accounts.ByID(ctx, clone.ID)
			if err == nil {
				prev = existing
			}
			return t.unit.factory.accounts.Save(ctx, &clone)
		},
		undo: func(ctx context.Context) {
			if prev != nil {
				_ = t.unit.factory.accounts.Save(ctx, prev)
			}
		},
	})
	return nil
}

func (t *accountTx) Debit(ctx context.Context, id domainaccount.AccountID, amount decimal.Decimal) error {
	if t.unit.closed {
		return errUnitClosed
	}
	// The scope lock is held between this check and apply, so validating
	// against current state here is sound.
	acct, err := t.unit.factory.accounts.ByID(ctx, id)
	if err != nil {
		return err
	}
	probe := *acct
	if err := probe.Debit(amount); err != nil {
		return err
	}
	var prev *domainaccount.Account
	t.unit.stage(stagedOp{
		apply: func(ctx context.Context) error {
			existing, err := t.unit.factory.accounts.ByID(ctx, id)
			if err != nil {
				return err
			}
			prev = existing
			return t.unit.factory.accounts.Debit(ctx, id, amount)
		},
		undo: func(ctx context.Context) {
			if prev != nil {
				_ = t.unit.factory.accounts.Save(ctx, prev)
			}
		},
	})
	return nil
}

type listingTx struct {
	unit *Unit
}

func (t *listingTx) ByID(ctx context.Context, id domainlisting.ListingID) (*domainlisting.Listing, error) {
	return t.unit.factory.listings.ByID(ctx, id)
}

func (t *listingTx) Save(ctx context.Context, lst *domainlisting.Listing) error {
	if t.unit.closed {
		return errUnitClosed
	}
	clone := *lst
	var prev *domainlisting.Listing
	t.unit.stage(stagedOp{
		apply: func(ctx context.Context) error {
			existing, err := t.unit.factory.listings.ByID(ctx, clone.ID)
			if err == nil {
				prev = existing
			}
			return t.unit.factory.listings.Save(ctx, &clone)
		},
		undo: func(ctx context.Context) {
			if prev != nil {
				_ = t.unit.factory.listings.Save(ctx, prev)
			}
		},
	})
	return nil
}

type reservationTx struct {
	unit *Unit
}

func (t *reservationTx) ByID(ctx context.Context, id domainreservation.ReservationID) (*domainreservation.Reservation, error) {
	return t.unit.factory.reservations.ByID(ctx, id)
}

func (t *reservationTx) ListByListing(ctx context.Context, id domainlisting.ListingID) ([]*domainreservation.Reservation, error) {
	return t.unit.factory.reservations.ListByListing(ctx, id)
}

func (t *reservationTx) ListByGuest(ctx context.Context, id domainaccount.AccountID) ([]*domainreservation.Reservation, error) {
	return t.unit.factory.reservations.ListByGuest(ctx, id)
}

func (t *reservationTx) Insert(ctx context.Context, res *domainreservation.Reservation) error {
	if t.unit.closed {
		return errUnitClosed
	}
	if _, err := t.unit.factory.reservations.ByID(ctx, res.ID); err == nil {
		return domainreservation.ErrDuplicateID
	}
	clone := *res
	t.unit.stage(stagedOp{
		apply: func(ctx context.Context) error {
			return t.unit.factory.reservations.Insert(ctx, &clone)
		},
		undo: func(ctx context.Context) {
			t.unit.factory.reservations.remove(clone.ID)
		},
	})
	return nil
}

var _ uow.UoWFactory = (*Factory)(nil)
var _ uow.UnitOfWork = (*Unit)(nil)
