package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/uow"
	domainaccount "staybook/internal/domain/account"
	domainlisting "staybook/internal/domain/listing"
	domainreservation "staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/infra/storage/memory"
)

type fixture struct {
	accounts     *memory.AccountRepository
	listings     *memory.ListingRepository
	reservations *memory.ReservationRepository
	factory      *memory.Factory
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		accounts:     memory.NewAccountRepository(),
		listings:     memory.NewListingRepository(),
		reservations: memory.NewReservationRepository(),
	}
	f.factory = memory.NewFactory(f.accounts, f.listings, f.reservations)

	ctx := context.Background()
	acct, err := domainaccount.New("guest-1", decimal.RequireFromString("1000"))
	require.NoError(t, err)
	require.NoError(t, f.accounts.Save(ctx, acct))

	lst, err := domainlisting.New("listing-1", "host-1", "Cabin", decimal.RequireFromString("100"), time.Now())
	require.NoError(t, err)
	require.NoError(t, f.listings.Save(ctx, lst))
	return f
}

func testReservation(t *testing.T, id string) *domainreservation.Reservation {
	t.Helper()
	dr, err := daterange.New(
		time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.July, 4, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	res, err := domainreservation.New(domainreservation.CreateParams{
		ID:         domainreservation.ReservationID(id),
		AccountID:  "guest-1",
		ListingID:  "listing-1",
		Stay:       dr,
		Guests:     2,
		TotalPrice: decimal.RequireFromString("300"),
		CreatedAt:  time.Now(),
	})
	require.NoError(t, err)
	return res
}

func bookingScope() uow.TxOptions {
	return uow.TxOptions{ListingID: "listing-1", AccountID: "guest-1"}
}

func TestUnit_WritesInvisibleUntilCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit, err := f.factory.Begin(ctx, bookingScope())
	require.NoError(t, err)
	require.NoError(t, unit.Reservations().Insert(ctx, testReservation(t, "res-1")))
	require.NoError(t, unit.Accounts().Debit(ctx, "guest-1", decimal.RequireFromString("300")))

	// Nothing applied yet.
	_, err = f.reservations.ByID(ctx, "res-1")
	assert.ErrorIs(t, err, domainreservation.ErrNotFound)
	acct, err := f.accounts.ByID(ctx, "guest-1")
	require.NoError(t, err)
	assert.Equal(t, "1000", acct.Balance.String())

	require.NoError(t, unit.Commit(ctx))

	res, err := f.reservations.ByID(ctx, "res-1")
	require.NoError(t, err)
	assert.Equal(t, domainlisting.ListingID("listing-1"), res.ListingID)
	acct, err = f.accounts.ByID(ctx, "guest-1")
	require.NoError(t, err)
	assert.Equal(t, "700", acct.Balance.String())
}

func TestUnit_RollbackDiscardsStagedWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit, err := f.factory.Begin(ctx, bookingScope())
	require.NoError(t, err)
	require.NoError(t, unit.Reservations().Insert(ctx, testReservation(t, "res-1")))
	require.NoError(t, unit.Accounts().Debit(ctx, "guest-1", decimal.RequireFromString("300")))
	require.NoError(t, unit.Rollback(ctx))

	_, err = f.reservations.ByID(ctx, "res-1")
	assert.ErrorIs(t, err, domainreservation.ErrNotFound)
	acct, err := f.accounts.ByID(ctx, "guest-1")
	require.NoError(t, err)
	assert.Equal(t, "1000", acct.Balance.String())
}

func TestUnit_DebitValidatesAgainstCurrentBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit, err := f.factory.Begin(ctx, bookingScope())
	require.NoError(t, err)
	err = unit.Accounts().Debit(ctx, "guest-1", decimal.RequireFromString("1001"))
	require.ErrorIs(t, err, domainaccount.ErrInsufficientFunds)
	require.NoError(t, unit.Rollback(ctx))
}

func TestFactory_BoundedLockAcquisition(t *testing.T) {
	f := newFixture(t)
	f.factory.WithLockWait(50 * time.Millisecond)
	ctx := context.Background()

	holder, err := f.factory.Begin(ctx, bookingScope())
	require.NoError(t, err)

	// Same listing scope: must give up within the bounded wait.
	_, err = f.factory.Begin(ctx, uow.TxOptions{ListingID: "listing-1"})
	require.ErrorIs(t, err, uow.ErrConflict)

	// Disjoint scope is not blocked.
	other, err := f.factory.Begin(ctx, uow.TxOptions{ListingID: "listing-2", AccountID: "guest-2"})
	require.NoError(t, err)
	require.NoError(t, other.Rollback(ctx))

	require.NoError(t, holder.Commit(ctx))

	// Scope is free again after commit.
	next, err := f.factory.Begin(ctx, bookingScope())
	require.NoError(t, err)
	require.NoError(t, next.Rollback(ctx))
}

func TestFactory_ReadOnlyUnitsDoNotContend(t *testing.T) {
	f := newFixture(t)
	f.factory.WithLockWait(50 * time.Millisecond)
	ctx := context.Background()

	holder, err := f.factory.Begin(ctx, bookingScope())
	require.NoError(t, err)
	defer func() { _ = holder.Rollback(ctx) }()

	reader, err := f.factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	acct, err := reader.Accounts().ByID(ctx, "guest-1")
	require.NoError(t, err)
	assert.Equal(t, "1000", acct.Balance.String())
	require.NoError(t, reader.Rollback(ctx))
}

func TestUnit_DuplicateReservationRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.reservations.Insert(ctx, testReservation(t, "res-1")))

	unit, err := f.factory.Begin(ctx, bookingScope())
	require.NoError(t, err)
	err = unit.Reservations().Insert(ctx, testReservation(t, "res-1"))
	require.ErrorIs(t, err, domainreservation.ErrDuplicateID)
	require.NoError(t, unit.Rollback(ctx))
}
