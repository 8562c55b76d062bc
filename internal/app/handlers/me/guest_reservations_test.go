package me_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	meapp "staybook/internal/app/handlers/me"
	domainlisting "staybook/internal/domain/listing"
	domainreservation "staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/infra/storage/memory"
)

type fixture struct {
	listings     *memory.ListingRepository
	reservations *memory.ReservationRepository
	handler      *meapp.ListGuestReservationsHandler
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		listings:     memory.NewListingRepository(),
		reservations: memory.NewReservationRepository(),
	}
	accounts := memory.NewAccountRepository()
	factory := memory.NewFactory(accounts, f.listings, f.reservations)
	f.handler = &meapp.ListGuestReservationsHandler{UoWFactory: factory}

	lst, err := domainlisting.New("listing-1", "host-1", "Loft downtown", decimal.RequireFromString("100"), time.Now())
	require.NoError(t, err)
	require.NoError(t, f.listings.Save(context.Background(), lst))
	return f
}

func mustStay(t *testing.T, from, to time.Time) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(from, to)
	require.NoError(t, err)
	return dr
}

func TestListGuestReservations_NewestFirstWithTitles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"res-old", "res-new"} {
		res, err := domainreservation.New(domainreservation.CreateParams{
			ID:         domainreservation.ReservationID(id),
			AccountID:  "guest-1",
			ListingID:  "listing-1",
			Stay:       mustStay(t, base.AddDate(0, 0, i*10), base.AddDate(0, 0, i*10+3)),
			Guests:     2,
			TotalPrice: decimal.RequireFromString("300"),
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
		require.NoError(t, f.reservations.Insert(ctx, res))
	}

	out, err := f.handler.Handle(ctx, meapp.ListGuestReservationsQuery{AccountID: "guest-1"})
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "res-new", out.Items[0].ReservationID)
	assert.Equal(t, "res-old", out.Items[1].ReservationID)
	assert.Equal(t, "Loft downtown", out.Items[0].ListingTitle)
}

func TestListGuestReservations_FiltersOtherGuests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC)

	res, err := domainreservation.New(domainreservation.CreateParams{
		ID:         "res-1",
		AccountID:  "guest-2",
		ListingID:  "listing-1",
		Stay:       mustStay(t, base, base.AddDate(0, 0, 3)),
		Guests:     2,
		TotalPrice: decimal.RequireFromString("300"),
		CreatedAt:  base,
	})
	require.NoError(t, err)
	require.NoError(t, f.reservations.Insert(ctx, res))

	out, err := f.handler.Handle(ctx, meapp.ListGuestReservationsQuery{AccountID: "guest-1"})
	require.NoError(t, err)
	assert.Empty(t, out.Items)
}

func TestListGuestReservations_RequiresAccountID(t *testing.T) {
	f := newFixture(t)
	_, err := f.handler.Handle(context.Background(), meapp.ListGuestReservationsQuery{})
	require.Error(t, err)
}
