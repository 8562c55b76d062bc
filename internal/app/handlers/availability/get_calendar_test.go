package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	availabilityapp "staybook/internal/app/handlers/availability"
	domainreservation "staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/infra/storage/memory"
)

func day(d int) time.Time {
	return time.Date(2026, time.October, d, 0, 0, 0, 0, time.UTC)
}

func seedReservation(t *testing.T, repo *memory.ReservationRepository, id string, from, to int) {
	t.Helper()
	dr, err := daterange.New(day(from), day(to))
	require.NoError(t, err)
	res, err := domainreservation.New(domainreservation.CreateParams{
		ID:         domainreservation.ReservationID(id),
		AccountID:  "guest-1",
		ListingID:  "listing-1",
		Stay:       dr,
		Guests:     2,
		TotalPrice: decimal.RequireFromString("100"),
		CreatedAt:  day(1),
	})
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), res))
}

func newHandler(t *testing.T) (*availabilityapp.GetCalendarHandler, *memory.ReservationRepository) {
	t.Helper()
	accounts := memory.NewAccountRepository()
	listings := memory.NewListingRepository()
	reservations := memory.NewReservationRepository()
	factory := memory.NewFactory(accounts, listings, reservations)
	return &availabilityapp.GetCalendarHandler{UoWFactory: factory}, reservations
}

func TestGetCalendar_ListsCommittedStaysInOrder(t *testing.T) {
	handler, repo := newHandler(t)
	seedReservation(t, repo, "res-late", 20, 23)
	seedReservation(t, repo, "res-early", 3, 6)

	cal, err := handler.Handle(context.Background(), availabilityapp.GetCalendarQuery{ListingID: "listing-1"})
	require.NoError(t, err)
	require.Len(t, cal.Entries, 2)
	assert.Equal(t, "res-early", cal.Entries[0].ReservationID)
	assert.Equal(t, "res-late", cal.Entries[1].ReservationID)
}

func TestGetCalendar_WindowFiltering(t *testing.T) {
	handler, repo := newHandler(t)
	seedReservation(t, repo, "res-1", 3, 6)
	seedReservation(t, repo, "res-2", 20, 23)

	cal, err := handler.Handle(context.Background(), availabilityapp.GetCalendarQuery{
		ListingID: "listing-1",
		From:      day(10),
		To:        day(25),
	})
	require.NoError(t, err)
	require.Len(t, cal.Entries, 1)
	assert.Equal(t, "res-2", cal.Entries[0].ReservationID)
}

func TestGetCalendar_EmptyListing(t *testing.T) {
	handler, _ := newHandler(t)

	cal, err := handler.Handle(context.Background(), availabilityapp.GetCalendarQuery{ListingID: "listing-1"})
	require.NoError(t, err)
	assert.Empty(t, cal.Entries)
	assert.Equal(t, "listing-1", cal.ListingID)
}
