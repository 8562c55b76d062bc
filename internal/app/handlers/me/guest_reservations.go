package me

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"staybook/internal/app/dto"
	handlersupport "staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainaccount "staybook/internal/domain/account"
	domainlisting "staybook/internal/domain/listing"
)

const listGuestReservationsKey = "me.reservations.list"

type ListGuestReservationsQuery struct {
	AccountID    string
	UpcomingOnly bool
}

func (q ListGuestReservationsQuery) Key() string { return listGuestReservationsKey }

// ListGuestReservationsHandler backs the "my upcoming stays" view: every
// reservation a commit made durable is visible here.
type ListGuestReservationsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListGuestReservationsHandler) Handle(ctx context.Context, q ListGuestReservationsQuery) (dto.GuestReservationCollection, error) {
	accountID := strings.TrimSpace(q.AccountID)
	if accountID == "" {
		return dto.GuestReservationCollection{}, errors.New("account id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.GuestReservationCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	reservations, err := unit.Reservations().ListByGuest(execCtx, domainaccount.AccountID(accountID))
	if err != nil {
		return dto.GuestReservationCollection{}, err
	}

	now := time.Now().UTC()
	listingCache := make(map[domainlisting.ListingID]*domainlisting.Listing)
	items := make([]dto.GuestReservationSummary, 0, len(reservations))
	for _, res := range reservations {
		if q.UpcomingOnly && !res.Stay.CheckOut.After(now) {
			continue
		}
		lst, err := loadListing(execCtx, unit.Listings(), res.ListingID, listingCache)
		if err != nil && h.Logger != nil {
			h.Logger.Warn("listing snapshot missing for reservation", "reservation_id", res.ID, "listing_id", res.ListingID, "error", err)
		}
		items = append(items, dto.MapGuestReservationSummary(res, lst))
	}

	if h.Logger != nil {
		h.Logger.Debug("guest reservations listed", "account_id", accountID, "count", len(items))
	}

	return dto.GuestReservationCollection{Items: items}, nil
}

func loadListing(
	ctx context.Context,
	repo domainlisting.Repository,
	id domainlisting.ListingID,
	cache map[domainlisting.ListingID]*domainlisting.Listing,
) (*domainlisting.Listing, error) {
	if lst, ok := cache[id]; ok {
		return lst, nil
	}
	lst, err := repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = lst
	return lst, nil
}

var _ queries.Handler[ListGuestReservationsQuery, dto.GuestReservationCollection] = (*ListGuestReservationsHandler)(nil)
