package availability

import (
	"context"
	"time"

	"staybook/internal/app/dto"
	handlersupport "staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainlisting "staybook/internal/domain/listing"
)

const getCalendarKey = "availability.calendar"

type GetCalendarQuery struct {
	ListingID string
	From      time.Time
	To        time.Time
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

// GetCalendarHandler exposes a listing's occupancy, which is exactly the set
// of committed reservations for it.
type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Calendar{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	reservations, err := unit.Reservations().ListByListing(execCtx, domainlisting.ListingID(q.ListingID))
	if err != nil {
		return dto.Calendar{}, err
	}

	return dto.MapCalendar(q.ListingID, reservations, q.From, q.To), nil
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
