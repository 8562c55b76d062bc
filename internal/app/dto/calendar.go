package dto

import (
	"time"

	domainreservation "staybook/internal/domain/reservation"
)

type CalendarEntry struct {
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	ReservationID string    `json:"reservation_id"`
}

type Calendar struct {
	ListingID string          `json:"listing_id"`
	Entries   []CalendarEntry `json:"entries"`
}

// MapCalendar projects committed reservations onto the occupancy view. A zero
// from/to means an unbounded window.
func MapCalendar(listingID string, reservations []*domainreservation.Reservation, from, to time.Time) Calendar {
	entries := make([]CalendarEntry, 0, len(reservations))
	for _, res := range reservations {
		if !from.IsZero() && !res.Stay.CheckOut.After(from) {
			continue
		}
		if !to.IsZero() && !res.Stay.CheckIn.Before(to) {
			continue
		}
		entries = append(entries, CalendarEntry{
			From:          res.Stay.CheckIn,
			To:            res.Stay.CheckOut,
			ReservationID: string(res.ID),
		})
	}
	return Calendar{ListingID: listingID, Entries: entries}
}
