package dto

import (
	"time"

	domainlisting "staybook/internal/domain/listing"
	domainreservation "staybook/internal/domain/reservation"
)

type GuestReservationSummary struct {
	ReservationID string    `json:"reservation_id"`
	ListingID     string    `json:"listing_id"`
	ListingTitle  string    `json:"listing_title,omitempty"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
	Guests        int       `json:"guests"`
	TotalPrice    string    `json:"total_price"`
	CreatedAt     time.Time `json:"created_at"`
}

type GuestReservationCollection struct {
	Items []GuestReservationSummary `json:"items"`
}

func MapGuestReservationSummary(res *domainreservation.Reservation, lst *domainlisting.Listing) GuestReservationSummary {
	summary := GuestReservationSummary{
		ReservationID: string(res.ID),
		ListingID:     string(res.ListingID),
		CheckIn:       res.Stay.CheckIn,
		CheckOut:      res.Stay.CheckOut,
		Guests:        res.Guests,
		TotalPrice:    res.TotalPrice.String(),
		CreatedAt:     res.CreatedAt,
	}
	if lst != nil {
		summary.ListingTitle = lst.Title
	}
	return summary
}
