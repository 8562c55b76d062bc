package ginserver

import (
	"errors"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staybook/internal/app/commands"
	bookingapp "staybook/internal/app/handlers/booking"
	domainaccount "staybook/internal/domain/account"
	"staybook/internal/domain/admission"
	domainlisting "staybook/internal/domain/listing"
	domainreservation "staybook/internal/domain/reservation"
)

type BookingHandler struct {
	Commands commands.Bus
}

type createBookingRequest struct {
	ListingID string    `json:"listing_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Guests    int       `json:"guests"`
}

func (h BookingHandler) Create(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		CommandID:       generateCommandID(),
		AccountID:       accountID,
		ListingID:       req.ListingID,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		Guests:          req.Guests,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func writeBookingError(c *gin.Context, err error) {
	status := statusForError(err)
	body := gin.H{"error": err.Error()}
	if reason, ok := admission.ReasonOf(err); ok {
		body["reason"] = string(reason)
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	c.JSON(status, body)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, admission.ErrMalformedInterval),
		errors.Is(err, domainreservation.ErrInvalidGuests):
		return http.StatusBadRequest
	case errors.Is(err, domainaccount.ErrNotFound),
		errors.Is(err, domainlisting.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, admission.ErrSelfBooking),
		errors.Is(err, admission.ErrUnaffordable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, admission.ErrDateConflict):
		return http.StatusConflict
	case errors.Is(err, admission.ErrContention):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
