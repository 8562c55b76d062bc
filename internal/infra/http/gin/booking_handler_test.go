package ginserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/commands"
	domainaccount "staybook/internal/domain/account"
	"staybook/internal/domain/admission"
	domainlisting "staybook/internal/domain/listing"
	domainreservation "staybook/internal/domain/reservation"
)

type stubBus struct {
	res any
	err error
}

func (b stubBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return b.res, b.err
}

func TestStatusForError(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"malformed interval":  {admission.ErrMalformedInterval, http.StatusBadRequest},
		"invalid guests":      {domainreservation.ErrInvalidGuests, http.StatusBadRequest},
		"unknown account":     {domainaccount.ErrNotFound, http.StatusNotFound},
		"unknown listing":     {domainlisting.ErrNotFound, http.StatusNotFound},
		"self booking":        {admission.ErrSelfBooking, http.StatusUnprocessableEntity},
		"unaffordable":        {admission.ErrUnaffordable, http.StatusUnprocessableEntity},
		"date conflict":       {admission.ErrDateConflict, http.StatusConflict},
		"contention":          {admission.ErrContention, http.StatusServiceUnavailable},
		"persistence failure": {admission.ErrPersistenceFailure, http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, statusForError(tc.err))
		})
	}
}

func newBookingRequest(body string, withAccount bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if withAccount {
		req.Header.Set("X-Account-ID", "guest-1")
	}
	return req
}

func performCreate(t *testing.T, bus commands.Bus, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	router := gin.New()
	router.POST("/api/v1/bookings", BookingHandler{Commands: bus}.Create)
	router.ServeHTTP(rec, req)
	return rec
}

func TestBookingHandler_RequiresAccountHeader(t *testing.T) {
	rec := performCreate(t, stubBus{}, newBookingRequest(`{}`, false))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBookingHandler_MapsRejectionToStatusAndReason(t *testing.T) {
	bus := stubBus{err: admission.ErrDateConflict}
	body := `{"listing_id":"listing-1","check_in":"2026-09-10T00:00:00Z","check_out":"2026-09-13T00:00:00Z","guests":2}`
	rec := performCreate(t, bus, newBookingRequest(body, true))

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reason":"DATE_CONFLICT"`)
}

func TestBookingHandler_ContentionSetsRetryAfter(t *testing.T) {
	bus := stubBus{err: admission.ErrContention}
	body := `{"listing_id":"listing-1","check_in":"2026-09-10T00:00:00Z","check_out":"2026-09-13T00:00:00Z","guests":2}`
	rec := performCreate(t, bus, newBookingRequest(body, true))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"reason":"CONTENTION"`)
}
