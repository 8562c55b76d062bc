package admission_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/account"
	"staybook/internal/domain/admission"
	"staybook/internal/domain/listing"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(d int) time.Time {
	return time.Date(2026, time.June, d, 0, 0, 0, 0, time.UTC)
}

func stay(t *testing.T, from, to int) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(day(from), day(to))
	require.NoError(t, err)
	return dr
}

func guestAccount(t *testing.T, balance string) *account.Account {
	t.Helper()
	acct, err := account.New("guest-1", dec(balance))
	require.NoError(t, err)
	return acct
}

func testListing(t *testing.T, rate string) *listing.Listing {
	t.Helper()
	lst, err := listing.New("listing-1", "host-1", "Seaside flat", dec(rate), day(1))
	require.NoError(t, err)
	return lst
}

func committedStay(t *testing.T, id string, from, to int) *reservation.Reservation {
	t.Helper()
	res, err := reservation.New(reservation.CreateParams{
		ID:         reservation.ReservationID(id),
		AccountID:  "other-guest",
		ListingID:  "listing-1",
		Stay:       stay(t, from, to),
		Guests:     2,
		TotalPrice: dec("100"),
		CreatedAt:  day(1),
	})
	require.NoError(t, err)
	return res
}

func request(t *testing.T, from, to int) admission.Request {
	return admission.Request{
		AccountID: "guest-1",
		ListingID: "listing-1",
		Stay:      stay(t, from, to),
		Guests:    2,
	}
}

func TestEvaluate_AdmitsAndQuotes(t *testing.T) {
	// GIVEN: balance 1000, nightly rate 100, a 3 day stay, no conflicts
	// THEN: admitted with total 300 and remaining balance 700
	acct := guestAccount(t, "1000")
	lst := testListing(t, "100")

	quote, err := admission.Evaluate(acct, lst, nil, request(t, 10, 13))
	require.NoError(t, err)
	assert.Equal(t, "3", quote.Days.String())
	assert.Equal(t, "300", quote.Total.String())
	assert.Equal(t, "700", quote.RemainingBalance.String())
}

func TestEvaluate_SelfBookingCheckedFirst(t *testing.T) {
	// The host cannot book their own listing, even when every other check
	// would also fail.
	acct, err := account.New("host-1", dec("0"))
	require.NoError(t, err)
	lst := testListing(t, "100")
	existing := []*reservation.Reservation{committedStay(t, "res-1", 10, 13)}

	req := request(t, 10, 13)
	req.AccountID = "host-1"
	_, err = admission.Evaluate(acct, lst, existing, req)
	require.ErrorIs(t, err, admission.ErrSelfBooking)
}

func TestEvaluate_MalformedIntervalBeforeAffordability(t *testing.T) {
	// An unpriceable interval must surface as MalformedInterval, not as an
	// affordability failure, even with a balance of zero.
	acct := guestAccount(t, "0")
	lst := testListing(t, "100")

	req := admission.Request{
		AccountID: "guest-1",
		ListingID: "listing-1",
		Stay:      daterange.DateRange{CheckIn: day(10), CheckOut: day(10)},
		Guests:    2,
	}
	_, err := admission.Evaluate(acct, lst, nil, req)
	require.ErrorIs(t, err, admission.ErrMalformedInterval)
	assert.NotErrorIs(t, err, admission.ErrUnaffordable)
}

func TestEvaluate_Unaffordable(t *testing.T) {
	// GIVEN: balance 50 against a price of 300
	acct := guestAccount(t, "50")
	lst := testListing(t, "100")

	_, err := admission.Evaluate(acct, lst, nil, request(t, 10, 13))
	require.ErrorIs(t, err, admission.ErrUnaffordable)
	assert.Contains(t, err.Error(), "balance 50")
	assert.Contains(t, err.Error(), "price 300")
}

func TestEvaluate_ExactBalanceAdmitted(t *testing.T) {
	acct := guestAccount(t, "300")
	lst := testListing(t, "100")

	quote, err := admission.Evaluate(acct, lst, nil, request(t, 10, 13))
	require.NoError(t, err)
	assert.True(t, quote.RemainingBalance.IsZero())
}

func TestEvaluate_DateConflict(t *testing.T) {
	acct := guestAccount(t, "1000")
	lst := testListing(t, "100")
	existing := []*reservation.Reservation{committedStay(t, "res-1", 11, 14)}

	_, err := admission.Evaluate(acct, lst, existing, request(t, 10, 13))
	require.ErrorIs(t, err, admission.ErrDateConflict)
	assert.Contains(t, err.Error(), "res-1")
}

func TestEvaluate_TouchingBoundaryAdmitted(t *testing.T) {
	// A check-in equal to an existing check-out shares no occupied time.
	acct := guestAccount(t, "1000")
	lst := testListing(t, "100")
	existing := []*reservation.Reservation{committedStay(t, "res-1", 10, 13)}

	quote, err := admission.Evaluate(acct, lst, existing, request(t, 13, 15))
	require.NoError(t, err)
	assert.Equal(t, "200", quote.Total.String())
}

func TestPrice_FractionalDays(t *testing.T) {
	halfExtra, err := daterange.New(day(1), day(1).Add(36*time.Hour))
	require.NoError(t, err)

	total, err := admission.Price(dec("100"), halfExtra)
	require.NoError(t, err)
	assert.Equal(t, "150", total.String())
}

func TestPrice_RejectsInvalidStay(t *testing.T) {
	_, err := admission.Price(dec("100"), daterange.DateRange{CheckIn: day(2), CheckOut: day(1)})
	require.ErrorIs(t, err, admission.ErrMalformedInterval)
}

func TestReasonRoundTrip(t *testing.T) {
	for reason, wantErr := range map[admission.Reason]error{
		admission.ReasonMalformedInterval:  admission.ErrMalformedInterval,
		admission.ReasonSelfBooking:        admission.ErrSelfBooking,
		admission.ReasonUnaffordable:       admission.ErrUnaffordable,
		admission.ReasonDateConflict:       admission.ErrDateConflict,
		admission.ReasonContention:         admission.ErrContention,
		admission.ReasonPersistenceFailure: admission.ErrPersistenceFailure,
	} {
		got, ok := admission.ReasonOf(wantErr)
		require.True(t, ok)
		assert.Equal(t, reason, got)

		rebuilt := admission.FromReason(reason, "some detail")
		assert.ErrorIs(t, rebuilt, wantErr)
	}
}

func TestRetryable_OnlyContention(t *testing.T) {
	assert.True(t, admission.Retryable(admission.ErrContention))
	assert.False(t, admission.Retryable(admission.ErrDateConflict))
	assert.False(t, admission.Retryable(admission.ErrPersistenceFailure))
}
