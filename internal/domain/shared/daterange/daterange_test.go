package daterange_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/shared/daterange"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, checkIn, checkOut time.Time) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(checkIn, checkOut)
	require.NoError(t, err)
	return dr
}

func TestNew_RejectsMalformedIntervals(t *testing.T) {
	cases := map[string]struct {
		checkIn  time.Time
		checkOut time.Time
	}{
		"zero check-in":       {time.Time{}, day(3)},
		"zero check-out":      {day(1), time.Time{}},
		"equal instants":      {day(5), day(5)},
		"check-out before in": {day(7), day(3)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := daterange.New(tc.checkIn, tc.checkOut)
			require.ErrorIs(t, err, daterange.ErrMalformedInterval)
		})
	}
}

func TestNew_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	dr, err := daterange.New(day(1).In(loc), day(4).In(loc))
	require.NoError(t, err)
	assert.Equal(t, time.UTC, dr.CheckIn.Location())
	assert.Equal(t, time.UTC, dr.CheckOut.Location())
	assert.True(t, dr.CheckIn.Equal(day(1)))
}

func TestOverlaps_HalfOpenSemantics(t *testing.T) {
	base := mustRange(t, day(10), day(13))

	cases := map[string]struct {
		other   daterange.DateRange
		overlap bool
	}{
		"disjoint before":            {mustRange(t, day(1), day(5)), false},
		"disjoint after":             {mustRange(t, day(20), day(25)), false},
		"touching at check-in":       {mustRange(t, day(7), day(10)), false},
		"touching at check-out":      {mustRange(t, day(13), day(16)), false},
		"partial overlap from left":  {mustRange(t, day(8), day(11)), true},
		"partial overlap from right": {mustRange(t, day(12), day(15)), true},
		"contained":                  {mustRange(t, day(11), day(12)), true},
		"containing":                 {mustRange(t, day(8), day(16)), true},
		"identical":                  {mustRange(t, day(10), day(13)), true},
		"one point shared":           {mustRange(t, day(12), day(13)), true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.overlap, base.Overlaps(tc.other))
			assert.Equal(t, tc.overlap, tc.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestDays_FractionalResolution(t *testing.T) {
	threeDays := mustRange(t, day(1), day(4))
	assert.Equal(t, "3", threeDays.Days().String())

	halfDay := mustRange(t, day(1), day(1).Add(36*time.Hour))
	assert.Equal(t, "1.5", halfDay.Days().String())

	sixHours := mustRange(t, day(1), day(1).Add(6*time.Hour))
	assert.Equal(t, "0.25", sixHours.Days().String())
}
