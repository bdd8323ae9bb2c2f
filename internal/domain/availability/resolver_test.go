package availability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staycal/internal/domain/availability"
	"staycal/internal/domain/blocks"
	"staycal/internal/domain/booking"
	"staycal/internal/domain/shared/daterange"
)

var asOf = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func rng(t *testing.T, start, end string) daterange.DateRange {
	t.Helper()
	dr, err := daterange.Parse(start, end)
	require.NoError(t, err)
	return dr
}

func stay(t *testing.T, id, start, end string, status booking.Status) *booking.Booking {
	t.Helper()
	return &booking.Booking{ID: booking.BookingID(id), Range: rng(t, start, end), Status: status}
}

func blk(t *testing.T, id, start, end, reason string) *blocks.Block {
	t.Helper()
	return &blocks.Block{ID: blocks.BlockID(id), Range: rng(t, start, end), Reason: reason}
}

func TestResolveBookingWithBoundaryFlags(t *testing.T) {
	r := availability.NewResolver(availability.DefaultPolicy())
	snap := availability.Snapshot{Bookings: []*booking.Booking{
		stay(t, "b1", "2024-03-01", "2024-03-05", booking.StatusConfirmed),
	}}

	days, err := r.Resolve(rng(t, "2024-02-28", "2024-03-07"), asOf, snap)
	require.NoError(t, err)
	require.Len(t, days, 8)

	want := []struct {
		date      string
		available bool
		checkIn   bool
		checkOut  bool
	}{
		{"2024-02-28", true, false, false},
		{"2024-02-29", true, false, false},
		{"2024-03-01", false, true, false},
		{"2024-03-02", false, false, false},
		{"2024-03-03", false, false, false},
		{"2024-03-04", false, false, false},
		{"2024-03-05", true, false, true},
		{"2024-03-06", true, false, false},
	}
	for i, w := range want {
		d := days[i]
		assert.Equal(t, w.date, daterange.FormatDay(d.Date))
		assert.Equal(t, w.available, d.Available, w.date)
		assert.Equal(t, w.checkIn, d.CheckInDay, w.date)
		assert.Equal(t, w.checkOut, d.CheckOutDay, w.date)
		if !w.available {
			assert.Equal(t, availability.StatusBooked, d.Status)
			assert.Equal(t, availability.ReasonBooked, d.Reason)
		}
	}
}

func TestResolveFlagsFirstDayFromPreviousDay(t *testing.T) {
	r := availability.NewResolver(availability.DefaultPolicy())
	snap := availability.Snapshot{Bookings: []*booking.Booking{
		stay(t, "b1", "2024-03-01", "2024-03-05", booking.StatusPending),
	}}

	days, err := r.Resolve(rng(t, "2024-03-05", "2024-03-06"), asOf, snap)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.True(t, days[0].CheckOutDay)

	days, err = r.Resolve(rng(t, "2024-03-01", "2024-03-02"), asOf, snap)
	require.NoError(t, err)
	assert.True(t, days[0].CheckInDay)
}

func TestResolveHalfOpenBlock(t *testing.T) {
	r := availability.NewResolver(availability.DefaultPolicy())
	snap := availability.Snapshot{Blocks: []*blocks.Block{
		blk(t, "k1", "2024-01-20", "2024-01-23", "Airbnb: Reserved"),
	}}

	days, err := r.Resolve(rng(t, "2024-01-20", "2024-01-24"), asOf, snap)
	require.NoError(t, err)
	assert.Equal(t, availability.StatusBlocked, days[0].Status)
	assert.Equal(t, "Airbnb: Reserved", days[0].Reason)
	assert.Equal(t, availability.StatusBlocked, days[2].Status)
	assert.True(t, days[3].Available)
	assert.True(t, days[3].CheckOutDay)
}

func TestBookedTakesPrecedenceOverBlocked(t *testing.T) {
	r := availability.NewResolver(availability.DefaultPolicy())
	snap := availability.Snapshot{
		Bookings: []*booking.Booking{stay(t, "b1", "2024-02-01", "2024-02-03", booking.StatusConfirmed)},
		Blocks:   []*blocks.Block{blk(t, "k1", "2024-02-01", "2024-02-03", "Vrbo: x")},
	}
	days, err := r.Resolve(rng(t, "2024-02-01", "2024-02-02"), asOf, snap)
	require.NoError(t, err)
	assert.Equal(t, availability.StatusBooked, days[0].Status)
}

func TestNonOccupyingStatusesAreIgnored(t *testing.T) {
	r := availability.NewResolver(availability.DefaultPolicy())
	snap := availability.Snapshot{Bookings: []*booking.Booking{
		stay(t, "b1", "2024-02-01", "2024-02-03", booking.StatusCancelled),
		stay(t, "b2", "2024-02-01", "2024-02-03", booking.StatusInquiry),
		stay(t, "b3", "2024-02-01", "2024-02-03", booking.StatusCompleted),
	}}
	assert.True(t, r.IsAvailable(rng(t, "2024-02-01", "2024-02-02").Start, asOf, snap))

	policy, err := availability.NewPolicy(12, []booking.Status{booking.StatusConfirmed})
	require.NoError(t, err)
	strict := availability.NewResolver(policy)
	snap.Bookings = append(snap.Bookings, stay(t, "b4", "2024-02-01", "2024-02-03", booking.StatusPending))
	assert.True(t, strict.IsAvailable(rng(t, "2024-02-01", "2024-02-02").Start, asOf, snap))
}

func TestBookingWindow(t *testing.T) {
	r := availability.NewResolver(availability.DefaultPolicy())
	today := daterange.Day(asOf)
	lastBookable := today.AddDate(0, 12, -1)
	beyond := today.AddDate(0, 12, 0)

	days, err := r.Resolve(daterange.DateRange{Start: lastBookable, End: beyond.AddDate(0, 0, 1)}, asOf, availability.Snapshot{})
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.True(t, days[0].Available)
	assert.False(t, days[1].Available)
	assert.Equal(t, availability.StatusBeyondWindow, days[1].Status)
	assert.Equal(t, availability.ReasonBeyondWindow, days[1].Reason)
	assert.True(t, days[1].CheckInDay)

	assert.True(t, r.IsAvailable(lastBookable, asOf, availability.Snapshot{}))
	assert.False(t, r.IsAvailable(beyond, asOf, availability.Snapshot{}))
}

func TestWindowOutranksBookings(t *testing.T) {
	r := availability.NewResolver(availability.DefaultPolicy())
	snap := availability.Snapshot{Bookings: []*booking.Booking{
		stay(t, "b1", "2025-02-01", "2025-02-03", booking.StatusConfirmed),
	}}
	days, err := r.Resolve(rng(t, "2025-02-01", "2025-02-02"), asOf, snap)
	require.NoError(t, err)
	assert.Equal(t, availability.StatusBeyondWindow, days[0].Status)
}

func TestResolveNeverAvailableAndOccupied(t *testing.T) {
	r := availability.NewResolver(availability.DefaultPolicy())
	snap := availability.Snapshot{
		Bookings: []*booking.Booking{
			stay(t, "b1", "2024-02-01", "2024-02-05", booking.StatusConfirmed),
			stay(t, "b2", "2024-02-10", "2024-02-12", booking.StatusCancelled),
		},
		Blocks: []*blocks.Block{
			blk(t, "k1", "2024-02-04", "2024-02-08", "Airbnb: x"),
			blk(t, "k2", "2024-02-20", "2024-02-21", "Manual: y"),
		},
	}
	days, err := r.Resolve(rng(t, "2024-01-25", "2024-03-01"), asOf, snap)
	require.NoError(t, err)
	for _, d := range days {
		if d.Available {
			assert.Equal(t, availability.StatusAvailable, d.Status, d.String())
			assert.Empty(t, d.Reason)
		} else {
			assert.NotEqual(t, availability.StatusAvailable, d.Status, d.String())
		}
		assert.False(t, d.CheckInDay && d.CheckOutDay)
	}
}

func TestResolveRejectsInvalidRange(t *testing.T) {
	r := availability.NewResolver(availability.DefaultPolicy())
	d := daterange.Day(asOf)
	_, err := r.Resolve(daterange.DateRange{Start: d, End: d}, asOf, availability.Snapshot{})
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}

type flatRates struct {
	price decimal.Decimal
	err   error
}

func (f flatRates) PriceForDate(context.Context, time.Time) (decimal.Decimal, error) {
	return f.price, f.err
}

func TestPriceStay(t *testing.T) {
	r := availability.NewResolver(availability.DefaultPolicy())
	q, err := r.PriceStay(context.Background(), rng(t, "2024-03-01", "2024-03-04"), asOf, availability.Snapshot{}, flatRates{price: decimal.RequireFromString("120.50")})
	require.NoError(t, err)
	assert.Len(t, q.Nights, 3)
	assert.True(t, q.Total.Equal(decimal.RequireFromString("361.50")))
}

func TestPriceStayReportsFirstConflict(t *testing.T) {
	r := availability.NewResolver(availability.DefaultPolicy())
	snap := availability.Snapshot{Bookings: []*booking.Booking{
		stay(t, "b1", "2024-03-02", "2024-03-05", booking.StatusConfirmed),
	}}
	_, err := r.PriceStay(context.Background(), rng(t, "2024-03-01", "2024-03-04"), asOf, snap, flatRates{price: decimal.NewFromInt(100)})
	require.Error(t, err)
	assert.ErrorIs(t, err, availability.ErrDateUnavailable)
	var conflict *availability.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "date unavailable: 2024-03-02", conflict.Error())
}

func TestPriceStayPropagatesPricingFailure(t *testing.T) {
	r := availability.NewResolver(availability.DefaultPolicy())
	boom := errors.New("boom")
	_, err := r.PriceStay(context.Background(), rng(t, "2024-03-01", "2024-03-02"), asOf, availability.Snapshot{}, flatRates{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestSnapshotWithout(t *testing.T) {
	snap := availability.Snapshot{Bookings: []*booking.Booking{
		stay(t, "b1", "2024-03-01", "2024-03-05", booking.StatusConfirmed),
		stay(t, "b2", "2024-03-06", "2024-03-07", booking.StatusConfirmed),
	}}
	out := snap.Without("b1")
	require.Len(t, out.Bookings, 1)
	assert.Equal(t, booking.BookingID("b2"), out.Bookings[0].ID)
}

func TestNewPolicyValidation(t *testing.T) {
	_, err := availability.NewPolicy(0, []booking.Status{booking.StatusConfirmed})
	assert.ErrorIs(t, err, availability.ErrInvalidPolicy)
	_, err = availability.NewPolicy(12, nil)
	assert.ErrorIs(t, err, availability.ErrInvalidPolicy)
	assert.Equal(t, []booking.Status{booking.StatusPending, booking.StatusConfirmed}, availability.DefaultPolicy().OccupyingStatuses())
}
