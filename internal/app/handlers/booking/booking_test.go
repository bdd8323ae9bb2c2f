package booking_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staycal/internal/app/handlers/booking"
	"staycal/internal/app/outbox"
	"staycal/internal/app/policies"
	domainavailability "staycal/internal/domain/availability"
	domainblocks "staycal/internal/domain/blocks"
	domainbooking "staycal/internal/domain/booking"
	"staycal/internal/domain/shared/daterange"
	"staycal/internal/infra/storage/memory"
)

var now = time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)

type flatPricing struct{}

func (flatPricing) PriceForDate(context.Context, time.Time) (decimal.Decimal, error) {
	return decimal.NewFromInt(100), nil
}

func (flatPricing) Currency() string { return "EUR" }

func ids() policies.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("bk-%d", n)
	}
}

func day(s string) time.Time {
	d, _ := daterange.ParseDay(s)
	return d
}

func newCreateHandler(f *memory.Factory) *booking.CreateBookingHandler {
	return &booking.CreateBookingHandler{
		UoWFactory: f,
		Resolver:   domainavailability.NewResolver(domainavailability.DefaultPolicy()),
		Pricing:    flatPricing{},
		Clock:      policies.FixedClock{T: now},
		IDs:        ids(),
		MaxGuests:  4,
	}
}

func request(checkIn, checkOut string) booking.CreateBookingCommand {
	return booking.CreateBookingCommand{
		CheckIn:     day(checkIn),
		CheckOut:    day(checkOut),
		GuestsCount: 2,
		GuestName:   "Alex",
		GuestEmail:  "alex@example.com",
	}
}

func TestCreateBookingPricesAndStoresPending(t *testing.T) {
	f := memory.NewFactory()
	out, err := newCreateHandler(f).Handle(context.Background(), request("2024-03-01", "2024-03-05"))
	require.NoError(t, err)
	assert.Equal(t, "pending", out.Status)
	assert.Equal(t, "400.00", out.TotalPrice)
	assert.Equal(t, "EUR", out.Currency)
	assert.Equal(t, 4, out.Nights)

	stored, err := f.Bookings.ByID(context.Background(), domainbooking.BookingID(out.ID))
	require.NoError(t, err)
	assert.Equal(t, domainbooking.SourceWebsite, stored.Source)
}

func TestCreateBookingConflicts(t *testing.T) {
	f := memory.NewFactory()
	h := newCreateHandler(f)
	_, err := h.Handle(context.Background(), request("2024-03-01", "2024-03-05"))
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), request("2024-03-04", "2024-03-08"))
	var conflict *domainavailability.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "date unavailable: 2024-03-04", err.Error())

	_, err = h.Handle(context.Background(), request("2024-03-05", "2024-03-08"))
	assert.NoError(t, err, "checkout day is bookable")
}

func TestCreateBookingConcurrentRequestsBookOnce(t *testing.T) {
	f := memory.NewFactory()
	h := newCreateHandler(f)
	var seq atomic.Int64
	h.IDs = func() string { return fmt.Sprintf("bk-%d", seq.Add(1)) }

	const callers = 50
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		errs      = make(chan error, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.Handle(context.Background(), request("2024-03-01", "2024-03-05")); err != nil {
				errs <- err
				return
			}
			succeeded.Add(1)
		}()
	}
	wg.Wait()
	close(errs)

	assert.Equal(t, int64(1), succeeded.Load())
	for err := range errs {
		assert.ErrorIs(t, err, domainavailability.ErrDateUnavailable)
	}
	dr, _ := daterange.Parse("2024-03-01", "2024-03-05")
	stored, err := f.Bookings.Intersecting(context.Background(), dr)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

type failingOutbox struct{}

func (failingOutbox) Add(context.Context, outbox.EventRecord) error { return errors.New("outbox down") }

func (failingOutbox) Flush(context.Context) error { return nil }

func TestCreateBookingLeavesNothingWhenEventsCannotBeRecorded(t *testing.T) {
	f := memory.NewFactory()
	h := newCreateHandler(f)
	h.Outbox = failingOutbox{}

	_, err := h.Handle(context.Background(), request("2024-03-01", "2024-03-05"))
	require.EqualError(t, err, "outbox down")

	dr, _ := daterange.Parse("2024-03-01", "2024-03-05")
	stored, err := f.Bookings.Intersecting(context.Background(), dr)
	require.NoError(t, err)
	assert.Empty(t, stored)

	h.Outbox = nil
	_, err = h.Handle(context.Background(), request("2024-03-01", "2024-03-05"))
	assert.NoError(t, err, "dates are free again after the failed attempt")
}

func TestCreateBookingRespectsBlocksAndWindow(t *testing.T) {
	f := memory.NewFactory()
	dr, _ := daterange.Parse("2024-03-10", "2024-03-12")
	b, _ := domainblocks.New("blk", dr, "Airbnb: Reserved", now)
	require.NoError(t, f.Blocks.Insert(context.Background(), b))
	h := newCreateHandler(f)

	_, err := h.Handle(context.Background(), request("2024-03-08", "2024-03-11"))
	assert.ErrorIs(t, err, domainavailability.ErrDateUnavailable)

	_, err = h.Handle(context.Background(), request("2025-02-08", "2025-02-11"))
	assert.EqualError(t, err, "date unavailable: 2025-02-10")
}

func TestCreateBookingValidation(t *testing.T) {
	h := newCreateHandler(memory.NewFactory())

	_, err := h.Handle(context.Background(), request("2024-02-01", "2024-02-03"))
	assert.ErrorIs(t, err, domainbooking.ErrCheckInInPast)

	_, err = h.Handle(context.Background(), request("2024-03-05", "2024-03-05"))
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)

	cmd := request("2024-03-01", "2024-03-03")
	cmd.GuestsCount = 9
	_, err = h.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, domainbooking.ErrInvalidGuests)
}

func TestStatusChangeRechecksOccupancy(t *testing.T) {
	f := memory.NewFactory()
	ctx := context.Background()
	dr, _ := daterange.Parse("2024-03-01", "2024-03-05")
	inquiry, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID: "inq", Range: dr, GuestsCount: 1, Status: domainbooking.StatusInquiry,
		Guest: domainbooking.Guest{Name: "I", Email: "i@example.com"}, CreatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, f.Bookings.Insert(ctx, inquiry))

	_, err = newCreateHandler(f).Handle(ctx, request("2024-03-03", "2024-03-06"))
	require.NoError(t, err, "inquiries do not occupy dates")

	m := &booking.ManageBookingHandler{
		UoWFactory: f,
		Resolver:   domainavailability.NewResolver(domainavailability.DefaultPolicy()),
		Clock:      policies.FixedClock{T: now},
	}
	_, err = m.ChangeStatus(ctx, booking.ChangeBookingStatusCommand{BookingID: "inq", Status: "confirmed"})
	assert.EqualError(t, err, "date unavailable: 2024-03-03")

	out, err := m.ChangeStatus(ctx, booking.ChangeBookingStatusCommand{BookingID: "inq", Status: "cancelled"})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", out.Status)
}

func TestPaymentConfirmationAndDelete(t *testing.T) {
	f := memory.NewFactory()
	ctx := context.Background()
	created, err := newCreateHandler(f).Handle(ctx, request("2024-03-01", "2024-03-05"))
	require.NoError(t, err)

	m := &booking.ManageBookingHandler{
		UoWFactory: f,
		Resolver:   domainavailability.NewResolver(domainavailability.DefaultPolicy()),
		Clock:      policies.FixedClock{T: now},
	}
	paid, err := m.ConfirmPayment(ctx, booking.ConfirmPaymentCommand{BookingID: created.ID, Method: "card", Reference: "pi_1"})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", paid.Status)
	require.NotNil(t, paid.PaidAt)

	_, err = m.Delete(ctx, booking.DeleteBookingCommand{BookingID: created.ID})
	require.NoError(t, err)

	q := &booking.BookingQueries{UoWFactory: f}
	_, err = q.Get(ctx, booking.GetBookingQuery{BookingID: created.ID})
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
}

func TestListBookings(t *testing.T) {
	f := memory.NewFactory()
	ctx := context.Background()
	h := newCreateHandler(f)
	_, err := h.Handle(ctx, request("2024-03-01", "2024-03-05"))
	require.NoError(t, err)
	_, err = h.Handle(ctx, request("2024-04-01", "2024-04-05"))
	require.NoError(t, err)

	q := &booking.BookingQueries{UoWFactory: f}
	list, err := q.List(ctx, booking.ListBookingsQuery{Start: day("2024-03-04"), End: day("2024-03-20")})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "2024-03-01", list.Items[0].CheckIn)
}
