package booking

import (
	"context"
	"time"

	"staycal/internal/app/dto"
	"staycal/internal/app/queries"
	"staycal/internal/app/uow"
	domainbooking "staycal/internal/domain/booking"
	"staycal/internal/domain/shared/daterange"
)

const (
	getBookingKey   = "booking.get"
	listBookingsKey = "booking.list"
)

type GetBookingQuery struct {
	BookingID string `validate:"required"`
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type ListBookingsQuery struct {
	Start time.Time `validate:"required"`
	End   time.Time `validate:"required"`
}

func (q ListBookingsQuery) Key() string { return listBookingsKey }

type BookingQueries struct {
	UoWFactory uow.UoWFactory
}

func (h *BookingQueries) Get(ctx context.Context, q GetBookingQuery) (*dto.Booking, error) {
	var out dto.Booking
	err := uow.Within(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
		if err != nil {
			return err
		}
		out = dto.MapBooking(b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *BookingQueries) List(ctx context.Context, q ListBookingsQuery) (dto.BookingCollection, error) {
	dr, err := daterange.New(q.Start, q.End)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	var out dto.BookingCollection
	err = uow.Within(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		list, err := unit.Bookings().Intersecting(ctx, dr)
		if err != nil {
			return err
		}
		out = dto.MapBookings(list)
		return nil
	})
	return out, err
}

func (h *BookingQueries) Register(bus *queries.InMemoryBus) {
	queries.RegisterHandler[GetBookingQuery, *dto.Booking](bus, queries.HandlerFunc[GetBookingQuery, *dto.Booking](h.Get))
	queries.RegisterHandler[ListBookingsQuery, dto.BookingCollection](bus, queries.HandlerFunc[ListBookingsQuery, dto.BookingCollection](h.List))
}
