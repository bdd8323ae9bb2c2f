package booking

import (
	"context"
	"time"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	availabilityhandlers "staycal/internal/app/handlers/availability"
	"staycal/internal/app/middleware"
	"staycal/internal/app/outbox"
	"staycal/internal/app/policies"
	"staycal/internal/app/uow"
	domainavailability "staycal/internal/domain/availability"
	domainbooking "staycal/internal/domain/booking"
	"staycal/internal/domain/shared/daterange"
)

const createBookingKey = "booking.create"

type CreateBookingCommand struct {
	CheckIn         time.Time `validate:"required"`
	CheckOut        time.Time `validate:"required"`
	GuestsCount     int       `validate:"gte=1"`
	GuestName       string    `validate:"required,max=200"`
	GuestEmail      string    `validate:"required,email"`
	GuestPhone      string    `validate:"max=40"`
	Notes           string    `validate:"max=2000"`
	Source          string    `validate:"omitempty,oneof=website external manual"`
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &dto.Booking{} }

type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Resolver   domainavailability.Resolver
	Pricing    policies.PricingPort
	Clock      policies.Clock
	IDs        policies.IDGenerator
	MaxGuests  int
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Observer   policies.SyncObserver
}

// Handle checks every night and inserts the booking in one write unit; Guard keeps a
// concurrent request from slipping in between the check and the insert.
func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.Booking, error) {
	dr, err := daterange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	now := h.Clock.Now()
	if err := domainbooking.ValidateCheckIn(dr, now); err != nil {
		return nil, err
	}
	source, err := domainbooking.ParseSource(cmd.Source)
	if err != nil {
		return nil, err
	}

	var created *domainbooking.Booking
	err = uow.Within(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		if err := unit.Guard(ctx); err != nil {
			return err
		}
		snap, err := availabilityhandlers.LoadSnapshot(ctx, unit, dr)
		if err != nil {
			return err
		}
		quote, err := h.Resolver.PriceStay(ctx, dr, now, snap, h.Pricing)
		if err != nil {
			return err
		}
		b, err := domainbooking.NewBooking(domainbooking.CreateParams{
			ID:          domainbooking.BookingID(h.IDs()),
			Range:       dr,
			GuestsCount: cmd.GuestsCount,
			MaxGuests:   h.MaxGuests,
			TotalPrice:  quote.Total,
			Currency:    h.Pricing.Currency(),
			Guest:       domainbooking.Guest{Name: cmd.GuestName, Email: cmd.GuestEmail, Phone: cmd.GuestPhone},
			Notes:       cmd.Notes,
			Source:      source,
			Status:      domainbooking.StatusPending,
			CreatedAt:   now,
		})
		if err != nil {
			return err
		}
		if err := unit.Bookings().Insert(ctx, b); err != nil {
			return err
		}
		created = b
		return outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, b.DrainEvents())
	})
	if err != nil {
		observeConflict(h.Observer, err)
		return nil, err
	}
	out := dto.MapBooking(created)
	return &out, nil
}

var (
	_ commands.Handler[CreateBookingCommand, *dto.Booking] = (*CreateBookingHandler)(nil)
	_ middleware.IdempotentCommand                         = CreateBookingCommand{}
)
