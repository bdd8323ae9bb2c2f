package booking

import (
	"context"
	"errors"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	availabilityhandlers "staycal/internal/app/handlers/availability"
	"staycal/internal/app/outbox"
	"staycal/internal/app/policies"
	"staycal/internal/app/uow"
	domainavailability "staycal/internal/domain/availability"
	domainbooking "staycal/internal/domain/booking"
)

const (
	changeStatusKey   = "booking.change_status"
	confirmPaymentKey = "booking.confirm_payment"
	deleteBookingKey  = "booking.delete"
)

type ChangeBookingStatusCommand struct {
	BookingID string `validate:"required"`
	Status    string `validate:"required,oneof=inquiry pending confirmed cancelled completed"`
}

func (c ChangeBookingStatusCommand) Key() string { return changeStatusKey }

type ConfirmPaymentCommand struct {
	BookingID string `validate:"required"`
	Method    string `validate:"required,max=64"`
	Reference string `validate:"required,max=255"`
}

func (c ConfirmPaymentCommand) Key() string { return confirmPaymentKey }

type DeleteBookingCommand struct {
	BookingID string `validate:"required"`
}

func (c DeleteBookingCommand) Key() string { return deleteBookingKey }

// ManageBookingHandler serves the admin lifecycle commands. The transaction middleware
// provides the unit.
type ManageBookingHandler struct {
	UoWFactory uow.UoWFactory
	Resolver   domainavailability.Resolver
	Clock      policies.Clock
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Observer   policies.SyncObserver
}

func (h *ManageBookingHandler) ChangeStatus(ctx context.Context, cmd ChangeBookingStatusCommand) (*dto.Booking, error) {
	to, err := domainbooking.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	return h.mutate(ctx, cmd.BookingID, func(b *domainbooking.Booking) error {
		return b.ChangeStatus(to, h.Clock.Now())
	})
}

func (h *ManageBookingHandler) ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (*dto.Booking, error) {
	return h.mutate(ctx, cmd.BookingID, func(b *domainbooking.Booking) error {
		return b.ConfirmPayment(cmd.Method, cmd.Reference, h.Clock.Now())
	})
}

func (h *ManageBookingHandler) Delete(ctx context.Context, cmd DeleteBookingCommand) (*dto.Booking, error) {
	var deleted *domainbooking.Booking
	err := uow.Within(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		if err := unit.Bookings().Delete(ctx, b.ID); err != nil {
			return err
		}
		b.MarkDeleted(h.Clock.Now())
		deleted = b
		return outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, b.DrainEvents())
	})
	if err != nil {
		return nil, err
	}
	out := dto.MapBooking(deleted)
	return &out, nil
}

// mutate applies change and, when the booking starts occupying dates it did not occupy
// before, re-checks those dates against everything else on the calendar.
func (h *ManageBookingHandler) mutate(ctx context.Context, id string, change func(b *domainbooking.Booking) error) (*dto.Booking, error) {
	var updated *domainbooking.Booking
	err := uow.Within(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		if err := unit.Guard(ctx); err != nil {
			return err
		}
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(id))
		if err != nil {
			return err
		}
		wasOccupying := h.Resolver.Policy.Occupies(b.Status)
		if err := change(b); err != nil {
			return err
		}
		if !wasOccupying && h.Resolver.Policy.Occupies(b.Status) {
			snap, err := availabilityhandlers.LoadSnapshot(ctx, unit, b.Range)
			if err != nil {
				return err
			}
			if err := h.Resolver.FirstConflict(b.Range, h.Clock.Now(), snap.Without(b.ID)); err != nil {
				return err
			}
		}
		if err := unit.Bookings().Update(ctx, b); err != nil {
			return err
		}
		updated = b
		return outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, b.DrainEvents())
	})
	if err != nil {
		observeConflict(h.Observer, err)
		return nil, err
	}
	out := dto.MapBooking(updated)
	return &out, nil
}

func observeConflict(obs policies.SyncObserver, err error) {
	if obs != nil && (errors.Is(err, domainavailability.ErrDateUnavailable) || errors.Is(err, uow.ErrConcurrentUpdate)) {
		obs.ObserveConflict()
	}
}

func (h *ManageBookingHandler) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler[ChangeBookingStatusCommand, *dto.Booking](bus, commands.HandlerFunc[ChangeBookingStatusCommand, *dto.Booking](h.ChangeStatus))
	commands.RegisterHandler[ConfirmPaymentCommand, *dto.Booking](bus, commands.HandlerFunc[ConfirmPaymentCommand, *dto.Booking](h.ConfirmPayment))
	commands.RegisterHandler[DeleteBookingCommand, *dto.Booking](bus, commands.HandlerFunc[DeleteBookingCommand, *dto.Booking](h.Delete))
}
