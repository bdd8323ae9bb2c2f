// Package wiring assembles the command and query buses from ports and stores.
package wiring

import (
	"log/slog"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	availabilityapp "staycal/internal/app/handlers/availability"
	blocksapp "staycal/internal/app/handlers/blocks"
	bookingapp "staycal/internal/app/handlers/booking"
	syncapp "staycal/internal/app/handlers/calendarsync"
	"staycal/internal/app/handlers/maintenance"
	"staycal/internal/app/middleware"
	"staycal/internal/app/outbox"
	"staycal/internal/app/policies"
	"staycal/internal/app/queries"
	"staycal/internal/app/uow"
	domainavailability "staycal/internal/domain/availability"
)

type Deps struct {
	UoW         uow.UoWFactory
	Policy      domainavailability.Policy
	Pricing     policies.PricingPort
	Fetcher     policies.FeedFetcher
	Clock       policies.Clock
	IDs         policies.IDGenerator
	MaxGuests   int
	Sources     []string
	Idempotency middleware.IdempotencyStore
	Sink        outbox.Sink
	Validator   middleware.Validator
	Recorder    middleware.Recorder
	Observer    policies.SyncObserver
	Logger      *slog.Logger
}

type Buses struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// Build registers every handler and wraps the buses in the standard middleware chain:
// instrument, validate, idempotency, outbox flush, transaction.
func Build(d Deps) Buses {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Clock == nil {
		d.Clock = policies.SystemClock{}
	}
	if d.Observer == nil {
		d.Observer = policies.NopObserver{}
	}
	box := outbox.NewBuffered(d.Sink)
	encoder := outbox.JSONEventEncoder{IDGenerator: d.IDs}
	resolver := domainavailability.NewResolver(d.Policy)

	cmdBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()

	createBooking := &bookingapp.CreateBookingHandler{
		UoWFactory: d.UoW,
		Resolver:   resolver,
		Pricing:    d.Pricing,
		Clock:      d.Clock,
		IDs:        d.IDs,
		MaxGuests:  d.MaxGuests,
		Outbox:     box,
		Encoder:    encoder,
		Observer:   d.Observer,
	}
	commands.RegisterHandler[bookingapp.CreateBookingCommand, *dto.Booking](cmdBus, createBooking)

	manage := &bookingapp.ManageBookingHandler{
		UoWFactory: d.UoW,
		Resolver:   resolver,
		Clock:      d.Clock,
		Outbox:     box,
		Encoder:    encoder,
		Observer:   d.Observer,
	}
	manage.Register(cmdBus)
	(&bookingapp.BookingQueries{UoWFactory: d.UoW}).Register(queryBus)

	blockHandler := &blocksapp.Handler{
		UoWFactory: d.UoW,
		Clock:      d.Clock,
		IDs:        d.IDs,
		Outbox:     box,
		Encoder:    encoder,
	}
	blockHandler.Register(cmdBus, queryBus)

	reconciler := &syncapp.Reconciler{
		UoWFactory: d.UoW,
		Fetcher:    d.Fetcher,
		Clock:      d.Clock,
		IDs:        d.IDs,
		Logger:     d.Logger,
		Observer:   d.Observer,
		Outbox:     box,
		Encoder:    encoder,
		Sources:    d.Sources,
	}
	(&syncapp.Handlers{Reconciler: reconciler, UoWFactory: d.UoW}).Register(cmdBus, queryBus)

	consolidator := &maintenance.Consolidator{
		UoWFactory: d.UoW,
		Clock:      d.Clock,
		Logger:     d.Logger,
		Observer:   d.Observer,
		Outbox:     box,
		Encoder:    encoder,
	}
	commands.RegisterHandler[maintenance.CleanupCommand, dto.CleanupResult](cmdBus, &maintenance.CleanupHandler{Consolidator: consolidator})

	queries.RegisterHandler[availabilityapp.GetAvailabilityQuery, []dto.AvailabilityDay](queryBus, &availabilityapp.GetAvailabilityHandler{
		UoWFactory: d.UoW,
		Resolver:   resolver,
		Clock:      d.Clock,
	})
	queries.RegisterHandler[availabilityapp.QuoteStayQuery, dto.Quote](queryBus, &availabilityapp.QuoteStayHandler{
		UoWFactory: d.UoW,
		Resolver:   resolver,
		Pricing:    d.Pricing,
		Clock:      d.Clock,
	})

	cmdMW := []middleware.CommandMiddleware{middleware.Instrument(d.Recorder, d.Logger)}
	queryMW := []middleware.QueryMiddleware{middleware.InstrumentQueries(d.Recorder)}
	if d.Validator != nil {
		cmdMW = append(cmdMW, middleware.Validation(d.Validator))
		queryMW = append(queryMW, middleware.QueryValidation(d.Validator))
	}
	if d.Idempotency != nil {
		cmdMW = append(cmdMW, middleware.Idempotency(d.Idempotency, nil))
	}
	cmdMW = append(cmdMW,
		middleware.OutboxFlush(box),
		middleware.Transaction(d.UoW, nil),
	)

	return Buses{
		Commands: middleware.ChainCommands(cmdBus, cmdMW...),
		Queries:  middleware.ChainQueries(queryBus, queryMW...),
	}
}
