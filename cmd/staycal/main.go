package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	syncapp "staycal/internal/app/handlers/calendarsync"
	"staycal/internal/app/handlers/maintenance"
	"staycal/internal/app/middleware"
	appoutbox "staycal/internal/app/outbox"
	"staycal/internal/app/policies"
	"staycal/internal/app/schedule"
	"staycal/internal/app/uow"
	"staycal/internal/app/wiring"
	domainavailability "staycal/internal/domain/availability"
	domainbooking "staycal/internal/domain/booking"
	"staycal/internal/infra/broker/kafka"
	redisstore "staycal/internal/infra/cache/redis"
	"staycal/internal/infra/config"
	"staycal/internal/infra/db/mongo"
	"staycal/internal/infra/db/postgres"
	ginserver "staycal/internal/infra/http/gin"
	"staycal/internal/infra/ical"
	"staycal/internal/infra/obs"
	"staycal/internal/infra/outbox"
	"staycal/internal/infra/pricing"
	"staycal/internal/infra/storage/memory"
	"staycal/internal/infra/storage/s3"
	"staycal/internal/infra/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.App.Env, cfg.App.LogLevel)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("staycal stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("staycal stopped")
}

// infrastructure is everything run needs to close on the way out.
type infrastructure struct {
	uow         uow.UoWFactory
	idempotency middleware.IdempotencyStore
	queue       outbox.Queue
	sink        appoutbox.Sink
	locker      schedule.Locker
	publisher   kafka.Publisher
	archiver    ical.Archiver
	checks      map[string]obs.Check
	closers     []func(context.Context) error
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	infra, err := buildInfrastructure(ctx, cfg, logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for i := len(infra.closers) - 1; i >= 0; i-- {
			if err := infra.closers[i](closeCtx); err != nil {
				logger.Warn("close failed", "error", err)
			}
		}
	}()
	if err != nil {
		return err
	}

	rules, err := buildPricing(cfg, logger)
	if err != nil {
		return err
	}
	policy, err := buildPolicy(cfg)
	if err != nil {
		return err
	}

	metrics := obs.NewMetrics()
	buses := wiring.Build(wiring.Deps{
		UoW:         infra.uow,
		Policy:      policy,
		Pricing:     rules,
		Fetcher:     ical.NewFetcher(cfg.Sync.FetchTimeout, infra.archiver, logger),
		Clock:       policies.SystemClock{},
		IDs:         uuid.NewString,
		MaxGuests:   cfg.Booking.MaxGuests,
		Sources:     cfg.Sync.Sources,
		Idempotency: infra.idempotency,
		Sink:        infra.sink,
		Validator:   validation.New(),
		Recorder:    metrics,
		Observer:    metrics,
		Logger:      logger,
	})

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger, Metrics: metrics}, obs.HealthHandlers{Checks: infra.checks}, ginserver.Handlers{
		Availability: ginserver.AvailabilityHandler{Queries: buses.Queries, Logger: logger},
		Booking:      ginserver.BookingHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Blocks:       ginserver.BlockHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Calendar:     ginserver.CalendarHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Maintenance:  ginserver.MaintenanceHandler{Commands: buses.Commands, Logger: logger},
		Metrics:      metrics.Handler(),
	})

	var wg sync.WaitGroup
	runner := &schedule.Runner{
		Locker: infra.locker,
		Logger: logger,
		Jobs: []schedule.Job{
			{
				Name:     "calendar-sync",
				Interval: cfg.Sync.Interval,
				Run: func(ctx context.Context) error {
					report, err := commands.Dispatch[syncapp.SyncScheduledCommand, dto.ScheduledSyncReport](ctx, buses.Commands, syncapp.SyncScheduledCommand{})
					if err == nil {
						logger.Info("scheduled sync finished", "sources", len(report.Outcomes))
					}
					return err
				},
			},
			{
				Name:     "full-cleanup",
				Interval: cfg.Cleanup.Interval,
				Run: func(ctx context.Context) error {
					_, err := commands.Dispatch[maintenance.CleanupCommand, dto.CleanupResult](ctx, buses.Commands, maintenance.CleanupCommand{Action: maintenance.ActionFullCleanup})
					return err
				},
			},
		},
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		runner.Run(ctx)
	}()

	worker := &outbox.Worker{
		Queue:       infra.queue,
		Producer:    infra.publisher,
		Interval:    cfg.Kafka.Poll,
		TopicPrefix: cfg.Kafka.TopicPrefix,
		Logger:      logger,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTP.Addr, "store", cfg.Store.Driver)
	serveErr := server.ListenAndServe()
	cancel()
	wg.Wait()
	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", serveErr)
	}
	return nil
}

func buildInfrastructure(ctx context.Context, cfg config.Config, logger *slog.Logger) (*infrastructure, error) {
	infra := &infrastructure{checks: map[string]obs.Check{}}

	var mongoClient *mongo.Client
	if cfg.Mongo.URI != "" {
		client, err := mongo.New(ctx, cfg.Mongo.URI, cfg.Mongo.DB)
		if err != nil {
			return infra, err
		}
		mongoClient = client
		infra.closers = append(infra.closers, client.Close)
		infra.checks["mongo"] = client.Ping
	}

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		if cfg.Postgres.AutoMigrate {
			if err := postgres.Migrate(cfg.Postgres.DSN, postgres.MigrateUp, logger); err != nil {
				return infra, err
			}
		}
		db, err := postgres.Connect(ctx, postgres.ClientConfig{
			DSN:          cfg.Postgres.DSN,
			MaxRetry:     cfg.Postgres.MaxRetry,
			RetryWait:    cfg.Postgres.RetryWait,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
		}, logger)
		if err != nil {
			return infra, err
		}
		infra.closers = append(infra.closers, func(context.Context) error { return db.Close() })
		factory := postgres.NewFactory(db)
		infra.uow = factory
		infra.checks["postgres"] = factory.Ping
	case config.DriverMongo:
		if err := mongoClient.EnsureIndexes(ctx); err != nil {
			return infra, err
		}
		infra.uow = mongo.NewFactory(mongoClient.DB)
	default:
		infra.uow = memory.NewFactory()
	}

	if cfg.Redis.Addr != "" {
		client, err := redisstore.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return infra, err
		}
		infra.closers = append(infra.closers, func(context.Context) error { return client.Close() })
		infra.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		infra.idempotency = redisstore.NewIdempotencyStore(client, cfg.Idempotency.TTL)
		infra.locker = redisstore.NewLocker(client)
	} else if mongoClient != nil {
		store, err := mongo.NewIdempotencyStore(ctx, mongoClient.DB, cfg.Idempotency.TTL)
		if err != nil {
			return infra, err
		}
		infra.idempotency = store
	} else {
		infra.idempotency = memory.NewIdempotencyStore(cfg.Idempotency.TTL)
	}

	if mongoClient != nil {
		store, err := outbox.NewStore(ctx, mongoClient.DB)
		if err != nil {
			return infra, err
		}
		infra.queue, infra.sink = store, store
	} else {
		queue := outbox.NewMemoryQueue()
		infra.queue, infra.sink = queue, queue
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, nil)
		if err != nil {
			return infra, fmt.Errorf("kafka: %w", err)
		}
		infra.closers = append(infra.closers, func(context.Context) error { return producer.Close() })
		infra.publisher = producer
	} else {
		infra.publisher = kafka.LogPublisher{Logger: logger}
	}

	if cfg.S3.Endpoint != "" {
		archive, err := s3.NewFeedArchive(cfg.S3.Endpoint, cfg.S3.UseSSL, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Bucket, logger)
		if err != nil {
			return infra, err
		}
		infra.archiver = archive
		infra.checks["s3"] = archive.Ping
	}
	return infra, nil
}

func buildPricing(cfg config.Config, logger *slog.Logger) (*pricing.Rules, error) {
	base, err := decimal.NewFromString(cfg.Pricing.BaseNightly)
	if err != nil {
		return nil, fmt.Errorf("config: PRICING_BASE_NIGHTLY: %w", err)
	}
	weekend := decimal.Zero
	if cfg.Pricing.WeekendNightly != "" {
		if weekend, err = decimal.NewFromString(cfg.Pricing.WeekendNightly); err != nil {
			return nil, fmt.Errorf("config: PRICING_WEEKEND_NIGHTLY: %w", err)
		}
	}
	return pricing.NewRules(base, weekend, cfg.Pricing.Currency, pricing.LoadSeasons(cfg.Pricing.Seasons, logger))
}

func buildPolicy(cfg config.Config) (domainavailability.Policy, error) {
	statuses := make([]domainbooking.Status, 0, len(cfg.Booking.OccupyingStatuses))
	for _, raw := range cfg.Booking.OccupyingStatuses {
		status, err := domainbooking.ParseStatus(raw)
		if err != nil {
			return domainavailability.Policy{}, fmt.Errorf("config: BOOKING_OCCUPYING_STATUSES: %w", err)
		}
		statuses = append(statuses, status)
	}
	return domainavailability.NewPolicy(cfg.Booking.WindowMonths, statuses)
}
