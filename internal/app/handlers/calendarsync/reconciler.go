package calendarsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"staycal/internal/app/outbox"
	"staycal/internal/app/policies"
	"staycal/internal/app/uow"
	domainblocks "staycal/internal/domain/blocks"
	domainsync "staycal/internal/domain/calendarsync"
	"staycal/internal/domain/shared/daterange"
	"staycal/internal/domain/shared/events"
)

// DefaultSources are resynced by the scheduler when none are configured.
var DefaultSources = []string{"airbnb", "vrbo"}

// Reconciler imports external feeds as blocks. Each insert and the audit upsert run in their
// own unit: a failing row is logged and skipped.
type Reconciler struct {
	UoWFactory uow.UoWFactory
	Fetcher    policies.FeedFetcher
	Clock      policies.Clock
	IDs        policies.IDGenerator
	Logger     *slog.Logger
	Observer   policies.SyncObserver
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Sources    []string
}

type staged struct {
	key    string
	rng    daterange.DateRange
	reason string
}

// Sync fetches one feed, inserts the events whose "{start}_{end}" key matches no stored
// block of any source, and records the attempt.
func (r *Reconciler) Sync(ctx context.Context, source, icalURL string) (domainsync.Result, error) {
	ctx = uow.Detach(ctx)
	src, err := domainsync.NormalizeSource(source)
	if err != nil {
		return domainsync.Result{}, err
	}
	feed, err := r.Fetcher.Fetch(ctx, icalURL)
	if err != nil {
		var fe *domainsync.FetchError
		if !errors.As(err, &fe) {
			err = &domainsync.FetchError{URL: icalURL, Err: err}
		}
		r.recordFailure(ctx, src, icalURL, err)
		return domainsync.Result{}, err
	}

	existing, err := r.existingKeys(ctx)
	if err != nil {
		r.recordFailure(ctx, src, icalURL, err)
		return domainsync.Result{}, err
	}

	var pending []staged
	for _, ev := range feed {
		dr, err := ev.Range()
		if err != nil {
			r.logger().DebugContext(ctx, "skip feed event", "source", src, "uid", ev.UID, "error", err)
			continue
		}
		key := dr.Key()
		if _, seen := existing[key]; seen {
			continue
		}
		existing[key] = struct{}{}
		pending = append(pending, staged{key: key, rng: dr, reason: domainblocks.Reason(src, ev.Summary)})
	}

	created := 0
	for _, s := range pending {
		b, err := domainblocks.New(domainblocks.BlockID(r.IDs()), s.rng, s.reason, r.Clock.Now())
		if err == nil {
			err = uow.Within(ctx, r.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
				return unit.Blocks().Insert(ctx, b)
			})
		}
		if err != nil {
			r.logger().WarnContext(ctx, "sync insert failed", "source", src, "range", s.key, "error", err)
			continue
		}
		created++
	}

	res := domainsync.Result{NewBlocksCreated: created, TotalEventsSeen: len(feed)}
	now := r.Clock.Now()
	rec := domainsync.Record{
		Source:         src,
		ICalURL:        icalURL,
		LastSynced:     now,
		Status:         domainsync.StatusSuccess,
		BookingsSynced: created,
	}
	if err := r.upsert(ctx, rec); err != nil {
		return res, fmt.Errorf("calendarsync: record %s: %w", src, err)
	}
	r.logger().InfoContext(ctx, "calendar synced", "source", src, "events", len(feed), "created", created)
	r.observe(src, domainsync.KindSuccess, created)
	r.emit(ctx, domainsync.CalendarSynced{Source: src, NewBlocksCreated: created, TotalEventsSeen: len(feed), At: now})
	return res, nil
}

// SyncScheduled resyncs every known source from its stored URL, one after another.
// A failing source never stops the others.
func (r *Reconciler) SyncScheduled(ctx context.Context) ([]domainsync.SourceOutcome, error) {
	ctx = uow.Detach(ctx)
	records := make(map[string]domainsync.Record)
	err := uow.Within(ctx, r.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		list, err := unit.SyncRecords().List(ctx)
		if err != nil {
			return err
		}
		for _, rec := range list {
			records[rec.Source] = rec
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("calendarsync: load records: %w", err)
	}

	sources := r.Sources
	if len(sources) == 0 {
		sources = DefaultSources
	}
	out := make([]domainsync.SourceOutcome, 0, len(sources))
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			out = append(out, domainsync.SourceOutcome{Source: source, Outcome: domainsync.Failed{Err: err}})
			continue
		}
		rec, ok := records[source]
		if !ok || rec.ICalURL == "" {
			out = append(out, domainsync.SourceOutcome{Source: source, Outcome: domainsync.Skipped{Reason: "no ical url on record"}})
			r.observe(source, domainsync.KindSkipped, 0)
			continue
		}
		res, err := r.Sync(ctx, source, rec.ICalURL)
		if err != nil {
			out = append(out, domainsync.SourceOutcome{Source: source, Outcome: domainsync.Failed{Err: err}})
			continue
		}
		out = append(out, domainsync.SourceOutcome{Source: source, Outcome: domainsync.Success{
			NewBlocksCreated: res.NewBlocksCreated,
			TotalEventsSeen:  res.TotalEventsSeen,
		}})
	}
	return out, nil
}

func (r *Reconciler) existingKeys(ctx context.Context) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	err := uow.Within(ctx, r.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		all, err := unit.Blocks().All(ctx)
		if err != nil {
			return err
		}
		for _, b := range all {
			keys[b.Key()] = struct{}{}
		}
		return nil
	})
	return keys, err
}

func (r *Reconciler) recordFailure(ctx context.Context, source, icalURL string, cause error) {
	now := r.Clock.Now()
	rec := domainsync.Record{
		Source:     source,
		ICalURL:    icalURL,
		LastSynced: now,
		Status:     domainsync.StatusFailure,
		LastError:  cause.Error(),
	}
	if err := r.upsert(ctx, rec); err != nil {
		r.logger().ErrorContext(ctx, "record sync failure", "source", source, "error", err)
	}
	r.logger().WarnContext(ctx, "calendar sync failed", "source", source, "error", cause)
	r.observe(source, domainsync.KindFailed, 0)
	r.emit(ctx, domainsync.CalendarSyncFailed{Source: source, Error: cause.Error(), At: now})
}

func (r *Reconciler) upsert(ctx context.Context, rec domainsync.Record) error {
	return uow.Within(ctx, r.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		return unit.SyncRecords().Upsert(ctx, rec)
	})
}

func (r *Reconciler) observe(source string, kind domainsync.OutcomeKind, created int) {
	if r.Observer != nil {
		r.Observer.ObserveSync(source, string(kind), created)
	}
}

func (r *Reconciler) emit(ctx context.Context, ev events.DomainEvent) {
	if err := outbox.RecordDomainEvents(ctx, r.Outbox, r.Encoder, []events.DomainEvent{ev}); err != nil {
		r.logger().WarnContext(ctx, "record sync event", "event", ev.EventName(), "error", err)
	}
}

func (r *Reconciler) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
