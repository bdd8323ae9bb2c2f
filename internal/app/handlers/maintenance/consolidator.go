package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"staycal/internal/app/outbox"
	"staycal/internal/app/policies"
	"staycal/internal/app/uow"
	domainblocks "staycal/internal/domain/blocks"
	"staycal/internal/domain/calendarsync"
	"staycal/internal/domain/shared/daterange"
	"staycal/internal/domain/shared/events"
)

const (
	ActionRemoveDuplicates = "remove-duplicates"
	ActionCleanupPast      = "cleanup-past"
	ActionClearSource      = "clear-source"
	ActionFullCleanup      = "full-cleanup"
)

var ErrUnknownAction = errors.New("maintenance: unknown cleanup action")

// Consolidator removes redundant blocks. Every delete runs in its own unit so one failing
// row never rolls back the others.
type Consolidator struct {
	UoWFactory uow.UoWFactory
	Clock      policies.Clock
	Logger     *slog.Logger
	Observer   policies.SyncObserver
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

// RemoveOverlaps keeps the oldest block of every group of transitively overlapping blocks
// and deletes the rest. A second run right after the first deletes nothing.
func (c *Consolidator) RemoveOverlaps(ctx context.Context) (int, error) {
	ctx = uow.Detach(ctx)
	var (
		pairs []domainblocks.Pair
		all   []*domainblocks.Block
	)
	err := uow.Within(ctx, c.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		var err error
		if pairs, err = unit.Blocks().OverlappingPairs(ctx); err != nil {
			return err
		}
		if len(pairs) == 0 {
			return nil
		}
		all, err = unit.Blocks().All(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("maintenance: load blocks: %w", err)
	}
	doomed := domainblocks.PlanConsolidation(pairs, all)
	deleted := 0
	for _, id := range doomed {
		err := uow.Within(ctx, c.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
			return unit.Blocks().Delete(ctx, id)
		})
		if err != nil {
			c.logger().WarnContext(ctx, "consolidation delete failed", "block_id", id, "error", err)
			continue
		}
		deleted++
	}
	c.finish(ctx, ActionRemoveDuplicates, "", deleted)
	return deleted, nil
}

// CleanupPast deletes blocks that ended before today.
func (c *Consolidator) CleanupPast(ctx context.Context) (int, error) {
	today := daterange.Day(c.Clock.Now())
	n, err := c.bulk(ctx, func(ctx context.Context, repo domainblocks.Repository) (int, error) {
		return repo.DeleteEndingBefore(ctx, today)
	})
	if err != nil {
		return 0, err
	}
	c.finish(ctx, ActionCleanupPast, "", n)
	return n, nil
}

// ClearSource deletes every block whose reason carries the tag of source.
func (c *Consolidator) ClearSource(ctx context.Context, source string) (int, error) {
	src, err := calendarsync.NormalizeSource(source)
	if err != nil {
		return 0, err
	}
	n, err := c.bulk(ctx, func(ctx context.Context, repo domainblocks.Repository) (int, error) {
		return repo.DeleteBySource(ctx, src)
	})
	if err != nil {
		return 0, err
	}
	c.finish(ctx, ActionClearSource, src, n)
	return n, nil
}

// FullCleanup runs CleanupPast then RemoveOverlaps and returns the summed count.
func (c *Consolidator) FullCleanup(ctx context.Context) (int, error) {
	past, err := c.CleanupPast(ctx)
	if err != nil {
		return 0, err
	}
	overlaps, err := c.RemoveOverlaps(ctx)
	if err != nil {
		return past, err
	}
	return past + overlaps, nil
}

// Run dispatches one of the Action constants.
func (c *Consolidator) Run(ctx context.Context, action, source string) (int, error) {
	switch action {
	case ActionRemoveDuplicates:
		return c.RemoveOverlaps(ctx)
	case ActionCleanupPast:
		return c.CleanupPast(ctx)
	case ActionClearSource:
		return c.ClearSource(ctx, source)
	case ActionFullCleanup:
		return c.FullCleanup(ctx)
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, action)
}

func (c *Consolidator) bulk(ctx context.Context, fn func(ctx context.Context, repo domainblocks.Repository) (int, error)) (int, error) {
	var n int
	err := uow.Within(uow.Detach(ctx), c.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		var err error
		n, err = fn(ctx, unit.Blocks())
		return err
	})
	return n, err
}

func (c *Consolidator) finish(ctx context.Context, action, source string, deleted int) {
	c.logger().InfoContext(ctx, "blocks cleaned", "action", action, "source", source, "deleted", deleted)
	if c.Observer != nil {
		c.Observer.ObserveCleanup(action, deleted)
	}
	if deleted == 0 {
		return
	}
	ev := domainblocks.BlocksConsolidated{Action: action, Source: source, Deleted: deleted, At: c.Clock.Now()}
	if err := outbox.RecordDomainEvents(ctx, c.Outbox, c.Encoder, []events.DomainEvent{ev}); err != nil {
		c.logger().WarnContext(ctx, "record cleanup event", "action", action, "error", err)
	}
}

func (c *Consolidator) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
