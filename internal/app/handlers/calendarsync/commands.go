package calendarsync

import (
	"context"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	"staycal/internal/app/queries"
	"staycal/internal/app/uow"
	domainsync "staycal/internal/domain/calendarsync"
)

const (
	syncCalendarKey  = "calendar.sync"
	syncScheduledKey = "calendar.sync_scheduled"
	listRecordsKey   = "calendar.sync_records"
)

type SyncCalendarCommand struct {
	Source  string `validate:"required,source"`
	ICalURL string `validate:"required,url"`
}

func (c SyncCalendarCommand) Key() string { return syncCalendarKey }

func (c SyncCalendarCommand) SelfTransacting() {}

type SyncScheduledCommand struct{}

func (c SyncScheduledCommand) Key() string { return syncScheduledKey }

func (c SyncScheduledCommand) SelfTransacting() {}

type ListSyncRecordsQuery struct{}

func (q ListSyncRecordsQuery) Key() string { return listRecordsKey }

type Handlers struct {
	Reconciler *Reconciler
	UoWFactory uow.UoWFactory
}

func (h *Handlers) Sync(ctx context.Context, cmd SyncCalendarCommand) (domainsync.Result, error) {
	return h.Reconciler.Sync(ctx, cmd.Source, cmd.ICalURL)
}

func (h *Handlers) SyncScheduled(ctx context.Context, _ SyncScheduledCommand) (dto.ScheduledSyncReport, error) {
	outcomes, err := h.Reconciler.SyncScheduled(ctx)
	if err != nil {
		return dto.ScheduledSyncReport{}, err
	}
	return dto.MapOutcomes(outcomes), nil
}

func (h *Handlers) ListRecords(ctx context.Context, _ ListSyncRecordsQuery) (dto.SyncRecordCollection, error) {
	var out dto.SyncRecordCollection
	err := uow.Within(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		list, err := unit.SyncRecords().List(ctx)
		if err != nil {
			return err
		}
		out = dto.MapSyncRecords(list)
		return nil
	})
	return out, err
}

func (h *Handlers) Register(cmdBus *commands.InMemoryBus, queryBus *queries.InMemoryBus) {
	commands.RegisterHandler[SyncCalendarCommand, domainsync.Result](cmdBus, commands.HandlerFunc[SyncCalendarCommand, domainsync.Result](h.Sync))
	commands.RegisterHandler[SyncScheduledCommand, dto.ScheduledSyncReport](cmdBus, commands.HandlerFunc[SyncScheduledCommand, dto.ScheduledSyncReport](h.SyncScheduled))
	queries.RegisterHandler[ListSyncRecordsQuery, dto.SyncRecordCollection](queryBus, queries.HandlerFunc[ListSyncRecordsQuery, dto.SyncRecordCollection](h.ListRecords))
}
