package blocks

import (
	"time"

	domainblocks "staycal/internal/domain/blocks"
	"staycal/internal/domain/shared/daterange"
	"staycal/internal/domain/shared/events"
)

func createdEvents(b *domainblocks.Block) []events.DomainEvent {
	return []events.DomainEvent{domainblocks.BlockCreated{
		BlockID: b.ID,
		Start:   daterange.FormatDay(b.Range.Start),
		End:     daterange.FormatDay(b.Range.End),
		Reason:  b.Reason,
		At:      b.CreatedAt,
	}}
}

func deletedEvents(id domainblocks.BlockID, now time.Time) []events.DomainEvent {
	return []events.DomainEvent{domainblocks.BlockDeleted{BlockID: id, At: now}}
}
