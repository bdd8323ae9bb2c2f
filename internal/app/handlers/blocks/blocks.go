package blocks

import (
	"context"
	"time"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	"staycal/internal/app/outbox"
	"staycal/internal/app/policies"
	"staycal/internal/app/queries"
	"staycal/internal/app/uow"
	domainblocks "staycal/internal/domain/blocks"
	"staycal/internal/domain/shared/daterange"
)

const (
	createBlockKey = "blocks.create"
	deleteBlockKey = "blocks.delete"
	listBlocksKey  = "blocks.list"
)

type CreateBlockCommand struct {
	Start  time.Time `validate:"required"`
	End    time.Time `validate:"required"`
	Reason string    `validate:"max=500"`
}

func (c CreateBlockCommand) Key() string { return createBlockKey }

type DeleteBlockCommand struct {
	BlockID string `validate:"required"`
}

func (c DeleteBlockCommand) Key() string { return deleteBlockKey }

type ListBlocksQuery struct {
	Start time.Time `validate:"required"`
	End   time.Time `validate:"required"`
}

func (q ListBlocksQuery) Key() string { return listBlocksKey }

type Handler struct {
	UoWFactory uow.UoWFactory
	Clock      policies.Clock
	IDs        policies.IDGenerator
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

// Create stores a manual block. Blocks may overlap bookings; the resolver ranks bookings first.
func (h *Handler) Create(ctx context.Context, cmd CreateBlockCommand) (*dto.Block, error) {
	dr, err := daterange.New(cmd.Start, cmd.End)
	if err != nil {
		return nil, err
	}
	now := h.Clock.Now()
	b, err := domainblocks.New(domainblocks.BlockID(h.IDs()), dr, domainblocks.ManualReason(cmd.Reason), now)
	if err != nil {
		return nil, err
	}
	err = uow.Within(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		if err := unit.Blocks().Insert(ctx, b); err != nil {
			return err
		}
		return outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, createdEvents(b))
	})
	if err != nil {
		return nil, err
	}
	out := dto.MapBlock(b)
	return &out, nil
}

func (h *Handler) Delete(ctx context.Context, cmd DeleteBlockCommand) (*dto.Block, error) {
	var out dto.Block
	err := uow.Within(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Blocks().ByID(ctx, domainblocks.BlockID(cmd.BlockID))
		if err != nil {
			return err
		}
		if err := unit.Blocks().Delete(ctx, b.ID); err != nil {
			return err
		}
		out = dto.MapBlock(b)
		return outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, deletedEvents(b.ID, h.Clock.Now()))
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *Handler) List(ctx context.Context, q ListBlocksQuery) (dto.BlockCollection, error) {
	dr, err := daterange.New(q.Start, q.End)
	if err != nil {
		return dto.BlockCollection{}, err
	}
	var out dto.BlockCollection
	err = uow.Within(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		list, err := unit.Blocks().Intersecting(ctx, dr)
		if err != nil {
			return err
		}
		out = dto.MapBlocks(list)
		return nil
	})
	return out, err
}

func (h *Handler) Register(cmdBus *commands.InMemoryBus, queryBus *queries.InMemoryBus) {
	commands.RegisterHandler[CreateBlockCommand, *dto.Block](cmdBus, commands.HandlerFunc[CreateBlockCommand, *dto.Block](h.Create))
	commands.RegisterHandler[DeleteBlockCommand, *dto.Block](cmdBus, commands.HandlerFunc[DeleteBlockCommand, *dto.Block](h.Delete))
	queries.RegisterHandler[ListBlocksQuery, dto.BlockCollection](queryBus, queries.HandlerFunc[ListBlocksQuery, dto.BlockCollection](h.List))
}
