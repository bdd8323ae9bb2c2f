package maintenance

import (
	"context"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
)

const cleanupKey = "maintenance.cleanup"

type CleanupCommand struct {
	Action string `validate:"required,oneof=remove-duplicates cleanup-past clear-source full-cleanup"`
	Source string `validate:"required_if=Action clear-source,max=32"`
}

func (c CleanupCommand) Key() string { return cleanupKey }

func (c CleanupCommand) SelfTransacting() {}

type CleanupHandler struct {
	Consolidator *Consolidator
}

func (h *CleanupHandler) Handle(ctx context.Context, cmd CleanupCommand) (dto.CleanupResult, error) {
	n, err := h.Consolidator.Run(ctx, cmd.Action, cmd.Source)
	if err != nil {
		return dto.CleanupResult{}, err
	}
	res := dto.CleanupResult{Action: cmd.Action, Count: n}
	if cmd.Action == ActionClearSource {
		res.Source = cmd.Source
	}
	return res, nil
}

var _ commands.Handler[CleanupCommand, dto.CleanupResult] = (*CleanupHandler)(nil)
