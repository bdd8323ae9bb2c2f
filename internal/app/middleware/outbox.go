package middleware

import (
	"context"
	"errors"

	"staycal/internal/app/commands"
	"staycal/internal/app/outbox"
)

// OutboxFlush must sit outside Transaction: events reach the relay only after the unit
// committed. Self-transacting commands commit row by row, so their events are flushed even
// when the command reports an error.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			ctx = outbox.WithBatch(ctx)
			res, err := nextFn(ctx, cmd)
			if err != nil {
				if _, ok := cmd.(SelfTransacting); ok {
					if flushErr := box.Flush(ctx); flushErr != nil {
						return nil, errors.Join(err, flushErr)
					}
				}
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
