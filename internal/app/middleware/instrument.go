package middleware

import (
	"context"
	"log/slog"
	"time"

	"staycal/internal/app/commands"
	"staycal/internal/app/queries"
)

// Recorder receives one observation per dispatched message.
type Recorder interface {
	ObserveMessage(kind, key string, took time.Duration, err error)
}

// Instrument logs and records every command.
func Instrument(rec Recorder, logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			took := time.Since(start)
			if rec != nil {
				rec.ObserveMessage("command", cmd.Key(), took, err)
			}
			if err != nil {
				logger.WarnContext(ctx, "command failed", "command", cmd.Key(), "duration", took, "error", err)
			} else {
				logger.DebugContext(ctx, "command handled", "command", cmd.Key(), "duration", took)
			}
			return res, err
		})
	}
}

func InstrumentQueries(rec Recorder) QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, q)
			if rec != nil {
				rec.ObserveMessage("query", q.Key(), time.Since(start), err)
			}
			return res, err
		})
	}
}
