package middleware

import (
	"context"

	"staycal/internal/app/commands"
	"staycal/internal/app/uow"
)

// SelfTransacting is implemented by commands whose handlers open one unit per row so that a
// failing row does not abort its siblings.
type SelfTransacting interface {
	commands.Command
	SelfTransacting()
}

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// Transaction runs every other command inside one unit of work, committed on success.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if _, ok := cmd.(SelfTransacting); ok {
				return nextFn(ctx, cmd)
			}
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			var res any
			err := uow.Within(ctx, factory, opts, func(execCtx context.Context, _ uow.UnitOfWork) error {
				var err error
				res, err = nextFn(execCtx, cmd)
				return err
			})
			if err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
