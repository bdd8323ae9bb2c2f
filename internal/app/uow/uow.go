package uow

import (
	"context"
	"errors"

	"staycal/internal/domain/blocks"
	"staycal/internal/domain/booking"
	"staycal/internal/domain/calendarsync"
)

// ErrConcurrentUpdate is returned when the store aborts a unit because a concurrent writer won.
var ErrConcurrentUpdate = errors.New("uow: concurrent update, retry")

// UnitOfWork scopes repository calls to one transaction.
type UnitOfWork interface {
	Bookings() booking.Repository
	Blocks() blocks.Repository
	SyncRecords() calendarsync.Repository

	// Guard serialises writers that check availability before inserting. It must be called
	// before the availability snapshot is read.
	Guard(ctx context.Context) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}

// ContextInjector is implemented by units that carry store state (sessions) in the context.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}

// Begin starts a unit and returns the context handlers must use with it.
func Begin(ctx context.Context, factory UoWFactory, opts TxOptions) (UnitOfWork, context.Context, error) {
	if factory == nil {
		return nil, ctx, ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, ctx, err
	}
	execCtx := ctx
	if injector, ok := unit.(ContextInjector); ok {
		execCtx = injector.InjectContext(ctx)
	}
	return unit, ContextWithUnitOfWork(execCtx, unit), nil
}

// Within runs fn in the unit carried by ctx, or in a fresh unit that is committed when fn
// succeeds and rolled back otherwise.
func Within(ctx context.Context, factory UoWFactory, opts TxOptions, fn func(ctx context.Context, unit UnitOfWork) error) error {
	if unit, ok := FromContext(ctx); ok {
		return fn(ctx, unit)
	}
	unit, execCtx, err := Begin(ctx, factory, opts)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(execCtx)
		}
	}()
	if err := fn(execCtx, unit); err != nil {
		return err
	}
	if err := unit.Commit(execCtx); err != nil {
		return err
	}
	committed = true
	return nil
}
