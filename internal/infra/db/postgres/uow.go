package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"staycal/internal/app/uow"
	domainblocks "staycal/internal/domain/blocks"
	domainbooking "staycal/internal/domain/booking"
	domainsync "staycal/internal/domain/calendarsync"
)

// bookingWriterLock is the advisory lock key taken by Guard.
const bookingWriterLock int64 = 0x73746179

// Factory begins SERIALIZABLE transactions on the pool.
type Factory struct {
	DB *sqlx.DB
}

func NewFactory(db *sqlx.DB) *Factory {
	return &Factory{DB: db}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	tx, err := f.DB.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable, ReadOnly: opts.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("postgres: begin: %w", err)
	}
	return &Unit{tx: tx}, nil
}

// Ping is the readiness check of the pool.
func (f *Factory) Ping(ctx context.Context) error {
	return f.DB.PingContext(ctx)
}

type Unit struct {
	tx *sqlx.Tx
}

func (u *Unit) Bookings() domainbooking.Repository {
	return &BookingRepository{db: u.tx}
}

func (u *Unit) Blocks() domainblocks.Repository {
	return &BlockRepository{db: u.tx}
}

func (u *Unit) SyncRecords() domainsync.Repository {
	return &SyncRecordRepository{db: u.tx}
}

// Guard takes a transaction-scoped advisory lock, released on commit or rollback.
func (u *Unit) Guard(ctx context.Context) error {
	if _, err := u.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, bookingWriterLock); err != nil {
		return fmt.Errorf("postgres: guard: %w", mapError(err))
	}
	return nil
}

func (u *Unit) Commit(ctx context.Context) error {
	if err := u.tx.Commit(); err != nil {
		return mapError(err)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

var _ uow.UoWFactory = (*Factory)(nil)
