package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staycal/internal/app/uow"
	domainblocks "staycal/internal/domain/blocks"
	domainbooking "staycal/internal/domain/booking"
	domainsync "staycal/internal/domain/calendarsync"
)

const (
	guardCollection = "write_guards"
	bookingGuardID  = "bookings"
	writeConflict   = 112
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database
}

func NewFactory(db *mongo.Database) *Factory {
	return &Factory{DB: db}
}

// Begin starts a MongoDB session/transaction.
func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:       f.DB,
		session:  session,
		bookings: NewBookingRepository(f.DB),
		blocks:   NewBlockRepository(f.DB),
		records:  NewSyncRecordRepository(f.DB),
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

	bookings *BookingRepository
	blocks   *BlockRepository
	records  *SyncRecordRepository
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Blocks() domainblocks.Repository {
	return u.blocks
}

func (u *Unit) SyncRecords() domainsync.Repository {
	return u.records
}

// Guard bumps a shared counter document inside the transaction. Two units that both guard
// conflict on that write, and the later one aborts with ErrConcurrentUpdate.
func (u *Unit) Guard(ctx context.Context) error {
	_, err := u.db.Collection(guardCollection).UpdateOne(ctx,
		bson.M{"_id": bookingGuardID},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo: guard: %w", mapError(err))
	}
	return nil
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		return mapError(err)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

// mapError reports transaction write conflicts as ErrConcurrentUpdate.
func mapError(err error) error {
	var labeled mongo.LabeledError
	if errors.As(err, &labeled) && labeled.HasErrorLabel("TransientTransactionError") {
		return fmt.Errorf("%w: %v", uow.ErrConcurrentUpdate, err)
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == writeConflict {
		return fmt.Errorf("%w: %v", uow.ErrConcurrentUpdate, err)
	}
	return err
}

var (
	_ uow.UoWFactory      = (*Factory)(nil)
	_ uow.ContextInjector = (*Unit)(nil)
)
