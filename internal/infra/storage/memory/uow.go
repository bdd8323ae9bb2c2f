package memory

import (
	"context"
	"maps"
	"sync"

	"staycal/internal/app/uow"
	domainblocks "staycal/internal/domain/blocks"
	domainbooking "staycal/internal/domain/booking"
	domainsync "staycal/internal/domain/calendarsync"
)

// Factory hands out units over shared in-memory repositories. Write units hold a single
// writer lock from Begin until Commit or Rollback; writes are applied immediately and
// Rollback restores the state captured at Begin.
type Factory struct {
	Bookings    *BookingRepository
	Blocks      *BlockRepository
	SyncRecords *SyncRecordRepository

	writer sync.Mutex
}

func NewFactory() *Factory {
	return &Factory{
		Bookings:    NewBookingRepository(),
		Blocks:      NewBlockRepository(),
		SyncRecords: NewSyncRecordRepository(),
	}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	u := &Unit{factory: f}
	if !opts.ReadOnly {
		f.writer.Lock()
		u.release = sync.OnceFunc(f.writer.Unlock)
		u.saved = f.snapshot()
	}
	return u, nil
}

type snapshot struct {
	bookings    map[domainbooking.BookingID]domainbooking.Booking
	blocks      map[domainblocks.BlockID]domainblocks.Block
	syncRecords map[string]domainsync.Record
}

func (f *Factory) snapshot() *snapshot {
	s := &snapshot{}
	f.Bookings.mu.RLock()
	s.bookings = maps.Clone(f.Bookings.items)
	f.Bookings.mu.RUnlock()
	f.Blocks.mu.RLock()
	s.blocks = maps.Clone(f.Blocks.items)
	f.Blocks.mu.RUnlock()
	f.SyncRecords.mu.RLock()
	s.syncRecords = maps.Clone(f.SyncRecords.items)
	f.SyncRecords.mu.RUnlock()
	return s
}

func (f *Factory) restore(s *snapshot) {
	f.Bookings.mu.Lock()
	f.Bookings.items = s.bookings
	f.Bookings.mu.Unlock()
	f.Blocks.mu.Lock()
	f.Blocks.items = s.blocks
	f.Blocks.mu.Unlock()
	f.SyncRecords.mu.Lock()
	f.SyncRecords.items = s.syncRecords
	f.SyncRecords.mu.Unlock()
}

type Unit struct {
	factory *Factory
	release func()
	saved   *snapshot
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.factory.Bookings
}

func (u *Unit) Blocks() domainblocks.Repository {
	return u.factory.Blocks
}

func (u *Unit) SyncRecords() domainsync.Repository {
	return u.factory.SyncRecords
}

// Guard is a no-op: the writer lock already serialises write units.
func (u *Unit) Guard(ctx context.Context) error {
	return nil
}

func (u *Unit) Commit(ctx context.Context) error {
	u.saved = nil
	u.done()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.saved != nil {
		u.factory.restore(u.saved)
		u.saved = nil
	}
	u.done()
	return nil
}

func (u *Unit) done() {
	if u.release != nil {
		u.release()
	}
}

var _ uow.UoWFactory = (*Factory)(nil)
