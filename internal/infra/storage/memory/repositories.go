package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainblocks "staycal/internal/domain/blocks"
	domainbooking "staycal/internal/domain/booking"
	domainsync "staycal/internal/domain/calendarsync"
	"staycal/internal/domain/shared/daterange"
)

// BookingRepository keeps copies of bookings so callers cannot mutate stored state.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return &b, nil
}

func (r *BookingRepository) Intersecting(ctx context.Context, dr daterange.DateRange) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.Range.Overlaps(dr) {
			cp := b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Range.Start.Equal(out[j].Range.Start) {
			return out[i].Range.Start.Before(out[j].Range.Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *BookingRepository) Insert(ctx context.Context, b *domainbooking.Booking) error {
	if err := b.Range.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	cp.DrainEvents()
	r.items[b.ID] = cp
	return nil
}

func (r *BookingRepository) Update(ctx context.Context, b *domainbooking.Booking) error {
	if err := b.Range.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[b.ID]; !ok {
		return domainbooking.ErrNotFound
	}
	cp := *b
	cp.DrainEvents()
	r.items[b.ID] = cp
	return nil
}

func (r *BookingRepository) Delete(ctx context.Context, id domainbooking.BookingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainbooking.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type BlockRepository struct {
	mu    sync.RWMutex
	items map[domainblocks.BlockID]domainblocks.Block
}

func NewBlockRepository() *BlockRepository {
	return &BlockRepository{items: make(map[domainblocks.BlockID]domainblocks.Block)}
}

func (r *BlockRepository) ByID(ctx context.Context, id domainblocks.BlockID) (*domainblocks.Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainblocks.ErrNotFound
	}
	return &b, nil
}

func (r *BlockRepository) Intersecting(ctx context.Context, dr daterange.DateRange) ([]*domainblocks.Block, error) {
	return r.filter(func(b domainblocks.Block) bool { return b.Range.Overlaps(dr) }), nil
}

func (r *BlockRepository) All(ctx context.Context) ([]*domainblocks.Block, error) {
	return r.filter(func(domainblocks.Block) bool { return true }), nil
}

func (r *BlockRepository) OverlappingPairs(ctx context.Context) ([]domainblocks.Pair, error) {
	all, _ := r.All(ctx)
	return domainblocks.FindOverlappingPairs(all), nil
}

func (r *BlockRepository) Insert(ctx context.Context, b *domainblocks.Block) error {
	if err := b.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[b.ID] = *b
	return nil
}

func (r *BlockRepository) Delete(ctx context.Context, id domainblocks.BlockID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainblocks.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *BlockRepository) DeleteEndingBefore(ctx context.Context, day time.Time) (int, error) {
	day = daterange.Day(day)
	return r.deleteWhere(func(b domainblocks.Block) bool { return b.Range.End.Before(day) }), nil
}

func (r *BlockRepository) DeleteBySource(ctx context.Context, source string) (int, error) {
	return r.deleteWhere(func(b domainblocks.Block) bool { return b.HasSource(source) }), nil
}

func (r *BlockRepository) filter(keep func(domainblocks.Block) bool) []*domainblocks.Block {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainblocks.Block
	for _, b := range r.items {
		if keep(b) {
			cp := b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Range.Start.Equal(out[j].Range.Start) {
			return out[i].Range.Start.Before(out[j].Range.Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *BlockRepository) deleteWhere(match func(domainblocks.Block) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, b := range r.items {
		if match(b) {
			delete(r.items, id)
			n++
		}
	}
	return n
}

type SyncRecordRepository struct {
	mu    sync.RWMutex
	items map[string]domainsync.Record
}

func NewSyncRecordRepository() *SyncRecordRepository {
	return &SyncRecordRepository{items: make(map[string]domainsync.Record)}
}

func (r *SyncRecordRepository) Get(ctx context.Context, source string) (*domainsync.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.items[source]
	if !ok {
		return nil, domainsync.ErrRecordNotFound
	}
	return &rec, nil
}

func (r *SyncRecordRepository) List(ctx context.Context) ([]domainsync.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domainsync.Record, 0, len(r.items))
	for _, rec := range r.items {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out, nil
}

func (r *SyncRecordRepository) Upsert(ctx context.Context, rec domainsync.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[rec.Source] = rec
	return nil
}

var (
	_ domainbooking.Repository = (*BookingRepository)(nil)
	_ domainblocks.Repository  = (*BlockRepository)(nil)
	_ domainsync.Repository    = (*SyncRecordRepository)(nil)
)
