package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainblocks "staycal/internal/domain/blocks"
	domainbooking "staycal/internal/domain/booking"
	domainsync "staycal/internal/domain/calendarsync"
	"staycal/internal/domain/shared/daterange"
)

const (
	bookingsCollection = "bookings"
	blocksCollection   = "availability_blocks"
	syncCollection     = "calendar_sync"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(bookingsCollection)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, mapError(err)
	}
	return doc.toAggregate()
}

func (r *BookingRepository) Intersecting(ctx context.Context, dr daterange.DateRange) ([]*domainbooking.Booking, error) {
	cur, err := r.col.Find(ctx, intersectFilter("check_in", "check_out", dr), sortedBy("check_in"))
	if err != nil {
		return nil, mapError(err)
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapError(err)
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, doc := range docs {
		b, err := doc.toAggregate()
		if err != nil {
			return nil, fmt.Errorf("mongo: booking %s: %w", doc.ID, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *BookingRepository) Insert(ctx context.Context, b *domainbooking.Booking) error {
	if err := b.Range.Validate(); err != nil {
		return err
	}
	if _, err := r.col.InsertOne(ctx, newBookingDocument(b)); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *BookingRepository) Update(ctx context.Context, b *domainbooking.Booking) error {
	if err := b.Range.Validate(); err != nil {
		return err
	}
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": string(b.ID)}, newBookingDocument(b))
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return domainbooking.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) Delete(ctx context.Context, id domainbooking.BookingID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return mapError(err)
	}
	if res.DeletedCount == 0 {
		return domainbooking.ErrNotFound
	}
	return nil
}

type BlockRepository struct {
	col *mongo.Collection
}

func NewBlockRepository(db *mongo.Database) *BlockRepository {
	return &BlockRepository{col: db.Collection(blocksCollection)}
}

func (r *BlockRepository) ByID(ctx context.Context, id domainblocks.BlockID) (*domainblocks.Block, error) {
	var doc blockDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainblocks.ErrNotFound
		}
		return nil, mapError(err)
	}
	return doc.toAggregate(), nil
}

func (r *BlockRepository) Intersecting(ctx context.Context, dr daterange.DateRange) ([]*domainblocks.Block, error) {
	return r.find(ctx, intersectFilter("start_date", "end_date", dr))
}

func (r *BlockRepository) All(ctx context.Context) ([]*domainblocks.Block, error) {
	return r.find(ctx, bson.M{})
}

// OverlappingPairs runs the sweep in process; Mongo has no self-join over ranges.
func (r *BlockRepository) OverlappingPairs(ctx context.Context) ([]domainblocks.Pair, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	return domainblocks.FindOverlappingPairs(all), nil
}

func (r *BlockRepository) Insert(ctx context.Context, b *domainblocks.Block) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if _, err := r.col.InsertOne(ctx, newBlockDocument(b)); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *BlockRepository) Delete(ctx context.Context, id domainblocks.BlockID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return mapError(err)
	}
	if res.DeletedCount == 0 {
		return domainblocks.ErrNotFound
	}
	return nil
}

func (r *BlockRepository) DeleteEndingBefore(ctx context.Context, day time.Time) (int, error) {
	return r.deleteMany(ctx, bson.M{"end_date": bson.M{"$lt": daterange.Day(day)}})
}

func (r *BlockRepository) DeleteBySource(ctx context.Context, source string) (int, error) {
	filter, ok := sourceFilter(source)
	if !ok {
		return 0, nil
	}
	return r.deleteMany(ctx, filter)
}

func (r *BlockRepository) find(ctx context.Context, filter bson.M) ([]*domainblocks.Block, error) {
	cur, err := r.col.Find(ctx, filter, sortedBy("start_date"))
	if err != nil {
		return nil, mapError(err)
	}
	var docs []blockDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapError(err)
	}
	out := make([]*domainblocks.Block, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

func (r *BlockRepository) deleteMany(ctx context.Context, filter bson.M) (int, error) {
	res, err := r.col.DeleteMany(ctx, filter)
	if err != nil {
		return 0, mapError(err)
	}
	return int(res.DeletedCount), nil
}

type SyncRecordRepository struct {
	col *mongo.Collection
}

func NewSyncRecordRepository(db *mongo.Database) *SyncRecordRepository {
	return &SyncRecordRepository{col: db.Collection(syncCollection)}
}

func (r *SyncRecordRepository) Get(ctx context.Context, source string) (*domainsync.Record, error) {
	var doc syncDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": source}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainsync.ErrRecordNotFound
		}
		return nil, mapError(err)
	}
	rec := doc.toRecord()
	return &rec, nil
}

func (r *SyncRecordRepository) List(ctx context.Context) ([]domainsync.Record, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, mapError(err)
	}
	var docs []syncDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapError(err)
	}
	out := make([]domainsync.Record, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toRecord())
	}
	return out, nil
}

func (r *SyncRecordRepository) Upsert(ctx context.Context, rec domainsync.Record) error {
	doc := newSyncDocument(rec)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.Source}, doc, options.Replace().SetUpsert(true))
	return mapError(err)
}

// intersectFilter matches half-open ranges [from, to) that intersect dr.
func intersectFilter(from, to string, dr daterange.DateRange) bson.M {
	return bson.M{
		from: bson.M{"$lt": dr.End},
		to:   bson.M{"$gt": dr.Start},
	}
}

// sourceFilter matches reasons starting with the source tag, ignoring case.
func sourceFilter(source string) (bson.M, bool) {
	tag := domainblocks.SourceTag(source)
	if tag == ":" {
		return nil, false
	}
	return bson.M{"reason": bson.M{"$regex": "^" + regexp.QuoteMeta(tag), "$options": "i"}}, true
}

func sortedBy(field string) *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: field, Value: 1}, {Key: "_id", Value: 1}})
}

var (
	_ domainbooking.Repository = (*BookingRepository)(nil)
	_ domainblocks.Repository  = (*BlockRepository)(nil)
	_ domainsync.Repository    = (*SyncRecordRepository)(nil)
)
