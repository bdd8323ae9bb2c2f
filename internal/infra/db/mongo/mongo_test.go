package mongo

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"staycal/internal/app/uow"
	domainblocks "staycal/internal/domain/blocks"
	domainbooking "staycal/internal/domain/booking"
	domainsync "staycal/internal/domain/calendarsync"
	"staycal/internal/domain/shared/daterange"
)

func mustRange(t *testing.T, start, end string) daterange.DateRange {
	t.Helper()
	dr, err := daterange.Parse(start, end)
	require.NoError(t, err)
	return dr
}

func TestBookingDocumentRoundTripThroughBSON(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	b := &domainbooking.Booking{
		ID:          "b1",
		Range:       mustRange(t, "2024-03-01", "2024-03-05"),
		Status:      domainbooking.StatusConfirmed,
		GuestsCount: 2,
		TotalPrice:  decimal.RequireFromString("480.50"),
		Currency:    "EUR",
		Payment:     domainbooking.Payment{Method: "card", Reference: "ch_1", PaidAt: now},
		Guest:       domainbooking.Guest{Name: "Ana", Email: "ana@example.com"},
		Source:      domainbooking.SourceWebsite,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	raw, err := bson.Marshal(newBookingDocument(b))
	require.NoError(t, err)
	var doc bookingDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))

	got, err := doc.toAggregate()
	require.NoError(t, err)
	assert.Equal(t, b.Range.Key(), got.Range.Key())
	assert.True(t, got.TotalPrice.Equal(b.TotalPrice))
	assert.True(t, got.Payment.PaidAt.Equal(now))
	assert.Equal(t, b.Guest, got.Guest)

	doc.TotalPrice = "abc"
	_, err = doc.toAggregate()
	assert.Error(t, err)
}

func TestUnpaidBookingOmitsPaidAt(t *testing.T) {
	doc := newBookingDocument(&domainbooking.Booking{ID: "b1", Range: mustRange(t, "2024-03-01", "2024-03-02")})
	assert.Nil(t, doc.PaidAt)
	got, err := doc.toAggregate()
	require.NoError(t, err)
	assert.False(t, got.Payment.Paid())
}

func TestBlockAndSyncDocuments(t *testing.T) {
	blk := &domainblocks.Block{ID: "k1", Range: mustRange(t, "2024-02-01", "2024-02-03"), Reason: "Airbnb: Reserved"}
	assert.Equal(t, blk.Range, newBlockDocument(blk).toAggregate().Range)

	rec := domainsync.Record{Source: "vrbo", Status: domainsync.StatusSuccess, BookingsSynced: 4}
	assert.Equal(t, rec.BookingsSynced, newSyncDocument(rec).toRecord().BookingsSynced)
	assert.Equal(t, "vrbo", newSyncDocument(rec).Source)
}

func TestIntersectFilterIsHalfOpen(t *testing.T) {
	dr := mustRange(t, "2024-02-01", "2024-02-05")
	f := intersectFilter("start_date", "end_date", dr)
	assert.Equal(t, bson.M{"$lt": dr.End}, f["start_date"])
	assert.Equal(t, bson.M{"$gt": dr.Start}, f["end_date"])
}

func TestSourceFilterEscapesAndIgnoresCase(t *testing.T) {
	f, ok := sourceFilter("booking.com")
	require.True(t, ok)
	assert.Equal(t, bson.M{"$regex": `^Booking\.com:`, "$options": "i"}, f["reason"])

	_, ok = sourceFilter("  ")
	assert.False(t, ok)
}

func TestMapErrorWriteConflicts(t *testing.T) {
	transient := mongo.CommandError{Code: 251, Labels: []string{"TransientTransactionError"}}
	assert.ErrorIs(t, mapError(transient), uow.ErrConcurrentUpdate)
	assert.ErrorIs(t, mapError(mongo.CommandError{Code: writeConflict}), uow.ErrConcurrentUpdate)

	plain := errors.New("boom")
	assert.Same(t, plain, mapError(plain))
	assert.NoError(t, mapError(nil))
}
