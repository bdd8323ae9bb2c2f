package calendarsync_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staycal/internal/app/handlers/calendarsync"
	"staycal/internal/app/policies"
	"staycal/internal/app/uow"
	domainblocks "staycal/internal/domain/blocks"
	domainsync "staycal/internal/domain/calendarsync"
	"staycal/internal/domain/shared/daterange"
	"staycal/internal/infra/storage/memory"
)

var now = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

type stubFetcher struct {
	feeds map[string][]domainsync.FeedEvent
	err   error
	calls []string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) ([]domainsync.FeedEvent, error) {
	s.calls = append(s.calls, url)
	if s.err != nil {
		return nil, s.err
	}
	feed, ok := s.feeds[url]
	if !ok {
		return nil, &domainsync.FetchError{URL: url, Err: errors.New("404 not found")}
	}
	return feed, nil
}

func ev(start, end, summary string) domainsync.FeedEvent {
	s, _ := daterange.ParseDay(start)
	e, _ := daterange.ParseDay(end)
	return domainsync.FeedEvent{UID: start + summary, Summary: summary, Start: s, End: e}
}

func sequentialIDs() policies.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("blk-%03d", n)
	}
}

func newReconciler(f uow.UoWFactory, fetcher policies.FeedFetcher) *calendarsync.Reconciler {
	return &calendarsync.Reconciler{
		UoWFactory: f,
		Fetcher:    fetcher,
		Clock:      policies.FixedClock{T: now},
		IDs:        sequentialIDs(),
	}
}

const airbnbURL = "https://airbnb.example/cal.ics"

func TestSyncInsertsTaggedBlocksAndIsIdempotent(t *testing.T) {
	f := memory.NewFactory()
	fetcher := &stubFetcher{feeds: map[string][]domainsync.FeedEvent{
		airbnbURL: {
			ev("2024-04-01", "2024-04-05", "Jane D."),
			ev("2024-04-10", "2024-04-12", ""),
		},
	}}
	r := newReconciler(f, fetcher)

	res, err := r.Sync(context.Background(), "airbnb", airbnbURL)
	require.NoError(t, err)
	assert.Equal(t, domainsync.Result{NewBlocksCreated: 2, TotalEventsSeen: 2}, res)

	all, _ := f.Blocks.All(context.Background())
	require.Len(t, all, 2)
	assert.Equal(t, "Airbnb: Jane D.", all[0].Reason)
	assert.Equal(t, "Airbnb: Reserved", all[1].Reason)
	assert.Equal(t, now, all[0].CreatedAt)

	res, err = r.Sync(context.Background(), "airbnb", airbnbURL)
	require.NoError(t, err)
	assert.Zero(t, res.NewBlocksCreated)
	assert.Equal(t, 2, res.TotalEventsSeen)

	rec, err := f.SyncRecords.Get(context.Background(), "airbnb")
	require.NoError(t, err)
	assert.Equal(t, domainsync.StatusSuccess, rec.Status)
	assert.Zero(t, rec.BookingsSynced)
	assert.Equal(t, airbnbURL, rec.ICalURL)
	assert.Equal(t, now, rec.LastSynced)
}

func TestSyncDedupesAcrossSourcesByExactKey(t *testing.T) {
	f := memory.NewFactory()
	dr, _ := daterange.Parse("2024-04-01", "2024-04-05")
	manual, _ := domainblocks.New("m1", dr, "Vrbo: Guest", now)
	require.NoError(t, f.Blocks.Insert(context.Background(), manual))

	fetcher := &stubFetcher{feeds: map[string][]domainsync.FeedEvent{
		airbnbURL: {
			ev("2024-04-01", "2024-04-05", "same range"),
			ev("2024-04-02", "2024-04-05", "overlaps only"),
			ev("2024-04-20", "2024-04-22", "dup in feed"),
			ev("2024-04-20", "2024-04-22", "dup in feed again"),
			ev("2024-05-01", "2024-05-01", "empty"),
		},
	}}
	res, err := newReconciler(f, fetcher).Sync(context.Background(), "airbnb", airbnbURL)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NewBlocksCreated)
	assert.Equal(t, 5, res.TotalEventsSeen)
}

func TestSyncFailureRecordsAudit(t *testing.T) {
	f := memory.NewFactory()
	fetcher := &stubFetcher{err: errors.New("dial tcp: timeout")}

	_, err := newReconciler(f, fetcher).Sync(context.Background(), "vrbo", "https://vrbo.example/x.ics")
	require.Error(t, err)
	var fe *domainsync.FetchError
	assert.True(t, errors.As(err, &fe))

	rec, err := f.SyncRecords.Get(context.Background(), "vrbo")
	require.NoError(t, err)
	assert.Equal(t, domainsync.StatusFailure, rec.Status)
	assert.Zero(t, rec.BookingsSynced)
	assert.Contains(t, rec.LastError, "timeout")

	all, _ := f.Blocks.All(context.Background())
	assert.Empty(t, all)
}

func TestSyncRejectsBadSource(t *testing.T) {
	_, err := newReconciler(memory.NewFactory(), &stubFetcher{}).Sync(context.Background(), "air bnb", airbnbURL)
	assert.ErrorIs(t, err, domainsync.ErrInvalidSource)
}

type failingInserts struct {
	domainblocks.Repository
	failKey string
}

func (r failingInserts) Insert(ctx context.Context, b *domainblocks.Block) error {
	if b.Key() == r.failKey {
		return errors.New("constraint violated")
	}
	return r.Repository.Insert(ctx, b)
}

type insertUnit struct {
	uow.UnitOfWork
	blocks domainblocks.Repository
}

func (u insertUnit) Blocks() domainblocks.Repository { return u.blocks }

type insertFactory struct {
	inner   *memory.Factory
	failKey string
}

func (f insertFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := f.inner.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return insertUnit{UnitOfWork: unit, blocks: failingInserts{Repository: unit.Blocks(), failKey: f.failKey}}, nil
}

func TestSyncSkipsFailedInserts(t *testing.T) {
	f := memory.NewFactory()
	fetcher := &stubFetcher{feeds: map[string][]domainsync.FeedEvent{
		airbnbURL: {
			ev("2024-04-01", "2024-04-05", "a"),
			ev("2024-04-06", "2024-04-08", "b"),
			ev("2024-04-10", "2024-04-12", "c"),
		},
	}}
	r := newReconciler(insertFactory{inner: f, failKey: "2024-04-06_2024-04-08"}, fetcher)

	res, err := r.Sync(context.Background(), "airbnb", airbnbURL)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NewBlocksCreated)

	rec, _ := f.SyncRecords.Get(context.Background(), "airbnb")
	assert.Equal(t, 2, rec.BookingsSynced)
}

func TestSyncScheduled(t *testing.T) {
	f := memory.NewFactory()
	ctx := context.Background()
	require.NoError(t, f.SyncRecords.Upsert(ctx, domainsync.Record{Source: "airbnb", ICalURL: airbnbURL, Status: domainsync.StatusSuccess}))
	require.NoError(t, f.SyncRecords.Upsert(ctx, domainsync.Record{Source: "booking", ICalURL: "https://gone.example/x.ics", Status: domainsync.StatusSuccess}))

	fetcher := &stubFetcher{feeds: map[string][]domainsync.FeedEvent{
		airbnbURL: {ev("2024-04-01", "2024-04-05", "a")},
	}}
	r := newReconciler(f, fetcher)
	r.Sources = []string{"airbnb", "vrbo", "booking"}

	outcomes, err := r.SyncScheduled(ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, "airbnb", outcomes[0].Source)
	assert.Equal(t, domainsync.Success{NewBlocksCreated: 1, TotalEventsSeen: 1}, outcomes[0].Outcome)

	assert.Equal(t, domainsync.KindSkipped, outcomes[1].Outcome.Kind())

	failed, ok := outcomes[2].Outcome.(domainsync.Failed)
	require.True(t, ok)
	assert.Contains(t, failed.Err.Error(), "404")

	rec, _ := f.SyncRecords.Get(ctx, "booking")
	assert.Equal(t, domainsync.StatusFailure, rec.Status)
	assert.Equal(t, []string{airbnbURL, "https://gone.example/x.ics"}, fetcher.calls)
}
