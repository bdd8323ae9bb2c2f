package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staycal/internal/app/middleware"
	"staycal/internal/app/schedule"
)

// setupTestRedis connects to REDIS_TEST_ADDR (default localhost:6379, DB 15) or skips.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not available for testing: %v", err)
	}
	client.FlushDB(ctx)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestLockerIsExclusiveUntilReleased(t *testing.T) {
	client := setupTestRedis(t)
	locker := NewLocker(client)
	ctx := context.Background()

	lease, err := locker.TryLock(ctx, "staycal:job:calendar-sync", time.Minute)
	require.NoError(t, err)

	_, err = locker.TryLock(ctx, "staycal:job:calendar-sync", time.Minute)
	assert.ErrorIs(t, err, schedule.ErrLockHeld)

	require.NoError(t, lease.Release(ctx))
	again, err := locker.TryLock(ctx, "staycal:job:calendar-sync", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestReleaseLeavesForeignLockAlone(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	stale := &lease{client: client, key: "staycal:job:x", token: "old"}
	require.NoError(t, client.Set(ctx, "staycal:job:x", "new", time.Minute).Err())

	require.NoError(t, stale.Release(ctx))
	val, err := client.Get(ctx, "staycal:job:x").Result()
	require.NoError(t, err)
	assert.Equal(t, "new", val)
}

func TestIdempotencyStore(t *testing.T) {
	client := setupTestRedis(t)
	store := NewIdempotencyStore(client, time.Minute)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "booking.create:k1")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "booking.create:k1", Fingerprint: "f1", Payload: []byte(`{"id":"b1"}`), OccurredAt: at}))

	rec, ok, err := store.Get(ctx, "booking.create:k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"b1"}`, string(rec.Payload))
	assert.Equal(t, "f1", rec.Fingerprint)
	assert.True(t, rec.OccurredAt.Equal(at))

	ttl, err := client.TTL(ctx, idempotencyPrefix+"booking.create:k1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
