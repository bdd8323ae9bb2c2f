package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"staycal/internal/app/middleware"
)

const idempotencyPrefix = "staycal:idem:"

// IdempotencyStore keeps replayable command results as JSON values with a TTL.
type IdempotencyStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewIdempotencyStore(client redis.UniversalClient, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

type idempotencyValue struct {
	Fingerprint string    `json:"fingerprint,omitempty"`
	Payload     []byte    `json:"payload"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	raw, err := s.client.Get(ctx, idempotencyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, fmt.Errorf("redis: idempotency get: %w", err)
	}
	var v idempotencyValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return middleware.IdempotencyRecord{}, false, fmt.Errorf("redis: idempotency decode: %w", err)
	}
	return middleware.IdempotencyRecord{Key: key, Fingerprint: v.Fingerprint, Payload: v.Payload, OccurredAt: v.OccurredAt}, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	raw, err := json.Marshal(idempotencyValue{Fingerprint: rec.Fingerprint, Payload: rec.Payload, OccurredAt: rec.OccurredAt})
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, idempotencyPrefix+rec.Key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis: idempotency save: %w", err)
	}
	return nil
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
