package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"staybook/internal/app/middleware"
)

const (
	idempotencyKeyPrefix = "idem:"
	defaultRecordTTL     = 24 * time.Hour
)

// IdempotencyStore keeps admission outcomes in Redis so replays survive
// process restarts and are shared across instances.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultRecordTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

type recordDoc struct {
	Key        string    `json:"key"`
	Payload    []byte    `json:"payload,omitempty"`
	Error      string    `json:"error,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	raw, err := s.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	var doc recordDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	return middleware.IdempotencyRecord{
		Key:        doc.Key,
		Payload:    doc.Payload,
		Error:      doc.Error,
		Reason:     doc.Reason,
		OccurredAt: doc.OccurredAt,
	}, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	raw, err := json.Marshal(recordDoc{
		Key:        rec.Key,
		Payload:    rec.Payload,
		Error:      rec.Error,
		Reason:     rec.Reason,
		OccurredAt: rec.OccurredAt,
	})
	if err != nil {
		return err
	}
	// NX keeps the first stored outcome authoritative under racing retries.
	_, err = s.client.SetNX(ctx, idempotencyKeyPrefix+rec.Key, raw, s.ttl).Result()
	return err
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
