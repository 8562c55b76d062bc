package outbox_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraoutbox "staybook/internal/infra/outbox"
)

// scriptedStore fails its first N claims, then hands out a single document.
type scriptedStore struct {
	failures int32
	claims   int32
	sent     int32
	doc      *infraoutbox.EventDocument
}

func (s *scriptedStore) Claim(ctx context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	n := atomic.AddInt32(&s.claims, 1)
	if n <= s.failures {
		return nil, errors.New("store unavailable")
	}
	if atomic.LoadInt32(&s.sent) > 0 {
		return nil, nil
	}
	return s.doc, nil
}

func (s *scriptedStore) MarkSent(ctx context.Context, id string) error {
	atomic.AddInt32(&s.sent, 1)
	return nil
}

func (s *scriptedStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	return nil
}

type capturingProducer struct {
	published chan string
}

func (p *capturingProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	p.published <- topic
	return nil
}

func TestWorker_KeepsPollingAfterClaimFailure(t *testing.T) {
	// GIVEN: the store errors on the first two polls
	// THEN: the worker stays alive and publishes on a later tick
	store := &scriptedStore{
		failures: 2,
		doc: &infraoutbox.EventDocument{
			ID:         "evt-1",
			Name:       "reservation.committed",
			Payload:    []byte(`{"reservation_id":"r-1"}`),
			Aggregate:  "r-1",
			OccurredAt: time.Now().UTC(),
		},
	}
	producer := &capturingProducer{published: make(chan string, 1)}
	worker := &infraoutbox.Worker{
		Store:    store,
		Producer: producer,
		Interval: 5 * time.Millisecond,
		ID:       "worker-test",
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	select {
	case topic := <-producer.published:
		assert.Equal(t, "reservation.events.v1", topic)
	case <-time.After(2 * time.Second):
		t.Fatal("worker never recovered from the claim failures")
	}
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	assert.GreaterOrEqual(t, atomic.LoadInt32(&store.claims), int32(3))
	assert.Equal(t, int32(1), atomic.LoadInt32(&store.sent))
}
