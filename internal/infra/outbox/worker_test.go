package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "staycal/internal/app/outbox"
)

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	mu   sync.Mutex
	fail error
	out  []published
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.out = append(p.out, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func record(id, name, aggregate string) appoutbox.EventRecord {
	return appoutbox.EventRecord{
		ID:         id,
		Name:       name,
		Payload:    []byte(`{"booking_id":"` + aggregate + `"}`),
		OccurredAt: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		Aggregate:  aggregate,
		Headers:    map[string]string{"content-type": "application/json"},
	}
}

func TestWorkerRelaysCloudEvents(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, []appoutbox.EventRecord{
		record("e1", "booking.created", "b1"),
		record("e2", "calendar.synced", "calendar"),
	}))
	require.NoError(t, q.Enqueue(ctx, []appoutbox.EventRecord{record("e1", "booking.created", "b1")}))

	prod := &fakeProducer{}
	w := &Worker{Queue: q, Producer: prod, TopicPrefix: "staycal", ID: "w1"}
	n, err := w.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, q.Pending())

	require.Len(t, prod.out, 2)
	assert.Equal(t, "staycal.booking.events.v1", prod.out[0].topic)
	assert.Equal(t, "staycal.calendar.events.v1", prod.out[1].topic)
	assert.Equal(t, "b1", prod.out[0].key)
	assert.Equal(t, "application/cloudevents+json", prod.out[0].headers["content-type"])

	var env map[string]any
	require.NoError(t, json.Unmarshal(prod.out[0].payload, &env))
	assert.Equal(t, "1.0", env["specversion"])
	assert.Equal(t, "booking.created.v1", env["type"])
	assert.Equal(t, "e1", env["id"])
	assert.Equal(t, "app://staycal", env["source"])
	assert.Equal(t, map[string]any{"booking_id": "b1"}, env["data"])
}

func TestWorkerReschedulesFailures(t *testing.T) {
	q := NewMemoryQueue()
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return now }
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, []appoutbox.EventRecord{record("e1", "booking.created", "b1")}))

	prod := &fakeProducer{fail: errors.New("broker down")}
	w := &Worker{Queue: q, Producer: prod, Backoff: []time.Duration{time.Second, time.Minute}, Now: func() time.Time { return now }}

	n, err := w.Drain(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, q.Pending())

	msg, err := q.Claim(ctx, "w")
	require.NoError(t, err)
	assert.Nil(t, msg, "not claimable before the backoff elapses")

	now = now.Add(2 * time.Second)
	prod.fail = nil
	n, err = w.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, q.Pending())
}

func TestWorkerRejectsUndecodablePayload(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()
	bad := record("e1", "booking.created", "b1")
	bad.Payload = []byte("not json")
	require.NoError(t, q.Enqueue(ctx, []appoutbox.EventRecord{bad}))

	prod := &fakeProducer{}
	w := &Worker{Queue: q, Producer: prod}
	_, err := w.Drain(ctx)
	require.NoError(t, err)
	assert.Empty(t, prod.out)
	assert.Equal(t, 1, q.Pending())
	assert.Equal(t, 1, q.items["e1"].msg.Attempts)
}

func TestWorkerRunNeedsDependencies(t *testing.T) {
	assert.ErrorIs(t, (&Worker{}).Run(context.Background()), ErrWorkerNotConfigured)
}

func TestTopicForWithoutPrefix(t *testing.T) {
	assert.Equal(t, "blocks.events.v1", (&Worker{}).topicFor("blocks.consolidated"))
	assert.Equal(t, "x.blocks.events.v1", (&Worker{TopicPrefix: "x."}).topicFor("blocks.consolidated"))
}
