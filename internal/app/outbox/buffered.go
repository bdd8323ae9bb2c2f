package outbox

import (
	"context"
	"sync"
)

// Sink persists records that are ready to be relayed.
type Sink interface {
	Enqueue(ctx context.Context, records []EventRecord) error
}

type batchKey struct{}

type batch struct {
	mu      sync.Mutex
	records []EventRecord
}

// WithBatch scopes Add calls on ctx to a per-command batch that only reaches the sink on Flush.
func WithBatch(ctx context.Context) context.Context {
	return context.WithValue(ctx, batchKey{}, &batch{})
}

func batchFrom(ctx context.Context) (*batch, bool) {
	b, ok := ctx.Value(batchKey{}).(*batch)
	return b, ok
}

// Buffered holds records of the running command and hands them to Sink once the command
// has committed. Without a batch in the context records go straight to the sink.
type Buffered struct {
	Sink Sink
}

func NewBuffered(sink Sink) *Buffered {
	return &Buffered{Sink: sink}
}

func (o *Buffered) Add(ctx context.Context, record EventRecord) error {
	if b, ok := batchFrom(ctx); ok {
		b.mu.Lock()
		b.records = append(b.records, record)
		b.mu.Unlock()
		return nil
	}
	return o.Sink.Enqueue(ctx, []EventRecord{record})
}

func (o *Buffered) Flush(ctx context.Context) error {
	b, ok := batchFrom(ctx)
	if !ok {
		return nil
	}
	b.mu.Lock()
	records := b.records
	b.records = nil
	b.mu.Unlock()
	if len(records) == 0 {
		return nil
	}
	return o.Sink.Enqueue(ctx, records)
}

var _ Outbox = (*Buffered)(nil)
