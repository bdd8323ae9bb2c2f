package outbox

import (
	"context"
	"sync"
	"time"

	appoutbox "staycal/internal/app/outbox"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

// Message is a claimed record together with its delivery bookkeeping.
type Message struct {
	appoutbox.EventRecord
	Attempts int
}

// Queue is what the relay worker drains.
type Queue interface {
	Claim(ctx context.Context, workerID string) (*Message, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

// MemoryQueue is the in-process queue used with the memory store.
type MemoryQueue struct {
	mu    sync.Mutex
	now   func() time.Time
	order []string
	items map[string]*memoryEntry
}

type memoryEntry struct {
	msg       Message
	state     string
	next      time.Time
	lastError string
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{now: time.Now, items: make(map[string]*memoryEntry)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, records []appoutbox.EventRecord) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, rec := range records {
		if _, dup := q.items[rec.ID]; dup {
			continue
		}
		q.items[rec.ID] = &memoryEntry{msg: Message{EventRecord: rec}, state: stateNew, next: q.now()}
		q.order = append(q.order, rec.ID)
	}
	return nil
}

func (q *MemoryQueue) Claim(ctx context.Context, workerID string) (*Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	for _, id := range q.order {
		e := q.items[id]
		if (e.state == stateNew || e.state == stateFailed) && !e.next.After(now) {
			e.state = stateClaimed
			msg := e.msg
			return &msg, nil
		}
	}
	return nil, nil
}

func (q *MemoryQueue) MarkSent(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.items[id]; !ok {
		return nil
	}
	delete(q.items, id)
	for i, oid := range q.order {
		if oid == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return nil
}

func (q *MemoryQueue) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e, ok := q.items[id]; ok {
		e.state = stateFailed
		e.next = next
		e.lastError = errMsg
		e.msg.Attempts++
	}
	return nil
}

// Pending counts records not yet sent.
func (q *MemoryQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

var (
	_ appoutbox.Sink = (*MemoryQueue)(nil)
	_ Queue          = (*MemoryQueue)(nil)
)
