package infrastructure

import (
	"context"
	"sync"

	"github.com/draftea/nft-marketplace/shared/outbox"
)

var _ outbox.MessageQueue = (*MemoryMessageQueue)(nil)

// QueuedMessage is a message held by MemoryMessageQueue
type QueuedMessage struct {
	Destination string
	Payload     []byte
	Persistent  bool
}

// MemoryMessageQueue is a bounded in-process queue. A full queue refuses new
// messages instead of blocking.
type MemoryMessageQueue struct {
	mu       sync.Mutex
	capacity int
	messages []QueuedMessage
}

// NewMemoryMessageQueue creates a queue holding at most capacity messages; zero means unbounded
func NewMemoryMessageQueue(capacity int) *MemoryMessageQueue {
	return &MemoryMessageQueue{capacity: capacity}
}

func (q *MemoryMessageQueue) Publish(ctx context.Context, destination string, payload []byte, persistent bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.capacity > 0 && len(q.messages) >= q.capacity {
		return false, nil
	}

	q.messages = append(q.messages, QueuedMessage{
		Destination: destination,
		Payload:     append([]byte(nil), payload...),
		Persistent:  persistent,
	})

	return true, nil
}

// Messages returns the queued messages for destination, oldest first
func (q *MemoryMessageQueue) Messages(destination string) []QueuedMessage {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []QueuedMessage
	for _, m := range q.messages {
		if m.Destination == destination {
			out = append(out, m)
		}
	}
	return out
}

func (q *MemoryMessageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}

// Drain removes and returns every queued message
func (q *MemoryMessageQueue) Drain() []QueuedMessage {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.messages
	q.messages = nil
	return out
}
