package infrastructure

import (
	"context"
	"sync"

	"github.com/draftea/nft-marketplace/shared/events"
	"github.com/draftea/nft-marketplace/shared/models"
)

var _ events.EventStore = (*MemoryEventStore)(nil)

// MemoryEventStore keeps event streams in process memory
type MemoryEventStore struct {
	mu      sync.RWMutex
	streams map[models.ID][]*events.Event
}

func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{streams: make(map[models.ID][]*events.Event)}
}

func (s *MemoryEventStore) Append(ctx context.Context, evts ...*events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range evts {
		s.streams[event.AggregateID] = append(s.streams[event.AggregateID], event)
	}
	return nil
}

func (s *MemoryEventStore) GetEvents(ctx context.Context, aggregateID models.ID) ([]*events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*events.Event(nil), s.streams[aggregateID]...), nil
}
