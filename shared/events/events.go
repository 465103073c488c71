package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/draftea/nft-marketplace/shared/models"
)

var (
	ErrInvalidTopic    = errors.New("invalid topic")
	ErrInvalidReceiver = errors.New("receiver should be a pointer")
)

// Topic is a dotted event name. Patterns may use "*" for one segment and a
// trailing "#" for any suffix.
type Topic string

func NewTopic(topic string) (Topic, error) {
	if strings.TrimSpace(topic) == "" {
		return "", ErrInvalidTopic
	}
	return Topic(topic), nil
}

func (t Topic) String() string {
	return string(t)
}

// Matches reports whether t satisfies pattern
func (t Topic) Matches(pattern Topic) bool {
	p := pattern.String()
	if p == "#" {
		return true
	}
	if prefix, ok := strings.CutSuffix(p, "#"); ok {
		return strings.HasPrefix(t.String(), prefix)
	}

	want := strings.Split(p, ".")
	got := strings.Split(t.String(), ".")
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != "*" && want[i] != got[i] {
			return false
		}
	}
	return true
}

// Metadata carries transport and tracing attributes alongside an event
type Metadata map[string]string

func (m Metadata) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m Metadata) Set(key string, value string) {
	m[key] = value
}

func (m Metadata) Clone() Metadata {
	clone := make(Metadata, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// Event represents a domain event
type Event struct {
	ID            models.ID   `json:"id"`
	AggregateID   models.ID   `json:"aggregate_id"`
	Topic         Topic       `json:"topic"`
	EventType     string      `json:"event_type"`
	Version       string      `json:"version"`
	Data          interface{} `json:"data"`
	Metadata      Metadata    `json:"metadata"`
	Timestamp     time.Time   `json:"timestamp"`
	CorrelationID models.ID   `json:"correlation_id,omitempty"`
}

// Publisher publishes events
type Publisher interface {
	Publish(ctx context.Context, events ...*Event) error
}

// Subscriber subscribes to events
type Subscriber interface {
	Subscribe(ctx context.Context, eventType string, handler EventHandler) error
}

// EventHandler handles domain events
type EventHandler interface {
	Handle(ctx context.Context, event *Event) error
}

// EventStore appends events to per-aggregate streams
type EventStore interface {
	Append(ctx context.Context, events ...*Event) error
	GetEvents(ctx context.Context, aggregateID models.ID) ([]*Event, error)
}

// NewEvent creates a new domain event
func NewEvent(aggregateID models.ID, eventType string, data interface{}) *Event {
	return &Event{
		ID:          models.GenerateUUID(),
		AggregateID: aggregateID,
		Topic:       Topic(eventType),
		EventType:   eventType,
		Version:     "1.0",
		Data:        data,
		Metadata:    make(Metadata),
		Timestamp:   time.Now().UTC(),
	}
}

// WithCorrelationID sets correlation ID
func (e *Event) WithCorrelationID(correlationID models.ID) *Event {
	e.CorrelationID = correlationID
	return e
}

// WithMetadata adds metadata
func (e *Event) WithMetadata(key string, value string) *Event {
	if e.Metadata == nil {
		e.Metadata = make(Metadata)
	}
	e.Metadata.Set(key, value)
	return e
}

// FromJSON creates event from JSON
func FromJSON(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	if event.Metadata == nil {
		event.Metadata = make(Metadata)
	}
	if event.Topic == "" {
		event.Topic = Topic(event.EventType)
	}
	if event.EventType == "" {
		event.EventType = event.Topic.String()
	}
	return &event, nil
}

// MarshalPayload marshals the event payload
func (e *Event) MarshalPayload() (json.RawMessage, error) {
	switch data := e.Data.(type) {
	case json.RawMessage:
		return data, nil
	case []byte:
		return data, nil
	default:
		return json.Marshal(e.Data)
	}
}

// UnmarshalPayload decodes the payload into v, whatever shape it arrived in
func (e *Event) UnmarshalPayload(v interface{}) error {
	if v == nil {
		return ErrInvalidReceiver
	}

	raw, err := e.MarshalPayload()
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, v)
}

// Event Types Constants
const (
	// NFT marketplace events
	NFTMintRequestedEvent     = "nft.mint.requested"
	NFTListingRequestedEvent  = "nft.listing.requested"
	NFTPurchaseRequestedEvent = "nft.purchase.requested"
	NFTChainConfirmedEvent    = "nft.chain.confirmed"
	NFTStatusUpdatedEvent     = "nft.status.updated"

	// Saga Events
	SagaStartedEvent            = "saga.started"
	SagaCommittedEvent          = "saga.committed"
	SagaRolledBackEvent         = "saga.rolled_back"
	SagaCompensationFailedEvent = "saga.compensation.failed"
)
