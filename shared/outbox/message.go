package outbox

import (
	"encoding/json"
	"time"

	"github.com/draftea/nft-marketplace/shared/models"
	"github.com/pkg/errors"
)

// Message is an intent handed to the message queue. It is immutable once built.
type Message struct {
	id            models.ID
	messageType   string
	payload       json.RawMessage
	persistent    bool
	correlationID string
	createdAt     time.Time
}

// MessageOption configures a Message at construction
type MessageOption func(*Message)

// Transient marks the message as non-persistent
func Transient() MessageOption {
	return func(m *Message) {
		m.persistent = false
	}
}

// WithCorrelationID ties the message to a saga or request id
func WithCorrelationID(id string) MessageOption {
	return func(m *Message) {
		m.correlationID = id
	}
}

// NewMessage builds a persistent message; payload is encoded as JSON immediately
func NewMessage(messageType string, payload interface{}, opts ...MessageOption) (Message, error) {
	if messageType == "" {
		return Message{}, errors.New("message type is required")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, errors.Wrap(err, "failed to marshal message payload")
	}

	m := Message{
		id:          models.GenerateUUID(),
		messageType: messageType,
		payload:     raw,
		persistent:  true,
		createdAt:   time.Now().UTC(),
	}

	for _, opt := range opts {
		opt(&m)
	}

	return m, nil
}

func (m Message) ID() models.ID         { return m.id }
func (m Message) Type() string          { return m.messageType }
func (m Message) Persistent() bool      { return m.persistent }
func (m Message) CorrelationID() string { return m.correlationID }
func (m Message) CreatedAt() time.Time  { return m.createdAt }

// Payload returns a copy of the encoded payload
func (m Message) Payload() json.RawMessage {
	out := make(json.RawMessage, len(m.payload))
	copy(out, m.payload)
	return out
}

// Envelope is the wire form of a message
type Envelope struct {
	ID            string          `json:"id"`
	Destination   string          `json:"destination"`
	Type          string          `json:"type"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	Timestamp     time.Time       `json:"timestamp"`
}

func (m Message) envelope(destination string) Envelope {
	return Envelope{
		ID:            m.id.String(),
		Destination:   destination,
		Type:          m.messageType,
		CorrelationID: m.correlationID,
		Payload:       m.Payload(),
		Timestamp:     m.createdAt,
	}
}

// DecodeEnvelope parses a queued payload
func DecodeEnvelope(body []byte) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.Wrap(err, "failed to decode envelope")
	}
	return &envelope, nil
}
