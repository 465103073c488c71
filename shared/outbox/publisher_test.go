package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQueue struct {
	accepted    bool
	err         error
	destination string
	body        []byte
	persistent  bool
	deadline    bool
}

func (q *stubQueue) Publish(ctx context.Context, destination string, payload []byte, persistent bool) (bool, error) {
	q.destination = destination
	q.body = payload
	q.persistent = persistent
	_, q.deadline = ctx.Deadline()
	return q.accepted, q.err
}

type listIntent struct {
	NFTID         string `json:"nft_id"`
	PriceLamports int64  `json:"price_lamports"`
}

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage("LIST", listIntent{NFTID: "R1", PriceLamports: 10}, WithCorrelationID("saga-1"))
	require.NoError(t, err)

	assert.Equal(t, "LIST", msg.Type())
	assert.True(t, msg.Persistent())
	assert.Equal(t, "saga-1", msg.CorrelationID())
	assert.NotEmpty(t, msg.ID())
	assert.JSONEq(t, `{"nft_id":"R1","price_lamports":10}`, string(msg.Payload()))

	// the payload accessor hands out copies
	payload := msg.Payload()
	payload[0] = 'x'
	assert.JSONEq(t, `{"nft_id":"R1","price_lamports":10}`, string(msg.Payload()))

	transient, err := NewMessage("PING", nil, Transient())
	require.NoError(t, err)
	assert.False(t, transient.Persistent())

	_, err = NewMessage("", nil)
	assert.Error(t, err)

	_, err = NewMessage("BAD", make(chan int))
	assert.Error(t, err)
}

func TestPublisher_Publish(t *testing.T) {
	tests := []struct {
		name             string
		destination      string
		queue            *stubQueue
		expectedAccepted bool
		expectedError    string
	}{
		{
			name:             "accepted",
			destination:      "pending_onchain_nft_actions",
			queue:            &stubQueue{accepted: true},
			expectedAccepted: true,
		},
		{
			name:             "backpressure",
			destination:      "pending_onchain_nft_actions",
			queue:            &stubQueue{accepted: false},
			expectedAccepted: false,
		},
		{
			name:          "queue error",
			destination:   "pending_onchain_nft_actions",
			queue:         &stubQueue{err: errors.New("connection reset")},
			expectedError: "failed to publish LIST to pending_onchain_nft_actions",
		},
		{
			name:          "missing destination",
			queue:         &stubQueue{accepted: true},
			expectedError: "destination is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := NewPublisher(tt.queue, WithTimeout(time.Second))
			msg, err := NewMessage("LIST", listIntent{NFTID: "R1", PriceLamports: 10}, WithCorrelationID("saga-1"))
			require.NoError(t, err)

			accepted, err := publisher.Publish(context.Background(), tt.destination, msg)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.False(t, accepted)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedAccepted, accepted)
			assert.Equal(t, tt.destination, tt.queue.destination)
			assert.True(t, tt.queue.persistent)
			assert.True(t, tt.queue.deadline)

			envelope, err := DecodeEnvelope(tt.queue.body)
			require.NoError(t, err)
			assert.Equal(t, msg.ID().String(), envelope.ID)
			assert.Equal(t, "LIST", envelope.Type)
			assert.Equal(t, "saga-1", envelope.CorrelationID)
			assert.Equal(t, tt.destination, envelope.Destination)

			var intent listIntent
			require.NoError(t, json.Unmarshal(envelope.Payload, &intent))
			assert.Equal(t, listIntent{NFTID: "R1", PriceLamports: 10}, intent)
		})
	}
}

func TestDecodeEnvelope_Invalid(t *testing.T) {
	_, err := DecodeEnvelope([]byte("not json"))
	assert.Error(t, err)
}
