package events

import (
	"testing"

	"github.com/draftea/nft-marketplace/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopic_Matches(t *testing.T) {
	tests := []struct {
		topic    Topic
		pattern  Topic
		expected bool
	}{
		{topic: "nft.chain.confirmed", pattern: "nft.chain.confirmed", expected: true},
		{topic: "nft.chain.confirmed", pattern: "nft.*.confirmed", expected: true},
		{topic: "nft.chain.confirmed", pattern: "nft.#", expected: true},
		{topic: "nft.chain.confirmed", pattern: "#", expected: true},
		{topic: "nft.chain.confirmed", pattern: "saga.#", expected: false},
		{topic: "nft.chain.confirmed", pattern: "nft.*", expected: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.topic)+"~"+string(tt.pattern), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.topic.Matches(tt.pattern))
		})
	}
}

func TestEvent_UnmarshalPayload(t *testing.T) {
	type confirmation struct {
		NFTID  string `json:"nft_id"`
		Status string `json:"status"`
	}

	event := NewEvent(models.GenerateUUID(), NFTChainConfirmedEvent, map[string]interface{}{
		"nft_id": "abc",
		"status": "listed",
	})

	var got confirmation
	require.NoError(t, event.UnmarshalPayload(&got))
	assert.Equal(t, confirmation{NFTID: "abc", Status: "listed"}, got)
	assert.Equal(t, ErrInvalidReceiver, event.UnmarshalPayload(nil))
}

func TestFromJSON(t *testing.T) {
	event, err := FromJSON([]byte(`{"id":"1","event_type":"nft.chain.confirmed","data":{"status":"sold"}}`))
	require.NoError(t, err)
	assert.Equal(t, Topic(NFTChainConfirmedEvent), event.Topic)
	assert.NotNil(t, event.Metadata)

	_, err = FromJSON([]byte(`{`))
	assert.Error(t, err)
}
