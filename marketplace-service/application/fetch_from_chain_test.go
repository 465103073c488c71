package application

import (
	"context"
	"testing"
	"time"

	"github.com/draftea/nft-marketplace/marketplace-service/domain"
	"github.com/draftea/nft-marketplace/marketplace-service/mocks"
	"github.com/draftea/nft-marketplace/shared/circuitbreaker"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(t *testing.T) *circuitbreaker.Breaker {
	breaker, err := circuitbreaker.New("chain-rpc", circuitbreaker.Config{
		Timeout:                  time.Second,
		ErrorThresholdPercentage: 50,
		RollingWindow:            time.Minute,
		BucketCount:              6,
		ResetTimeout:             time.Minute,
		MinimumRequests:          2,
	})
	require.NoError(t, err)
	return breaker
}

func TestFetchFromChain_Execute(t *testing.T) {
	tests := []struct {
		name          string
		query         *FetchFromChainQuery
		setupMocks    func(chain *mocks.MockChainClient)
		expectedError error
	}{
		{
			name:  "returns the asset",
			query: &FetchFromChainQuery{Mint: "Mint111"},
			setupMocks: func(chain *mocks.MockChainClient) {
				chain.EXPECT().GetAsset(mock.Anything, "Mint111").
					Return(&domain.ChainAsset{Mint: "Mint111", Exists: true, Owner: "Token", Lamports: 2039280, Slot: 42}, nil).Once()
			},
		},
		{
			name:  "upstream failure",
			query: &FetchFromChainQuery{Mint: "Mint111"},
			setupMocks: func(chain *mocks.MockChainClient) {
				chain.EXPECT().GetAsset(mock.Anything, "Mint111").Return(nil, errors.New("502 bad gateway")).Once()
			},
			expectedError: circuitbreaker.ErrUpstreamFailure,
		},
		{
			name:          "missing mint",
			query:         &FetchFromChainQuery{},
			setupMocks:    func(chain *mocks.MockChainClient) {},
			expectedError: ErrInvalidCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := mocks.NewMockChainClient(t)
			tt.setupMocks(chain)

			asset, err := NewFetchFromChain(chain, newTestBreaker(t)).Execute(context.Background(), tt.query)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.expectedError), err.Error())
				assert.Nil(t, asset)
				return
			}

			require.NoError(t, err)
			assert.True(t, asset.Exists)
			assert.Equal(t, uint64(42), asset.Slot)
		})
	}
}

func TestFetchFromChain_OpenCircuitRejectsWithoutCalling(t *testing.T) {
	chain := mocks.NewMockChainClient(t)
	chain.EXPECT().GetAsset(mock.Anything, "Mint111").Return(nil, errors.New("connection refused")).Times(2)

	useCase := NewFetchFromChain(chain, newTestBreaker(t))
	for i := 0; i < 2; i++ {
		_, err := useCase.Execute(context.Background(), &FetchFromChainQuery{Mint: "Mint111"})
		require.Error(t, err)
	}

	_, err := useCase.Execute(context.Background(), &FetchFromChainQuery{Mint: "Mint111"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, circuitbreaker.ErrCircuitOpen))
	assert.Equal(t, circuitbreaker.StateOpen, useCase.breaker.State())
}
