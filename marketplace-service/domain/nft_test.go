package domain

import (
	"testing"
	"time"

	"github.com/draftea/nft-marketplace/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNFT() *NFT {
	nft := NewNFT("Sunset #1", "A sunset over the bay", "https://img.example/1.png", "Mint111", "W1", []Attribute{{TraitType: "sky", Value: "orange"}})
	nft.ID = "R1"
	return nft
}

func listedNFT() *NFT {
	nft := testNFT()
	nft.List("W1", 10, 7, "tx-list", time.Now().UTC())
	return nft
}

func TestNFT_CheckListable(t *testing.T) {
	tests := []struct {
		name          string
		nft           func() *NFT
		seller        string
		price         models.Lamports
		days          int
		expectedError string
	}{
		{name: "owner lists active nft", nft: testNFT, seller: "W1", price: 10, days: 7},
		{name: "missing seller", nft: testNFT, seller: "", price: 10, days: 7, expectedError: "seller wallet is required"},
		{name: "not the owner", nft: testNFT, seller: "W2", price: 10, days: 7, expectedError: "only the owner can list this nft"},
		{name: "already listed", nft: listedNFT, seller: "W1", price: 10, days: 7, expectedError: "nft is already listed"},
		{name: "pending sale", nft: func() *NFT {
			n := testNFT()
			n.Status = NFTStatusPendingSale
			return n
		}, seller: "W1", price: 10, days: 7, expectedError: "not available for listing"},
		{name: "pending mint", nft: func() *NFT {
			return NewPendingNFT("R2", "Dawn #2", "", "", "W1", nil, "tx-mint", time.Now().UTC())
		}, seller: "W1", price: 10, days: 7, expectedError: "not available for listing"},
		{name: "zero price", nft: testNFT, seller: "W1", price: 0, days: 7, expectedError: "price must be positive"},
		{name: "zero duration", nft: testNFT, seller: "W1", price: 10, days: 0, expectedError: "listing duration must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nft().CheckListable(tt.seller, tt.price, tt.days)
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.True(t, errors.Is(err, ErrPreconditionFailed))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNFT_CheckBuyable(t *testing.T) {
	tests := []struct {
		name          string
		nft           func() *NFT
		buyer         string
		expectedError string
	}{
		{name: "listed nft", nft: listedNFT, buyer: "W2"},
		{name: "confirmed listing", nft: func() *NFT {
			n := listedNFT()
			n.Confirm(NFTStatusListed, "tx-list", time.Now())
			return n
		}, buyer: "W2"},
		{name: "own record", nft: listedNFT, buyer: "W1", expectedError: "cannot buy own record"},
		{name: "not listed", nft: testNFT, buyer: "W2", expectedError: "nft is not listed for sale"},
		{name: "missing buyer", nft: listedNFT, buyer: "", expectedError: "buyer wallet is required"},
		{name: "no price", nft: func() *NFT {
			n := listedNFT()
			n.Price = 0
			return n
		}, buyer: "W2", expectedError: "nft has no valid price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nft().CheckBuyable(tt.buyer)
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.True(t, errors.Is(err, ErrPreconditionFailed))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNFT_ListAndBuy(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	nft := testNFT()
	snapshot := nft.Clone()

	nft.List("W1", 10, 7, "tx-list", now)

	assert.True(t, nft.IsListed)
	assert.Equal(t, models.Lamports(10), nft.Price)
	assert.Equal(t, 7, nft.ListingDurationDays)
	assert.Equal(t, "W1", nft.ListedBy)
	assert.Equal(t, now, *nft.ListedAt)
	assert.Equal(t, NFTStatusPendingList, nft.Status)
	assert.Equal(t, 2, nft.Version.Value)
	assert.Equal(t, HistoryListRequest, nft.History[len(nft.History)-1].Type)

	// the snapshot is not affected by the mutation
	assert.False(t, snapshot.IsListed)
	assert.Len(t, snapshot.History, 1)

	nft.Buy("W2", "tx-buy", now.Add(time.Hour))

	assert.False(t, nft.IsListed)
	assert.Zero(t, nft.Price)
	assert.Nil(t, nft.ListedAt)
	assert.Empty(t, nft.ListedBy)
	assert.Equal(t, "W2", nft.Owner)
	assert.Equal(t, NFTStatusPendingSale, nft.Status)
	assert.Equal(t, 3, nft.Version.Value)

	last := nft.History[len(nft.History)-1]
	assert.Equal(t, HistoryEntry{
		Type:          HistoryBuyRequest,
		From:          "W1",
		To:            "W2",
		Price:         10,
		TransactionID: "tx-buy",
		Timestamp:     now.Add(time.Hour),
	}, last)
	assert.Equal(t, "tx-buy", nft.LastTransactionID())
}

func TestNFT_Confirm(t *testing.T) {
	tests := []struct {
		name           string
		status         NFTStatus
		expectedType   HistoryType
		expectedListed bool
	}{
		{name: "listing", status: NFTStatusListed, expectedType: HistoryListingConfirmed, expectedListed: true},
		{name: "purchase", status: NFTStatusSold, expectedType: HistoryPurchaseConfirmed},
		{name: "back to active", status: NFTStatusActive, expectedType: HistoryStatusConfirmed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nft := listedNFT()
			nft.Confirm(tt.status, "tx-1", time.Now())

			assert.Equal(t, tt.status, nft.Status)
			assert.Equal(t, tt.expectedListed, nft.IsListed)
			assert.Equal(t, tt.expectedType, nft.History[len(nft.History)-1].Type)
		})
	}

	assert.True(t, NFTStatusSold.Valid())
	assert.False(t, NFTStatus("burned").Valid())
}

func TestErrorKinds(t *testing.T) {
	assert.True(t, errors.Is(ErrNFTNotFound, ErrPreconditionFailed))
	assert.True(t, errors.Is(errors.Wrap(ErrConcurrentModification, "save"), ErrPersistenceFailure))
	assert.False(t, errors.Is(ErrConcurrentModification, ErrPreconditionFailed))
}

func TestNFT_PendingMint(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	nft := NewPendingNFT("R2", "Dawn #2", "First light", "https://img.example/2.png", "W1", []Attribute{{TraitType: "sky", Value: "pink"}}, "tx-mint", now)

	assert.Equal(t, NFTStatusPendingMint, nft.Status)
	assert.Empty(t, nft.Mint)
	assert.Equal(t, "W1", nft.CreatorWallet)
	assert.Equal(t, 1, nft.Version.Value)
	assert.Equal(t, "tx-mint", nft.LastTransactionID())
	assert.True(t, NFTStatusPendingMint.Valid())

	nft.ConfirmMint("Mint222", "tx-mint", now.Add(time.Minute))

	assert.Equal(t, NFTStatusActive, nft.Status)
	assert.Equal(t, "Mint222", nft.Mint)
	assert.Equal(t, 2, nft.Version.Value)
	require.Len(t, nft.History, 2)
	assert.Equal(t, HistoryMintConfirmed, nft.History[1].Type)
	assert.NoError(t, nft.CheckListable("W1", 10, 7))
}

func TestNFTQuery_Offset(t *testing.T) {
	assert.Equal(t, 0, NFTQuery{Limit: 10}.Offset())
	assert.Equal(t, 0, NFTQuery{Limit: 10, Page: 1}.Offset())
	assert.Equal(t, 20, NFTQuery{Limit: 10, Page: 3}.Offset())
}
