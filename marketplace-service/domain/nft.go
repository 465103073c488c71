package domain

import (
	"context"
	"time"

	"github.com/draftea/nft-marketplace/shared/models"
)

// NFTStatus represents the marketplace status of an NFT
type NFTStatus string

const (
	NFTStatusPendingMint NFTStatus = "pending_mint"
	NFTStatusActive      NFTStatus = "active"
	NFTStatusPendingList NFTStatus = "pending_list"
	NFTStatusListed      NFTStatus = "listed"
	NFTStatusPendingSale NFTStatus = "pending_sale"
	NFTStatusSold        NFTStatus = "sold"
)

// Valid reports whether s is a known status
func (s NFTStatus) Valid() bool {
	switch s {
	case NFTStatusPendingMint, NFTStatusActive, NFTStatusPendingList, NFTStatusListed, NFTStatusPendingSale, NFTStatusSold:
		return true
	}
	return false
}

// HistoryType labels an entry in the NFT audit trail
type HistoryType string

const (
	HistoryMint              HistoryType = "Mint"
	HistoryMintRequest       HistoryType = "Mint Request"
	HistoryMintConfirmed     HistoryType = "Mint Confirmed"
	HistoryListRequest       HistoryType = "List Request"
	HistoryBuyRequest        HistoryType = "Buy Request"
	HistoryListingConfirmed  HistoryType = "Listing Confirmed"
	HistoryPurchaseConfirmed HistoryType = "Purchase Confirmed"
	HistoryStatusConfirmed   HistoryType = "Status Confirmed"
)

// HistoryEntry is one audit record on an NFT
type HistoryEntry struct {
	Type          HistoryType     `json:"type" bson:"type"`
	From          string          `json:"from,omitempty" bson:"from,omitempty"`
	To            string          `json:"to,omitempty" bson:"to,omitempty"`
	Price         models.Lamports `json:"price,omitempty" bson:"price,omitempty"`
	TransactionID string          `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	Timestamp     time.Time       `json:"timestamp" bson:"timestamp"`
}

// Attribute is a metadata trait
type Attribute struct {
	TraitType string `json:"trait_type" bson:"trait_type"`
	Value     string `json:"value" bson:"value"`
}

// NFT aggregate root. The marketplace state lives here; the chain is the
// authority for ownership and is reconciled through confirmations.
type NFT struct {
	ID                  models.ID         `json:"id" bson:"_id"`
	Name                string            `json:"name" bson:"name"`
	Description         string            `json:"description" bson:"description"`
	Image               string            `json:"image" bson:"image"`
	Mint                string            `json:"mint" bson:"mint"`
	Owner               string            `json:"owner" bson:"owner"`
	CreatorWallet       string            `json:"creator_wallet" bson:"creator_wallet"`
	Attributes          []Attribute       `json:"attributes" bson:"attributes"`
	IsListed            bool              `json:"is_listed" bson:"is_listed"`
	Price               models.Lamports   `json:"price" bson:"price"`
	ListedAt            *time.Time        `json:"listed_at,omitempty" bson:"listed_at,omitempty"`
	ListingDurationDays int               `json:"listing_duration_days,omitempty" bson:"listing_duration_days,omitempty"`
	ListedBy            string            `json:"listed_by,omitempty" bson:"listed_by,omitempty"`
	Status              NFTStatus         `json:"status" bson:"status"`
	History             []HistoryEntry    `json:"history" bson:"history"`
	AcquiredAt          *time.Time        `json:"acquired_at,omitempty" bson:"acquired_at,omitempty"`
	Timestamps          models.Timestamps `json:"timestamps" bson:"timestamps"`
	Version             models.Version    `json:"version" bson:"version"`
}

// NewNFT creates a freshly minted, unlisted NFT
func NewNFT(name, description, image, mint, owner string, attributes []Attribute) *NFT {
	now := time.Now().UTC()
	return &NFT{
		ID:            models.GenerateUUID(),
		Name:          name,
		Description:   description,
		Image:         image,
		Mint:          mint,
		Owner:         owner,
		CreatorWallet: owner,
		Attributes:    attributes,
		Status:        NFTStatusActive,
		History: []HistoryEntry{{
			Type:      HistoryMint,
			To:        owner,
			Timestamp: now,
		}},
		AcquiredAt: &now,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}
}

// NewPendingNFT creates a record for an NFT whose mint is still on its way to
// the chain. The mint address is filled in by ConfirmMint.
func NewPendingNFT(id models.ID, name, description, image, minter string, attributes []Attribute, transactionID string, now time.Time) *NFT {
	return &NFT{
		ID:            id,
		Name:          name,
		Description:   description,
		Image:         image,
		Owner:         minter,
		CreatorWallet: minter,
		Attributes:    attributes,
		Status:        NFTStatusPendingMint,
		History: []HistoryEntry{{
			Type:          HistoryMintRequest,
			To:            minter,
			TransactionID: transactionID,
			Timestamp:     now,
		}},
		AcquiredAt: &now,
		Timestamps: models.Timestamps{CreatedAt: now, UpdatedAt: now},
		Version:    models.NewVersion(),
	}
}

// Clone returns a deep copy, used as the pre-mutation snapshot
func (n *NFT) Clone() *NFT {
	clone := *n
	clone.Attributes = append([]Attribute(nil), n.Attributes...)
	clone.History = append([]HistoryEntry(nil), n.History...)
	if n.ListedAt != nil {
		t := *n.ListedAt
		clone.ListedAt = &t
	}
	if n.AcquiredAt != nil {
		t := *n.AcquiredAt
		clone.AcquiredAt = &t
	}
	if n.Timestamps.DeletedAt != nil {
		t := *n.Timestamps.DeletedAt
		clone.Timestamps.DeletedAt = &t
	}
	return &clone
}

// CheckListable validates that seller may list the NFT at price for days
func (n *NFT) CheckListable(seller string, price models.Lamports, days int) error {
	switch {
	case seller == "":
		return precondition("seller wallet is required")
	case n.Owner != seller:
		return precondition("only the owner can list this nft")
	case n.IsListed:
		return precondition("nft is already listed")
	case n.Status != NFTStatusActive:
		return precondition("nft is not available for listing (status " + string(n.Status) + ")")
	case !price.IsPositive():
		return precondition("price must be positive")
	case days <= 0:
		return precondition("listing duration must be positive")
	}
	return nil
}

// List marks the NFT as listed pending chain confirmation
func (n *NFT) List(seller string, price models.Lamports, days int, transactionID string, now time.Time) {
	listedAt := now
	n.IsListed = true
	n.Price = price
	n.ListedAt = &listedAt
	n.ListingDurationDays = days
	n.ListedBy = seller
	n.Status = NFTStatusPendingList
	n.History = append(n.History, HistoryEntry{
		Type:          HistoryListRequest,
		From:          seller,
		Price:         price,
		TransactionID: transactionID,
		Timestamp:     now,
	})
	n.touch()
}

// CheckBuyable validates that buyer may buy the NFT at its current price
func (n *NFT) CheckBuyable(buyer string) error {
	switch {
	case buyer == "":
		return precondition("buyer wallet is required")
	case n.Owner == buyer:
		return precondition("cannot buy own record")
	case !n.IsListed || (n.Status != NFTStatusListed && n.Status != NFTStatusPendingList):
		return precondition("nft is not listed for sale")
	case !n.Price.IsPositive():
		return precondition("nft has no valid price")
	}
	return nil
}

// Buy clears the listing and transfers ownership to buyer pending chain confirmation
func (n *NFT) Buy(buyer string, transactionID string, now time.Time) {
	acquiredAt := now
	seller := n.Owner
	price := n.Price

	n.IsListed = false
	n.Price = 0
	n.ListedAt = nil
	n.ListingDurationDays = 0
	n.ListedBy = ""
	n.Owner = buyer
	n.AcquiredAt = &acquiredAt
	n.Status = NFTStatusPendingSale
	n.History = append(n.History, HistoryEntry{
		Type:          HistoryBuyRequest,
		From:          seller,
		To:            buyer,
		Price:         price,
		TransactionID: transactionID,
		Timestamp:     now,
	})
	n.touch()
}

// Confirm applies a chain-confirmed status
func (n *NFT) Confirm(status NFTStatus, transactionID string, now time.Time) {
	entry := HistoryEntry{
		Type:          HistoryStatusConfirmed,
		To:            n.Owner,
		TransactionID: transactionID,
		Timestamp:     now,
	}

	switch status {
	case NFTStatusListed:
		entry.Type = HistoryListingConfirmed
		entry.Price = n.Price
		n.IsListed = true
	case NFTStatusSold:
		entry.Type = HistoryPurchaseConfirmed
		n.IsListed = false
	case NFTStatusActive:
		n.IsListed = false
	}

	n.Status = status
	n.History = append(n.History, entry)
	n.touch()
}

// ConfirmMint records the on-chain mint address and makes the NFT tradable
func (n *NFT) ConfirmMint(mint string, transactionID string, now time.Time) {
	n.Mint = mint
	n.IsListed = false
	n.Status = NFTStatusActive
	n.History = append(n.History, HistoryEntry{
		Type:          HistoryMintConfirmed,
		To:            n.Owner,
		TransactionID: transactionID,
		Timestamp:     now,
	})
	n.touch()
}

// LastTransactionID returns the transaction id of the most recent history entry that has one
func (n *NFT) LastTransactionID() string {
	for i := len(n.History) - 1; i >= 0; i-- {
		if n.History[i].TransactionID != "" {
			return n.History[i].TransactionID
		}
	}
	return ""
}

func (n *NFT) touch() {
	n.Timestamps = n.Timestamps.Update()
	n.Version = n.Version.Update()
}

// NFTRepository stores whole NFT documents. FindByID returns nil, nil when absent.
// Save is an optimistic write against Version-1 and fails with ErrConcurrentModification
// when the stored version moved; ReplaceByID overwrites unconditionally.
// DeleteByID removes the record and is a no-op when it is already gone.
type NFTRepository interface {
	FindByID(ctx context.Context, id models.ID) (*NFT, error)
	Save(ctx context.Context, nft *NFT) error
	ReplaceByID(ctx context.Context, id models.ID, nft *NFT) error
	DeleteByID(ctx context.Context, id models.ID) error
}

// NFTQuery filters a marketplace search. Zero values match everything.
type NFTQuery struct {
	Owner         string    `json:"owner,omitempty"`
	CreatorWallet string    `json:"creator_wallet,omitempty"`
	Status        NFTStatus `json:"status,omitempty"`
	IsListed      *bool     `json:"is_listed,omitempty"`
	Limit         int       `json:"limit"`
	Page          int       `json:"page"`
}

// Offset is the number of records skipped before Page
func (q NFTQuery) Offset() int {
	if q.Page <= 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// NFTPage is one page of search results
type NFTPage struct {
	NFTs  []*NFT `json:"nfts"`
	Total int64  `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

// NFTSearcher runs filtered, paginated reads ordered newest first
type NFTSearcher interface {
	Search(ctx context.Context, query NFTQuery) (*NFTPage, error)
}

// NFTSearchCache holds search pages for a short TTL. Get returns nil, nil on a miss.
type NFTSearchCache interface {
	GetSearch(ctx context.Context, query NFTQuery) (*NFTPage, error)
	SetSearch(ctx context.Context, query NFTQuery, page *NFTPage) error
}

// NFTCache is a derived read cache. Get returns nil, nil on a miss.
type NFTCache interface {
	Get(ctx context.Context, id models.ID) (*NFT, error)
	Set(ctx context.Context, nft *NFT) error
	Invalidate(ctx context.Context, id models.ID) error
}
