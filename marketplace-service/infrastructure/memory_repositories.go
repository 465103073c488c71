package infrastructure

import (
	"context"
	"sort"
	"sync"

	"github.com/draftea/nft-marketplace/marketplace-service/domain"
	"github.com/draftea/nft-marketplace/shared/models"
	"github.com/pkg/errors"
)

var (
	_ domain.NFTRepository     = (*MemoryNFTRepository)(nil)
	_ domain.NFTSearcher       = (*MemoryNFTRepository)(nil)
	_ domain.AccountRepository = (*MemoryAccountRepository)(nil)
)

// MemoryNFTRepository keeps nfts in process memory with the same version rules as the SQL store
type MemoryNFTRepository struct {
	mu   sync.RWMutex
	nfts map[models.ID]*domain.NFT
}

func NewMemoryNFTRepository(seed ...*domain.NFT) *MemoryNFTRepository {
	r := &MemoryNFTRepository{nfts: make(map[models.ID]*domain.NFT)}
	for _, nft := range seed {
		r.nfts[nft.ID] = nft.Clone()
	}
	return r
}

func (r *MemoryNFTRepository) FindByID(ctx context.Context, id models.ID) (*domain.NFT, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nft, ok := r.nfts[id]
	if !ok {
		return nil, nil
	}
	return nft.Clone(), nil
}

func (r *MemoryNFTRepository) Save(ctx context.Context, nft *domain.NFT) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.nfts[nft.ID]
	switch {
	case !exists && nft.Version.Value > 1:
		return errors.Wrapf(domain.ErrConcurrentModification, "nft %s does not exist", nft.ID)
	case exists && stored.Version.Value != nft.Version.Value-1:
		return errors.Wrapf(domain.ErrConcurrentModification, "nft %s at version %d", nft.ID, nft.Version.Value)
	}

	r.nfts[nft.ID] = nft.Clone()
	return nil
}

func (r *MemoryNFTRepository) ReplaceByID(ctx context.Context, id models.ID, nft *domain.NFT) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nfts[id] = nft.Clone()
	return nil
}

func (r *MemoryNFTRepository) DeleteByID(ctx context.Context, id models.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.nfts, id)
	return nil
}

func (r *MemoryNFTRepository) Search(ctx context.Context, query domain.NFTQuery) (*domain.NFTPage, error) {
	r.mu.RLock()
	matches := make([]*domain.NFT, 0, len(r.nfts))
	for _, nft := range r.nfts {
		if matchesQuery(nft, query) {
			matches = append(matches, nft.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i].Timestamps.CreatedAt, matches[j].Timestamps.CreatedAt
		if a.Equal(b) {
			return matches[i].ID < matches[j].ID
		}
		return a.After(b)
	})

	page := &domain.NFTPage{NFTs: []*domain.NFT{}, Total: int64(len(matches)), Page: query.Page, Limit: query.Limit}
	if offset := query.Offset(); offset < len(matches) {
		end := min(offset+query.Limit, len(matches))
		page.NFTs = matches[offset:end]
	}
	return page, nil
}

func matchesQuery(nft *domain.NFT, query domain.NFTQuery) bool {
	switch {
	case nft.Timestamps.DeletedAt != nil:
		return false
	case query.Owner != "" && nft.Owner != query.Owner:
		return false
	case query.CreatorWallet != "" && nft.CreatorWallet != query.CreatorWallet:
		return false
	case query.Status != "" && nft.Status != query.Status:
		return false
	case query.IsListed != nil && nft.IsListed != *query.IsListed:
		return false
	}
	return true
}

// MemoryAccountRepository keeps accounts in process memory
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[models.ID]*domain.Account
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{accounts: make(map[models.ID]*domain.Account)}
}

func (r *MemoryAccountRepository) FindByWallet(ctx context.Context, wallet string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.accounts {
		if account.Wallet == wallet {
			copied := *account
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *MemoryAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if existing.Wallet == account.Wallet {
			return errors.Errorf("account for wallet %s already exists", account.Wallet)
		}
	}
	copied := *account
	r.accounts[account.ID] = &copied
	return nil
}

func (r *MemoryAccountRepository) DeleteByID(ctx context.Context, id models.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.accounts, id)
	return nil
}
