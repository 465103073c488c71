package infrastructure

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/draftea/nft-marketplace/marketplace-service/domain"
	"github.com/draftea/nft-marketplace/shared/models"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var (
	_ domain.NFTCache       = (*RedisNFTCache)(nil)
	_ domain.NFTSearchCache = (*RedisNFTCache)(nil)
)

const defaultCacheTTL = 5 * time.Minute

// RedisNFTCache caches nft documents as JSON under nft:<id> and search pages
// under nft:search:<query hash>. Search pages are not invalidated on writes
// and live for the ttl.
type RedisNFTCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisNFTCache creates the cache; a zero ttl uses five minutes
func NewRedisNFTCache(client redis.UniversalClient, ttl time.Duration) *RedisNFTCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisNFTCache{client: client, ttl: ttl}
}

func (c *RedisNFTCache) Get(ctx context.Context, id models.ID) (*domain.NFT, error) {
	raw, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read cached nft %s", id)
	}

	var nft domain.NFT
	if err := json.Unmarshal(raw, &nft); err != nil {
		// a corrupt entry is treated as a miss and dropped
		_ = c.client.Del(ctx, cacheKey(id)).Err()
		return nil, nil
	}
	return &nft, nil
}

func (c *RedisNFTCache) Set(ctx context.Context, nft *domain.NFT) error {
	raw, err := json.Marshal(nft)
	if err != nil {
		return errors.Wrap(err, "failed to marshal nft")
	}
	if err := c.client.Set(ctx, cacheKey(nft.ID), raw, c.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to cache nft %s", nft.ID)
	}
	return nil
}

func (c *RedisNFTCache) Invalidate(ctx context.Context, id models.ID) error {
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		return errors.Wrapf(err, "failed to invalidate nft %s", id)
	}
	return nil
}

func (c *RedisNFTCache) GetSearch(ctx context.Context, query domain.NFTQuery) (*domain.NFTPage, error) {
	key, err := searchKey(query)
	if err != nil {
		return nil, err
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read cached search")
	}

	var page domain.NFTPage
	if err := json.Unmarshal(raw, &page); err != nil {
		_ = c.client.Del(ctx, key).Err()
		return nil, nil
	}
	return &page, nil
}

func (c *RedisNFTCache) SetSearch(ctx context.Context, query domain.NFTQuery, page *domain.NFTPage) error {
	key, err := searchKey(query)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return errors.Wrap(err, "failed to marshal search page")
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to cache search page")
	}
	return nil
}

func searchKey(query domain.NFTQuery) (string, error) {
	raw, err := json.Marshal(query)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal search query")
	}
	sum := sha256.Sum256(raw)
	return "nft:search:" + hex.EncodeToString(sum[:]), nil
}

func cacheKey(id models.ID) string {
	return "nft:" + id.String()
}
