package application

import (
	"context"
	"time"

	"github.com/draftea/nft-marketplace/marketplace-service/domain"
	"github.com/draftea/nft-marketplace/shared/logging"
	"github.com/draftea/nft-marketplace/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 100
)

// SearchNFTsQuery filters the marketplace listing. Empty fields match everything.
type SearchNFTsQuery struct {
	Owner         string `json:"owner,omitempty"`
	CreatorWallet string `json:"creator_wallet,omitempty"`
	Status        string `json:"status,omitempty"`
	IsListed      *bool  `json:"is_listed,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	Page          int    `json:"page,omitempty"`
}

// SearchNFTs use case, cached per distinct query
type SearchNFTs struct {
	searcher domain.NFTSearcher
	cache    domain.NFTSearchCache
	logger   *zap.Logger
}

// NewSearchNFTs creates a new SearchNFTs use case. cache may be nil.
func NewSearchNFTs(searcher domain.NFTSearcher, cache domain.NFTSearchCache, logger *zap.Logger) *SearchNFTs {
	return &SearchNFTs{
		searcher: searcher,
		cache:    cache,
		logger:   logging.OrNop(logger),
	}
}

// Execute returns one page of matching nfts, newest first
func (uc *SearchNFTs) Execute(ctx context.Context, query *SearchNFTsQuery) (*domain.NFTPage, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "search_nfts",
		trace.WithAttributes(
			attribute.String("owner", query.Owner),
			attribute.String("status", query.Status),
		),
	)
	defer span.End()

	status := "error"
	defer func() { observe(ctx, "search_nfts", start, status) }()

	q, err := normalizeQuery(query)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("limit", q.Limit), attribute.Int("page", q.Page))

	if uc.cache != nil {
		cached, err := uc.cache.GetSearch(ctx, q)
		if err != nil {
			uc.logger.Warn("search cache read failed", zap.Error(err))
		}
		if cached != nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			status = "success"
			return cached, nil
		}
	}

	page, err := uc.searcher.Search(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to search nfts")
	}

	if uc.cache != nil {
		if err := uc.cache.SetSearch(ctx, q, page); err != nil {
			uc.logger.Warn("search cache write failed", zap.Error(err))
		}
	}

	span.SetAttributes(
		attribute.Bool("cache_hit", false),
		attribute.Int64("total", page.Total),
	)

	status = "success"
	return page, nil
}

// normalizeQuery applies the paging defaults: limit 10, capped at 100, pages from 1
func normalizeQuery(query *SearchNFTsQuery) (domain.NFTQuery, error) {
	q := domain.NFTQuery{
		Owner:         query.Owner,
		CreatorWallet: query.CreatorWallet,
		Status:        domain.NFTStatus(query.Status),
		IsListed:      query.IsListed,
		Limit:         query.Limit,
		Page:          query.Page,
	}

	if q.Status != "" && !q.Status.Valid() {
		return q, errors.Wrapf(ErrInvalidCommand, "unknown status %q", query.Status)
	}
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultSearchLimit
	case q.Limit > MaxSearchLimit:
		q.Limit = MaxSearchLimit
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return q, nil
}
