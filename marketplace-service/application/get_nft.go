package application

import (
	"context"
	"time"

	"github.com/draftea/nft-marketplace/marketplace-service/domain"
	"github.com/draftea/nft-marketplace/shared/logging"
	"github.com/draftea/nft-marketplace/shared/models"
	"github.com/draftea/nft-marketplace/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// GetNFTQuery represents the query to get an NFT
type GetNFTQuery struct {
	NFTID string `json:"nft_id"`
}

// GetNFT use case, read-through over the cache
type GetNFT struct {
	nftRepository domain.NFTRepository
	cache         domain.NFTCache
	logger        *zap.Logger
}

// NewGetNFT creates a new GetNFT use case. cache may be nil.
func NewGetNFT(nftRepository domain.NFTRepository, cache domain.NFTCache, logger *zap.Logger) *GetNFT {
	return &GetNFT{
		nftRepository: nftRepository,
		cache:         cache,
		logger:        logging.OrNop(logger),
	}
}

// Execute executes the get nft use case
func (uc *GetNFT) Execute(ctx context.Context, query *GetNFTQuery) (*domain.NFT, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "get_nft",
		trace.WithAttributes(attribute.String("nft_id", query.NFTID)),
	)
	defer span.End()

	status := "error"
	defer func() { observe(ctx, "get_nft", start, status) }()

	if query.NFTID == "" {
		err := errors.Wrap(ErrInvalidCommand, "nft ID is required")
		span.RecordError(err)
		return nil, err
	}
	id := models.ID(query.NFTID)

	if uc.cache != nil {
		cached, err := uc.cache.Get(ctx, id)
		if err != nil {
			uc.logger.Warn("nft cache read failed", zap.String("nft_id", query.NFTID), zap.Error(err))
		}
		if cached != nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			status = "success"
			return cached, nil
		}
	}

	nft, err := uc.nftRepository.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to find nft")
	}
	if nft == nil {
		err := errors.Wrapf(domain.ErrNFTNotFound, "nft %s", query.NFTID)
		span.RecordError(err)
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, nft); err != nil {
			uc.logger.Warn("nft cache write failed", zap.String("nft_id", query.NFTID), zap.Error(err))
		}
	}

	span.SetAttributes(
		attribute.Bool("cache_hit", false),
		attribute.String("nft_status", string(nft.Status)),
	)

	status = "success"
	return nft, nil
}
