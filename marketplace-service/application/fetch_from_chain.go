package application

import (
	"context"
	"time"

	"github.com/draftea/nft-marketplace/marketplace-service/domain"
	"github.com/draftea/nft-marketplace/shared/circuitbreaker"
	"github.com/draftea/nft-marketplace/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FetchFromChainQuery represents the query for an on-chain asset
type FetchFromChainQuery struct {
	Mint string `json:"mint"`
}

// FetchFromChain reads chain state through the chain RPC breaker
type FetchFromChain struct {
	chain   domain.ChainClient
	breaker *circuitbreaker.Breaker
}

// NewFetchFromChain creates a new FetchFromChain use case
func NewFetchFromChain(chain domain.ChainClient, breaker *circuitbreaker.Breaker) *FetchFromChain {
	return &FetchFromChain{chain: chain, breaker: breaker}
}

// Execute returns the asset for the mint. Breaker rejections match circuitbreaker.ErrCircuitOpen.
func (uc *FetchFromChain) Execute(ctx context.Context, query *FetchFromChainQuery) (*domain.ChainAsset, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "fetch_from_chain",
		trace.WithAttributes(attribute.String("mint", query.Mint)),
	)
	defer span.End()

	status := "error"
	defer func() { observe(ctx, "fetch_from_chain", start, status) }()

	if query.Mint == "" {
		err := errors.Wrap(ErrInvalidCommand, "mint is required")
		span.RecordError(err)
		return nil, err
	}

	asset, err := circuitbreaker.Execute(ctx, uc.breaker, func(ctx context.Context) (*domain.ChainAsset, error) {
		return uc.chain.GetAsset(ctx, query.Mint)
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			status = "rejected"
		}
		span.RecordError(err)
		return nil, errors.Wrapf(err, "failed to fetch mint %s", query.Mint)
	}

	span.SetAttributes(
		attribute.Bool("exists", asset.Exists),
		attribute.String("breaker_state", string(uc.breaker.State())),
	)

	status = "success"
	return asset, nil
}
