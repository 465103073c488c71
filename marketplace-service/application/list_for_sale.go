package application

import (
	"context"
	"time"

	"github.com/draftea/nft-marketplace/marketplace-service/domain"
	"github.com/draftea/nft-marketplace/shared/events"
	"github.com/draftea/nft-marketplace/shared/models"
	"github.com/draftea/nft-marketplace/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// IntentList is the message type for pending listing actions
const IntentList = "LIST"

// ListForSaleCommand represents the command to list an NFT
type ListForSaleCommand struct {
	NFTID         string `json:"nft_id"`
	SellerWallet  string `json:"seller_wallet"`
	PriceLamports int64  `json:"price_lamports"`
	DurationDays  int    `json:"duration_days"`
}

// ListIntent is the payload of a LIST message
type ListIntent struct {
	TransactionID string `json:"transaction_id"`
	NFTID         string `json:"nft_id"`
	Mint          string `json:"mint"`
	SellerWallet  string `json:"seller_wallet"`
	PriceLamports int64  `json:"price_lamports"`
	DurationDays  int    `json:"duration_days"`
}

// WorkflowResponse is the updated record and the saga that changed it
type WorkflowResponse struct {
	TransactionID string      `json:"transaction_id"`
	NFT           *domain.NFT `json:"nft"`
}

// ListForSale use case
type ListForSale struct {
	workflow *Workflow
}

// NewListForSale creates a new ListForSale use case
func NewListForSale(workflow *Workflow) *ListForSale {
	return &ListForSale{workflow: workflow}
}

// Execute lists the NFT. The LIST intent is queued before the record changes.
func (uc *ListForSale) Execute(ctx context.Context, cmd *ListForSaleCommand) (*WorkflowResponse, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "list_for_sale",
		trace.WithAttributes(
			attribute.String("nft_id", cmd.NFTID),
			attribute.String("seller_wallet", cmd.SellerWallet),
			attribute.Int64("price_lamports", cmd.PriceLamports),
		),
	)
	defer span.End()

	status := "error"
	defer func() { observe(ctx, "list_for_sale", start, status) }()

	price, err := uc.validateCommand(cmd)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	nft, err := findNFT(ctx, uc.workflow.nftRepository, "list_for_sale", cmd.NFTID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := nft.CheckListable(cmd.SellerWallet, price, cmd.DurationDays); err != nil {
		span.RecordError(err)
		return nil, &WorkflowError{Operation: "list_for_sale", Outcome: OutcomeNotAttempted, Err: err}
	}

	sagaID := uc.workflow.newSagaID()
	span.SetAttributes(attribute.String("saga_id", sagaID))

	err = uc.workflow.run(ctx, sagaID, nft, intent{
		operation:   "list_for_sale",
		messageType: IntentList,
		payload: ListIntent{
			TransactionID: sagaID,
			NFTID:         nft.ID.String(),
			Mint:          nft.Mint,
			SellerWallet:  cmd.SellerWallet,
			PriceLamports: price.Int64(),
			DurationDays:  cmd.DurationDays,
		},
		apply: func(nft *domain.NFT) {
			nft.List(cmd.SellerWallet, price, cmd.DurationDays, sagaID, uc.workflow.now())
		},
		eventType: events.NFTListingRequestedEvent,
		eventData: map[string]interface{}{
			"nft_id":         nft.ID.String(),
			"transaction_id": sagaID,
			"seller_wallet":  cmd.SellerWallet,
			"price_lamports": price.Int64(),
			"duration_days":  cmd.DurationDays,
		},
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	status = "success"
	return &WorkflowResponse{TransactionID: sagaID, NFT: nft}, nil
}

func (uc *ListForSale) validateCommand(cmd *ListForSaleCommand) (models.Lamports, error) {
	if cmd.NFTID == "" {
		return 0, errors.Wrap(ErrInvalidCommand, "nft ID is required")
	}
	if cmd.SellerWallet == "" {
		return 0, errors.Wrap(ErrInvalidCommand, "seller wallet is required")
	}
	price, err := models.NewLamports(cmd.PriceLamports)
	if err != nil {
		return 0, errors.Wrap(ErrInvalidCommand, err.Error())
	}
	return price, nil
}

// findNFT loads the record a workflow operates on; a missing record is a precondition failure
func findNFT(ctx context.Context, repository domain.NFTRepository, operation string, id string) (*domain.NFT, error) {
	nft, err := repository.FindByID(ctx, models.ID(id))
	if err != nil {
		return nil, &WorkflowError{Operation: operation, Outcome: OutcomeNotAttempted, Err: errors.Wrap(err, "failed to find nft")}
	}
	if nft == nil {
		return nil, &WorkflowError{Operation: operation, Outcome: OutcomeNotAttempted, Err: errors.Wrapf(domain.ErrNFTNotFound, "nft %s", id)}
	}
	return nft, nil
}
