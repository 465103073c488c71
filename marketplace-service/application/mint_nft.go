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

// IntentMint is the message type for pending mint actions
const IntentMint = "MINT_NFT_ON_CHAIN"

// MintNFTCommand represents the command to mint a new NFT
type MintNFTCommand struct {
	MinterWallet string             `json:"minter_wallet"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Image        string             `json:"image"`
	Attributes   []domain.Attribute `json:"attributes"`
}

// MintIntent is the payload of a MINT_NFT_ON_CHAIN message
type MintIntent struct {
	TransactionID string             `json:"transaction_id"`
	NFTID         string             `json:"nft_id"`
	MinterWallet  string             `json:"minter_wallet"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	Image         string             `json:"image"`
	Attributes    []domain.Attribute `json:"attributes"`
}

// MintNFT use case
type MintNFT struct {
	workflow *Workflow
	newID    func() models.ID
}

// NewMintNFT creates a new MintNFT use case
func NewMintNFT(workflow *Workflow) *MintNFT {
	return &MintNFT{workflow: workflow, newID: models.GenerateUUID}
}

// Execute queues the mint and stores the record as pending_mint until the
// chain confirms it. A failed workflow leaves no record behind.
func (uc *MintNFT) Execute(ctx context.Context, cmd *MintNFTCommand) (*WorkflowResponse, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "mint_nft",
		trace.WithAttributes(
			attribute.String("minter_wallet", cmd.MinterWallet),
			attribute.String("name", cmd.Name),
		),
	)
	defer span.End()

	status := "error"
	defer func() { observe(ctx, "mint_nft", start, status) }()

	if err := uc.validateCommand(cmd); err != nil {
		span.RecordError(err)
		return nil, err
	}

	sagaID := uc.workflow.newSagaID()
	nft := domain.NewPendingNFT(uc.newID(), cmd.Name, cmd.Description, cmd.Image, cmd.MinterWallet, cmd.Attributes, sagaID, uc.workflow.now())
	span.SetAttributes(
		attribute.String("saga_id", sagaID),
		attribute.String("nft_id", nft.ID.String()),
	)

	err := uc.workflow.run(ctx, sagaID, nft, intent{
		operation:   "mint_nft",
		messageType: IntentMint,
		payload: MintIntent{
			TransactionID: sagaID,
			NFTID:         nft.ID.String(),
			MinterWallet:  cmd.MinterWallet,
			Name:          cmd.Name,
			Description:   cmd.Description,
			Image:         cmd.Image,
			Attributes:    cmd.Attributes,
		},
		created:   true,
		eventType: events.NFTMintRequestedEvent,
		eventData: map[string]interface{}{
			"nft_id":         nft.ID.String(),
			"transaction_id": sagaID,
			"minter_wallet":  cmd.MinterWallet,
			"name":           cmd.Name,
		},
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	status = "success"
	return &WorkflowResponse{TransactionID: sagaID, NFT: nft}, nil
}

func (uc *MintNFT) validateCommand(cmd *MintNFTCommand) error {
	if cmd.MinterWallet == "" {
		return errors.Wrap(ErrInvalidCommand, "minter wallet is required")
	}
	if cmd.Name == "" {
		return errors.Wrap(ErrInvalidCommand, "name is required")
	}
	for _, attr := range cmd.Attributes {
		if attr.TraitType == "" {
			return errors.Wrap(ErrInvalidCommand, "attribute trait_type is required")
		}
	}
	return nil
}
