package application

import (
	"context"
	"time"

	"github.com/draftea/nft-marketplace/marketplace-service/domain"
	"github.com/draftea/nft-marketplace/shared/events"
	"github.com/draftea/nft-marketplace/shared/saga"
	"github.com/draftea/nft-marketplace/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// IntentBuy is the message type for pending purchase actions
const IntentBuy = "BUY"

// BuyNFTCommand represents the command to buy a listed NFT
type BuyNFTCommand struct {
	NFTID       string `json:"nft_id"`
	BuyerWallet string `json:"buyer_wallet"`
}

// BuyIntent is the payload of a BUY message
type BuyIntent struct {
	TransactionID       string `json:"transaction_id"`
	NFTID               string `json:"nft_id"`
	Mint                string `json:"mint"`
	BuyerWallet         string `json:"buyer_wallet"`
	SellerWallet        string `json:"seller_wallet"`
	PriceLamports       int64  `json:"price_lamports"`
	PlatformFeeLamports int64  `json:"platform_fee_lamports"`
	PlatformFeeWallet   string `json:"platform_fee_wallet,omitempty"`
}

// PlatformFee is the marketplace cut of every sale
type PlatformFee struct {
	BasisPoints int64
	Wallet      string
}

// BuyNFT use case
type BuyNFT struct {
	workflow          *Workflow
	accountRepository domain.AccountRepository
	fee               PlatformFee
}

// NewBuyNFT creates a new BuyNFT use case
func NewBuyNFT(workflow *Workflow, accountRepository domain.AccountRepository, fee PlatformFee) *BuyNFT {
	return &BuyNFT{
		workflow:          workflow,
		accountRepository: accountRepository,
		fee:               fee,
	}
}

// Execute buys the NFT for the buyer, creating the buyer's account when it does not exist
func (uc *BuyNFT) Execute(ctx context.Context, cmd *BuyNFTCommand) (*WorkflowResponse, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "buy_nft",
		trace.WithAttributes(
			attribute.String("nft_id", cmd.NFTID),
			attribute.String("buyer_wallet", cmd.BuyerWallet),
		),
	)
	defer span.End()

	status := "error"
	defer func() { observe(ctx, "buy_nft", start, status) }()

	if cmd.NFTID == "" {
		err := errors.Wrap(ErrInvalidCommand, "nft ID is required")
		span.RecordError(err)
		return nil, err
	}
	if cmd.BuyerWallet == "" {
		err := errors.Wrap(ErrInvalidCommand, "buyer wallet is required")
		span.RecordError(err)
		return nil, err
	}

	nft, err := findNFT(ctx, uc.workflow.nftRepository, "buy_nft", cmd.NFTID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := nft.CheckBuyable(cmd.BuyerWallet); err != nil {
		span.RecordError(err)
		return nil, &WorkflowError{Operation: "buy_nft", Outcome: OutcomeNotAttempted, Err: err}
	}

	sagaID := uc.workflow.newSagaID()
	seller := nft.Owner
	price := nft.Price
	fee := price.BasisPoints(uc.fee.BasisPoints)

	span.SetAttributes(
		attribute.String("saga_id", sagaID),
		attribute.String("seller_wallet", seller),
		attribute.Int64("price_lamports", price.Int64()),
	)

	err = uc.workflow.run(ctx, sagaID, nft, intent{
		operation:   "buy_nft",
		messageType: IntentBuy,
		payload: BuyIntent{
			TransactionID:       sagaID,
			NFTID:               nft.ID.String(),
			Mint:                nft.Mint,
			BuyerWallet:         cmd.BuyerWallet,
			SellerWallet:        seller,
			PriceLamports:       price.Int64(),
			PlatformFeeLamports: fee.Int64(),
			PlatformFeeWallet:   uc.fee.Wallet,
		},
		apply: func(nft *domain.NFT) {
			nft.Buy(cmd.BuyerWallet, sagaID, uc.workflow.now())
		},
		afterPersist: func(ctx context.Context, sagaID string) error {
			return uc.ensureAccount(ctx, sagaID, cmd.BuyerWallet)
		},
		eventType: events.NFTPurchaseRequestedEvent,
		eventData: map[string]interface{}{
			"nft_id":                nft.ID.String(),
			"transaction_id":        sagaID,
			"buyer_wallet":          cmd.BuyerWallet,
			"seller_wallet":         seller,
			"price_lamports":        price.Int64(),
			"platform_fee_lamports": fee.Int64(),
		},
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	status = "success"
	return &WorkflowResponse{TransactionID: sagaID, NFT: nft}, nil
}

// ensureAccount creates the buyer's account if missing and registers its removal
func (uc *BuyNFT) ensureAccount(ctx context.Context, sagaID string, wallet string) error {
	account, err := uc.accountRepository.FindByWallet(ctx, wallet)
	if err != nil {
		return errors.Wrap(err, "failed to find buyer account")
	}
	if account != nil {
		return nil
	}

	account = domain.NewAccount(wallet)
	if err := uc.accountRepository.Create(ctx, account); err != nil {
		return persistenceFailure(errors.Wrap(err, "failed to create buyer account"))
	}

	if err := uc.workflow.sagas.Register(ctx, sagaID, saga.NewCompensation("delete-buyer-account", func(ctx context.Context) error {
		return uc.accountRepository.DeleteByID(ctx, account.ID)
	})); err != nil {
		uc.workflow.logger.Warn("failed to register account compensation",
			zap.String("saga_id", sagaID),
			zap.String("account_id", account.ID.String()),
			zap.Error(err),
		)
	}

	uc.workflow.logger.Info("created buyer account",
		zap.String("saga_id", sagaID),
		zap.String("wallet", wallet),
	)
	return nil
}
