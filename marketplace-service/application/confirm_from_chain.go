package application

import (
	"context"
	"time"

	"github.com/draftea/nft-marketplace/marketplace-service/domain"
	"github.com/draftea/nft-marketplace/shared/events"
	"github.com/draftea/nft-marketplace/shared/logging"
	"github.com/draftea/nft-marketplace/shared/models"
	"github.com/draftea/nft-marketplace/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ConfirmFromChainCommand is the payload of an nft.chain.confirmed event
type ConfirmFromChainCommand struct {
	NFTID         string `json:"nft_id"`
	TransactionID string `json:"transaction_id"`
	Action        string `json:"action"`
	Status        string `json:"status,omitempty"`
	Signature     string `json:"signature,omitempty"`
	Mint          string `json:"mint,omitempty"`
}

// ConfirmFromChain applies chain confirmations of pending marketplace actions
type ConfirmFromChain struct {
	nftRepository  domain.NFTRepository
	cache          domain.NFTCache
	eventPublisher events.Publisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewConfirmFromChain creates a new ConfirmFromChain use case. cache may be nil.
func NewConfirmFromChain(
	nftRepository domain.NFTRepository,
	cache domain.NFTCache,
	eventPublisher events.Publisher,
	logger *zap.Logger,
) *ConfirmFromChain {
	return &ConfirmFromChain{
		nftRepository:  nftRepository,
		cache:          cache,
		eventPublisher: eventPublisher,
		logger:         logging.OrNop(logger),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Execute records the confirmed status. Redelivered confirmations are no-ops.
func (uc *ConfirmFromChain) Execute(ctx context.Context, cmd *ConfirmFromChainCommand) (*domain.NFT, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "confirm_from_chain",
		trace.WithAttributes(
			attribute.String("nft_id", cmd.NFTID),
			attribute.String("transaction_id", cmd.TransactionID),
			attribute.String("action", cmd.Action),
		),
	)
	defer span.End()

	status := "error"
	defer func() { observe(ctx, "confirm_from_chain", start, status) }()

	confirmed, err := confirmedStatus(cmd)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	nft, err := uc.nftRepository.FindByID(ctx, models.ID(cmd.NFTID))
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to find nft")
	}
	if nft == nil {
		err := errors.Wrapf(domain.ErrNFTNotFound, "nft %s", cmd.NFTID)
		span.RecordError(err)
		return nil, err
	}

	if nft.Status == confirmed && nft.LastTransactionID() == cmd.TransactionID {
		uc.logger.Debug("confirmation already applied",
			zap.String("nft_id", cmd.NFTID),
			zap.String("transaction_id", cmd.TransactionID),
		)
		status = "duplicate"
		return nft, nil
	}

	previous := nft.Status
	if previous == domain.NFTStatusPendingMint && confirmed == domain.NFTStatusActive {
		if cmd.Mint == "" {
			err := errors.Wrapf(ErrInvalidCommand, "mint address is required to confirm nft %s", cmd.NFTID)
			span.RecordError(err)
			return nil, err
		}
		nft.ConfirmMint(cmd.Mint, cmd.TransactionID, uc.now())
	} else {
		nft.Confirm(confirmed, cmd.TransactionID, uc.now())
	}

	if err := uc.nftRepository.Save(ctx, nft); err != nil {
		span.RecordError(err)
		return nil, persistenceFailure(errors.Wrap(err, "failed to save confirmed nft"))
	}

	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx, nft.ID); err != nil {
			uc.logger.Warn("failed to invalidate cached nft", zap.String("nft_id", cmd.NFTID), zap.Error(err))
		}
	}

	if uc.eventPublisher != nil {
		event := events.NewEvent(nft.ID, events.NFTStatusUpdatedEvent, map[string]string{
			"nft_id":          nft.ID.String(),
			"transaction_id":  cmd.TransactionID,
			"previous_status": string(previous),
			"status":          string(confirmed),
			"owner":           nft.Owner,
			"mint":            nft.Mint,
		})
		if cmd.TransactionID != "" {
			event.WithCorrelationID(models.ID(cmd.TransactionID))
		}
		if err := uc.eventPublisher.Publish(ctx, event); err != nil {
			uc.logger.Warn("failed to publish status event", zap.String("nft_id", cmd.NFTID), zap.Error(err))
		}
	}

	uc.logger.Info("chain confirmation applied",
		zap.String("nft_id", cmd.NFTID),
		zap.String("transaction_id", cmd.TransactionID),
		zap.String("from", string(previous)),
		zap.String("to", string(confirmed)),
	)

	status = "success"
	return nft, nil
}

func confirmedStatus(cmd *ConfirmFromChainCommand) (domain.NFTStatus, error) {
	if cmd.NFTID == "" {
		return "", errors.Wrap(ErrInvalidCommand, "nft ID is required")
	}

	if cmd.Status != "" {
		s := domain.NFTStatus(cmd.Status)
		if !s.Valid() {
			return "", errors.Wrapf(ErrInvalidCommand, "unknown status %q", cmd.Status)
		}
		return s, nil
	}

	switch cmd.Action {
	case IntentMint:
		if cmd.Mint == "" {
			return "", errors.Wrap(ErrInvalidCommand, "mint address is required")
		}
		return domain.NFTStatusActive, nil
	case IntentList:
		return domain.NFTStatusListed, nil
	case IntentBuy:
		return domain.NFTStatusSold, nil
	default:
		return "", errors.Wrapf(ErrInvalidCommand, "unknown action %q", cmd.Action)
	}
}
