package handlers

import (
	"context"

	"github.com/draftea/nft-marketplace/marketplace-service/application"
	"github.com/draftea/nft-marketplace/marketplace-service/domain"
	"github.com/draftea/nft-marketplace/shared/events"
	"github.com/draftea/nft-marketplace/shared/logging"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type confirmFromChainUseCase interface {
	Execute(ctx context.Context, cmd *application.ConfirmFromChainCommand) (*domain.NFT, error)
}

// ChainEventHandlers consumes chain confirmation events
type ChainEventHandlers struct {
	confirmFromChain confirmFromChainUseCase
	logger           *zap.Logger
}

// NewChainEventHandlers creates new chain event handlers
func NewChainEventHandlers(confirmFromChain confirmFromChainUseCase, logger *zap.Logger) *ChainEventHandlers {
	return &ChainEventHandlers{
		confirmFromChain: confirmFromChain,
		logger:           logging.OrNop(logger),
	}
}

// Handle implements the events.EventHandler interface
func (h *ChainEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.EventType {
	case events.NFTChainConfirmedEvent:
		return h.HandleChainConfirmed(ctx, event)
	default:
		return nil
	}
}

// HandlerID returns the unique identifier for this event handler
func (h *ChainEventHandlers) HandlerID() string {
	return "marketplace-service-chain-handler"
}

// HandleChainConfirmed applies an nft.chain.confirmed event. Events that can never
// succeed are dropped; anything else is returned so the message is redelivered.
func (h *ChainEventHandlers) HandleChainConfirmed(ctx context.Context, event *events.Event) error {
	var cmd application.ConfirmFromChainCommand
	if err := event.UnmarshalPayload(&cmd); err != nil {
		h.logger.Warn("dropping undecodable chain confirmation",
			zap.String("event_id", event.ID.String()),
			zap.Error(err),
		)
		return nil
	}
	if cmd.NFTID == "" {
		cmd.NFTID = event.AggregateID.String()
	}
	if cmd.TransactionID == "" {
		cmd.TransactionID = event.CorrelationID.String()
	}

	_, err := h.confirmFromChain.Execute(ctx, &cmd)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, application.ErrInvalidCommand), errors.Is(err, domain.ErrNFTNotFound):
		h.logger.Warn("dropping chain confirmation",
			zap.String("event_id", event.ID.String()),
			zap.String("nft_id", cmd.NFTID),
			zap.Error(err),
		)
		return nil
	default:
		return errors.Wrapf(err, "failed to confirm nft %s", cmd.NFTID)
	}
}
