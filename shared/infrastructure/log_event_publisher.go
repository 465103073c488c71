package infrastructure

import (
	"context"

	"github.com/draftea/nft-marketplace/shared/events"
	"github.com/draftea/nft-marketplace/shared/logging"
	"go.uber.org/zap"
)

var _ events.Publisher = (*LogEventPublisher)(nil)

// LogEventPublisher writes domain events to the log; used when no SNS topic is configured
type LogEventPublisher struct {
	logger *zap.Logger
}

func NewLogEventPublisher(logger *zap.Logger) *LogEventPublisher {
	return &LogEventPublisher{logger: logging.OrNop(logger)}
}

func (p *LogEventPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	for _, event := range evts {
		p.logger.Info("domain event",
			zap.String("topic", event.Topic.String()),
			zap.String("event_id", event.ID.String()),
			zap.String("aggregate_id", event.AggregateID.String()),
			zap.Any("data", event.Data),
		)
	}
	return nil
}
