// Package outbox enqueues intent messages for asynchronous processing.
package outbox

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/draftea/nft-marketplace/shared/logging"
	"github.com/draftea/nft-marketplace/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ErrQueueRejected is returned by callers that treat a non-accepted publish as a failure
var ErrQueueRejected = errors.New("message rejected by queue")

// MessageQueue is a durable enqueue of byte payloads to named destinations.
// accepted=false with a nil error signals backpressure.
type MessageQueue interface {
	Publish(ctx context.Context, destination string, payload []byte, persistent bool) (accepted bool, err error)
}

// Publisher encodes messages and enqueues them
type Publisher struct {
	queue   MessageQueue
	logger  *zap.Logger
	timeout time.Duration
}

// PublisherOption configures a Publisher
type PublisherOption func(*Publisher)

// WithLogger sets the publisher logger
func WithLogger(logger *zap.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logging.OrNop(logger)
	}
}

// WithTimeout bounds every enqueue
func WithTimeout(timeout time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.timeout = timeout
	}
}

// NewPublisher creates a Publisher over queue
func NewPublisher(queue MessageQueue, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		queue:   queue,
		logger:  zap.NewNop(),
		timeout: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Publish enqueues message to destination and reports whether the queue accepted it.
// Nothing about delivery or consumption is visible here.
func (p *Publisher) Publish(ctx context.Context, destination string, message Message) (bool, error) {
	if destination == "" {
		return false, errors.New("destination is required")
	}

	body, err := json.Marshal(message.envelope(destination))
	if err != nil {
		return false, errors.Wrap(err, "failed to marshal envelope")
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	accepted, err := p.queue.Publish(ctx, destination, body, message.Persistent())

	telemetry.RecordCounter(ctx, "outbox_publish_total", "Intent messages handed to the queue", 1,
		attribute.String("destination", destination),
		attribute.String("type", message.Type()),
		attribute.String("accepted", strconv.FormatBool(accepted && err == nil)),
	)

	if err != nil {
		p.logger.Error("failed to enqueue message",
			zap.String("destination", destination),
			zap.String("type", message.Type()),
			zap.String("message_id", message.ID().String()),
			zap.Error(err),
		)
		return false, errors.Wrapf(err, "failed to publish %s to %s", message.Type(), destination)
	}

	if !accepted {
		p.logger.Warn("queue did not accept message",
			zap.String("destination", destination),
			zap.String("type", message.Type()),
			zap.String("message_id", message.ID().String()),
		)
		return false, nil
	}

	p.logger.Debug("message enqueued",
		zap.String("destination", destination),
		zap.String("type", message.Type()),
		zap.String("message_id", message.ID().String()),
		zap.String("correlation_id", message.CorrelationID()),
	)

	return true, nil
}
