package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/draftea/nft-marketplace/shared/logging"
	"github.com/draftea/nft-marketplace/shared/outbox"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var _ outbox.MessageQueue = (*RabbitMQMessageQueue)(nil)

var (
	ErrChannelBroken  = errors.New("rabbitmq channel is unusable")
	ErrConfirmTimeout = errors.New("publisher confirmation timed out")
)

// AMQPChannel is the subset of *amqp.Channel used by the queue
type AMQPChannel interface {
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQMessageQueue publishes to named queues on the default exchange and
// waits for the broker confirmation of each message
type RabbitMQMessageQueue struct {
	channel        AMQPChannel
	confirms       chan amqp.Confirmation
	confirmTimeout time.Duration
	logger         *zap.Logger

	mu       sync.Mutex
	declared map[string]bool
	broken   bool
}

// DialRabbitMQ opens a connection and a confirm-mode queue on it. The returned
// close function releases both.
func DialRabbitMQ(url string, confirmTimeout time.Duration, logger *zap.Logger) (*RabbitMQMessageQueue, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, errors.Wrap(err, "failed to open rabbitmq channel")
	}

	queue, err := NewRabbitMQMessageQueue(ch, confirmTimeout, logger)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}

	closer := func() error {
		_ = ch.Close()
		return conn.Close()
	}

	return queue, closer, nil
}

// NewRabbitMQMessageQueue puts the channel in confirm mode
func NewRabbitMQMessageQueue(channel AMQPChannel, confirmTimeout time.Duration, logger *zap.Logger) (*RabbitMQMessageQueue, error) {
	if err := channel.Confirm(false); err != nil {
		return nil, errors.Wrap(err, "failed to enable publisher confirms")
	}

	if confirmTimeout <= 0 {
		confirmTimeout = 5 * time.Second
	}

	return &RabbitMQMessageQueue{
		channel:        channel,
		confirms:       channel.NotifyPublish(make(chan amqp.Confirmation, 1)),
		confirmTimeout: confirmTimeout,
		logger:         logging.OrNop(logger),
		declared:       make(map[string]bool),
	}, nil
}

// Publish sends payload to the destination queue. A broker nack is reported as
// not accepted; transport failures are errors.
func (q *RabbitMQMessageQueue) Publish(ctx context.Context, destination string, payload []byte, persistent bool) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.broken {
		return false, ErrChannelBroken
	}

	if !q.declared[destination] {
		if _, err := q.channel.QueueDeclare(destination, true, false, false, false, nil); err != nil {
			return false, errors.Wrapf(err, "failed to declare queue %s", destination)
		}
		q.declared[destination] = true
	}

	mode := amqp.Transient
	if persistent {
		mode = amqp.Persistent
	}

	err := q.channel.PublishWithContext(ctx, "", destination, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: mode,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to publish to %s", destination)
	}

	return q.waitForConfirm(ctx, destination)
}

func (q *RabbitMQMessageQueue) waitForConfirm(ctx context.Context, destination string) (bool, error) {
	timer := time.NewTimer(q.confirmTimeout)
	defer timer.Stop()

	select {
	case confirmed, ok := <-q.confirms:
		if !ok {
			q.broken = true
			return false, ErrChannelBroken
		}
		if !confirmed.Ack {
			q.logger.Warn("rabbitmq nacked message",
				zap.String("queue", destination),
				zap.Uint64("delivery_tag", confirmed.DeliveryTag),
			)
			return false, nil
		}
		return true, nil
	case <-timer.C:
		// the late confirm would be read by the next publish
		q.broken = true
		return false, ErrConfirmTimeout
	case <-ctx.Done():
		q.broken = true
		return false, errors.Wrap(ctx.Err(), "waiting for publisher confirmation")
	}
}

// Close closes the channel
func (q *RabbitMQMessageQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.broken = true
	return q.channel.Close()
}
