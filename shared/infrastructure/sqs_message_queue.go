package infrastructure

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/draftea/nft-marketplace/shared/outbox"
	"github.com/pkg/errors"
)

var _ outbox.MessageQueue = (*SQSMessageQueue)(nil)

// SQSMessageQueue sends outbound messages to SQS queues addressed by name
type SQSMessageQueue struct {
	client SQSAPI

	mu   sync.RWMutex
	urls map[string]string
}

// NewSQSMessageQueue creates a queue; urls maps destination names to known queue URLs
func NewSQSMessageQueue(client SQSAPI, urls map[string]string) *SQSMessageQueue {
	known := make(map[string]string, len(urls))
	for name, url := range urls {
		known[name] = url
	}
	return &SQSMessageQueue{client: client, urls: known}
}

// Publish sends the payload. SQS queues are always durable so persistent only
// travels as an attribute.
func (q *SQSMessageQueue) Publish(ctx context.Context, destination string, payload []byte, persistent bool) (bool, error) {
	url, err := q.queueURL(ctx, destination)
	if err != nil {
		return false, err
	}

	delivery := "transient"
	if persistent {
		delivery = "persistent"
	}

	out, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(url),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"delivery_mode": {
				DataType:    aws.String("String"),
				StringValue: aws.String(delivery),
			},
		},
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to send message to %s", destination)
	}

	return aws.ToString(out.MessageId) != "", nil
}

func (q *SQSMessageQueue) queueURL(ctx context.Context, destination string) (string, error) {
	q.mu.RLock()
	url, ok := q.urls[destination]
	q.mu.RUnlock()
	if ok {
		return url, nil
	}

	out, err := q.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(destination)})
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve queue %s", destination)
	}

	url = aws.ToString(out.QueueUrl)
	q.mu.Lock()
	q.urls[destination] = url
	q.mu.Unlock()

	return url, nil
}
