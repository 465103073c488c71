package infrastructure

import (
	"context"
	"sync"

	"github.com/draftea/nft-marketplace/shared/events"
	"github.com/draftea/nft-marketplace/shared/logging"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var _ EventHandler = (*EventRouter)(nil)

// EventHandlerFunc wraps a function as an events.EventHandler
type EventHandlerFunc func(ctx context.Context, event *events.Event) error

func (f EventHandlerFunc) Handle(ctx context.Context, event *events.Event) error {
	return f(ctx, event)
}

type route struct {
	pattern events.Topic
	handler events.EventHandler
}

// EventRouter fans an inbound event out to every handler whose topic pattern matches
type EventRouter struct {
	id     string
	logger *zap.Logger

	mu     sync.RWMutex
	routes []route
}

// NewEventRouter creates a new event router
func NewEventRouter(id string, logger *zap.Logger) *EventRouter {
	return &EventRouter{
		id:     id,
		logger: logging.OrNop(logger),
	}
}

// RegisterHandler registers a handler for a topic pattern
func (r *EventRouter) RegisterHandler(pattern events.Topic, handler events.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route{pattern: pattern, handler: handler})
}

// Subscribe implements events.Subscriber
func (r *EventRouter) Subscribe(ctx context.Context, eventType string, handler events.EventHandler) error {
	topic, err := events.NewTopic(eventType)
	if err != nil {
		return err
	}
	r.RegisterHandler(topic, handler)
	return nil
}

func (r *EventRouter) HandlerID() string {
	return r.id
}

// Handle runs every matching handler. Failures are aggregated so the message is
// redelivered when any handler failed.
func (r *EventRouter) Handle(ctx context.Context, event *events.Event) error {
	r.mu.RLock()
	var handlers []events.EventHandler
	for _, rt := range r.routes {
		if event.Topic.Matches(rt.pattern) {
			handlers = append(handlers, rt.handler)
		}
	}
	r.mu.RUnlock()

	if len(handlers) == 0 {
		r.logger.Debug("no handlers registered for event", zap.String("topic", event.Topic.String()))
		return nil
	}

	var result *multierror.Error
	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			r.logger.Error("handler failed",
				zap.String("topic", event.Topic.String()),
				zap.String("event_id", event.ID.String()),
				zap.Error(err),
			)
			result = multierror.Append(result, err)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return errors.Wrapf(err, "handling %s", event.Topic)
	}
	return nil
}
