// Package circuitbreaker guards calls to unreliable dependencies. It builds on
// sony/gobreaker for the state machine and decides when to trip from a bucketed
// rolling window of call outcomes.
package circuitbreaker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/draftea/nft-marketplace/shared/logging"
	"github.com/draftea/nft-marketplace/shared/telemetry"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// State represents the circuit breaker state
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
	StateUnknown  State = "unknown"
)

// StateChangeListener is notified on every transition. It runs while the breaker
// holds its internal lock and must not call back into the breaker.
type StateChangeListener interface {
	OnStateChange(name string, from State, to State)
}

// StateChangeListenerFunc adapts a function to StateChangeListener
type StateChangeListenerFunc func(name string, from State, to State)

func (f StateChangeListenerFunc) OnStateChange(name string, from State, to State) {
	f(name, from, to)
}

// Breaker protects one named external call type
type Breaker struct {
	name    string
	config  Config
	breaker *gobreaker.CircuitBreaker
	window  *rollingWindow
	logger  *zap.Logger

	mu        sync.RWMutex
	listeners []StateChangeListener
}

// Option configures a Breaker
type Option func(*Breaker)

// WithLogger sets the breaker logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Breaker) {
		b.logger = logging.OrNop(logger)
	}
}

// WithListener registers a state change listener at construction
func WithListener(listener StateChangeListener) Option {
	return func(b *Breaker) {
		b.listeners = append(b.listeners, listener)
	}
}

// New creates a circuit breaker; zero config fields take DefaultConfig values
func New(name string, config Config, opts ...Option) (*Breaker, error) {
	config = config.withDefaults()
	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid circuit breaker config for %s", name)
	}

	b := &Breaker{
		name:   name,
		config: config,
		window: newRollingWindow(config.RollingWindow, config.BucketCount, time.Now),
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     config.ResetTimeout,
		ReadyToTrip: func(_ gobreaker.Counts) bool {
			counts := b.window.snapshot()
			return counts.Requests >= config.MinimumRequests &&
				counts.FailurePercentage() >= config.ErrorThresholdPercentage
		},
		IsSuccessful: func(err error) bool {
			var abandoned *abandonedTrial
			if errors.As(err, &abandoned) {
				return false
			}
			return !config.IsFailure(err)
		},
		OnStateChange: func(_ string, from gobreaker.State, to gobreaker.State) {
			b.handleStateChange(fromGobreaker(from), fromGobreaker(to))
		},
	})

	return b, nil
}

// Name returns the protected call name
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state
func (b *Breaker) State() State {
	return fromGobreaker(b.breaker.State())
}

// Counts returns the rolling window snapshot
func (b *Breaker) Counts() Counts {
	return b.window.snapshot()
}

// RegisterStateChangeListener adds a listener for state transitions
func (b *Breaker) RegisterStateChangeListener(listener StateChangeListener) {
	if listener == nil {
		b.logger.Warn("attempted to register a nil state change listener", zap.String("breaker", b.name))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, listener)
}

// Call runs fn through the breaker. Rejections match ErrCircuitOpen and never invoke fn;
// errors from fn are recorded and returned as *UpstreamError.
func (b *Breaker) Call(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		probing := b.breaker.State() == gobreaker.StateHalfOpen
		res, err := b.invoke(ctx, fn)
		outcome := b.classify(err)
		b.window.record(outcome)
		// only a successful trial call may close the circuit
		if probing && outcome == outcomeIgnored {
			return nil, &abandonedTrial{err: err}
		}
		return res, err
	})

	var abandoned *abandonedTrial
	if errors.As(err, &abandoned) {
		b.logger.Info("half-open trial call ended without a verdict, circuit stays open",
			zap.String("breaker", b.name),
			zap.Error(abandoned.err),
		)
		return nil, abandoned.err
	}

	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		b.logger.Debug("circuit breaker rejected call",
			zap.String("breaker", b.name),
			zap.String("state", string(b.State())),
		)
		telemetry.RecordCounter(ctx, "circuit_breaker_rejections_total", "Calls rejected by an open circuit", 1,
			attribute.String("name", b.name),
		)
		return nil, errors.Wrapf(ErrCircuitOpen, "%s", b.name)
	}

	return result, err
}

// Execute is a typed wrapper around Breaker.Call
func Execute[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	result, err := b.Call(ctx, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}

	return typedResult[T](b.name, result)
}

// typedResult converts a Call result back to T; a nil interface maps to the zero value
func typedResult[T any](name string, result any) (T, error) {
	var zero T
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		return zero, errors.Wrapf(ErrUnexpectedResult, "%s returned %T", name, result)
	}
	return typed, nil
}

// abandonedTrial carries a half-open trial call error that is neither a success nor a
// failure, such as the caller canceling. gobreaker treats it as a failure.
type abandonedTrial struct {
	err error
}

func (p *abandonedTrial) Error() string {
	return p.err.Error()
}

func (p *abandonedTrial) Unwrap() error {
	return p.err
}

type callResult struct {
	value any
	err   error
}

// invoke runs fn bounded by the configured timeout
func (b *Breaker) invoke(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	callCtx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{err: fmt.Errorf("protected call panicked: %v", r)}
			}
		}()
		value, err := fn(callCtx)
		done <- callResult{value: value, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil {
			return r.value, nil
		}
		if b.timedOut(ctx, callCtx) {
			return nil, b.timeoutError()
		}
		return nil, &UpstreamError{Name: b.name, Err: r.err}
	case <-callCtx.Done():
		if b.timedOut(ctx, callCtx) {
			return nil, b.timeoutError()
		}
		return nil, &UpstreamError{Name: b.name, Err: ctx.Err()}
	}
}

// timedOut reports whether callCtx expired on its own deadline rather than the caller's
func (b *Breaker) timedOut(ctx, callCtx context.Context) bool {
	return ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded)
}

func (b *Breaker) timeoutError() error {
	return &UpstreamError{
		Name:    b.name,
		Err:     errors.Wrapf(ErrTimeout, "exceeded %s", b.config.Timeout),
		Timeout: true,
	}
}

func (b *Breaker) classify(err error) outcome {
	var upstream *UpstreamError
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.As(err, &upstream) && upstream.Timeout:
		return outcomeTimeout
	case b.config.IsFailure(err):
		return outcomeFailure
	default:
		return outcomeIgnored
	}
}

func (b *Breaker) handleStateChange(from State, to State) {
	if to == StateClosed {
		b.window.reset()
	}

	fields := []zap.Field{
		zap.String("breaker", b.name),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	}
	if to == StateOpen {
		counts := b.window.snapshot()
		fields = append(fields,
			zap.Uint32("requests", counts.Requests),
			zap.Float64("failure_percentage", counts.FailurePercentage()),
		)
		b.logger.Warn("circuit breaker opened", fields...)
	} else {
		b.logger.Info("circuit breaker state changed", fields...)
	}

	telemetry.RecordCounter(context.Background(), "circuit_breaker_transitions_total", "Circuit breaker state transitions", 1,
		attribute.String("name", b.name),
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
	)

	b.mu.RLock()
	listeners := make([]StateChangeListener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, listener := range listeners {
		b.notify(listener, from, to)
	}
}

func (b *Breaker) notify(listener StateChangeListener, from State, to State) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("state change listener panicked",
				zap.String("breaker", b.name),
				zap.Any("panic", r),
			)
		}
	}()
	listener.OnStateChange(b.name, from, to)
}

func fromGobreaker(state gobreaker.State) State {
	switch state {
	case gobreaker.StateClosed:
		return StateClosed
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateUnknown
	}
}
