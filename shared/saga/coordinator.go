package saga

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/draftea/nft-marketplace/shared/logging"
	"github.com/draftea/nft-marketplace/shared/telemetry"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type entry struct {
	compensations []Compensation
	startedAt     time.Time
}

// Coordinator keeps the live registry of sagas and their compensations.
// Registry operations are serialized; compensations run outside the lock.
type Coordinator struct {
	mu    sync.Mutex
	sagas map[string]*entry

	logger  *zap.Logger
	journal Journal
	now     func() time.Time
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithLogger sets the coordinator logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logging.OrNop(logger)
	}
}

// WithJournal records every transition into the given journal
func WithJournal(journal Journal) Option {
	return func(c *Coordinator) {
		c.journal = journal
	}
}

// NewCoordinator creates an empty saga coordinator
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		sagas:  make(map[string]*entry),
		logger: zap.NewNop(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Begin opens a saga under id
func (c *Coordinator) Begin(ctx context.Context, id string) error {
	c.mu.Lock()
	if _, exists := c.sagas[id]; exists {
		c.mu.Unlock()
		c.logger.Warn("saga already active", zap.String("saga_id", id))
		return errors.Wrapf(ErrDuplicateSaga, "saga %s", id)
	}
	c.sagas[id] = &entry{startedAt: c.now()}
	active := len(c.sagas)
	c.mu.Unlock()

	c.logger.Info("saga started", zap.String("saga_id", id))
	c.observe(ctx, "begin", active)
	c.record(ctx, JournalEntry{SagaID: id, Status: StatusActive})

	return nil
}

// Register appends a compensation to an active saga. It is inert for unknown ids.
func (c *Coordinator) Register(ctx context.Context, id string, compensation Compensation) error {
	c.mu.Lock()
	saga, exists := c.sagas[id]
	if !exists {
		c.mu.Unlock()
		c.logger.Warn("compensation registered for unknown saga",
			zap.String("saga_id", id),
			zap.String("compensation", compensation.Name),
		)
		return errors.Wrapf(ErrUnknownSaga, "saga %s", id)
	}
	saga.compensations = append(saga.compensations, compensation)
	count := len(saga.compensations)
	c.mu.Unlock()

	c.logger.Debug("compensation registered",
		zap.String("saga_id", id),
		zap.String("compensation", compensation.Name),
		zap.Int("compensations", count),
	)

	return nil
}

// Commit discards the saga without running its compensations
func (c *Coordinator) Commit(ctx context.Context, id string) error {
	saga, active, ok := c.take(id)
	if !ok {
		c.logger.Warn("commit for unknown saga", zap.String("saga_id", id))
		return errors.Wrapf(ErrUnknownSaga, "saga %s", id)
	}

	c.logger.Info("saga committed",
		zap.String("saga_id", id),
		zap.Int("discarded_compensations", len(saga.compensations)),
		zap.Duration("elapsed", c.now().Sub(saga.startedAt)),
	)
	c.observe(ctx, "commit", active)
	c.record(ctx, JournalEntry{SagaID: id, Status: StatusCommitted, Compensations: names(saga.compensations)})

	return nil
}

// Rollback runs the saga's compensations last-registered-first and removes the saga.
// Every compensation runs even when an earlier one fails; failures are reported as a
// *PartialRollbackError.
func (c *Coordinator) Rollback(ctx context.Context, id string) error {
	saga, active, ok := c.take(id)
	if !ok {
		c.logger.Warn("rollback for unknown saga", zap.String("saga_id", id))
		return errors.Wrapf(ErrUnknownSaga, "saga %s", id)
	}

	c.logger.Info("saga rolling back",
		zap.String("saga_id", id),
		zap.Int("compensations", len(saga.compensations)),
	)

	var result *multierror.Error
	for i := len(saga.compensations) - 1; i >= 0; i-- {
		compensation := saga.compensations[i]
		if err := c.run(ctx, compensation); err != nil {
			c.logger.Error("compensation failed",
				zap.String("saga_id", id),
				zap.String("compensation", compensation.Name),
				zap.Error(err),
			)
			result = multierror.Append(result, errors.Wrapf(err, "compensation %s", compensation.Name))
		}
	}

	if result.ErrorOrNil() != nil {
		failed := len(result.Errors)
		c.observe(ctx, "partial_rollback", active)
		telemetry.RecordCounter(ctx, "saga_partial_rollbacks_total", "Rollbacks with failed compensations", 1)
		c.record(ctx, JournalEntry{
			SagaID:        id,
			Status:        StatusPartiallyRolledBack,
			Compensations: names(saga.compensations),
			Failures:      errorStrings(result.Errors),
		})
		return &PartialRollbackError{SagaID: id, Total: len(saga.compensations), Failed: failed, Err: result}
	}

	c.logger.Info("saga rolled back", zap.String("saga_id", id))
	c.observe(ctx, "rollback", active)
	c.record(ctx, JournalEntry{SagaID: id, Status: StatusRolledBack, Compensations: names(saga.compensations)})

	return nil
}

// Active reports whether id is a live saga
func (c *Coordinator) Active(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, exists := c.sagas[id]
	return exists
}

// Status returns StatusActive for live sagas and StatusUnknown otherwise
func (c *Coordinator) Status(id string) Status {
	if c.Active(id) {
		return StatusActive
	}
	return StatusUnknown
}

// Len returns the number of live sagas
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sagas)
}

// take removes the saga from the registry and hands ownership to the caller
func (c *Coordinator) take(id string) (*entry, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	saga, exists := c.sagas[id]
	if !exists {
		return nil, len(c.sagas), false
	}
	delete(c.sagas, id)

	return saga, len(c.sagas), true
}

func (c *Coordinator) run(ctx context.Context, compensation Compensation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compensation panicked: %v", r)
		}
	}()

	if compensation.Fn == nil {
		return nil
	}

	return compensation.Fn(ctx)
}

func (c *Coordinator) observe(ctx context.Context, transition string, active int) {
	telemetry.RecordCounter(ctx, "saga_transitions_total", "Saga lifecycle transitions", 1,
		attribute.String("transition", transition),
	)
	telemetry.RecordGauge(ctx, "saga_active", "Live sagas", float64(active))
}

func (c *Coordinator) record(ctx context.Context, entry JournalEntry) {
	if c.journal == nil {
		return
	}

	entry.Timestamp = c.now().UTC()
	if err := c.journal.Record(ctx, entry); err != nil {
		c.logger.Warn("failed to record saga journal entry",
			zap.String("saga_id", entry.SagaID),
			zap.String("status", string(entry.Status)),
			zap.Error(err),
		)
	}
}

func names(compensations []Compensation) []string {
	out := make([]string, len(compensations))
	for i, compensation := range compensations {
		out[i] = compensation.Name
	}
	return out
}

func errorStrings(errs []error) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
