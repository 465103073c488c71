package application

import (
	"context"
	"fmt"
	"time"

	"github.com/draftea/nft-marketplace/marketplace-service/domain"
	"github.com/draftea/nft-marketplace/shared/events"
	"github.com/draftea/nft-marketplace/shared/logging"
	"github.com/draftea/nft-marketplace/shared/models"
	"github.com/draftea/nft-marketplace/shared/outbox"
	"github.com/draftea/nft-marketplace/shared/saga"
	"github.com/draftea/nft-marketplace/shared/telemetry"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ErrInvalidCommand marks malformed requests, rejected before any read
var ErrInvalidCommand = errors.New("invalid command")

// Outcome tells the caller how far a failed workflow got
type Outcome string

const (
	// OutcomeNotAttempted means nothing was mutated locally
	OutcomeNotAttempted Outcome = "not_attempted"
	// OutcomeRolledBack means the local mutation happened and was undone
	OutcomeRolledBack Outcome = "rolled_back"
	// OutcomePartiallyRolledBack means at least one undo step failed
	OutcomePartiallyRolledBack Outcome = "partially_rolled_back"
)

// WorkflowError is the single terminal error of a marketplace workflow
type WorkflowError struct {
	Operation   string
	SagaID      string
	Outcome     Outcome
	Err         error
	RollbackErr error
}

func (e *WorkflowError) Error() string {
	msg := fmt.Sprintf("%s failed (%s): %v", e.Operation, e.Outcome, e.Err)
	if e.RollbackErr != nil {
		msg += fmt.Sprintf("; rollback: %v", e.RollbackErr)
	}
	return msg
}

// Unwrap exposes both the cause and the rollback failure to errors.Is and errors.As
func (e *WorkflowError) Unwrap() []error {
	if e.RollbackErr == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.RollbackErr}
}

// OutcomeOf returns the outcome carried by err, or "" when err is not a workflow error
func OutcomeOf(err error) Outcome {
	var werr *WorkflowError
	if errors.As(err, &werr) {
		return werr.Outcome
	}
	return ""
}

// SagaCoordinator is the saga registry the workflows drive
type SagaCoordinator interface {
	Begin(ctx context.Context, id string) error
	Register(ctx context.Context, id string, compensation saga.Compensation) error
	Commit(ctx context.Context, id string) error
	Rollback(ctx context.Context, id string) error
}

// IntentPublisher enqueues intent messages; accepted=false is backpressure
type IntentPublisher interface {
	Publish(ctx context.Context, destination string, message outbox.Message) (bool, error)
}

// Workflow runs publish-then-mutate operations under a saga
type Workflow struct {
	sagas          SagaCoordinator
	publisher      IntentPublisher
	nftRepository  domain.NFTRepository
	cache          domain.NFTCache
	eventPublisher events.Publisher
	queue          string
	logger         *zap.Logger

	newSagaID func() string
	now       func() time.Time
}

// NewWorkflow creates the shared workflow. cache may be nil.
func NewWorkflow(
	sagas SagaCoordinator,
	publisher IntentPublisher,
	nftRepository domain.NFTRepository,
	cache domain.NFTCache,
	eventPublisher events.Publisher,
	pendingActionsQueue string,
	logger *zap.Logger,
) *Workflow {
	return &Workflow{
		sagas:          sagas,
		publisher:      publisher,
		nftRepository:  nftRepository,
		cache:          cache,
		eventPublisher: eventPublisher,
		queue:          pendingActionsQueue,
		logger:         logging.OrNop(logger),
		newSagaID:      func() string { return models.GenerateUUID().String() },
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// intent describes one marketplace operation for run
type intent struct {
	operation   string
	messageType string
	payload     interface{}
	// created marks a record that does not exist yet; undo deletes it
	created bool
	apply   func(nft *domain.NFT)
	// afterPersist runs once the record compensation is registered
	afterPersist func(ctx context.Context, sagaID string) error
	eventType    string
	eventData    interface{}
}

// run publishes the intent, persists the mutation and commits, or rolls back.
// nft is mutated in place on success and left at its snapshot on failure.
// A panic rolls the saga back before it propagates.
func (w *Workflow) run(ctx context.Context, sagaID string, nft *domain.NFT, in intent) error {
	logger := w.logger.With(
		zap.String("operation", in.operation),
		zap.String("saga_id", sagaID),
		zap.String("nft_id", nft.ID.String()),
	)

	if err := w.sagas.Begin(ctx, sagaID); err != nil {
		return &WorkflowError{Operation: in.operation, SagaID: sagaID, Outcome: OutcomeNotAttempted, Err: err}
	}

	snapshot := nft.Clone()
	mutated, registered, committed := false, false, false
	defer func() {
		if committed {
			return
		}
		r := recover()
		if r == nil {
			return
		}
		*nft = *snapshot
		werr := &WorkflowError{Operation: in.operation, SagaID: sagaID, Outcome: OutcomeNotAttempted, Err: errors.Errorf("panic: %v", r)}
		if mutated {
			werr.Outcome = OutcomeRolledBack
			if !registered {
				w.undoWrite(ctx, logger, in.created, snapshot, werr)
			}
		}
		logger.Error("workflow panicked", zap.Any("panic", r))
		_ = w.abort(ctx, logger, werr)
		panic(r)
	}()

	message, err := outbox.NewMessage(in.messageType, in.payload, outbox.WithCorrelationID(sagaID))
	if err != nil {
		return w.abort(ctx, logger, &WorkflowError{Operation: in.operation, SagaID: sagaID, Outcome: OutcomeNotAttempted, Err: err})
	}

	accepted, err := w.publisher.Publish(ctx, w.queue, message)
	if err != nil {
		return w.abort(ctx, logger, &WorkflowError{Operation: in.operation, SagaID: sagaID, Outcome: OutcomeNotAttempted, Err: err})
	}
	if !accepted {
		return w.abort(ctx, logger, &WorkflowError{
			Operation: in.operation,
			SagaID:    sagaID,
			Outcome:   OutcomeNotAttempted,
			Err:       errors.Wrapf(outbox.ErrQueueRejected, "%s intent for nft %s", in.messageType, nft.ID),
		})
	}

	mutated = true
	if in.apply != nil {
		in.apply(nft)
	}

	if err := w.nftRepository.Save(ctx, nft); err != nil {
		*nft = *snapshot
		werr := &WorkflowError{Operation: in.operation, SagaID: sagaID, Outcome: OutcomeRolledBack, Err: persistenceFailure(err)}

		// a version conflict means nothing of ours was written
		if !errors.Is(err, domain.ErrConcurrentModification) {
			w.undoWrite(ctx, logger, in.created, snapshot, werr)
		}
		return w.abort(ctx, logger, werr)
	}

	if err := w.sagas.Register(ctx, sagaID, w.compensation(in.created, snapshot, nft)); err != nil {
		logger.Warn("failed to register nft compensation", zap.Error(err))
	}
	registered = true

	if in.afterPersist != nil {
		if err := in.afterPersist(ctx, sagaID); err != nil {
			*nft = *snapshot
			return w.abort(ctx, logger, &WorkflowError{Operation: in.operation, SagaID: sagaID, Outcome: OutcomeRolledBack, Err: err})
		}
	}

	if err := ctx.Err(); err != nil {
		*nft = *snapshot
		return w.abort(ctx, logger, &WorkflowError{
			Operation: in.operation,
			SagaID:    sagaID,
			Outcome:   OutcomeRolledBack,
			Err:       errors.Wrap(err, "canceled before commit"),
		})
	}

	if err := w.sagas.Commit(ctx, sagaID); err != nil {
		logger.Warn("saga was no longer active at commit", zap.Error(err))
	}
	committed = true

	w.invalidate(ctx, logger, nft.ID)
	w.emit(ctx, logger, events.NewEvent(nft.ID, in.eventType, in.eventData).WithCorrelationID(models.ID(sagaID)))

	logger.Info("workflow committed", zap.String("status", string(nft.Status)))
	return nil
}

// compensation undoes a persisted write: created records are deleted, updated
// ones are written back at a version past the one just saved
func (w *Workflow) compensation(created bool, snapshot, saved *domain.NFT) saga.Compensation {
	if created {
		id := saved.ID
		return saga.NewCompensation("delete-nft", func(ctx context.Context) error {
			return w.remove(ctx, id)
		})
	}

	restored := snapshot.Clone()
	restored.Version = saved.Version.Update()
	restored.Timestamps = restored.Timestamps.Update()
	return saga.NewCompensation("restore-nft", func(ctx context.Context) error {
		return w.restore(ctx, restored)
	})
}

// undoWrite reverts a write whose outcome is unknown and records a failed undo on werr
func (w *Workflow) undoWrite(ctx context.Context, logger *zap.Logger, created bool, snapshot *domain.NFT, werr *WorkflowError) {
	ctx = context.WithoutCancel(ctx)

	var undoErr error
	if created {
		undoErr = w.remove(ctx, snapshot.ID)
	} else {
		undoErr = w.restore(ctx, snapshot)
	}
	if undoErr != nil {
		logger.Error("failed to undo nft write", zap.Error(undoErr))
		werr.Outcome = OutcomePartiallyRolledBack
		werr.RollbackErr = undoErr
	}
}

// abort rolls the saga back and folds the rollback outcome into werr
func (w *Workflow) abort(ctx context.Context, logger *zap.Logger, werr *WorkflowError) error {
	rollbackErr := w.sagas.Rollback(context.WithoutCancel(ctx), werr.SagaID)

	switch {
	case rollbackErr == nil:
	case errors.Is(rollbackErr, saga.ErrPartialRollback):
		werr.Outcome = OutcomePartiallyRolledBack
		if werr.RollbackErr != nil {
			rollbackErr = multierror.Append(werr.RollbackErr, rollbackErr)
		}
		werr.RollbackErr = rollbackErr
	default:
		logger.Warn("saga rollback did not run", zap.Error(rollbackErr))
	}

	if werr.Outcome == OutcomePartiallyRolledBack {
		logger.Error("workflow rollback left local state inconsistent",
			zap.Error(werr.Err),
			zap.NamedError("rollback_error", werr.RollbackErr),
		)
		telemetry.RecordCounter(ctx, "marketplace_partial_rollbacks_total", "Workflows whose rollback failed", 1,
			attribute.String("operation", werr.Operation),
		)
		w.emit(ctx, logger, events.NewEvent(models.ID(werr.SagaID), events.SagaCompensationFailedEvent, map[string]string{
			"saga_id":   werr.SagaID,
			"operation": werr.Operation,
			"error":     werr.Err.Error(),
			"rollback":  werr.RollbackErr.Error(),
		}).WithCorrelationID(models.ID(werr.SagaID)))
		return werr
	}

	logger.Warn("workflow failed", zap.String("outcome", string(werr.Outcome)), zap.Error(werr.Err))
	return werr
}

// restore writes nft back and drops any cached copy
func (w *Workflow) restore(ctx context.Context, nft *domain.NFT) error {
	if err := w.nftRepository.ReplaceByID(ctx, nft.ID, nft); err != nil {
		return errors.Wrapf(err, "failed to restore nft %s", nft.ID)
	}
	if w.cache != nil {
		if err := w.cache.Invalidate(ctx, nft.ID); err != nil {
			return errors.Wrapf(err, "failed to invalidate cached nft %s", nft.ID)
		}
	}
	return nil
}

// remove deletes a record this workflow created and drops any cached copy
func (w *Workflow) remove(ctx context.Context, id models.ID) error {
	if err := w.nftRepository.DeleteByID(ctx, id); err != nil {
		return errors.Wrapf(err, "failed to delete nft %s", id)
	}
	if w.cache != nil {
		if err := w.cache.Invalidate(ctx, id); err != nil {
			return errors.Wrapf(err, "failed to invalidate cached nft %s", id)
		}
	}
	return nil
}

func (w *Workflow) invalidate(ctx context.Context, logger *zap.Logger, id models.ID) {
	if w.cache == nil {
		return
	}
	if err := w.cache.Invalidate(ctx, id); err != nil {
		logger.Warn("failed to invalidate cached nft", zap.Error(err))
	}
}

func (w *Workflow) emit(ctx context.Context, logger *zap.Logger, event *events.Event) {
	if w.eventPublisher == nil {
		return
	}
	if err := w.eventPublisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		logger.Warn("failed to publish domain event",
			zap.String("event_type", event.EventType),
			zap.Error(err),
		)
	}
}

func persistenceFailure(err error) error {
	if errors.Is(err, domain.ErrPersistenceFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, err)
}

// observe records the operation counter and duration the way every use case does
func observe(ctx context.Context, operation string, start time.Time, status string) {
	telemetry.RecordCounter(ctx, "marketplace_operations_total", "Total marketplace operations", 1,
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	telemetry.RecordHistogram(ctx, "marketplace_operation_duration_seconds", "Marketplace operation duration", time.Since(start).Seconds(),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
}
