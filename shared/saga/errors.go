package saga

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

var (
	ErrDuplicateSaga   = errors.New("saga already exists")
	ErrUnknownSaga     = errors.New("saga not found")
	ErrPartialRollback = errors.New("partial rollback")
)

// PartialRollbackError reports the compensations that failed during a rollback
type PartialRollbackError struct {
	SagaID string
	Total  int
	Failed int
	Err    *multierror.Error
}

func (e *PartialRollbackError) Error() string {
	return fmt.Sprintf("saga %s: %d of %d compensations failed: %v", e.SagaID, e.Failed, e.Total, e.Err.ErrorOrNil())
}

// Is makes errors.Is(err, ErrPartialRollback) hold
func (e *PartialRollbackError) Is(target error) bool {
	return target == ErrPartialRollback
}

func (e *PartialRollbackError) Unwrap() error {
	return e.Err.ErrorOrNil()
}

// Failures returns the individual compensation errors
func (e *PartialRollbackError) Failures() []error {
	if e.Err == nil {
		return nil
	}
	return e.Err.Errors
}
