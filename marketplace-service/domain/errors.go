package domain

import (
	"github.com/pkg/errors"
)

var (
	// ErrPreconditionFailed marks ownership or state checks that rejected an operation
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrPersistenceFailure marks repository writes that did not complete
	ErrPersistenceFailure = errors.New("persistence failure")

	ErrNFTNotFound            = &kindError{kind: ErrPreconditionFailed, msg: "nft not found"}
	ErrConcurrentModification = &kindError{kind: ErrPersistenceFailure, msg: "nft was modified concurrently"}
)

// kindError is a sentinel that also matches its broader kind
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// precondition builds a precondition failure with a reason the caller can show
func precondition(reason string) error {
	return errors.Wrap(ErrPreconditionFailed, reason)
}
