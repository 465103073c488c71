package saga

import (
	"context"
	"time"
)

// Status represents the lifecycle status of a saga
type Status string

const (
	StatusActive              Status = "active"
	StatusCommitted           Status = "committed"
	StatusRolledBack          Status = "rolled_back"
	StatusPartiallyRolledBack Status = "partially_rolled_back"
	StatusUnknown             Status = "unknown"
)

// Compensation is a named reversing action registered against a saga
type Compensation struct {
	Name string
	Fn   func(ctx context.Context) error
}

// NewCompensation creates a named compensation
func NewCompensation(name string, fn func(ctx context.Context) error) Compensation {
	return Compensation{Name: name, Fn: fn}
}

// JournalEntry describes one saga lifecycle transition
type JournalEntry struct {
	SagaID        string    `json:"saga_id"`
	Status        Status    `json:"status"`
	Compensations []string  `json:"compensations,omitempty"`
	Failures      []string  `json:"failures,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Journal persists saga transitions for auditing. It is never read back by the coordinator.
type Journal interface {
	Record(ctx context.Context, entry JournalEntry) error
}
