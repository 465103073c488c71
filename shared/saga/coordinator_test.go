package saga

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingJournal struct {
	mu      sync.Mutex
	entries []JournalEntry
	err     error
}

func (j *recordingJournal) Record(ctx context.Context, entry JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
	return j.err
}

func (j *recordingJournal) statuses() []Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Status, len(j.entries))
	for i, e := range j.entries {
		out[i] = e.Status
	}
	return out
}

func TestCoordinator_Begin(t *testing.T) {
	ctx := context.Background()
	c := NewCoordinator()

	require.NoError(t, c.Begin(ctx, "s1"))
	assert.True(t, c.Active("s1"))
	assert.Equal(t, StatusActive, c.Status("s1"))
	assert.Equal(t, 1, c.Len())

	err := c.Begin(ctx, "s1")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateSaga))
	assert.Equal(t, 1, c.Len())
}

func TestCoordinator_RollbackRunsCompensationsInReverseOrder(t *testing.T) {
	ctx := context.Background()
	c := NewCoordinator()
	require.NoError(t, c.Begin(ctx, "s1"))

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		require.NoError(t, c.Register(ctx, "s1", NewCompensation(name, func(ctx context.Context) error {
			order = append(order, name)
			return nil
		})))
	}

	require.NoError(t, c.Rollback(ctx, "s1"))
	assert.Equal(t, []string{"third", "second", "first"}, order)
	assert.False(t, c.Active("s1"))
	assert.Equal(t, StatusUnknown, c.Status("s1"))
}

func TestCoordinator_RollbackIsBestEffort(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.ErrorLevel)
	c := NewCoordinator(WithLogger(zap.New(core)))
	require.NoError(t, c.Begin(ctx, "s1"))

	calls := map[string]int{}
	register := func(name string, err error) {
		require.NoError(t, c.Register(ctx, "s1", NewCompensation(name, func(ctx context.Context) error {
			calls[name]++
			return err
		})))
	}
	register("restore-record", nil)
	register("delete-account", errors.New("account store down"))
	require.NoError(t, c.Register(ctx, "s1", NewCompensation("explode", func(ctx context.Context) error {
		calls["explode"]++
		panic("boom")
	})))

	err := c.Rollback(ctx, "s1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPartialRollback))

	var partial *PartialRollbackError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, 3, partial.Total)
	assert.Equal(t, 2, partial.Failed)
	assert.Len(t, partial.Failures(), 2)

	assert.Equal(t, map[string]int{"restore-record": 1, "delete-account": 1, "explode": 1}, calls)
	assert.False(t, c.Active("s1"))
	assert.Equal(t, 2, logs.FilterMessage("compensation failed").Len())
}

func TestCoordinator_CommitDiscardsCompensations(t *testing.T) {
	ctx := context.Background()
	c := NewCoordinator()
	require.NoError(t, c.Begin(ctx, "s1"))

	invoked := 0
	require.NoError(t, c.Register(ctx, "s1", NewCompensation("undo", func(ctx context.Context) error {
		invoked++
		return nil
	})))

	require.NoError(t, c.Commit(ctx, "s1"))

	err := c.Rollback(ctx, "s1")
	assert.True(t, errors.Is(err, ErrUnknownSaga))
	assert.Zero(t, invoked)

	err = c.Commit(ctx, "s1")
	assert.True(t, errors.Is(err, ErrUnknownSaga))
}

func TestCoordinator_RegisterIsInertForUnknownSagas(t *testing.T) {
	ctx := context.Background()
	c := NewCoordinator()

	invoked := 0
	undo := NewCompensation("undo", func(ctx context.Context) error {
		invoked++
		return nil
	})

	tests := []struct {
		name  string
		setup func()
	}{
		{name: "never begun", setup: func() {}},
		{name: "committed", setup: func() {
			require.NoError(t, c.Begin(ctx, "s1"))
			require.NoError(t, c.Commit(ctx, "s1"))
		}},
		{name: "rolled back", setup: func() {
			require.NoError(t, c.Begin(ctx, "s1"))
			require.NoError(t, c.Rollback(ctx, "s1"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()

			err := c.Register(ctx, "s1", undo)
			assert.True(t, errors.Is(err, ErrUnknownSaga))

			// a later saga under the same id must not inherit the compensation
			require.NoError(t, c.Begin(ctx, "s1"))
			require.NoError(t, c.Rollback(ctx, "s1"))
			assert.Zero(t, invoked)
		})
	}
}

func TestCoordinator_ConcurrentSagas(t *testing.T) {
	ctx := context.Background()
	c := NewCoordinator()

	const sagas = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	rolledBack := map[string][]int{}

	for i := 0; i < sagas; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("saga-%d", i)
			assert.NoError(t, c.Begin(ctx, id))
			for step := 0; step < 3; step++ {
				step := step
				assert.NoError(t, c.Register(ctx, id, NewCompensation("step", func(ctx context.Context) error {
					mu.Lock()
					rolledBack[id] = append(rolledBack[id], step)
					mu.Unlock()
					return nil
				})))
			}
			if i%2 == 0 {
				assert.NoError(t, c.Commit(ctx, id))
				return
			}
			assert.NoError(t, c.Rollback(ctx, id))
		}(i)
	}
	wg.Wait()

	assert.Zero(t, c.Len())
	assert.Len(t, rolledBack, sagas/2)
	for id, steps := range rolledBack {
		assert.Equal(t, []int{2, 1, 0}, steps, id)
	}
}

func TestCoordinator_Journal(t *testing.T) {
	ctx := context.Background()
	journal := &recordingJournal{}
	c := NewCoordinator(WithJournal(journal))

	require.NoError(t, c.Begin(ctx, "s1"))
	require.NoError(t, c.Commit(ctx, "s1"))

	require.NoError(t, c.Begin(ctx, "s2"))
	require.NoError(t, c.Register(ctx, "s2", NewCompensation("fails", func(ctx context.Context) error {
		return errors.New("nope")
	})))
	assert.Error(t, c.Rollback(ctx, "s2"))

	assert.Equal(t, []Status{StatusActive, StatusCommitted, StatusActive, StatusPartiallyRolledBack}, journal.statuses())
	last := journal.entries[len(journal.entries)-1]
	assert.Equal(t, []string{"fails"}, last.Compensations)
	assert.Len(t, last.Failures, 1)
}

func TestCoordinator_JournalFailureDoesNotFailTheSaga(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	c := NewCoordinator(
		WithLogger(zap.New(core)),
		WithJournal(&recordingJournal{err: errors.New("db down")}),
	)

	require.NoError(t, c.Begin(ctx, "s1"))
	require.NoError(t, c.Commit(ctx, "s1"))
	assert.Equal(t, 2, logs.FilterMessage("failed to record saga journal entry").Len())
}
