package circuitbreaker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

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

var errUpstream = errors.New("rpc unavailable")

func testConfig() Config {
	return Config{
		Timeout:                  time.Second,
		ErrorThresholdPercentage: 50,
		RollingWindow:            10 * time.Second,
		BucketCount:              10,
		ResetTimeout:             50 * time.Millisecond,
		MinimumRequests:          5,
	}
}

func succeed(ctx context.Context) (any, error) { return "ok", nil }

func fail(ctx context.Context) (any, error) { return nil, errUpstream }

type transitions struct {
	mu  sync.Mutex
	log []string
}

func (tr *transitions) OnStateChange(name string, from State, to State) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.log = append(tr.log, string(from)+"->"+string(to))
}

func (tr *transitions) all() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.log...)
}

func tripOpen(t *testing.T, b *Breaker) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := b.Call(ctx, succeed)
		require.NoError(t, err)
	}
	for i := 0; i < 5; i++ {
		_, err := b.Call(ctx, fail)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUpstreamFailure))
	}
	require.Equal(t, StateOpen, b.State())
}

func TestNew_ConfigValidation(t *testing.T) {
	tests := []struct {
		name          string
		config        Config
		expectedError string
	}{
		{name: "zero config takes defaults", config: Config{}},
		{name: "threshold above 100", config: Config{ErrorThresholdPercentage: 150}, expectedError: "error threshold percentage"},
		{name: "negative buckets", config: Config{BucketCount: -1}, expectedError: "bucket count"},
		{name: "negative reset timeout", config: Config{ResetTimeout: -time.Second}, expectedError: "reset timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New("test", tt.config)
			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, b)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StateClosed, b.State())
			assert.Equal(t, "test", b.Name())
		})
	}
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	tr := &transitions{}
	b, err := New("chain-rpc", testConfig(), WithListener(tr))
	require.NoError(t, err)

	tripOpen(t, b)

	counts := b.Counts()
	assert.Equal(t, uint32(10), counts.Requests)
	assert.Equal(t, uint32(5), counts.Failures)
	assert.Equal(t, []string{"closed->open"}, tr.all())
}

func TestBreaker_StaysClosedBelowMinimumRequests(t *testing.T) {
	b, err := New("chain-rpc", testConfig())
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, _ = b.Call(context.Background(), fail)
	}

	assert.Equal(t, StateClosed, b.State())
	assert.InDelta(t, 100.0, b.Counts().FailurePercentage(), 0.001)
}

func TestBreaker_OpenRejectsWithoutInvoking(t *testing.T) {
	b, err := New("chain-rpc", testConfig())
	require.NoError(t, err)
	tripOpen(t, b)

	var invoked atomic.Int32
	_, err = b.Call(context.Background(), func(ctx context.Context) (any, error) {
		invoked.Add(1)
		return nil, nil
	})

	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.False(t, errors.Is(err, ErrUpstreamFailure))
	assert.Zero(t, invoked.Load())
}

func TestBreaker_HalfOpenAllowsExactlyOneTrialCall(t *testing.T) {
	tr := &transitions{}
	b, err := New("chain-rpc", testConfig(), WithListener(tr))
	require.NoError(t, err)
	tripOpen(t, b)

	time.Sleep(80 * time.Millisecond)

	const callers = 20
	var (
		invoked  atomic.Int32
		rejected atomic.Int32
		release  = make(chan struct{})
		start    = make(chan struct{})
		wg       sync.WaitGroup
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := b.Call(context.Background(), func(ctx context.Context) (any, error) {
				invoked.Add(1)
				<-release
				return "trial", nil
			})
			if errors.Is(err, ErrCircuitOpen) {
				rejected.Add(1)
			}
		}()
	}

	close(start)
	require.Eventually(t, func() bool {
		return rejected.Load() == callers-1
	}, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), invoked.Load())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, Counts{}, b.Counts())
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, tr.all())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	tr := &transitions{}
	b, err := New("chain-rpc", testConfig(), WithListener(tr))
	require.NoError(t, err)
	tripOpen(t, b)

	time.Sleep(80 * time.Millisecond)

	_, err = b.Call(context.Background(), fail)
	assert.True(t, errors.Is(err, errUpstream))
	assert.Equal(t, StateOpen, b.State())

	// fresh openedAt: still rejected right after the failed trial call
	_, err = b.Call(context.Background(), succeed)
	assert.True(t, errors.Is(err, ErrCircuitOpen))

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->open"}, tr.all())
}

func TestBreaker_CanceledTrialCallKeepsCircuitOpen(t *testing.T) {
	tr := &transitions{}
	b, err := New("chain-rpc", testConfig(), WithListener(tr))
	require.NoError(t, err)
	tripOpen(t, b)

	time.Sleep(80 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err = b.Call(ctx, func(ctx context.Context) (any, error) {
		cancel()
		return nil, ctx.Err()
	})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrCircuitOpen))
	assert.Equal(t, StateOpen, b.State())

	_, err = b.Call(context.Background(), succeed)
	assert.True(t, errors.Is(err, ErrCircuitOpen))

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->open"}, tr.all())
}

func TestBreaker_IgnoredTrialErrorKeepsCircuitOpen(t *testing.T) {
	notFound := errors.New("account not found")
	config := testConfig()
	config.IsFailure = func(err error) bool {
		return !errors.Is(err, notFound)
	}
	b, err := New("chain-rpc", config)
	require.NoError(t, err)
	tripOpen(t, b)

	time.Sleep(80 * time.Millisecond)

	_, err = b.Call(context.Background(), func(ctx context.Context) (any, error) {
		return nil, notFound
	})
	assert.True(t, errors.Is(err, notFound))
	assert.Equal(t, StateOpen, b.State())

	time.Sleep(80 * time.Millisecond)

	_, err = b.Call(context.Background(), succeed)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_ErrorsPassThrough(t *testing.T) {
	b, err := New("chain-rpc", testConfig())
	require.NoError(t, err)

	result, err := b.Call(context.Background(), fail)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, errUpstream))
	assert.True(t, errors.Is(err, ErrUpstreamFailure))
	assert.False(t, errors.Is(err, ErrCircuitOpen))

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "chain-rpc", upstream.Name)

	result, err = b.Call(context.Background(), succeed)
	assert.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestBreaker_TimeoutCountsAsFailure(t *testing.T) {
	config := testConfig()
	config.Timeout = 20 * time.Millisecond
	b, err := New("chain-rpc", config)
	require.NoError(t, err)

	_, err = b.Call(context.Background(), func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	assert.True(t, errors.Is(err, ErrTimeout))
	assert.True(t, errors.Is(err, ErrUpstreamFailure))
	assert.Equal(t, Counts{Requests: 1, Timeouts: 1}, b.Counts())
}

func TestBreaker_PanicIsAFailure(t *testing.T) {
	b, err := New("chain-rpc", testConfig())
	require.NoError(t, err)

	_, err = b.Call(context.Background(), func(ctx context.Context) (any, error) {
		panic("bad decoder")
	})

	assert.True(t, errors.Is(err, ErrUpstreamFailure))
	assert.Contains(t, err.Error(), "bad decoder")
	assert.Equal(t, uint32(1), b.Counts().Failures)
}

func TestBreaker_IsFailureFilter(t *testing.T) {
	notFound := errors.New("account not found")
	config := testConfig()
	config.IsFailure = func(err error) bool {
		return !errors.Is(err, notFound)
	}
	b, err := New("chain-rpc", config)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := b.Call(context.Background(), func(ctx context.Context) (any, error) {
			return nil, notFound
		})
		assert.True(t, errors.Is(err, notFound))
	}

	assert.Equal(t, StateClosed, b.State())
	assert.Zero(t, b.Counts().Requests)
}

func TestExecute(t *testing.T) {
	b, err := New("chain-rpc", testConfig())
	require.NoError(t, err)

	value, err := Execute(context.Background(), b, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, value)

	value, err = Execute(context.Background(), b, func(ctx context.Context) (int, error) {
		return 0, errUpstream
	})
	assert.Error(t, err)
	assert.Zero(t, value)
}

func TestTypedResult(t *testing.T) {
	tests := []struct {
		name          string
		result        any
		expected      int
		expectedError error
	}{
		{name: "matching type", result: 7, expected: 7},
		{name: "nil result", result: nil, expected: 0},
		{name: "wrong type", result: "seven", expected: 0, expectedError: ErrUnexpectedResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := typedResult[int]("chain-rpc", tt.result)

			if tt.expectedError != nil {
				assert.True(t, errors.Is(err, tt.expectedError))
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestBreaker_LogsTransitions(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	b, err := New("chain-rpc", testConfig(), WithLogger(zap.New(core)))
	require.NoError(t, err)

	b.RegisterStateChangeListener(nil)
	b.RegisterStateChangeListener(StateChangeListenerFunc(func(name string, from, to State) {
		panic("listener bug")
	}))

	tripOpen(t, b)

	assert.Equal(t, 1, logs.FilterMessage("circuit breaker opened").Len())
	assert.Equal(t, 1, logs.FilterMessage("state change listener panicked").Len())
	assert.Equal(t, 1, logs.FilterMessage("attempted to register a nil state change listener").Len())
}
