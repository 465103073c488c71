package circuitbreaker

import (
	"sync"
	"time"
)

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeFailure
	outcomeTimeout
	outcomeIgnored
)

// Counts is a snapshot of the rolling window
type Counts struct {
	Requests  uint32 `json:"requests"`
	Successes uint32 `json:"successes"`
	Failures  uint32 `json:"failures"`
	Timeouts  uint32 `json:"timeouts"`
}

// FailurePercentage returns failures and timeouts as a percentage of requests
func (c Counts) FailurePercentage() float64 {
	if c.Requests == 0 {
		return 0
	}
	return float64(c.Failures+c.Timeouts) * 100 / float64(c.Requests)
}

type bucket struct {
	start     time.Time
	successes uint32
	failures  uint32
	timeouts  uint32
}

// rollingWindow counts outcomes in fixed time slices; a slice is reused once it
// falls out of the window.
type rollingWindow struct {
	mu         sync.Mutex
	buckets    []bucket
	bucketSize time.Duration
	window     time.Duration
	now        func() time.Time
}

func newRollingWindow(window time.Duration, bucketCount int, now func() time.Time) *rollingWindow {
	return &rollingWindow{
		buckets:    make([]bucket, bucketCount),
		bucketSize: window / time.Duration(bucketCount),
		window:     window,
		now:        now,
	}
}

func (w *rollingWindow) record(o outcome) {
	if o == outcomeIgnored {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	b := w.current()
	switch o {
	case outcomeSuccess:
		b.successes++
	case outcomeFailure:
		b.failures++
	case outcomeTimeout:
		b.timeouts++
	}
}

func (w *rollingWindow) snapshot() Counts {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	var counts Counts
	for i := range w.buckets {
		b := &w.buckets[i]
		if b.start.IsZero() || now.Sub(b.start) >= w.window {
			continue
		}
		counts.Successes += b.successes
		counts.Failures += b.failures
		counts.Timeouts += b.timeouts
	}
	counts.Requests = counts.Successes + counts.Failures + counts.Timeouts

	return counts
}

func (w *rollingWindow) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.buckets {
		w.buckets[i] = bucket{}
	}
}

// current returns the bucket for now, clearing it if it holds a stale slice.
// Caller holds mu.
func (w *rollingWindow) current() *bucket {
	now := w.now()
	start := now.Truncate(w.bucketSize)
	idx := int((start.UnixNano() / int64(w.bucketSize)) % int64(len(w.buckets)))

	b := &w.buckets[idx]
	if !b.start.Equal(start) {
		*b = bucket{start: start}
	}
	return b
}
