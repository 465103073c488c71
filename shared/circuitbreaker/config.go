package circuitbreaker

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Config holds the circuit breaker configuration
type Config struct {
	// Timeout bounds a single protected call. A call exceeding it counts as a failure.
	Timeout time.Duration
	// ErrorThresholdPercentage is the failure percentage (0-100] over the rolling window that opens the circuit.
	ErrorThresholdPercentage float64
	// RollingWindow is the duration over which outcomes are counted.
	RollingWindow time.Duration
	// BucketCount is the number of slices the rolling window is divided into.
	BucketCount int
	// ResetTimeout is how long the circuit stays open before a trial call is allowed.
	ResetTimeout time.Duration
	// MinimumRequests is the sample size the window must hold before the ratio is considered.
	MinimumRequests uint32
	// IsFailure decides whether an error returned by the protected call counts as a failure.
	IsFailure func(err error) bool
}

// Predefined configurations
var (
	// DefaultConfig mirrors the general-purpose breaker
	DefaultConfig = Config{
		Timeout:                  5 * time.Second,
		ErrorThresholdPercentage: 50,
		RollingWindow:            10 * time.Second,
		BucketCount:              10,
		ResetTimeout:             60 * time.Second,
		MinimumRequests:          5,
	}

	// ChainRPCConfig is tuned for the chain RPC endpoint, which is slower and noisier
	ChainRPCConfig = Config{
		Timeout:                  10 * time.Second,
		ErrorThresholdPercentage: 60,
		RollingWindow:            10 * time.Second,
		BucketCount:              10,
		ResetTimeout:             90 * time.Second,
		MinimumRequests:          5,
	}
)

// withDefaults fills zero fields from DefaultConfig
func (c Config) withDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = DefaultConfig.Timeout
	}
	if c.ErrorThresholdPercentage == 0 {
		c.ErrorThresholdPercentage = DefaultConfig.ErrorThresholdPercentage
	}
	if c.RollingWindow == 0 {
		c.RollingWindow = DefaultConfig.RollingWindow
	}
	if c.BucketCount == 0 {
		c.BucketCount = DefaultConfig.BucketCount
	}
	if c.ResetTimeout == 0 {
		c.ResetTimeout = DefaultConfig.ResetTimeout
	}
	if c.MinimumRequests == 0 {
		c.MinimumRequests = DefaultConfig.MinimumRequests
	}
	if c.IsFailure == nil {
		c.IsFailure = defaultIsFailure
	}
	return c
}

// Validate checks the configuration after defaults are applied
func (c Config) Validate() error {
	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	if c.ErrorThresholdPercentage <= 0 || c.ErrorThresholdPercentage > 100 {
		return errors.New("error threshold percentage must be in (0, 100]")
	}
	if c.BucketCount <= 0 {
		return errors.New("bucket count must be positive")
	}
	if c.RollingWindow < time.Duration(c.BucketCount) {
		return errors.New("rolling window must be at least one nanosecond per bucket")
	}
	if c.ResetTimeout <= 0 {
		return errors.New("reset timeout must be positive")
	}
	return nil
}

// defaultIsFailure counts every error except the caller giving up
func defaultIsFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}
