package worker

import (
	"fmt"
	"math"
	"time"

	"shareit/internal/config"
)

// RetryPolicy defines exponential backoff parameters.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// RetryPolicyFromConfig reads the notification backoff settings.
// Empty durations keep the worker defaults.
func RetryPolicyFromConfig(cfg config.NotificationsConfig) (RetryPolicy, error) {
	policy := RetryPolicy{MaxRetries: cfg.MaxRetries}

	if cfg.InitialDelay != "" {
		d, err := time.ParseDuration(cfg.InitialDelay)
		if err != nil {
			return RetryPolicy{}, fmt.Errorf("initial_delay: %w", err)
		}
		policy.InitialDelay = d
	}
	if cfg.MaxDelay != "" {
		d, err := time.ParseDuration(cfg.MaxDelay)
		if err != nil {
			return RetryPolicy{}, fmt.Errorf("max_delay: %w", err)
		}
		policy.MaxDelay = d
	}
	return policy, nil
}

// NextDelay returns delay for a given attempt (1-based) with clamping.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = time.Second
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}

	delay := float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1))
	d := time.Duration(delay)
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		d = time.Second
	}
	return d
}
