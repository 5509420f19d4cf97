package repository

import (
	"context"
	"errors"
	"time"

	"shareit/internal/domain"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// FailoverRateLimiter consults the primary limiter behind a circuit breaker
// and answers from the fallback while the breaker is open.
type FailoverRateLimiter struct {
	primary  domain.RateLimitRepository
	fallback domain.RateLimitRepository
	breaker  *gobreaker.CircuitBreaker
	logger   *zerolog.Logger
}

type FailoverOptions struct {
	// ConsecutiveFailures opens the breaker. Defaults to 3.
	ConsecutiveFailures uint32
	// RetryAfter is how long the breaker stays open before probing. Defaults to 1m.
	RetryAfter time.Duration
}

func NewFailoverRateLimiter(primary, fallback domain.RateLimitRepository, opts FailoverOptions, logger *zerolog.Logger) *FailoverRateLimiter {
	if opts.ConsecutiveFailures == 0 {
		opts.ConsecutiveFailures = 3
	}
	if opts.RetryAfter == 0 {
		opts.RetryAfter = time.Minute
	}

	r := &FailoverRateLimiter{primary: primary, fallback: fallback, logger: logger}
	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "rate-limit-primary",
		MaxRequests: 1,
		Timeout:     opts.RetryAfter,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("rate limit breaker state changed")
		},
	})
	return r
}

func (r *FailoverRateLimiter) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	res, err := r.breaker.Execute(func() (interface{}, error) {
		return r.primary.CheckRateLimit(ctx, userID, limit, window)
	})
	if err == nil {
		return res.(bool), nil
	}

	if !errors.Is(err, gobreaker.ErrOpenState) && !errors.Is(err, gobreaker.ErrTooManyRequests) {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("primary rate limiter failed, using fallback")
	}
	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}

// State reports the breaker state, for health output.
func (r *FailoverRateLimiter) State() string {
	return r.breaker.State().String()
}
