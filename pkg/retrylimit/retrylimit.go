// Package retrylimit bounds retries of flaky operations and throttles them
// through a process-wide adaptive rate limit.
//
//	lim := retrylimit.NewAdaptiveLimiter(2, 1, 4, 1, 0.5)
//	err := retrylimit.WithRetryConfig(ctx, func(ctx context.Context) error {
//	    return download(ctx)
//	}, lim, retrylimit.RetryConfig{MaxAttempts: 2})
package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// errorCooldown is how long after a failure the rate stays put.
const errorCooldown = 10 * time.Second

// AdaptiveLimiter is a rate limit that grows on success and shrinks on
// failure, clamped to [min, max].
type AdaptiveLimiter struct {
	mu        sync.Mutex
	limiter   *rate.Limiter
	minLimit  rate.Limit
	maxLimit  rate.Limit
	stepUp    rate.Limit
	stepDown  float64
	lastError time.Time
	now       func() time.Time
}

// NewAdaptiveLimiter returns a limiter starting at initial events per second.
// stepDown is the multiplier applied on failure (0.5 halves the rate).
func NewAdaptiveLimiter(initial, min, max, stepUp rate.Limit, stepDown float64) *AdaptiveLimiter {
	if min <= 0 {
		min = 1
	}
	if max < min {
		max = min
	}
	if initial < min {
		initial = min
	}
	if initial > max {
		initial = max
	}
	return &AdaptiveLimiter{
		limiter:  rate.NewLimiter(initial, max1(int(initial))),
		minLimit: min,
		maxLimit: max,
		stepUp:   stepUp,
		stepDown: stepDown,
		now:      time.Now,
	}
}

// Wait blocks until a token is available or ctx is done.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// Success raises the rate unless a failure happened recently.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.now().Sub(a.lastError) > errorCooldown {
		a.adjust(a.limiter.Limit() + a.stepUp)
	}
}

// Failed lowers the rate.
func (a *AdaptiveLimiter) Failed() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = a.now()
	a.adjust(rate.Limit(float64(a.limiter.Limit()) * a.stepDown))
}

// CurrentLimit returns the current events per second.
func (a *AdaptiveLimiter) CurrentLimit() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return float64(a.limiter.Limit())
}

func (a *AdaptiveLimiter) adjust(limit rate.Limit) {
	if limit > a.maxLimit {
		limit = a.maxLimit
	} else if limit < a.minLimit {
		limit = a.minLimit
	}
	if limit != a.limiter.Limit() {
		a.limiter.SetLimit(limit)
		a.limiter.SetBurst(max1(int(limit)))
	}
}

// FatalError stops WithRetryConfig immediately.
type FatalError struct {
	Err error
}

func (f *FatalError) Error() string { return f.Err.Error() }
func (f *FatalError) Unwrap() error { return f.Err }

// Fatal marks err as not worth retrying.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// RetryConfig configures WithRetryConfig. Zero fields take defaults.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
	Log          *zerolog.Logger
}

// DefaultRetryConfig returns three attempts with exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// ErrAttemptsExhausted wraps the last error once MaxAttempts is reached.
var ErrAttemptsExhausted = errors.New("max attempts exceeded")

// WithRetryConfig runs fn until it succeeds, returns a FatalError, ctx is
// done or MaxAttempts is reached. lim may be nil.
func WithRetryConfig(ctx context.Context, fn func(context.Context) error, lim *AdaptiveLimiter, cfg RetryConfig) error {
	def := DefaultRetryConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = def.Multiplier
	}
	log := zerolog.Nop()
	if cfg.Log != nil {
		log = *cfg.Log
	}

	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return err
			}
		}

		err := fn(ctx)
		if err == nil {
			if lim != nil {
				lim.Success()
			}
			if attempt > 1 {
				log.Debug().Int("attempt", attempt).Msg("succeeded after retry")
			}
			return nil
		}

		var fatal *FatalError
		if errors.As(err, &fatal) {
			return fatal.Err
		}
		if ctx.Err() != nil {
			return err
		}

		lastErr = err
		if lim != nil {
			lim.Failed()
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		wait := delay
		if cfg.Jitter {
			wait = addJitter(delay)
		}
		log.Warn().Err(err).Int("attempt", attempt).Dur("backoff", wait).Msg("attempt failed")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("%w (%d): %w", ErrAttemptsExhausted, cfg.MaxAttempts, lastErr)
}

// addJitter adds up to 25% of delay.
func addJitter(delay time.Duration) time.Duration {
	if delay < 4 {
		return delay
	}
	return delay + rand.N(delay/4)
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
