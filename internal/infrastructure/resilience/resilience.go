// Package resilience wraps outbound calls with retry and per-operation
// circuit breaking.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Verdict classifies a failure: whether the call may be retried and whether
// the breaker should count it.
type Verdict struct {
	Retryable     bool
	RecordFailure bool
}

type Classifier func(err error) Verdict

type Policy struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

func DefaultPolicy() Policy {
	return Policy{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     400 * time.Millisecond,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

func (p Policy) normalize() Policy {
	def := DefaultPolicy()
	if p.RetryMaxAttempts <= 0 {
		p.RetryMaxAttempts = def.RetryMaxAttempts
	}
	if p.RetryInitialBackoff <= 0 {
		p.RetryInitialBackoff = def.RetryInitialBackoff
	}
	if p.RetryMaxBackoff < p.RetryInitialBackoff {
		p.RetryMaxBackoff = p.RetryInitialBackoff
	}
	if p.RetryMultiplier < 1.0 {
		p.RetryMultiplier = def.RetryMultiplier
	}
	if p.BreakerMinRequests == 0 {
		p.BreakerMinRequests = def.BreakerMinRequests
	}
	if p.BreakerFailureRatio <= 0 || p.BreakerFailureRatio > 1 {
		p.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if p.BreakerOpenTimeout <= 0 {
		p.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if p.BreakerHalfOpenMaxCalls == 0 {
		p.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}
	return p
}

// Runner executes callbacks under the policy. Breakers are keyed by
// operation name so an embedding outage does not trip generation.
type Runner struct {
	policy Policy

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewRunner(policy Policy) *Runner {
	return &Runner{
		policy:   policy.normalize(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

func (r *Runner) Do(ctx context.Context, operation string, classify Classifier, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("resilience: nil callback for %q", operation)
	}
	if classify == nil {
		classify = func(error) Verdict { return Verdict{RecordFailure: true} }
	}

	if !r.policy.BreakerEnabled {
		return r.retry(ctx, operation, classify, fn)
	}

	breaker := r.breaker(operation, classify)
	_, err := breaker.Execute(func() (any, error) {
		return nil, r.retry(ctx, operation, classify, fn)
	})
	return err
}

func (r *Runner) retry(ctx context.Context, operation string, classify Classifier, fn func(context.Context) error) error {
	backoff := r.policy.RetryInitialBackoff

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !classify(err).Retryable || attempt == r.policy.RetryMaxAttempts {
			return err
		}

		slog.Warn("retry_attempt",
			"operation", operation,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * r.policy.RetryMultiplier)
		if backoff > r.policy.RetryMaxBackoff {
			backoff = r.policy.RetryMaxBackoff
		}
	}
}

func (r *Runner) breaker(operation string, classify Classifier) *gobreaker.CircuitBreaker[any] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[operation]; ok {
		return b
	}

	b := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        operation,
		MaxRequests: r.policy.BreakerHalfOpenMaxCalls,
		Timeout:     r.policy.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < r.policy.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= r.policy.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classify(err).RecordFailure
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	})
	r.breakers[operation] = b
	return b
}

// IsCircuitOpen reports whether err came from an open or saturated breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
