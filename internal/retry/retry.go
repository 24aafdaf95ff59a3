// Package retry provides the backoff policy used for rate-limited calls.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrExhausted is wrapped by the error returned when the attempt ceiling is hit.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy retries an operation while its error is retryable, doubling the delay
// between attempts from BaseDelay up to MaxDelay.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the wait before the second attempt.
	BaseDelay time.Duration

	// MaxDelay bounds a single wait. Zero means no bound. It must be at least
	// the last doubled delay so that waits keep increasing.
	MaxDelay time.Duration

	// Retryable decides whether an error should be retried. Nil retries nothing.
	Retryable func(error) bool

	// Notify is called before each wait with the error and the delay.
	Notify func(err error, attempt int, delay time.Duration)

	// NewTimer overrides the wait timer; nil uses a real timer.
	NewTimer func() backoff.Timer
}

// DefaultPolicy returns the policy used for order submission: 7 attempts,
// starting at one second.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 7,
		BaseDelay:   1 * time.Second,
		MaxDelay:    2 * time.Minute,
	}
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.BaseDelay <= 0 {
		return fmt.Errorf("base delay must be positive, got %s", p.BaseDelay)
	}
	if p.MaxDelay != 0 {
		if p.MaxDelay < p.BaseDelay {
			return fmt.Errorf("max delay %s is below base delay %s", p.MaxDelay, p.BaseDelay)
		}
		// Every wait must be longer than the one before it.
		longest := p.BaseDelay
		for i := 2; i < p.MaxAttempts; i++ {
			if longest > p.MaxDelay/2 {
				return fmt.Errorf("max delay %s caps the delays of %d attempts starting at %s; need at least %s",
					p.MaxDelay, p.MaxAttempts, p.BaseDelay, p.BaseDelay<<(p.MaxAttempts-2))
			}
			longest *= 2
		}
	}
	return nil
}

// Do runs op until it succeeds, returns a non-retryable error, or the attempt
// ceiling is reached. op receives the 1-based attempt number. The returned
// int is the number of attempts made.
func (p Policy) Do(ctx context.Context, op func(attempt int) error) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	attempts := 0
	operation := func() error {
		attempts++
		err := op(attempts)
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, delay time.Duration) {
		if p.Notify != nil {
			p.Notify(err, attempts, delay)
		}
	}

	var timer backoff.Timer
	if p.NewTimer != nil {
		timer = p.NewTimer()
	}

	err := backoff.RetryNotifyWithTimer(operation, p.backOff(ctx), notify, timer)
	if err == nil {
		return attempts, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return attempts, err
	}
	if p.Retryable != nil && p.Retryable(err) {
		return attempts, fmt.Errorf("%w after %d attempt(s): %w", ErrExhausted, attempts, err)
	}
	return attempts, err
}

// Delays returns the waits the policy would schedule between attempts.
func (p Policy) Delays() []time.Duration {
	if p.MaxAttempts <= 1 {
		return nil
	}
	b := p.exponential()
	b.Reset()

	delays := make([]time.Duration, 0, p.MaxAttempts-1)
	for i := 1; i < p.MaxAttempts; i++ {
		delays = append(delays, b.NextBackOff())
	}
	return delays
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	// WithMaxRetries treats zero as unlimited.
	if p.MaxAttempts == 1 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}
	return backoff.WithContext(
		backoff.WithMaxRetries(p.exponential(), uint64(p.MaxAttempts-1)),
		ctx,
	)
}

func (p Policy) exponential() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	if p.MaxDelay > 0 {
		b.MaxInterval = p.MaxDelay
	} else {
		b.MaxInterval = time.Duration(1<<62 - 1)
	}
	return b
}
