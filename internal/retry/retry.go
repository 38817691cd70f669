package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

type Retrier interface {
	Do(ctx context.Context, fn func() error) error
}

type IsRetryableFunc func(err error) bool

type Backoff interface {
	// Delay returns the pause before the given attempt (1-based, attempt >= 2).
	Delay(attempt int) time.Duration
}

type ExponentialBackoff struct {
	Base   time.Duration
	Factor float64
	Max    time.Duration
	Jitter bool
}

func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	factor := b.Factor
	if factor < 1 {
		factor = 1
	}

	d := time.Duration(float64(b.Base) * math.Pow(factor, float64(attempt-2)))
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}

	if b.Jitter && d > 0 {
		d = d/2 + rand.N(d/2+1)
	}

	return d
}

type noBackoff struct{}

func (noBackoff) Delay(int) time.Duration { return 0 }

type RetryOption func(*retrier)

func WithMaxAttempts(n int) RetryOption {
	return func(r *retrier) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

func WithIsRetryableFunc(fn IsRetryableFunc) RetryOption {
	return func(r *retrier) {
		r.isRetryable = fn
	}
}

func WithBackoff(b Backoff) RetryOption {
	return func(r *retrier) {
		r.backoff = b
	}
}

type retrier struct {
	maxAttempts int
	isRetryable IsRetryableFunc
	backoff     Backoff
}

func New(opts ...RetryOption) Retrier {
	r := &retrier{
		maxAttempts: 1,
		isRetryable: func(error) bool { return true },
		backoff:     noBackoff{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *retrier) Do(ctx context.Context, fn func() error) error {
	var err error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(r.backoff.Delay(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return err
			case <-timer.C:
			}
		}

		err = fn()
		if err == nil || !r.isRetryable(err) {
			return err
		}
	}

	return err
}
