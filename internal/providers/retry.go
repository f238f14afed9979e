package providers

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// Policy is the shared retry policy for outbound provider calls.
type Policy struct {
	Attempts  int           // total tries, including the first
	BaseDelay time.Duration // wait before retry n is BaseDelay*n
}

// DefaultPolicy retries twice, after 1s and then 2s.
var DefaultPolicy = Policy{Attempts: 3, BaseDelay: time.Second}

// linearBackOff implements backoff.BackOff with delay = base * attempt.
type linearBackOff struct {
	base time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return b.base * time.Duration(b.n)
}

func (b *linearBackOff) Reset() { b.n = 0 }

// Retry runs op until it succeeds, returns a non-retryable error, or the
// policy's attempts are exhausted. Non-retryable errors (see IsRetryable) are
// returned after the first try; otherwise the last error propagates.
func Retry[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	return backoff.Retry(ctx,
		func() (T, error) {
			v, err := op(ctx)
			if err != nil && !IsRetryable(err) {
				return v, backoff.Permanent(err)
			}
			return v, err
		},
		backoff.WithBackOff(&linearBackOff{base: p.BaseDelay}),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Warn().Err(err).Dur("retry_in", wait).Msg("provider call failed, retrying")
		}),
	)
}
