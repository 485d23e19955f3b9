package ai

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// linearBackOff waits step × attempt between attempts.
type linearBackOff struct {
	step    time.Duration
	attempt int
}

var _ backoff.BackOff = (*linearBackOff)(nil)

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.step * time.Duration(b.attempt)
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

func retryPolicy(step time.Duration, maxAttempts int) backoff.BackOff {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return backoff.WithMaxRetries(&linearBackOff{step: step}, uint64(maxAttempts-1))
}
