package fetch

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy bounds retries for transient upstream failures.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
		Jitter:      250 * time.Millisecond,
	}
}

// Delay returns the backoff before the given retry (attempt starts at 1).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.BaseDelay << uint(attempt-1)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(p.Jitter)))
	}
	return delay
}

// FetchWithRetry runs a single-identifier fetch under the fetcher's retry
// policy. Non-transient errors are returned immediately; transient errors are
// retried until the attempt bound is reached. The last error stands for the
// whole sequence, so a row is reported once regardless of attempts.
func FetchWithRetry(ctx context.Context, f Fetcher, id Identifier, creds Credentials) (*Metrics, error) {
	policy := f.Policy()
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		metrics, err := f.Fetch(ctx, id, creds)
		if err == nil {
			return metrics, nil
		}
		lastErr = err

		fe, ok := AsFetchError(err)
		if !ok || !fe.Transient {
			return nil, err
		}
		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(policy.Delay(attempt)):
		}
	}

	return nil, lastErr
}
