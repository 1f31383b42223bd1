package archive

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"
)

// retryPolicy implements the bounded exponential backoff from §7: 3
// attempts, 100ms base, 2x factor, ±20% jitter, retried only for
// idempotent GET/HEAD on connection errors and 5xx. No retry on 4xx.
type retryPolicy struct {
	maxAttempts int
	base        time.Duration
	factor      float64
	jitter      float64
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{maxAttempts: 3, base: 100 * time.Millisecond, factor: 2, jitter: 0.2}
}

func (p retryPolicy) delay(attempt int) time.Duration {
	d := float64(p.base) * pow(p.factor, attempt)
	j := 1 + (rand.Float64()*2-1)*p.jitter
	return time.Duration(d * j)
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

// shouldRetry reports whether a response/error pair from an idempotent
// request warrants another attempt.
func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp.StatusCode >= 500
}

// doWithRetry executes req (or a fresh clone of it per attempt,
// supplied by newReq) applying the retry policy. Only GET and HEAD are
// ever passed here by callers since this client issues no writes.
func (c *Client) doWithRetry(ctx context.Context, newReq func(context.Context) (*http.Request, error)) (*http.Response, error) {
	policy := defaultRetryPolicy()

	var lastErr error
	for attempt := 0; attempt < policy.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(policy.delay(attempt - 1)):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := newReq(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := c.http.Do(req)
		if !shouldRetry(resp, err) {
			return resp, err
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		lastErr = err
		if err == nil {
			lastErr = errors.New("archive: upstream returned " + resp.Status)
		}
	}
	return nil, lastErr
}
