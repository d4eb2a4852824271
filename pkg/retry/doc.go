// Package retry runs an operation until it succeeds, fails with a
// non-retryable error, or runs out of attempts.
//
// Page fetches use it with a RandomBackoff so each wait falls somewhere in a
// fixed window:
//
//	page, err := retry.DoWithResult(func() ([]byte, error) {
//		return c.get(ctx, pageURL)
//	}, &retry.Config{
//		MaxAttempts: 5,
//		Backoff:     &retry.RandomBackoff{Min: 5 * time.Second, Max: 10 * time.Second},
//		Context:     ctx,
//		Logger:      log,
//	})
//
// When every attempt fails, Do returns an *ExhaustedError wrapping the last
// failure. Typed errors from pkg/errors are retried according to their type;
// context cancellation is never retried.
package retry
