// Package resilience retries transient failures with exponential backoff.
//
// The HTTP adapter wraps each request attempt in Retry when a RetryConfig
// is configured; decode failures are never retried because the response
// has already been consumed.
//
//	resp, err := resilience.Retry(ctx, cfg, func() (*Response, error) {
//	    return send(ctx, req)
//	})
package resilience
