// Package resilience provides bounded retry with exponential backoff for
// unreliable upstream calls.
//
// Operations receive the attempt number so callers can shrink resource
// requests between attempts (e.g. lower the token budget after a truncated
// response):
//
//	outline, err := resilience.Retry(ctx, cfg, func(attempt int) (*course.Outline, error) {
//	    return client.generateOutline(ctx, budgetFor(attempt))
//	})
//
// Attempts are sequential; the last error propagates; intermediate failures
// are observable only through the OnRetry hook.
package resilience
