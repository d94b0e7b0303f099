// Package errors provides unified error handling for the coursegen service.
// It implements structured error types with machine-readable codes, HTTP
// status mapping, and retryable detection, so the API surface and the
// generation pipeline share one taxonomy.
package errors
