package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Upstream provider errors (retryable).
const (
	// ErrCodeProviderUnavailable indicates the AI provider is temporarily unreachable.
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	// ErrCodeTimeout indicates an upstream request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeRateLimited indicates the provider rate-limited the request.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeEmptyResponse indicates the provider returned a blank response.
	ErrCodeEmptyResponse ErrorCode = "EMPTY_RESPONSE"
)

// Generation errors.
const (
	// ErrCodeInvalidOutput indicates model output that failed structured-output
	// validation after all repair attempts.
	ErrCodeInvalidOutput ErrorCode = "INVALID_STRUCTURED_OUTPUT"
	// ErrCodeStageFailed indicates a pipeline stage exhausted its retries.
	ErrCodeStageFailed ErrorCode = "STAGE_FAILED"
	// ErrCodeProviderNotFound indicates an unknown provider identifier.
	ErrCodeProviderNotFound ErrorCode = "PROVIDER_NOT_FOUND"
)

// Request/configuration errors.
const (
	// ErrCodeInvalidInput indicates the caller's request is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInvalidConfig indicates missing or malformed configuration; fatal
	// at startup, never retried.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeUnauthorized indicates the request lacks valid credentials.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeProviderUnavailable: true,
	ErrCodeTimeout:             true,
	ErrCodeRateLimited:         true,
	ErrCodeEmptyResponse:       true,
	// A regenerate often fixes malformed output, so it rides the retry path.
	ErrCodeInvalidOutput: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
