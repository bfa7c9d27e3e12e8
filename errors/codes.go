package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Client errors
const (
	// ErrCodeBadRequest indicates malformed input or an invalid OAuth2 state.
	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"
	// ErrCodeValidation indicates a field-level input constraint was violated.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeConflict indicates a conflict with the current state of the resource.
	ErrCodeConflict ErrorCode = "CONFLICT"
	// ErrCodeRateLimited indicates the client is rate limited.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Authentication/Authorization errors
const (
	// ErrCodeUnauthorized indicates a missing, invalid or expired credential.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeForbidden indicates the principal lacks the required role.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
)

// Server errors
const (
	// ErrCodeInternalServer indicates a key-material or signing failure.
	ErrCodeInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeDatabaseError indicates a persistence failure.
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	// ErrCodeExternalService indicates an OAuth2 provider network or protocol failure.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Only transient infrastructure failures are hinted as retryable. Provider
// failures are not: authorization codes are single-use.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeRateLimited:   true,
	ErrCodeDatabaseError: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
