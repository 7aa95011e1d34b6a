package guardtheory

// Stable error codes returned inside error envelopes. These are part of the
// wire contract: clients branch on them, so the values never change.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeAuthRequired    = "AUTH_REQUIRED"
	CodeAuthInvalid     = "AUTH_INVALID_SESSION"
	CodeAccessDenied    = "ACCESS_DENIED"
	CodeNotFound        = "NOT_FOUND"
	CodeStateConflict   = "STATE_CONFLICT"

	CodeIdempotencyKeyRequired      = "IDEMPOTENCY_KEY_REQUIRED"
	CodeIdempotencyKeyInvalid       = "IDEMPOTENCY_KEY_INVALID"
	CodeIdempotencyKeyReuseConflict = "IDEMPOTENCY_KEY_REUSE_CONFLICT"
	CodeIdempotencyInProgress       = "IDEMPOTENCY_IN_PROGRESS"

	CodeRateLimited   = "RATE_LIMITED"
	CodeQuotaExceeded = "QUOTA_EXCEEDED"
	CodeInternal      = "INTERNAL"
)

const (
	messageAccessDenied = "access denied"

	messageIdempotencyKeyRequired = "idempotency key required"
	messageIdempotencyKeyInvalid  = "idempotency key must be a UUID"
	messageIdempotencyReuse       = "idempotency key already used with a different request"
	messageIdempotencyInProgress  = "request with this idempotency key is in progress"

	messageRateLimited   = "rate limit exceeded"
	messageQuotaExceeded = "quota exceeded"
	messageInternal      = "internal error"
)
