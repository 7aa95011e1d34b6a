package idempotency

// KeyError reports a missing or malformed idempotency key.
type KeyError struct {
	// Missing distinguishes an absent/blank key from a malformed one.
	Missing bool
}

func (e *KeyError) Error() string {
	if e != nil && e.Missing {
		return "idempotency key required"
	}
	return "idempotency key must be a canonical UUID"
}

// ReuseConflictError reports that a key was replayed with a different
// payload. The first request's stored outcome is untouched.
type ReuseConflictError struct {
	ClientKey string
}

func (e *ReuseConflictError) Error() string {
	return "idempotency key already used with a different request"
}

// InProgressError reports that the driver for this key has not completed.
// The caller retries later; the coordinator never polls or blocks.
type InProgressError struct {
	ClientKey string
}

func (e *InProgressError) Error() string {
	return "request with this idempotency key is in progress"
}

// FingerprintError reports an uncanonicalizable request body.
type FingerprintError struct {
	Cause error
}

func (e *FingerprintError) Error() string {
	if e == nil || e.Cause == nil {
		return "request body is not canonicalizable"
	}
	return "request body is not canonicalizable: " + e.Cause.Error()
}

func (e *FingerprintError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// StoreError wraps a backing-store failure. Guards treat it as a reject.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	if e == nil {
		return "idempotency store error"
	}
	if e.Cause != nil {
		return "idempotency store " + e.Op + " failed: " + e.Cause.Error()
	}
	return "idempotency store " + e.Op + " failed"
}

func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
