// Package idempotency guarantees each client-initiated mutation is applied at
// most once under retries, using only a conditional-insert store primitive.
package idempotency

import (
	"strings"

	"github.com/google/uuid"
)

// ValidateKey checks a raw idempotency key header value and returns the
// trimmed key. Keys must be canonical UUIDs: 8-4-4-4-12 lowercase-insensitive
// hex with version 1–5 and RFC 4122 variant. No side effects.
func ValidateKey(raw string) (string, error) {
	key := strings.TrimSpace(raw)
	if key == "" {
		return "", &KeyError{Missing: true}
	}
	if !isCanonicalUUID(key) {
		return "", &KeyError{}
	}
	return key, nil
}

func isCanonicalUUID(key string) bool {
	// uuid.Parse also accepts braced, URN, and dashless forms; require the
	// canonical 36-character shape first.
	if len(key) != 36 || key[8] != '-' || key[13] != '-' || key[18] != '-' || key[23] != '-' {
		return false
	}

	parsed, err := uuid.Parse(key)
	if err != nil {
		return false
	}
	if v := parsed.Version(); v < 1 || v > 5 {
		return false
	}
	return parsed.Variant() == uuid.RFC4122
}
