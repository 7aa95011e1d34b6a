package idempotency

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
)

// Fingerprint produces the digest binding a client key to one specific
// logical request: SHA-256 over `METHOD|ROUTE|<canonical-JSON>`, lowercase
// hex.
//
// Canonicalization sorts object keys lexicographically at every depth while
// preserving array element order and JSON number literals, so the digest is
// independent of key insertion order and byte-stable across process restarts.
// An empty body canonicalizes to the empty string.
func Fingerprint(method, route string, body []byte) (string, error) {
	canonical, err := canonicalJSON(body)
	if err != nil {
		return "", &FingerprintError{Cause: err}
	}

	preimage := method + "|" + route + "|" + canonical
	sum := sha256.Sum256([]byte(preimage))
	return hex.EncodeToString(sum[:]), nil
}

func canonicalJSON(body []byte) (string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", nil
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return "", err
	}
	if err := ensureEOF(decoder); err != nil {
		return "", err
	}

	// encoding/json emits map keys in sorted order and json.Number values as
	// their original literals, which is exactly the canonical form.
	canonical, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(canonical), nil
}

func ensureEOF(decoder *json.Decoder) error {
	if _, err := decoder.Token(); err != io.EOF {
		if err != nil {
			return err
		}
		return errTrailingData
	}
	return nil
}

type jsonSyntaxError string

func (e jsonSyntaxError) Error() string { return string(e) }

const errTrailingData = jsonSyntaxError("unexpected data after JSON value")
