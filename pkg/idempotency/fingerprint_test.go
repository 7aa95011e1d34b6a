package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func digestOf(preimage string) string {
	sum := sha256.Sum256([]byte(preimage))
	return hex.EncodeToString(sum[:])
}

func TestFingerprint_CanonicalizesBeforeHashing(t *testing.T) {
	body := []byte(`{ "b": [2, 1], "a": {"y": true, "x": null} }`)

	got, err := Fingerprint("POST", "/api/logs", body)
	require.NoError(t, err)
	require.Equal(t, digestOf(`POST|/api/logs|{"a":{"x":null,"y":true},"b":[2,1]}`), got)
}

func TestFingerprint_KeyOrderInsensitive(t *testing.T) {
	first, err := Fingerprint("POST", "/api/logs", []byte(`{"a":1,"b":2}`))
	require.NoError(t, err)
	second, err := Fingerprint("POST", "/api/logs", []byte(`{"b":2,"a":1}`))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestFingerprint_ArrayOrderSensitive(t *testing.T) {
	first, err := Fingerprint("POST", "/api/logs", []byte(`{"a":[1,2]}`))
	require.NoError(t, err)
	second, err := Fingerprint("POST", "/api/logs", []byte(`{"a":[2,1]}`))
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestFingerprint_NumberLiteralsPreserved(t *testing.T) {
	first, err := Fingerprint("POST", "/api/logs", []byte(`{"v":1.50}`))
	require.NoError(t, err)
	require.Equal(t, digestOf(`POST|/api/logs|{"v":1.50}`), first)

	second, err := Fingerprint("POST", "/api/logs", []byte(`{"v":1.5}`))
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestFingerprint_EmptyBody(t *testing.T) {
	expected := digestOf("DELETE|/api/logs/123|")

	for _, body := range [][]byte{nil, {}, []byte("   \n\t")} {
		got, err := Fingerprint("DELETE", "/api/logs/123", body)
		require.NoError(t, err)
		require.Equal(t, expected, got)
	}
}

func TestFingerprint_BindsMethodAndRoute(t *testing.T) {
	body := []byte(`{"a":1}`)

	base, err := Fingerprint("POST", "/api/logs", body)
	require.NoError(t, err)

	otherMethod, err := Fingerprint("PUT", "/api/logs", body)
	require.NoError(t, err)
	require.NotEqual(t, base, otherMethod)

	otherRoute, err := Fingerprint("POST", "/api/exports", body)
	require.NoError(t, err)
	require.NotEqual(t, base, otherRoute)
}

func TestFingerprint_RejectsInvalidJSON(t *testing.T) {
	invalid := [][]byte{
		[]byte(`{"a":`),
		[]byte(`{"a":1} trailing`),
		[]byte(`{"a":1}{"b":2}`),
		[]byte(`not json`),
	}
	for _, body := range invalid {
		_, err := Fingerprint("POST", "/api/logs", body)
		var fpErr *FingerprintError
		require.ErrorAs(t, err, &fpErr, string(body))
	}
}

func TestFingerprint_InsensitiveToEncodingVariations(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keys := rapid.SliceOfNDistinct(
			rapid.StringMatching(`[a-z]{1,8}`), 1, 6,
			func(s string) string { return s },
		).Draw(t, "keys")

		values := make(map[string]int64, len(keys))
		for _, key := range keys {
			values[key] = rapid.Int64().Draw(t, "value_"+key)
		}

		canonical, err := json.Marshal(values)
		require.NoError(t, err)

		// Hand-build the same object with keys in drawn (arbitrary) order and
		// noise whitespace.
		var sb strings.Builder
		sb.WriteString("{ ")
		for i, key := range keys {
			if i > 0 {
				sb.WriteString(" , ")
			}
			fmt.Fprintf(&sb, "%q :\t%d", key, values[key])
		}
		sb.WriteString(" }")

		first, err := Fingerprint("POST", "/api/logs", canonical)
		require.NoError(t, err)
		second, err := Fingerprint("POST", "/api/logs", []byte(sb.String()))
		require.NoError(t, err)
		require.Equal(t, first, second)
	})
}
