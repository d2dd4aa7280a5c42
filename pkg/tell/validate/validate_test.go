package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tell-rs/tell-go/pkg/tell/errs"
)

// Test 1: user ids only need to be non-empty.
func TestCheckUserID(t *testing.T) {
	assert.False(t, CheckUserID(""))
	assert.True(t, CheckUserID("user-42"))
	assert.True(t, CheckUserID(strings.Repeat("x", 10000)))
}

// Test 2: event names are bounded at 256 bytes.
func TestCheckEventName(t *testing.T) {
	assert.False(t, CheckEventName(""))
	assert.True(t, CheckEventName("Page Viewed"))
	assert.True(t, CheckEventName(strings.Repeat("a", MaxEventNameLen)))
	assert.False(t, CheckEventName(strings.Repeat("a", MaxEventNameLen+1)))
}

// Test 3: log messages are bounded at 64 KiB.
func TestCheckLogMessage(t *testing.T) {
	assert.False(t, CheckLogMessage(""))
	assert.True(t, CheckLogMessage("payment declined"))
	assert.True(t, CheckLogMessage(strings.Repeat("m", MaxLogMessageLen)))
	assert.False(t, CheckLogMessage(strings.Repeat("m", MaxLogMessageLen+1)))
}

// Test 4: service names may be empty but not over 256 bytes.
func TestCheckServiceName(t *testing.T) {
	assert.True(t, CheckServiceName(""))
	assert.True(t, CheckServiceName("checkout"))
	assert.True(t, CheckServiceName(strings.Repeat("s", MaxServiceNameLen)))
	assert.False(t, CheckServiceName(strings.Repeat("s", MaxServiceNameLen+1)))
}

// Test 5: a valid key decodes to its raw bytes in input order.
func TestDecodeAPIKey(t *testing.T) {
	key, err := DecodeAPIKey("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	want := [16]byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef, 0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}
	assert.Equal(t, want, key)
}

// Test 6: decoding is case-insensitive.
func TestDecodeAPIKeyUpperCase(t *testing.T) {
	lower, err := DecodeAPIKey("deadbeefdeadbeefdeadbeefdeadbeef")
	require.NoError(t, err)
	upper, err := DecodeAPIKey("DEADBEEFDEADBEEFDEADBEEFDEADBEEF")
	require.NoError(t, err)
	assert.Equal(t, lower, upper)
}

// Test 7: wrong length and non-hex input are configuration errors.
func TestDecodeAPIKeyInvalid(t *testing.T) {
	cases := []string{
		"",
		"0123",
		"0123456789abcdef0123456789abcde",   // 31 chars
		"0123456789abcdef0123456789abcdef0", // 33 chars
		"0123456789abcdef0123456789abcdeg",  // non-hex
		"0123456789abcdef 123456789abcdef",  // space
	}
	for _, apiKey := range cases {
		_, err := DecodeAPIKey(apiKey)
		require.Error(t, err, "key %q should be rejected", apiKey)
		var e errs.Error
		require.True(t, errors.As(err, &e))
		assert.Equal(t, errs.KindConfiguration, e.Kind)
	}
}
