// Package validate holds the pure input predicates and the API-key decoder.
package validate

import (
	"encoding/hex"

	"github.com/tell-rs/tell-go/pkg/tell/errs"
)

// Limits enforced on ingestion input.
const (
	MaxEventNameLen   = 256
	MaxLogMessageLen  = 65536
	MaxServiceNameLen = 256
	APIKeyHexLen      = 32
)

// CheckUserID reports whether a user id is acceptable: non-empty.
func CheckUserID(userID string) bool {
	return userID != ""
}

// CheckEventName reports whether an event name is acceptable: non-empty and
// at most 256 bytes.
func CheckEventName(name string) bool {
	return name != "" && len(name) <= MaxEventNameLen
}

// CheckLogMessage reports whether a log message is acceptable: non-empty and
// at most 64 KiB.
func CheckLogMessage(message string) bool {
	return message != "" && len(message) <= MaxLogMessageLen
}

// CheckServiceName reports whether a service name is acceptable: at most 256
// bytes. Empty is allowed and resolved to "app" elsewhere.
func CheckServiceName(service string) bool {
	return len(service) <= MaxServiceNameLen
}

// DecodeAPIKey decodes a 32-character hex API key, case-insensitive, into 16
// raw bytes in input order. Anything else is a configuration error.
func DecodeAPIKey(apiKey string) ([16]byte, error) {
	var key [16]byte
	if len(apiKey) != APIKeyHexLen {
		return key, errs.Configuration("apiKey must be %d hex characters, got %d", APIKeyHexLen, len(apiKey))
	}
	decoded, err := hex.DecodeString(apiKey)
	if err != nil {
		return key, errs.Configuration("apiKey contains a non-hex character")
	}
	copy(key[:], decoded)
	return key, nil
}
