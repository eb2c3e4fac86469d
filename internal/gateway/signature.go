package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Signature generates the HMAC-SHA256 signature for a payload.
func Signature(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

// VerifySignature checks a received signature against the raw request
// body in constant time. The "sha256=" prefix is optional on the wire.
func VerifySignature(payload []byte, secret, received string) bool {
	if received == "" {
		return false
	}
	received = strings.TrimPrefix(received, "sha256=")

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	expected := hex.EncodeToString(h.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(received)))
}
