package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Header carries the hex-encoded HMAC-SHA256 of the raw webhook body.
const Header = "X-MFI-Signature"

// Compute returns the hex-encoded HMAC-SHA256 of body under secret.
func Compute(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the provided signature against the expected HMAC of the raw
// body. It fails closed: a missing signature or an unconfigured secret is a
// rejection, never a pass-through. Comparison is constant-time.
func Verify(body []byte, provided, secret string) bool {
	if secret == "" || provided == "" {
		return false
	}
	expected := Compute(body, secret)
	return hmac.Equal([]byte(provided), []byte(expected))
}
