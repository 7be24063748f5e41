package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// sign computes an HMAC-SHA256 signature over body using secret. No
// example repo in the pack ships a webhook-signing library, and
// crypto/hmac is the standard, unambiguous way to do this in Go, so it
// is used directly rather than adopting a third-party dependency for a
// single primitive.
func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
