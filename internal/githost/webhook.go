package githost

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifySignature checks a webhook payload against its HMAC-SHA256
// signature header ("sha256=<hex>"). Comparison is constant-time. A
// request failing this check is rejected before any processing.
func VerifySignature(secret, payload []byte, signatureHeader string) bool {
	if len(secret) == 0 || signatureHeader == "" {
		return false
	}

	provided, ok := strings.CutPrefix(signatureHeader, "sha256=")
	if !ok {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(provided))
}
