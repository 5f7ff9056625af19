package utils

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// SignWebhookPayload returns the hex HMAC-SHA512 of the raw payload.
func SignWebhookPayload(secret, payload []byte) string {
	mac := hmac.New(sha512.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks a hex HMAC-SHA512 signature over the raw payload.
// The comparison is done on decoded digest bytes in constant time.
func VerifyWebhookSignature(secret, payload []byte, signature string) bool {
	if len(secret) == 0 {
		return false
	}

	claimed, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(claimed) != sha512.Size {
		return false
	}

	mac := hmac.New(sha512.New, secret)
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), claimed)
}
