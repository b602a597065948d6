package delivery

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	errNoSecret         = errors.New("webhook secret not configured")
	errMissingSignature = errors.New("missing signature")
	errInvalidSignature = errors.New("invalid signature")
)

// VerifySignature checks an HMAC-SHA256 hex signature over the exact raw
// request body. The comparison is constant time. Some providers prefix the
// header value with "sha256="; that prefix is tolerated.
func VerifySignature(secret string, body []byte, signature string) error {
	if secret == "" {
		return errNoSecret
	}

	signature = strings.TrimSpace(strings.TrimPrefix(signature, "sha256="))
	if signature == "" {
		return errMissingSignature
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return errInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	if !hmac.Equal(expected, provided) {
		return errInvalidSignature
	}

	return nil
}
