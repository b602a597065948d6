package delivery

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"type":"email.delivered"}`)
	valid := sign(secret, body)

	cases := []struct {
		name      string
		secret    string
		body      []byte
		signature string
		wantErr   error
	}{
		{"valid", secret, body, valid, nil},
		{"valid with sha256 prefix", secret, body, "sha256=" + valid, nil},
		{"valid with surrounding whitespace", secret, body, " " + valid + " ", nil},
		{"no secret configured", "", body, valid, errNoSecret},
		{"missing signature", secret, body, "", errMissingSignature},
		{"prefix only", secret, body, "sha256=", errMissingSignature},
		{"not hex", secret, body, "zzzz", errInvalidSignature},
		{"wrong secret", "other", body, valid, errInvalidSignature},
		{"tampered body", secret, []byte(`{"type":"email.bounced"}`), valid, errInvalidSignature},
		{"truncated signature", secret, body, valid[:16], errInvalidSignature},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := VerifySignature(tc.secret, tc.body, tc.signature); err != tc.wantErr {
				t.Errorf("VerifySignature() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}
