// Package messenger is the Facebook Messenger transport: inbound webhook
// payloads and their signatures, and the Graph API client used to reply.
package messenger

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mmstudyabroad/counselor-bot/internal/errors"
)

// SignatureHeader carries the HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Hub-Signature-256"

const signaturePrefix = "sha256="

// VerifySignature checks header against the HMAC-SHA256 of body keyed by
// appSecret. An empty appSecret disables verification.
func VerifySignature(appSecret string, body []byte, header string) error {
	if appSecret == "" {
		return nil
	}
	if header == "" {
		return errors.ErrMissingSignature
	}

	hexSig, ok := strings.CutPrefix(header, signaturePrefix)
	if !ok {
		return errors.ErrInvalidSignature
	}
	got, err := hex.DecodeString(hexSig)
	if err != nil {
		return errors.ErrInvalidSignature
	}

	if !hmac.Equal(got, computeSignature(appSecret, body)) {
		return errors.ErrInvalidSignature
	}
	return nil
}

// Sign returns the header value Messenger would send for body.
func Sign(appSecret string, body []byte) string {
	return signaturePrefix + hex.EncodeToString(computeSignature(appSecret, body))
}

func computeSignature(appSecret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return mac.Sum(nil)
}
