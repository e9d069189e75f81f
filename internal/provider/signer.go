package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// PayloadSigner signs outgoing webhook payloads with HMAC-SHA256 over
// "{timestamp}.{payload}". The header format is:
//
//	X-Novel-Signature: t={timestamp},v1={signature}
type PayloadSigner struct{}

// NewPayloadSigner creates a webhook payload signer.
func NewPayloadSigner() *PayloadSigner {
	return &PayloadSigner{}
}

// Sign produces the X-Novel-Signature header value.
// Implements pkg/webhook.Signer.
func (s *PayloadSigner) Sign(payload []byte, secret string) map[string]string {
	return s.SignWithTimestamp(payload, secret, time.Now().Unix())
}

// SignWithTimestamp produces the signature header for a fixed
// timestamp. Useful for testing.
func (s *PayloadSigner) SignWithTimestamp(payload []byte, secret string, timestamp int64) map[string]string {
	sig := ComputeSignature(timestamp, payload, secret)
	return map[string]string{
		"X-Novel-Signature": fmt.Sprintf("t=%d,v1=%s", timestamp, sig),
	}
}

// ComputeSignature computes the HMAC-SHA256 signature over
// "{timestamp}.{payload}".
func ComputeSignature(timestamp int64, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
