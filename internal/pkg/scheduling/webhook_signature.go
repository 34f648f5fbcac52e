package scheduling

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Signature verification errors. All of them map to a 401 at the HTTP
// boundary; only ErrSecretMissing (config.go) maps to a 500.
var (
	ErrMissingSignature = errors.New("missing webhook signature header")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrStaleTimestamp   = errors.New("webhook signature timestamp outside replay window")
)

// VerifyWebhookSignature checks a "t=<unix-seconds>,v1=<hex-digest>[,v1=...]"
// header against the raw request body. The signed string is
// "<timestamp>.<body>", MACed with HMAC-SHA256. Any one matching v1 digest is
// sufficient (the provider signs with old and new secret during rotation), but
// a timestamp outside the replay window rejects even a correct digest.
// Malformed headers are simply invalid; this never panics on bad input.
func VerifyWebhookSignature(payload []byte, signatureHeader string, secrets []string, replayWindow time.Duration, now time.Time) error {
	if len(secrets) == 0 {
		return ErrSecretMissing
	}
	header := strings.TrimSpace(signatureHeader)
	if header == "" {
		return ErrMissingSignature
	}

	tsRaw := ""
	var digests [][]byte
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			tsRaw = value
		case "v1":
			decoded, err := hex.DecodeString(strings.ToLower(value))
			if err == nil && len(decoded) > 0 {
				digests = append(digests, decoded)
			}
		}
	}
	if tsRaw == "" || len(digests) == 0 {
		return ErrInvalidSignature
	}

	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > replayWindow || age < -replayWindow {
		return ErrStaleTimestamp
	}

	// The timestamp is signed exactly as it appeared on the wire.
	signed := tsRaw + "." + string(payload)
	for _, secret := range secrets {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(signed))
		expected := mac.Sum(nil)
		for _, digest := range digests {
			if hmac.Equal(expected, digest) {
				return nil
			}
		}
	}
	return ErrInvalidSignature
}

// ComputeSignatureHeader builds a valid signature header for the given body.
// Used by tests and by the local event replay tooling.
func ComputeSignatureHeader(payload []byte, secret string, at time.Time) string {
	tsRaw := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(tsRaw + "." + string(payload)))
	return "t=" + tsRaw + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}
