// Package auth signs and verifies administrative requests with HMAC-SHA256.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Header names carried by signed requests.
const (
	HeaderKey       = "X-Lotto-Key"
	HeaderTimestamp = "X-Lotto-Timestamp"
	HeaderSignature = "X-Lotto-Signature"
)

// Verification errors.
var (
	ErrMissingHeaders = errors.New("missing signature headers")
	ErrUnknownKey     = errors.New("unknown key id")
	ErrStaleRequest   = errors.New("request timestamp outside allowed skew")
	ErrBadSignature   = errors.New("signature mismatch")
)

// Credentials holds the shared key used to sign requests.
type Credentials struct {
	KeyID  string // Key id sent in X-Lotto-Key
	Secret []byte // HMAC secret
}

// NewCredentials validates and builds credentials.
func NewCredentials(keyID, secret string) (*Credentials, error) {
	if keyID == "" {
		return nil, fmt.Errorf("key id is required")
	}
	if len(secret) < 16 {
		return nil, fmt.Errorf("secret must be at least 16 bytes")
	}
	return &Credentials{KeyID: keyID, Secret: []byte(secret)}, nil
}

// SignRequest generates authentication headers for an admin request.
func (c *Credentials) SignRequest(method, path string) map[string]string {
	return c.signAt(time.Now().UnixMilli(), method, path)
}

// Apply signs r in place.
func (c *Credentials) Apply(r *http.Request) {
	for k, v := range c.SignRequest(r.Method, r.URL.Path) {
		r.Header.Set(k, v)
	}
}

func (c *Credentials) signAt(timestampMs int64, method, path string) map[string]string {
	return map[string]string{
		HeaderKey:       c.KeyID,
		HeaderTimestamp: strconv.FormatInt(timestampMs, 10),
		HeaderSignature: c.signature(timestampMs, method, path),
	}
}

// signature is base64(HMAC-SHA256(secret, timestamp_ms + method + path)).
func (c *Credentials) signature(timestampMs int64, method, path string) string {
	mac := hmac.New(sha256.New, c.Secret)
	fmt.Fprintf(mac, "%d%s%s", timestampMs, method, path)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verifier checks signed requests.
type Verifier struct {
	creds *Credentials
	skew  time.Duration
	now   func() time.Time
}

// NewVerifier accepts requests signed by creds within skew of the local clock.
func NewVerifier(creds *Credentials, skew time.Duration) *Verifier {
	return &Verifier{creds: creds, skew: skew, now: time.Now}
}

// Verify checks r's signature headers.
func (v *Verifier) Verify(r *http.Request) error {
	key := r.Header.Get(HeaderKey)
	ts := r.Header.Get(HeaderTimestamp)
	sig := r.Header.Get(HeaderSignature)
	if key == "" || ts == "" || sig == "" {
		return ErrMissingHeaders
	}
	if !hmac.Equal([]byte(key), []byte(v.creds.KeyID)) {
		return ErrUnknownKey
	}

	ms, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp %q", ErrStaleRequest, ts)
	}
	age := v.now().Sub(time.UnixMilli(ms))
	if age > v.skew || age < -v.skew {
		return ErrStaleRequest
	}

	want := v.creds.signature(ms, r.Method, r.URL.Path)
	if !hmac.Equal([]byte(sig), []byte(want)) {
		return ErrBadSignature
	}
	return nil
}
