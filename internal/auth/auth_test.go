package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func testCreds(t *testing.T) *Credentials {
	t.Helper()
	c, err := NewCredentials("ops", "0123456789abcdef0123")
	if err != nil {
		t.Fatalf("NewCredentials() error = %v", err)
	}
	return c
}

func TestNewCredentials(t *testing.T) {
	tests := []struct {
		name    string
		keyID   string
		secret  string
		wantErr string
	}{
		{"valid", "ops", "0123456789abcdef", ""},
		{"missing key id", "", "0123456789abcdef", "key id is required"},
		{"short secret", "ops", "short", "secret must be at least 16 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCredentials(tt.keyID, tt.secret)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCredentials_SignRequest(t *testing.T) {
	creds := testCreds(t)
	headers := creds.SignRequest("POST", "/admin/sync")

	if headers[HeaderKey] != "ops" {
		t.Errorf("%s = %q, want ops", HeaderKey, headers[HeaderKey])
	}
	ms, err := strconv.ParseInt(headers[HeaderTimestamp], 10, 64)
	if err != nil {
		t.Fatalf("timestamp not numeric: %v", err)
	}
	if time.Since(time.UnixMilli(ms)) > time.Minute {
		t.Error("timestamp too old")
	}
	if headers[HeaderSignature] == "" {
		t.Error("signature empty")
	}

	// Signing is deterministic for a fixed timestamp.
	a := creds.signAt(1700000000000, "POST", "/admin/sync")
	b := creds.signAt(1700000000000, "POST", "/admin/sync")
	if a[HeaderSignature] != b[HeaderSignature] {
		t.Error("signatures differ for identical input")
	}
	c := creds.signAt(1700000000000, "GET", "/admin/sync")
	if a[HeaderSignature] == c[HeaderSignature] {
		t.Error("method not covered by signature")
	}
}

func TestVerifier_Verify(t *testing.T) {
	creds := testCreds(t)
	now := time.UnixMilli(1700000000000)
	v := NewVerifier(creds, 5*time.Minute)
	v.now = func() time.Time { return now }

	signed := func(method, path string, at time.Time) *http.Request {
		r := httptest.NewRequest(method, path, nil)
		for k, val := range creds.signAt(at.UnixMilli(), method, path) {
			r.Header.Set(k, val)
		}
		return r
	}

	tests := []struct {
		name   string
		req    func() *http.Request
		wantIs error
	}{
		{
			name: "valid",
			req:  func() *http.Request { return signed("POST", "/admin/sync", now) },
		},
		{
			name:   "missing headers",
			req:    func() *http.Request { return httptest.NewRequest("POST", "/admin/sync", nil) },
			wantIs: ErrMissingHeaders,
		},
		{
			name: "unknown key",
			req: func() *http.Request {
				r := signed("POST", "/admin/sync", now)
				r.Header.Set(HeaderKey, "intruder")
				return r
			},
			wantIs: ErrUnknownKey,
		},
		{
			name:   "stale",
			req:    func() *http.Request { return signed("POST", "/admin/sync", now.Add(-10*time.Minute)) },
			wantIs: ErrStaleRequest,
		},
		{
			name:   "from the future",
			req:    func() *http.Request { return signed("POST", "/admin/sync", now.Add(10*time.Minute)) },
			wantIs: ErrStaleRequest,
		},
		{
			name: "path swapped",
			req: func() *http.Request {
				r := signed("POST", "/admin/sync", now)
				r.URL.Path = "/admin/sync/cancel"
				return r
			},
			wantIs: ErrBadSignature,
		},
		{
			name: "other secret",
			req: func() *http.Request {
				other := &Credentials{KeyID: "ops", Secret: []byte("another-secret-value")}
				r := httptest.NewRequest("POST", "/admin/sync", nil)
				for k, val := range other.signAt(now.UnixMilli(), "POST", "/admin/sync") {
					r.Header.Set(k, val)
				}
				return r
			},
			wantIs: ErrBadSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(tt.req())
			if tt.wantIs == nil {
				if err != nil {
					t.Errorf("Verify() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantIs) {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantIs)
			}
		})
	}
}

func TestCredentials_Apply(t *testing.T) {
	creds := testCreds(t)
	r := httptest.NewRequest("GET", "/admin/sync/status", nil)
	creds.Apply(r)

	if err := NewVerifier(creds, time.Minute).Verify(r); err != nil {
		t.Errorf("Verify() after Apply error = %v", err)
	}
}
