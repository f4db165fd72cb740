package http

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_Window(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(2, func() time.Time { return now })

	if !rl.allow("a") || !rl.allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("a") {
		t.Fatal("third request in window should be limited")
	}
	if !rl.allow("b") {
		t.Fatal("other clients are independent")
	}

	now = now.Add(time.Minute)
	if !rl.allow("a") {
		t.Fatal("new window should reset the counter")
	}
}

func TestRateLimiter_CleanupStaleEntries(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(10, func() time.Time { return now })
	rl.allow("old")
	now = now.Add(5 * time.Minute)
	rl.allow("recent")
	now = now.Add(6 * time.Minute)

	if got := rl.cleanupStaleEntries(); got != 1 {
		t.Fatalf("removed %d entries, want 1", got)
	}
	if _, ok := rl.clients["recent"]; !ok {
		t.Error("recent client removed")
	}
	rl.stop()
	rl.stop()
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"direct", "203.0.113.7:5555", "", "", "203.0.113.7"},
		{"untrusted proxy ignores headers", "203.0.113.7:5555", "198.51.100.1", "", "203.0.113.7"},
		{"trusted proxy forwarded", "10.0.0.2:80", "198.51.100.1, 10.0.0.3", "", "198.51.100.1"},
		{"trusted proxy real ip", "127.0.0.1:80", "", "198.51.100.9", "198.51.100.9"},
		{"trusted proxy garbage header", "127.0.0.1:80", "not-an-ip", "", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := extractClientIP(r); got != tt.want {
				t.Errorf("extractClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsSuspiciousRequest(t *testing.T) {
	if !isSuspiciousRequest(httptest.NewRequest("GET", "/transactions/..%2F.env", nil)) {
		t.Error("expected .env scan to be flagged")
	}
	if isSuspiciousRequest(httptest.NewRequest("GET", "/transactions?period=month", nil)) {
		t.Error("ordinary request flagged")
	}
}
