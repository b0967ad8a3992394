package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{name: "direct", remoteAddr: "203.0.113.7:5000", want: "203.0.113.7"},
		{name: "untrusted peer ignores forwarding", remoteAddr: "203.0.113.7:5000", xff: "198.51.100.1", want: "203.0.113.7"},
		{name: "trusted proxy forwards", remoteAddr: "10.0.0.2:80", xff: "198.51.100.1, 10.0.0.2", want: "198.51.100.1"},
		{name: "trusted proxy real ip", remoteAddr: "127.0.0.1:80", xri: "198.51.100.9", want: "198.51.100.9"},
		{name: "garbage forwarded header", remoteAddr: "127.0.0.1:80", xff: "not-an-ip", want: "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := extractClientIP(req); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		url   string
		agent string
		want  bool
	}{
		{url: "/api/summary", want: false},
		{url: "/api/merchants/1/../../etc/passwd", want: true},
		{url: "/api/items/golden?q=<script>", want: true},
		{url: "/api/summary", agent: "sqlmap/1.7", want: true},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.URL.Path, req.URL.RawQuery, _ = strings.Cut(tt.url, "?")
		if tt.agent != "" {
			req.Header.Set("User-Agent", tt.agent)
		}
		if got := detectSuspiciousRequest(req); got != tt.want {
			t.Errorf("%s (%s): got %v, want %v", tt.url, tt.agent, got, tt.want)
		}
	}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := newRateLimiter(2)
	defer rl.stop()
	now := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if !rl.allow("a") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if rl.allow("a") {
		t.Fatal("third request within the window should be rejected")
	}
	if !rl.allow("b") {
		t.Fatal("other clients have their own budget")
	}

	now = now.Add(time.Minute)
	if !rl.allow("a") {
		t.Fatal("a new window should reset the budget")
	}

	now = now.Add(staleClientAfter + time.Second)
	if removed := rl.cleanupStaleEntries(); removed != 2 {
		t.Fatalf("expected 2 stale clients removed, got %d", removed)
	}
}
