package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"remote addr with port", "192.0.2.1:54321", "", "", "192.0.2.1"},
		{"x-real-ip wins over remote", "192.0.2.1:54321", "", "198.51.100.4", "198.51.100.4"},
		{"single forwarded-for", "10.0.0.1:1234", "203.0.113.7", "", "203.0.113.7"},
		{"forwarded-for proxy chain", "10.0.0.1:1234", "203.0.113.7, 10.0.0.2, 10.0.0.1", "", "203.0.113.7"},
		{"forwarded-for with port", "10.0.0.1:1234", "203.0.113.7:8080, 10.0.0.2", "", "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/login", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimitByIP_ChainedForwardedFor(t *testing.T) {
	limiter := NewRateLimiter(2)
	handler := RateLimitByIP(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Same client behind a rotating proxy chain must share one bucket.
	for i, chain := range []string{
		"203.0.113.7, 10.0.0.2",
		"203.0.113.7, 10.0.0.3",
		"203.0.113.7, 10.0.0.4",
	} {
		req := httptest.NewRequest("GET", "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", chain)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		want := http.StatusOK
		if i >= 2 {
			want = http.StatusTooManyRequests
		}
		if rec.Code != want {
			t.Errorf("request %d: got status %d, want %d", i, rec.Code, want)
		}
	}
}
