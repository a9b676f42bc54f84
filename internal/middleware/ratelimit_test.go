package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeClock lets tests move the limiter's notion of time.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, limit int, window time.Duration, trustProxy bool) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, window, trustProxy)
	rl.now = clock.now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestRateLimiterAllow(t *testing.T) {
	rl, _ := newTestLimiter(t, 3, time.Minute, false)

	for i := 0; i < 3; i++ {
		if ok, _ := rl.allow("test-ip"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	ok, retry := rl.allow("test-ip")
	if ok {
		t.Error("4th request should be rate-limited")
	}
	if retry <= 0 || retry > time.Minute {
		t.Errorf("retryAfter = %v, want within (0, 1m]", retry)
	}

	if ok, _ := rl.allow("other-ip"); !ok {
		t.Error("different IP should be allowed")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl, clock := newTestLimiter(t, 2, time.Minute, false)

	rl.allow("test-ip")
	clock.advance(20 * time.Second)
	rl.allow("test-ip")

	if ok, retry := rl.allow("test-ip"); ok || retry != 40*time.Second {
		t.Errorf("allow = %v, %v; want false, 40s", ok, retry)
	}

	clock.advance(41 * time.Second)
	if ok, _ := rl.allow("test-ip"); !ok {
		t.Error("should be allowed once the oldest request leaves the window")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 2, time.Minute, false)

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/bod/login", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < 2; i++ {
		if rr := do(); rr.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want 200", i+1, rr.Code)
		}
	}

	rr := do()
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("got status %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "61" {
		t.Errorf("Retry-After = %q, want 61", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{"xff single", true, "10.0.0.1", "", "192.168.1.1:1234", "10.0.0.1"},
		{"xff multiple", true, "10.0.0.1, 172.16.0.1", "", "192.168.1.1:1234", "10.0.0.1"},
		{"x-real-ip", true, "", "10.0.0.2", "192.168.1.1:1234", "10.0.0.2"},
		{"headers ignored without trust", false, "10.0.0.1", "10.0.0.2", "192.168.1.1:1234", "192.168.1.1"},
		{"remote addr only", true, "", "", "192.168.1.1:1234", "192.168.1.1"},
		{"remote addr ipv6", false, "", "", "[::1]:8080", "::1"},
		{"remote addr no port", false, "", "", "192.168.1.1", "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl, _ := newTestLimiter(t, 1, time.Minute, tt.trustProxy)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := rl.clientIP(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl, clock := newTestLimiter(t, 10, time.Minute, false)

	rl.allow("ip-old")
	rl.allow("ip-fresh")
	clock.advance(2 * time.Minute)
	rl.allow("ip-fresh")

	rl.cleanup()

	rl.mu.Lock()
	_, oldExists := rl.clients["ip-old"]
	_, freshExists := rl.clients["ip-fresh"]
	rl.mu.Unlock()

	if oldExists {
		t.Error("ip-old should have been cleaned up")
	}
	if !freshExists {
		t.Error("ip-fresh should still exist")
	}
}

func TestRateLimiterStopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Second, false)
	rl.Stop()
	rl.Stop()
}
