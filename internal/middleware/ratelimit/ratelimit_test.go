package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"billed/internal/metrics"
)

func newTestLimiter(perMinute int) (*Limiter, *time.Time) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(Config{RequestsPerMinute: perMinute}, nil, nil)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowWindow(t *testing.T) {
	l, now := newTestLimiter(2)

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("a") {
		t.Fatal("third request should be limited")
	}
	if !l.Allow("b") {
		t.Fatal("other clients have their own budget")
	}

	*now = now.Add(time.Minute)
	if !l.Allow("a") {
		t.Fatal("window should reset after a minute")
	}
}

func TestEvictStale(t *testing.T) {
	l, now := newTestLimiter(5)
	l.Allow("a")
	*now = now.Add(11 * time.Minute)
	l.Allow("b")

	if removed := l.evictStale(); removed != 1 {
		t.Fatalf("evictStale = %d, want 1", removed)
	}
	if l.ActiveClients() != 1 {
		t.Fatalf("ActiveClients = %d, want 1", l.ActiveClients())
	}
}

func TestMiddlewareOnlyLimitsWrites(t *testing.T) {
	reg := metrics.New()
	l := NewLimiter(Config{RequestsPerMinute: 1}, nil, reg)
	h := l.Middleware(func(*http.Request) string { return "1.2.3.4" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ui/bills", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %d throttled: %d", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first POST should pass, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST should be limited, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After missing")
	}
	if got := testutil.ToFloat64(reg.RateLimited); got != 1 {
		t.Fatalf("rate limited counter = %v", got)
	}
}
