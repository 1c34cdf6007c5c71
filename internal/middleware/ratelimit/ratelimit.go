// Package ratelimit throttles state-changing requests per client address.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"billed/internal/log"
	"billed/internal/metrics"
)

// Limiter is a fixed one-minute window counter keyed by client IP.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*window
	now     func() time.Time

	requestsPerMinute int
	cleanupInterval   time.Duration
	staleAfter        time.Duration

	logger  *log.Logger
	metrics *metrics.Registry
}

type window struct {
	start    time.Time
	requests int
}

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter builds a limiter. Call Run to start evicting idle clients.
func NewLimiter(config Config, logger *log.Logger, reg *metrics.Registry) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Limiter{
		clients:           make(map[string]*window),
		now:               time.Now,
		requestsPerMinute: config.RequestsPerMinute,
		cleanupInterval:   config.CleanupInterval,
		staleAfter:        10 * time.Minute,
		logger:            logger.WithComponent(log.ComponentRateLimit),
		metrics:           reg,
	}
}

// Allow counts one request from clientIP and reports whether it is within budget.
func (l *Limiter) Allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[clientIP]
	if !ok || now.Sub(w.start) >= time.Minute {
		l.clients[clientIP] = &window{start: now, requests: 1}
		return true
	}
	w.requests++
	return w.requests <= l.requestsPerMinute
}

// retryAfter is the number of seconds until clientIP's window resets.
func (l *Limiter) retryAfter(clientIP string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.clients[clientIP]
	if !ok {
		return 0
	}
	secs := int(time.Minute.Seconds() - l.now().Sub(w.start).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Run evicts idle clients until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evictStale()
		case <-ctx.Done():
			return
		}
	}
}

func (l *Limiter) evictStale() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.staleAfter)
	removed := 0
	for ip, w := range l.clients {
		if w.start.Before(cutoff) {
			delete(l.clients, ip)
			removed++
		}
	}
	return removed
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Middleware limits non-idempotent methods only; page loads and the HTMX
// bill fetches are never throttled.
func (l *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			ip := extractIP(r)
			if !l.Allow(ip) {
				l.logger.WarnContext(r.Context(), "Rate limit exceeded",
					log.FieldClientIP, ip,
					log.FieldPath, r.URL.Path)
				if l.metrics != nil {
					l.metrics.RateLimited.Inc()
				}
				w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter(ip)))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
