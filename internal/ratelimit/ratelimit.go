package ratelimit

import (
	"context"
	"maps"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"saas-tenancy/internal/metrics"
)

// DefaultPerMinute is the request allowance per key when none is configured.
const DefaultPerMinute = 100

// Limiter keeps one token bucket per key (tenant hint, or client address
// when no hint is sent).
type Limiter struct {
	limit  rate.Limit
	burst  int
	logger *zap.Logger

	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

func New(perMinute int, logger *zap.Logger) *Limiter {
	if perMinute <= 0 {
		perMinute = DefaultPerMinute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether a request for key may proceed now.
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

func (l *Limiter) get(key string) *rate.Limiter {
	// The limiters are thread-safe but the map is not.
	l.mu.RLock()
	lim, ok := l.limiters[key]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok = l.limiters[key]; !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

// Prune drops limiters whose bucket has refilled; they carry no state.
func (l *Limiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	before := len(l.limiters)
	maps.DeleteFunc(l.limiters, func(_ string, lim *rate.Limiter) bool {
		return int(lim.Tokens()) >= lim.Burst()
	})
	if removed := before - len(l.limiters); removed > 0 {
		l.logger.Debug("pruned rate limiters", zap.Int("removed", removed), zap.Int("remaining", len(l.limiters)))
	}
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limiters)
}

// Run prunes idle limiters every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Prune()
		}
	}
}

// Middleware answers 429 once the key derived from header is exhausted.
func Middleware(l *Limiter, header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(header)
			if key == "" {
				key = clientAddr(r)
			}

			if !l.Allow(key) {
				metrics.RateLimited.Inc()
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter(l.limit)))
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfter(limit rate.Limit) int {
	secs := int(1 / float64(limit))
	if secs < 1 {
		return 1
	}
	return secs
}
