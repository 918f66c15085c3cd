package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"greencart/internal/metrics"
	"greencart/pkg/auth"
	"greencart/pkg/errors"
	"greencart/pkg/logger"
)

type contextKey string

const claimsContextKey contextKey = "auth_claims"

// TokenVerifier validates bearer tokens. auth.Verifier satisfies it.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Claims, error)
	Revoke(ctx context.Context, claims *auth.Claims) error
}

// ClaimsFromContext returns the claims set by requireAuth
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	return c, ok
}

// requireAuth rejects requests without a valid bearer token
func requireAuth(verifier TokenVerifier, log *logger.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			writeMessage(w, http.StatusUnauthorized, "authentication credentials were not provided")
			return
		}

		claims, err := verifier.Verify(r.Context(), strings.TrimSpace(token))
		if err != nil {
			log.Debugw("Rejected bearer token", "path", r.URL.Path, "error", err)
			writeMessage(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		ctx = errors.WithUserID(ctx, claims.UserID.String())
		next(w, r.WithContext(ctx))
	}
}

// statusRecorder captures the response code for logging and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument logs and measures every request. pattern is the mux pattern,
// used as a low-cardinality route label.
func instrument(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		metrics.RecordHTTPRequest(route, r.Method, rec.status, elapsed)
		log.Debugw("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

// recoverPanics turns handler panics into 500 responses
func recoverPanics(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				err := fmt.Errorf("panic: %v", v)
				log.ErrorWithContext(r.Context(), err, map[string]string{
					"component": "api",
					"path":      r.URL.Path,
				})
				writeMessage(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ipLimiter applies a token bucket per client address. A bucket left idle
// for idleAfter has refilled, so it is dropped on the next sweep.
type ipLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*ipBucket
	limit     rate.Limit
	burst     int
	idleAfter time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type ipBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(perMinute int) *ipLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &ipLimiter{
		limiters:  make(map[string]*ipBucket),
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     perMinute,
		idleAfter: time.Minute,
		now:       time.Now,
	}
}

func (l *ipLimiter) allow(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep(now)
	b, ok := l.limiters[host]
	if !ok {
		b = &ipBucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[host] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// sweep runs at most once per idleAfter; callers hold mu
func (l *ipLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleAfter {
		return
	}
	l.lastSweep = now
	for host, b := range l.limiters {
		if now.Sub(b.lastSeen) >= l.idleAfter {
			delete(l.limiters, host)
		}
	}
}

func (l *ipLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *ipLimiter) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(r) {
			w.Header().Set("Retry-After", "60")
			writeMessage(w, http.StatusTooManyRequests, "too many login attempts, try again later")
			return
		}
		next(w, r)
	}
}
