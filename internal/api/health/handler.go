package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"greencart/pkg/logger"
)

// Checker is a dependency that can report its health. The Postgres, Redis
// and S3 adapters satisfy it.
type Checker interface {
	Health(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Health(ctx context.Context) error { return f(ctx) }

// Handler provides health check endpoints
type Handler struct {
	log         *logger.Logger
	checks      map[string]Checker
	required    map[string]bool
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a new health check handler with no dependencies registered
func New(log *logger.Logger, serviceName, version string) *Handler {
	return &Handler{
		log:         log.With("component", "health"),
		checks:      make(map[string]Checker),
		required:    make(map[string]bool),
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// Register adds a dependency. Required dependencies gate readiness;
// optional ones only degrade /health.
func (h *Handler) Register(name string, c Checker, required bool) *Handler {
	h.checks[name] = c
	h.required[name] = required
	return h
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                     `json:"status"` // "healthy", "degraded", "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

func (c ComponentHealth) healthy() bool { return c.Status == "healthy" }

// HandleLiveness returns 200 OK if service is running
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HandleReadiness returns 503 unless every required dependency is healthy
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := h.RunChecks(ctx)
	status := h.status(checks)

	code := http.StatusOK
	for name, c := range checks {
		if h.required[name] && !c.healthy() {
			status.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}
	if code != http.StatusOK {
		h.log.Warnw("Readiness check failed", "checks", checks)
	}
	writeJSON(w, code, status)
}

// HandleHealth returns detailed health status. Any unhealthy dependency
// degrades the result; all of them failing makes it unhealthy.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	checks := h.RunChecks(ctx)
	status := h.status(checks)

	healthy := 0
	for _, c := range checks {
		if c.healthy() {
			healthy++
		}
	}

	code := http.StatusOK
	switch {
	case len(checks) > 0 && healthy == 0:
		status.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	case healthy < len(checks):
		status.Status = "degraded"
	}
	writeJSON(w, code, status)
}

// RunChecks probes every registered dependency concurrently
func (h *Handler) RunChecks(ctx context.Context) map[string]ComponentHealth {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]ComponentHealth, len(names))
	var mu sync.Mutex
	var g errgroup.Group

	for _, name := range names {
		checker := h.checks[name]
		g.Go(func() error {
			res := h.probe(ctx, name, checker)
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results
}

func (h *Handler) probe(ctx context.Context, name string, c Checker) ComponentHealth {
	start := time.Now()
	err := c.Health(ctx)
	elapsed := time.Since(start)

	if err != nil {
		h.log.Warnw("Health check failed", "dependency", name, "error", err, "elapsed", elapsed)
		return ComponentHealth{
			Status:       "unhealthy",
			ResponseTime: elapsed.String(),
			Error:        err.Error(),
		}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: elapsed.String()}
}

func (h *Handler) status(checks map[string]ComponentHealth) HealthStatus {
	return HealthStatus{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
