package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"greencart/internal/api/health"
	"greencart/internal/dashboard"
	"greencart/internal/dataload"
	"greencart/internal/domain/driver"
	"greencart/internal/domain/order"
	"greencart/internal/domain/route"
	"greencart/internal/domain/simulation"
	"greencart/internal/domain/user"
	"greencart/internal/metrics"
	"greencart/pkg/auth"
	"greencart/pkg/errors"
	"greencart/pkg/logger"
)

// ServerConfig contains configuration for HTTP server
type ServerConfig struct {
	Port           int
	ServiceName    string
	Version        string
	LoginPerMinute int
}

// Authenticator verifies credentials. user.Service satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*user.User, error)
}

// TokenIssuer signs access tokens. auth.Issuer satisfies it.
type TokenIssuer interface {
	Issue(id auth.Identity) (string, *auth.Claims, error)
	TTL() time.Duration
}

// SimulationService runs and lists simulations. simulation.Service satisfies it.
type SimulationService interface {
	Run(ctx context.Context, userID uuid.UUID, in simulation.Input) (*simulation.Result, error)
	Get(ctx context.Context, userID uuid.UUID, simulationID string) (*simulation.Result, error)
	History(ctx context.Context, userID uuid.UUID, page, pageSize int) (*simulation.History, error)
}

// DashboardService serves KPIs. dashboard.Service satisfies it.
type DashboardService interface {
	Stats(ctx context.Context) (*dashboard.Stats, error)
	Charts(ctx context.Context) (*dashboard.Charts, error)
	Invalidate(ctx context.Context) error
}

// DataLoader reloads the CSV data set. dataload.Loader satisfies it.
type DataLoader interface {
	Load(ctx context.Context) (*dataload.Result, error)
}

// SuperuserProvisioner creates the admin account when missing. user.Service satisfies it.
type SuperuserProvisioner interface {
	EnsureSuperuser(ctx context.Context, spec user.SuperuserSpec) (bool, error)
}

// Deps are the collaborators the handlers call
type Deps struct {
	Users       Authenticator
	Superuser   SuperuserProvisioner
	Admin       user.SuperuserSpec
	Tokens      TokenIssuer
	Verifier    TokenVerifier
	Drivers     driver.Repository
	Routes      route.Repository
	Orders      order.Repository
	Simulations SimulationService
	Dashboard   DashboardService
	Loader      DataLoader
	Health      *health.Handler
}

// Server wraps HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates and configures HTTP server with all routes
func NewServer(cfg ServerConfig, deps Deps, log *logger.Logger) *Server {
	port := 8000
	if cfg.Port > 0 {
		port = cfg.Port
	}

	log.Infof("HTTP server configured on port %d", port)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      NewRouter(cfg, deps, log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		log:        log,
	}
}

// NewRouter registers every route. Paths are served with and without a
// trailing slash.
func NewRouter(cfg ServerConfig, deps Deps, log *logger.Logger) http.Handler {
	h := &handlers{
		deps:    deps,
		log:     log.With("component", "api"),
		limiter: newIPLimiter(cfg.LoginPerMinute),
		cfg:     cfg,
	}
	mux := http.NewServeMux()

	handle := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, fn)
		mux.HandleFunc(pattern+"/{$}", fn)
	}
	private := func(fn http.HandlerFunc) http.HandlerFunc {
		return requireAuth(deps.Verifier, h.log, fn)
	}

	// Health check endpoints (Kubernetes probes)
	if deps.Health != nil {
		mux.HandleFunc("GET /health", deps.Health.HandleHealth)
		mux.HandleFunc("GET /ready", deps.Health.HandleReadiness)
		mux.HandleFunc("GET /live", deps.Health.HandleLiveness)
	}

	// Prometheus metrics endpoint
	mux.Handle("GET /metrics", metrics.Handler())

	handle("POST /api/auth/login", h.limiter.wrap(h.login))
	handle("POST /api/auth/logout", private(h.logout))

	handle("GET /api/drivers", private(h.listDrivers))
	handle("POST /api/drivers", private(h.createDriver))
	handle("GET /api/drivers/{id}", private(h.getDriver))
	handle("PUT /api/drivers/{id}", private(h.updateDriver))
	handle("PATCH /api/drivers/{id}", private(h.patchDriver))
	handle("DELETE /api/drivers/{id}", private(h.deleteDriver))

	handle("GET /api/routes", private(h.listRoutes))
	handle("POST /api/routes", private(h.createRoute))
	handle("GET /api/routes/{id}", private(h.getRoute))
	handle("PUT /api/routes/{id}", private(h.updateRoute))
	handle("PATCH /api/routes/{id}", private(h.patchRoute))
	handle("DELETE /api/routes/{id}", private(h.deleteRoute))

	handle("GET /api/orders", private(h.listOrders))
	handle("POST /api/orders", private(h.createOrder))
	handle("GET /api/orders/{id}", private(h.getOrder))
	handle("PUT /api/orders/{id}", private(h.updateOrder))
	handle("PATCH /api/orders/{id}", private(h.patchOrder))
	handle("DELETE /api/orders/{id}", private(h.deleteOrder))

	handle("POST /api/simulation/run", private(h.runSimulation))
	handle("GET /api/simulation/history", private(h.simulationHistory))
	handle("GET /api/simulation/{id}", private(h.simulationDetail))

	handle("GET /api/dashboard/stats", private(h.dashboardStats))
	handle("GET /api/dashboard/charts", private(h.dashboardCharts))

	handle("POST /api/load-initial-data", private(h.loadInitialData))
	handle("GET /api/health", private(h.apiHealth))
	handle("GET /api/info", h.info)

	// Root endpoint (service info)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"service": cfg.ServiceName,
			"version": cfg.Version,
			"status":  "running",
		})
	})

	return recoverPanics(h.log, instrument(h.log, mux))
}

// Start begins listening for HTTP requests
// Blocks until server is stopped or encounters an error
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server failed")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
// Waits for active connections to complete within timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}

	s.log.Info("HTTP server stopped")
	return nil
}
