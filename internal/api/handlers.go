package api

import (
	"net/http"
	"time"

	"greencart/internal/domain/simulation"
	"greencart/pkg/auth"
	"greencart/pkg/errors"
	"greencart/pkg/logger"
)

type handlers struct {
	deps    Deps
	log     *logger.Logger
	limiter *ipLimiter
	cfg     ServerConfig
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginResponse struct {
	Access    string    `json:"access"`
	TokenType string    `json:"token_type"`
	ExpiresIn int64     `json:"expires_in"`
	User      loginUser `json:"user"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, h.log, "invalid login request", err)
		return
	}

	u, err := h.deps.Users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.log.Infow("Login rejected", "username", req.Username, "error", err)
		writeError(r.Context(), w, h.log, "login failed", err)
		return
	}

	token, _, err := h.deps.Tokens.Issue(auth.Identity{UserID: u.ID, Username: u.Username, Staff: u.IsStaff})
	if err != nil {
		writeError(r.Context(), w, h.log, "failed to issue token", err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Access:    token,
		TokenType: "Bearer",
		ExpiresIn: int64(h.deps.Tokens.TTL() / time.Second),
		User: loginUser{
			ID:        u.ID.String(),
			Username:  u.Username,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		},
	})
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	if err := h.deps.Verifier.Revoke(r.Context(), claims); err != nil {
		writeError(r.Context(), w, h.log, "failed to revoke token", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

type simulationResponse struct {
	SimulationID string             `json:"simulation_id"`
	Results      *simulation.Result `json:"results"`
	Message      string             `json:"message"`
}

func (h *handlers) runSimulation(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	var in simulation.Input
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, h.log, "invalid simulation input", err)
		return
	}

	res, err := h.deps.Simulations.Run(r.Context(), claims.UserID, in)
	if err != nil {
		writeError(r.Context(), w, h.log, "Simulation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, simulationResponse{
		SimulationID: res.SimulationID,
		Results:      res,
		Message:      "Simulation completed successfully",
	})
}

func (h *handlers) simulationHistory(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(r.Context(), w, h.log, "invalid page", err)
		return
	}
	pageSize, err := queryInt(r, "page_size", 10)
	if err != nil {
		writeError(r.Context(), w, h.log, "invalid page size", err)
		return
	}

	history, err := h.deps.Simulations.History(r.Context(), claims.UserID, page, pageSize)
	if err != nil {
		writeError(r.Context(), w, h.log, "failed to fetch simulation history", err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *handlers) simulationDetail(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	res, err := h.deps.Simulations.Get(r.Context(), claims.UserID, r.PathValue("id"))
	if errors.Is(err, errors.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Simulation not found")
		return
	}
	if err != nil {
		writeError(r.Context(), w, h.log, "failed to fetch simulation", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) dashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.deps.Dashboard.Stats(r.Context())
	if err != nil {
		writeError(r.Context(), w, h.log, "Failed to fetch dashboard stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handlers) dashboardCharts(w http.ResponseWriter, r *http.Request) {
	charts, err := h.deps.Dashboard.Charts(r.Context())
	if err != nil {
		writeError(r.Context(), w, h.log, "Failed to fetch chart data", err)
		return
	}
	writeJSON(w, http.StatusOK, charts)
}

type loadResponse struct {
	DriversLoaded    int      `json:"drivers_loaded"`
	RoutesLoaded     int      `json:"routes_loaded"`
	OrdersLoaded     int      `json:"orders_loaded"`
	Errors           []string `json:"errors"`
	SuperuserCreated bool     `json:"superuser_created"`
}

// loadInitialData reloads the CSV data set and makes sure the admin exists.
// Only staff may trigger it.
func (h *handlers) loadInitialData(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	if !claims.Staff {
		writeMessage(w, http.StatusForbidden, "staff access required")
		return
	}

	created, err := h.deps.Superuser.EnsureSuperuser(r.Context(), h.deps.Admin)
	if err != nil {
		writeError(r.Context(), w, h.log, "Failed to provision admin user", err)
		return
	}

	res, err := h.deps.Loader.Load(r.Context())
	if err != nil {
		h.log.ErrorWithContext(r.Context(), errors.Wrap(err, "load initial data"), map[string]string{"component": "api"})
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Failed to load initial data", Details: err.Error()})
		return
	}

	if err := h.deps.Dashboard.Invalidate(r.Context()); err != nil {
		h.log.Warnw("Failed to invalidate dashboard cache", "error", err)
	}

	errs := res.Errors
	if errs == nil {
		errs = []string{}
	}
	writeJSON(w, http.StatusOK, loadResponse{
		DriversLoaded:    res.DriversLoaded,
		RoutesLoaded:     res.RoutesLoaded,
		OrdersLoaded:     res.OrdersLoaded,
		Errors:           errs,
		SuperuserCreated: created,
	})
}

func (h *handlers) apiHealth(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	database := "connected"
	if h.deps.Health != nil {
		if c, ok := h.deps.Health.RunChecks(r.Context())["postgres"]; ok && c.Status != "healthy" {
			database = "disconnected"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  database,
		"user":      claims.Username,
	})
}

func (h *handlers) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":        "GreenCart Logistics API",
		"version":     h.cfg.Version,
		"description": "Delivery simulation and KPI dashboard API",
		"endpoints": map[string]interface{}{
			"auth": map[string]string{
				"login":  "/api/auth/login/",
				"logout": "/api/auth/logout/",
			},
			"drivers": "/api/drivers/",
			"routes":  "/api/routes/",
			"orders":  "/api/orders/",
			"simulation": map[string]string{
				"run":     "/api/simulation/run/",
				"history": "/api/simulation/history/",
				"detail":  "/api/simulation/{simulation_id}/",
			},
			"dashboard": map[string]string{
				"stats":  "/api/dashboard/stats/",
				"charts": "/api/dashboard/charts/",
			},
			"utility": map[string]string{
				"load_data": "/api/load-initial-data/",
				"health":    "/api/health/",
				"info":      "/api/info/",
			},
		},
	})
}
