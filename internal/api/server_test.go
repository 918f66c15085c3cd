package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greencart/internal/adapters/memcache"
	"greencart/internal/api"
	"greencart/internal/dashboard"
	"greencart/internal/dataload"
	"greencart/internal/domain/driver"
	"greencart/internal/domain/order"
	"greencart/internal/domain/route"
	"greencart/internal/domain/simulation"
	"greencart/internal/domain/user"
	"greencart/internal/testsupport/fakes"
	"greencart/pkg/auth"
	"greencart/pkg/logger"
)

var admin = user.SuperuserSpec{
	Username: "admin",
	Email:    "admin@greencart.test",
	Password: "admin123",
}

type testAPI struct {
	handler http.Handler
	store   *fakes.Store
	users   *user.Service
	dataDir string
}

func newTestAPI(t *testing.T, loginPerMinute int) *testAPI {
	t.Helper()
	store := fakes.NewStore()
	users := user.NewService(store.Users())
	_, err := users.EnsureSuperuser(context.Background(), admin)
	require.NoError(t, err)

	issuer := auth.NewIssuer("test-secret", "greencart", time.Hour)
	cache := memcache.New()
	dash := dashboard.NewService(store.Drivers(), store.Routes(), store.Orders(), store.Simulations(), cache, time.Minute)

	dataDir := t.TempDir()
	tx := func(ctx context.Context, fn func(dataload.Repos) error) error {
		return store.WithinTx(ctx, func() error {
			return fn(dataload.Repos{Drivers: store.Drivers(), Routes: store.Routes(), Orders: store.Orders()})
		})
	}

	deps := api.Deps{
		Users:       users,
		Superuser:   users,
		Admin:       admin,
		Tokens:      issuer,
		Verifier:    auth.NewVerifier(issuer, auth.NewDenylist(cache)),
		Drivers:     store.Drivers(),
		Routes:      store.Routes(),
		Orders:      store.Orders(),
		Simulations: simulation.NewService(store.Simulations(), store.Drivers(), store.Orders(), store.Routes(), nil, dash),
		Dashboard:   dash,
		Loader:      dataload.NewLoader(dataDir, tx, nil),
	}
	cfg := api.ServerConfig{ServiceName: "greencart", Version: "test", LoginPerMinute: loginPerMinute}

	return &testAPI{
		handler: api.NewRouter(cfg, deps, logger.Nop()),
		store:   store,
		users:   users,
		dataDir: dataDir,
	}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/login/", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Access string `json:"access"`
	}
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.Access)
	return resp.Access
}

func (a *testAPI) seedFleet(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, a.store.Drivers().Create(ctx, &driver.Driver{Name: "Amit", ShiftHours: 6, PastWeekHours: driver.Hours{6, 8}}))
	require.NoError(t, a.store.Drivers().Create(ctx, &driver.Driver{Name: "Priya", ShiftHours: 8, PastWeekHours: driver.Hours{9, 9}}))
	rt := &route.Route{RouteID: 1, DistanceKM: 10, TrafficLevel: route.TrafficLow, BaseTimeMin: 30}
	require.NoError(t, a.store.Routes().Create(ctx, rt))
	for i := 1; i <= 3; i++ {
		require.NoError(t, a.store.Orders().Create(ctx, &order.Order{
			OrderID:      i,
			ValueRs:      800,
			RouteID:      rt.ID,
			DeliveryTime: "00:30",
		}))
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestLogin(t *testing.T) {
	a := newTestAPI(t, 100)

	rec := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "admin",
		"password": "admin123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Access    string `json:"access"`
		TokenType string `json:"token_type"`
		ExpiresIn int    `json:"expires_in"`
		User      struct {
			Username string `json:"username"`
			Email    string `json:"email"`
		} `json:"user"`
	}
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.Access)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 3600, resp.ExpiresIn)
	assert.Equal(t, "admin", resp.User.Username)
	assert.Equal(t, "admin@greencart.test", resp.User.Email)
}

func TestLogin_Rejections(t *testing.T) {
	a := newTestAPI(t, 100)

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"wrong password", map[string]string{"username": "admin", "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"username": "ghost", "password": "admin123"}, http.StatusUnauthorized},
		{"missing password", map[string]string{"username": "admin"}, http.StatusBadRequest},
		{"unknown field", map[string]string{"user": "admin"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPost, "/api/auth/login/", "", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestLogin_RateLimited(t *testing.T) {
	a := newTestAPI(t, 2)
	body := map[string]string{"username": "admin", "password": "wrong"}

	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodPost, "/api/auth/login/", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodPost, "/api/auth/login/", "", body).Code)

	rec := a.do(t, http.MethodPost, "/api/auth/login/", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestAuthRequired(t *testing.T) {
	a := newTestAPI(t, 100)

	rec := a.do(t, http.MethodGet, "/api/drivers/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"authentication credentials were not provided"}`, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/drivers/", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid or expired token"}`, rec.Body.String())
}

func TestLogout_RevokesToken(t *testing.T) {
	a := newTestAPI(t, 100)
	token := a.login(t, "admin", "admin123")

	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/health/", token, nil).Code)

	rec := a.do(t, http.MethodPost, "/api/auth/logout/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Successfully logged out"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/api/health/", token, nil).Code)
}

func TestDriverCRUD(t *testing.T) {
	a := newTestAPI(t, 100)
	token := a.login(t, "admin", "admin123")

	rec := a.do(t, http.MethodPost, "/api/drivers/", token, map[string]interface{}{
		"name":            "Amit",
		"shift_hours":     6,
		"past_week_hours": []int{6, 8, 7},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created driver.Driver
	decode(t, rec, &created)
	require.NotZero(t, created.ID)
	path := "/api/drivers/" + strconv.FormatInt(created.ID, 10) + "/"

	rec = a.do(t, http.MethodPut, path, token, map[string]interface{}{
		"name":            "Amit Kumar",
		"shift_hours":     7,
		"past_week_hours": []int{6, 8, 7},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated driver.Driver
	decode(t, rec, &updated)
	assert.Equal(t, "Amit Kumar", updated.Name)
	assert.Equal(t, 7, updated.ShiftHours)

	rec = a.do(t, http.MethodGet, "/api/drivers?search=kumar", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []driver.Driver
	decode(t, rec, &listed)
	assert.Len(t, listed, 1)

	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, path, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, path, token, nil).Code)
}

func TestPatch_AppliesPartialBodies(t *testing.T) {
	a := newTestAPI(t, 100)
	token := a.login(t, "admin", "admin123")
	a.seedFleet(t)
	ctx := context.Background()

	drivers, err := a.store.Drivers().List(ctx, driver.Filter{})
	require.NoError(t, err)
	driverPath := "/api/drivers/" + strconv.FormatInt(drivers[0].ID, 10)

	rec := a.do(t, http.MethodPatch, driverPath, token, map[string]interface{}{"shift_hours": 9})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var d driver.Driver
	decode(t, rec, &d)
	assert.Equal(t, "Amit", d.Name)
	assert.Equal(t, 9, d.ShiftHours)
	assert.Equal(t, driver.Hours{6, 8}, d.PastWeekHours)

	rec = a.do(t, http.MethodPatch, driverPath+"/", token, map[string]interface{}{"shift_hours": 0})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	stored, err := a.store.Drivers().GetByID(ctx, drivers[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 9, stored.ShiftHours, "rejected patch must not be saved")

	routes, err := a.store.Routes().List(ctx, route.Filter{})
	require.NoError(t, err)
	rec = a.do(t, http.MethodPatch, "/api/routes/"+strconv.FormatInt(routes[0].ID, 10), token,
		map[string]interface{}{"traffic_level": "High"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rt route.Route
	decode(t, rec, &rt)
	assert.Equal(t, route.TrafficHigh, rt.TrafficLevel)
	assert.Equal(t, 10, rt.DistanceKM)
	assert.Equal(t, 1, rt.RouteID)

	orders, err := a.store.Orders().List(ctx, order.Filter{})
	require.NoError(t, err)
	rec = a.do(t, http.MethodPatch, "/api/orders/"+strconv.FormatInt(orders[0].ID, 10), token,
		map[string]interface{}{"value_rs": 1500})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var o order.Order
	decode(t, rec, &o)
	assert.Equal(t, 1500, o.ValueRs)
	assert.Equal(t, "00:30", o.DeliveryTime)
	assert.Equal(t, routes[0].ID, o.RouteID)

	assert.Equal(t, http.StatusNotFound,
		a.do(t, http.MethodPatch, "/api/orders/999999", token, map[string]interface{}{"value_rs": 1}).Code)
}

func TestCreateDriver_Validation(t *testing.T) {
	a := newTestAPI(t, 100)
	token := a.login(t, "admin", "admin123")

	rec := a.do(t, http.MethodPost, "/api/drivers/", token, map[string]interface{}{
		"name":        "",
		"shift_hours": 13,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error   string `json:"error"`
		Details []struct {
			Field string `json:"field"`
		} `json:"details"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "validation failed", body.Error)
	fields := make([]string, 0, len(body.Details))
	for _, d := range body.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"name", "shift_hours"}, fields)
}

func TestRoutes_TrafficFilterAndDuplicate(t *testing.T) {
	a := newTestAPI(t, 100)
	token := a.login(t, "admin", "admin123")

	for i, level := range []string{"low", "High"} {
		rec := a.do(t, http.MethodPost, "/api/routes/", token, map[string]interface{}{
			"route_id":      i + 1,
			"distance_km":   10,
			"traffic_level": level,
			"base_time_min": 30,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := a.do(t, http.MethodGet, "/api/routes/?traffic_level=low", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var routes []route.Route
	decode(t, rec, &routes)
	require.Len(t, routes, 1)
	assert.Equal(t, route.TrafficLow, routes[0].TrafficLevel)

	rec = a.do(t, http.MethodPost, "/api/routes/", token, map[string]interface{}{
		"route_id":      1,
		"distance_km":   5,
		"traffic_level": "Medium",
		"base_time_min": 10,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/api/routes/?traffic_level=jammed", token, nil).Code)
}

func TestOrders_ReferenceChecks(t *testing.T) {
	a := newTestAPI(t, 100)
	token := a.login(t, "admin", "admin123")
	a.seedFleet(t)

	rec := a.do(t, http.MethodPost, "/api/orders/", token, map[string]interface{}{
		"order_id":      10,
		"value_rs":      1200,
		"route":         9999,
		"delivery_time": "1:15",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "route does not exist")

	routes, err := a.store.Routes().List(context.Background(), route.Filter{})
	require.NoError(t, err)
	rec = a.do(t, http.MethodPost, "/api/orders/", token, map[string]interface{}{
		"order_id":      10,
		"value_rs":      1200,
		"route":         routes[0].ID,
		"delivery_time": "1:15",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created order.Order
	decode(t, rec, &created)
	assert.Equal(t, "01:15", created.DeliveryTime)

	rec = a.do(t, http.MethodGet, "/api/orders/?route_id=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []order.Order
	decode(t, rec, &orders)
	assert.Len(t, orders, 4)

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/api/orders/?driver_id=x", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/api/orders/abc/", token, nil).Code)
}

func TestSimulation_RunHistoryDetail(t *testing.T) {
	a := newTestAPI(t, 100)
	token := a.login(t, "admin", "admin123")
	a.seedFleet(t)

	rec := a.do(t, http.MethodPost, "/api/simulation/run/", token, map[string]interface{}{
		"available_drivers": 2,
		"route_start_time":  "09:00",
		"max_hours_per_day": 8,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var run struct {
		SimulationID string `json:"simulation_id"`
		Message      string `json:"message"`
		Results      struct {
			OnTime int `json:"on_time_deliveries"`
			Late   int `json:"late_deliveries"`
		} `json:"results"`
	}
	decode(t, rec, &run)
	require.NotEmpty(t, run.SimulationID)
	assert.Equal(t, "Simulation completed successfully", run.Message)
	assert.Equal(t, 3, run.Results.OnTime+run.Results.Late)

	rec = a.do(t, http.MethodGet, "/api/simulation/history/?page=1&page_size=5", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Total   int `json:"total"`
		Results []struct {
			SimulationID string `json:"simulation_id"`
		} `json:"results"`
	}
	decode(t, rec, &history)
	assert.Equal(t, 1, history.Total)
	require.Len(t, history.Results, 1)
	assert.Equal(t, run.SimulationID, history.Results[0].SimulationID)

	rec = a.do(t, http.MethodGet, "/api/simulation/"+run.SimulationID+"/", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/simulation/missing1/", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Simulation not found"}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/api/simulation/history/?page=0", token, nil).Code)
}

func TestSimulation_InvalidInput(t *testing.T) {
	a := newTestAPI(t, 100)
	token := a.login(t, "admin", "admin123")

	body := map[string]interface{}{
		"available_drivers": 3,
		"route_start_time":  "09:00",
		"max_hours_per_day": 8,
	}
	rec := a.do(t, http.MethodPost, "/api/simulation/run/", token, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no drivers on record")

	a.seedFleet(t)
	rec = a.do(t, http.MethodPost, "/api/simulation/run/", token, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "available_drivers")
}

func TestDashboard_ReflectsNewRuns(t *testing.T) {
	a := newTestAPI(t, 100)
	token := a.login(t, "admin", "admin123")
	a.seedFleet(t)

	rec := a.do(t, http.MethodGet, "/api/dashboard/stats/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		TotalDrivers     int `json:"total_drivers"`
		TotalSimulations int `json:"total_simulations"`
	}
	decode(t, rec, &stats)
	assert.Equal(t, 2, stats.TotalDrivers)
	assert.Equal(t, 0, stats.TotalSimulations)

	rec = a.do(t, http.MethodPost, "/api/simulation/run/", token, map[string]interface{}{
		"available_drivers": 1,
		"route_start_time":  "09:00",
		"max_hours_per_day": 8,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/dashboard/stats/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &stats)
	assert.Equal(t, 1, stats.TotalSimulations)

	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/dashboard/charts/", token, nil).Code)
}

func TestLoadInitialData(t *testing.T) {
	a := newTestAPI(t, 100)
	files := map[string]string{
		dataload.DriversFile: "name,shift_hours,past_week_hours\nAmit,6,6|8|7|7|7|6|10\n",
		dataload.RoutesFile:  "route_id,distance_km,traffic_level,base_time_min\n1,25,High,125\n",
		dataload.OrdersFile:  "order_id,value_rs,route_id,delivery_time\n1,2594,1,02:07\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(a.dataDir, name), []byte(body), 0o644))
	}

	staff := a.login(t, "admin", "admin123")
	rec := a.do(t, http.MethodPost, "/api/load-initial-data/", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"drivers_loaded": 1,
		"routes_loaded": 1,
		"orders_loaded": 1,
		"errors": [],
		"superuser_created": false
	}`, rec.Body.String())

	require.NoError(t, a.users.Create(context.Background(), &user.User{Username: "dispatcher", IsActive: true}, "pass1234"))
	manager := a.login(t, "dispatcher", "pass1234")
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPost, "/api/load-initial-data/", manager, nil).Code)
}

func TestPublicEndpoints(t *testing.T) {
	a := newTestAPI(t, 100)

	rec := a.do(t, http.MethodGet, "/api/info/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var info struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	decode(t, rec, &info)
	assert.Equal(t, "GreenCart Logistics API", info.Name)
	assert.Equal(t, "test", info.Version)

	rec = a.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"service":"greencart","version":"test","status":"running"}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/unknown/", "", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, a.do(t, http.MethodDelete, "/api/info/", "", nil).Code)
}
