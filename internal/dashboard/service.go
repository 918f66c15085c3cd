// Package dashboard aggregates KPIs and chart series across stored data.
package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"greencart/internal/domain/driver"
	"greencart/internal/domain/order"
	"greencart/internal/domain/route"
	"greencart/internal/domain/simulation"
	"greencart/internal/metrics"
	"greencart/pkg/errors"
	"greencart/pkg/logger"
)

const (
	statsKey  = "greencart:dashboard:stats"
	chartsKey = "greencart:dashboard:charts"

	recentLimit = 5
	trendDays   = 7
)

// Cache stores JSON values with a TTL. Both the Redis client and the
// in-process memcache satisfy it. Get returns errors.ErrNotFound on a miss.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// Stats are the headline KPIs
type Stats struct {
	TotalDrivers      int                  `json:"total_drivers"`
	TotalRoutes       int                  `json:"total_routes"`
	TotalOrders       int                  `json:"total_orders"`
	TotalSimulations  int                  `json:"total_simulations"`
	RecentSimulations []*simulation.Result `json:"recent_simulations"`
	AverageEfficiency decimal.Decimal      `json:"average_efficiency"`
	TotalRevenue      decimal.Decimal      `json:"total_revenue"`
	HighTrafficRoutes int                  `json:"high_traffic_routes"`
	OverworkedDrivers int                  `json:"overworked_drivers"`
}

// OnTimeVsLate sums deliveries across every stored run
type OnTimeVsLate struct {
	OnTime int `json:"on_time"`
	Late   int `json:"late"`
}

// ProfitPoint is one day of the profit trend
type ProfitPoint struct {
	Date   string          `json:"date"`
	Profit decimal.Decimal `json:"profit"`
}

// EfficiencyPoint is one day of the efficiency trend
type EfficiencyPoint struct {
	Date       string          `json:"date"`
	Efficiency decimal.Decimal `json:"efficiency"`
}

// Charts feeds the dashboard graphs
type Charts struct {
	OnTimeVsLate      OnTimeVsLate                           `json:"on_time_vs_late"`
	FuelCostByTraffic map[route.TrafficLevel]decimal.Decimal `json:"fuel_cost_by_traffic"`
	ProfitTrend       []ProfitPoint                          `json:"profit_trend"`
	EfficiencyTrend   []EfficiencyPoint                      `json:"efficiency_trend"`
}

// Service computes dashboard data and caches it for ttl
type Service struct {
	drivers     driver.Repository
	routes      route.Repository
	orders      order.Repository
	simulations simulation.Repository
	cache       Cache
	ttl         time.Duration
	now         func() time.Time
	log         *logger.Logger
}

// NewService creates a dashboard service. A nil cache or zero ttl disables caching.
func NewService(
	drivers driver.Repository,
	routes route.Repository,
	orders order.Repository,
	simulations simulation.Repository,
	cache Cache,
	ttl time.Duration,
) *Service {
	return &Service{
		drivers:     drivers,
		routes:      routes,
		orders:      orders,
		simulations: simulations,
		cache:       cache,
		ttl:         ttl,
		now:         time.Now,
		log:         logger.Get().With("component", "dashboard"),
	}
}

// SetClock overrides the time source used for trend windows
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Stats returns the headline KPIs
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var cached Stats
	if s.lookup(ctx, statsKey, &cached) {
		return &cached, nil
	}

	stats, err := s.computeStats(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, statsKey, stats)
	return stats, nil
}

// Charts returns the dashboard chart series
func (s *Service) Charts(ctx context.Context) (*Charts, error) {
	var cached Charts
	if s.lookup(ctx, chartsKey, &cached) {
		return &cached, nil
	}

	charts, err := s.computeCharts(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, chartsKey, charts)
	return charts, nil
}

// Invalidate drops cached stats and charts
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, statsKey, chartsKey); err != nil {
		return errors.Wrap(err, "invalidate dashboard cache")
	}
	return nil
}

func (s *Service) computeStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	var err error

	if stats.TotalDrivers, err = s.drivers.Count(ctx); err != nil {
		return nil, errors.Wrap(err, "count drivers")
	}
	if stats.TotalRoutes, err = s.routes.Count(ctx); err != nil {
		return nil, errors.Wrap(err, "count routes")
	}
	if stats.TotalOrders, err = s.orders.Count(ctx); err != nil {
		return nil, errors.Wrap(err, "count orders")
	}
	if stats.HighTrafficRoutes, err = s.routes.CountByTraffic(ctx, route.TrafficHigh); err != nil {
		return nil, errors.Wrap(err, "count high traffic routes")
	}

	drivers, err := s.drivers.List(ctx, driver.Filter{})
	if err != nil {
		return nil, errors.Wrap(err, "list drivers")
	}
	for _, d := range drivers {
		if d.IsOverworked() {
			stats.OverworkedDrivers++
		}
	}

	totals, err := s.simulations.Totals(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "simulation totals")
	}
	stats.TotalSimulations = totals.Simulations
	stats.AverageEfficiency = totals.AverageEfficiency.Round(2)
	stats.TotalRevenue = totals.TotalProfit.Round(2)

	if stats.RecentSimulations, err = s.simulations.Recent(ctx, recentLimit); err != nil {
		return nil, errors.Wrap(err, "recent simulations")
	}
	return stats, nil
}

func (s *Service) computeCharts(ctx context.Context) (*Charts, error) {
	totals, err := s.simulations.Totals(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "simulation totals")
	}

	fuel, err := s.fuelByTraffic(ctx)
	if err != nil {
		return nil, err
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(trendDays - 1))
	points, err := s.simulations.DailySince(ctx, since)
	if err != nil {
		return nil, errors.Wrap(err, "daily simulation totals")
	}
	byDay := make(map[string]simulation.DailyPoint, len(points))
	for _, p := range points {
		byDay[p.Day.UTC().Format(time.DateOnly)] = p
	}

	charts := &Charts{
		OnTimeVsLate:      OnTimeVsLate{OnTime: totals.OnTime, Late: totals.Late},
		FuelCostByTraffic: fuel,
		ProfitTrend:       make([]ProfitPoint, 0, trendDays),
		EfficiencyTrend:   make([]EfficiencyPoint, 0, trendDays),
	}
	for day := since; !day.After(today); day = day.AddDate(0, 0, 1) {
		date := day.Format(time.DateOnly)
		p := byDay[date]
		charts.ProfitTrend = append(charts.ProfitTrend, ProfitPoint{Date: date, Profit: p.Profit.Round(2)})
		charts.EfficiencyTrend = append(charts.EfficiencyTrend, EfficiencyPoint{Date: date, Efficiency: p.Efficiency.Round(2)})
	}
	return charts, nil
}

// fuelByTraffic prices every route's fuel once per order on it
func (s *Service) fuelByTraffic(ctx context.Context) (map[route.TrafficLevel]decimal.Decimal, error) {
	routes, err := s.routes.List(ctx, route.Filter{})
	if err != nil {
		return nil, errors.Wrap(err, "list routes")
	}
	counts, err := s.orders.CountByRoute(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "count orders by route")
	}

	out := map[route.TrafficLevel]decimal.Decimal{
		route.TrafficLow:    decimal.Zero,
		route.TrafficMedium: decimal.Zero,
		route.TrafficHigh:   decimal.Zero,
	}
	for _, r := range routes {
		n := counts[r.ID]
		if n == 0 {
			continue
		}
		cost := decimal.NewFromInt(int64(r.TotalFuelCost() * n))
		out[r.TrafficLevel] = out[r.TrafficLevel].Add(cost)
	}
	return out, nil
}

func (s *Service) lookup(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil || s.ttl <= 0 {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	hit := err == nil
	metrics.RecordCacheLookup("dashboard", hit)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		s.log.Warnw("Dashboard cache read failed", "key", key, "error", err)
	}
	return hit
}

func (s *Service) store(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.log.Warnw("Dashboard cache write failed", "key", key, "error", err)
	}
}
