package metrics

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"greencart/pkg/logger"
)

// CustomCollector reads table sizes from Postgres at scrape time
type CustomCollector struct {
	log      *logger.Logger
	postgres *sqlx.DB
	timeout  time.Duration

	// Descriptors
	totalUsers       *prometheus.Desc
	totalDrivers     *prometheus.Desc
	routesByTraffic  *prometheus.Desc
	totalOrders      *prometheus.Desc
	totalSimulations *prometheus.Desc
}

// NewCustomCollector creates a new custom metrics collector
func NewCustomCollector(log *logger.Logger, postgres *sqlx.DB) *CustomCollector {
	return &CustomCollector{
		log:      log.With("component", "metrics_collector"),
		postgres: postgres,
		timeout:  5 * time.Second,

		totalUsers: prometheus.NewDesc(
			"greencart_users",
			"Number of registered users",
			nil, nil,
		),
		totalDrivers: prometheus.NewDesc(
			"greencart_drivers",
			"Number of drivers",
			nil, nil,
		),
		routesByTraffic: prometheus.NewDesc(
			"greencart_routes",
			"Number of routes by traffic level",
			[]string{"traffic_level"}, nil,
		),
		totalOrders: prometheus.NewDesc(
			"greencart_orders",
			"Number of orders by assignment state",
			[]string{"assigned"}, nil,
		),
		totalSimulations: prometheus.NewDesc(
			"greencart_simulations",
			"Number of stored simulation results",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *CustomCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalUsers
	ch <- c.totalDrivers
	ch <- c.routesByTraffic
	ch <- c.totalOrders
	ch <- c.totalSimulations
}

// Collect implements prometheus.Collector
func (c *CustomCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	c.collectCount(ctx, ch, c.totalUsers, "SELECT COUNT(*) FROM users")
	c.collectCount(ctx, ch, c.totalDrivers, "SELECT COUNT(*) FROM drivers")
	c.collectCount(ctx, ch, c.totalSimulations, "SELECT COUNT(*) FROM simulation_results")
	c.collectRoutes(ctx, ch)
	c.collectOrders(ctx, ch)
}

func (c *CustomCollector) collectCount(ctx context.Context, ch chan<- prometheus.Metric, desc *prometheus.Desc, query string) {
	var count int
	if err := c.postgres.GetContext(ctx, &count, query); err != nil {
		c.log.Warnw("Failed to collect count metric", "query", query, "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(count))
}

func (c *CustomCollector) collectRoutes(ctx context.Context, ch chan<- prometheus.Metric) {
	type trafficStat struct {
		Level string `db:"traffic_level"`
		Count int    `db:"count"`
	}

	var stats []trafficStat
	err := c.postgres.SelectContext(ctx, &stats, `
		SELECT traffic_level, COUNT(*) AS count
		FROM routes
		GROUP BY traffic_level
	`)
	if err != nil {
		c.log.Warnw("Failed to collect route stats", "error", err)
		return
	}

	for _, stat := range stats {
		ch <- prometheus.MustNewConstMetric(c.routesByTraffic, prometheus.GaugeValue, float64(stat.Count), stat.Level)
	}
}

func (c *CustomCollector) collectOrders(ctx context.Context, ch chan<- prometheus.Metric) {
	var stat struct {
		Assigned   int `db:"assigned"`
		Unassigned int `db:"unassigned"`
	}
	err := c.postgres.GetContext(ctx, &stat, `
		SELECT
			COUNT(*) FILTER (WHERE assigned_driver_id IS NOT NULL) AS assigned,
			COUNT(*) FILTER (WHERE assigned_driver_id IS NULL) AS unassigned
		FROM orders
	`)
	if err != nil {
		c.log.Warnw("Failed to collect order stats", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.totalOrders, prometheus.GaugeValue, float64(stat.Assigned), "true")
	ch <- prometheus.MustNewConstMetric(c.totalOrders, prometheus.GaugeValue, float64(stat.Unassigned), "false")
}

// RegisterCustomCollector registers the custom collector
func RegisterCustomCollector(collector *CustomCollector) {
	prometheus.MustRegister(collector)
}
