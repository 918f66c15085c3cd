package metrics

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	// Deploy metrics
	DeploySteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greencart_deploy_steps_total",
			Help: "Total number of deploy steps by outcome",
		},
		[]string{"step", "status"}, // status: ok|failed|skipped|contained
	)

	DeployStepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "greencart_deploy_step_duration_seconds",
			Help:    "Deploy step duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"step"},
	)

	DeployRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greencart_deploy_runs_total",
			Help: "Total number of deploy pipeline runs",
		},
		[]string{"status"}, // status: success|error
	)

	DeployLastRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "greencart_deploy_last_run_timestamp",
			Help: "Unix timestamp of the last deploy pipeline run",
		},
	)

	// Simulation metrics
	SimulationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greencart_simulation_runs_total",
			Help: "Total number of delivery simulations",
		},
		[]string{"status"},
	)

	SimulationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "greencart_simulation_duration_seconds",
			Help:    "Delivery simulation latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
	)

	SimulationEfficiency = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "greencart_simulation_last_efficiency_percent",
			Help: "Efficiency score of the most recent simulation",
		},
	)

	// Data load metrics
	DataLoadRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greencart_dataload_rows_total",
			Help: "Rows processed by the initial data loader",
		},
		[]string{"kind", "status"}, // status: loaded|rejected
	)

	// HTTP metrics
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greencart_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "code"},
	)

	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "greencart_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	// Cache metrics
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greencart_cache_lookups_total",
			Help: "Dashboard cache lookups",
		},
		[]string{"cache", "result"}, // result: hit|miss
	)

	// Worker metrics
	WorkerRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greencart_worker_runs_total",
			Help: "Background worker iterations",
		},
		[]string{"worker", "status"},
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "greencart_worker_run_duration_seconds",
			Help:    "Background worker iteration duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"worker"},
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greencart_kafka_messages_total",
			Help: "Total Kafka messages produced",
		},
		[]string{"topic", "status"},
	)
)

var registerOnce sync.Once

// Init registers all metrics with Prometheus. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			DeploySteps,
			DeployStepDuration,
			DeployRuns,
			DeployLastRun,
			SimulationRuns,
			SimulationDuration,
			SimulationEfficiency,
			DataLoadRows,
			HTTPRequests,
			HTTPLatency,
			CacheLookups,
			WorkerRuns,
			WorkerDuration,
			KafkaMessages,
		)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// PushDeploy sends the collectors a release touches to a Pushgateway under
// job. The deploy binary exits right after the pipeline, so nothing would
// ever scrape them.
func PushDeploy(ctx context.Context, gatewayURL, job string) error {
	return push.New(gatewayURL, job).
		Collector(DeploySteps).
		Collector(DeployStepDuration).
		Collector(DeployRuns).
		Collector(DeployLastRun).
		Collector(DataLoadRows).
		Collector(KafkaMessages).
		PushContext(ctx)
}

// RecordDeployStep records one deploy step outcome
func RecordDeployStep(step, status string, duration time.Duration) {
	DeploySteps.WithLabelValues(step, status).Inc()
	DeployStepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// RecordDeployRun records a finished deploy pipeline
func RecordDeployRun(succeeded bool) {
	DeployRuns.WithLabelValues(outcome(succeeded)).Inc()
	DeployLastRun.SetToCurrentTime()
}

// RecordSimulation records a simulation run
func RecordSimulation(latency time.Duration, efficiency float64, err error) {
	SimulationRuns.WithLabelValues(outcome(err == nil)).Inc()
	SimulationDuration.Observe(latency.Seconds())
	if err == nil {
		SimulationEfficiency.Set(efficiency)
	}
}

// RecordDataLoad records loaded and rejected rows of one kind
func RecordDataLoad(kind string, loaded, rejected int) {
	if loaded > 0 {
		DataLoadRows.WithLabelValues(kind, "loaded").Add(float64(loaded))
	}
	if rejected > 0 {
		DataLoadRows.WithLabelValues(kind, "rejected").Add(float64(rejected))
	}
}

// RecordHTTPRequest records a served HTTP request
func RecordHTTPRequest(route, method string, code int, latency time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(latency.Seconds())
}

// RecordCacheLookup records a cache hit or miss
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordWorkerRun records one background worker iteration
func RecordWorkerRun(worker string, took time.Duration, err error) {
	WorkerRuns.WithLabelValues(worker, outcome(err == nil)).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(took.Seconds())
}

// RecordKafkaMessage records a produced Kafka message
func RecordKafkaMessage(topic string, err error) {
	KafkaMessages.WithLabelValues(topic, outcome(err == nil)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
