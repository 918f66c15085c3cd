package workers

import (
	"context"
	"sync"
	"time"

	"greencart/pkg/logger"
)

// Worker is a periodic background job
type Worker interface {
	// Name identifies the worker in logs and metrics
	Name() string

	// Run performs one iteration and returns. The scheduler calls it again
	// after Interval.
	Run(ctx context.Context) error

	Interval() time.Duration
	Enabled() bool
}

// healthRecorder is implemented by workers embedding BaseWorker
type healthRecorder interface {
	RecordRun(duration time.Duration)
	RecordError(err error, duration time.Duration)
}

// Health reports how a worker has been doing
type Health struct {
	LastRun     time.Time
	LastError   error
	RunCount    int64
	ErrorCount  int64
	AvgDuration time.Duration
	Enabled     bool
}

// BaseWorker carries the name, schedule and run statistics shared by workers
type BaseWorker struct {
	name     string
	interval time.Duration
	log      *logger.Logger

	mu            sync.RWMutex
	enabled       bool
	lastRun       time.Time
	lastError     error
	runCount      int64
	errorCount    int64
	totalDuration time.Duration
}

// NewBaseWorker creates a base worker
func NewBaseWorker(name string, interval time.Duration, enabled bool) *BaseWorker {
	return &BaseWorker{
		name:     name,
		interval: interval,
		enabled:  enabled,
		log:      logger.Get().With("worker", name),
	}
}

func (w *BaseWorker) Name() string {
	return w.name
}

func (w *BaseWorker) Interval() time.Duration {
	return w.interval
}

func (w *BaseWorker) Enabled() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.enabled
}

// SetEnabled toggles the worker; takes effect on the next scheduler start
func (w *BaseWorker) SetEnabled(enabled bool) {
	w.mu.Lock()
	w.enabled = enabled
	w.mu.Unlock()
	w.log.Infow("Worker enabled state changed", "enabled", enabled)
}

// Log returns the worker's logger
func (w *BaseWorker) Log() *logger.Logger {
	return w.log
}

// Health returns a snapshot of the run statistics
func (w *BaseWorker) Health() Health {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var avg time.Duration
	if w.runCount > 0 {
		avg = time.Duration(int64(w.totalDuration) / w.runCount)
	}

	return Health{
		LastRun:     w.lastRun,
		LastError:   w.lastError,
		RunCount:    w.runCount,
		ErrorCount:  w.errorCount,
		AvgDuration: avg,
		Enabled:     w.enabled,
	}
}

// RecordRun records a successful iteration
func (w *BaseWorker) RecordRun(duration time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.lastRun = time.Now()
	w.runCount++
	w.totalDuration += duration
	w.lastError = nil
}

// RecordError records a failed iteration
func (w *BaseWorker) RecordError(err error, duration time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.lastRun = time.Now()
	w.runCount++
	w.errorCount++
	w.totalDuration += duration
	w.lastError = err
}
