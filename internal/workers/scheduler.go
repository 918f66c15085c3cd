package workers

import (
	"context"
	"sync"
	"time"

	"greencart/internal/metrics"
	"greencart/pkg/errors"
	"greencart/pkg/logger"
)

const defaultStopTimeout = 30 * time.Second

// Scheduler runs registered workers on their own tickers
type Scheduler struct {
	workers     []Worker
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.RWMutex
	log         *logger.Logger
	started     bool
	stopTimeout time.Duration
}

// NewScheduler creates a scheduler. A zero stopTimeout uses 30 seconds.
func NewScheduler(stopTimeout time.Duration) *Scheduler {
	if stopTimeout <= 0 {
		stopTimeout = defaultStopTimeout
	}
	return &Scheduler{
		log:         logger.Get().With("component", "scheduler"),
		stopTimeout: stopTimeout,
	}
}

// RegisterWorker adds a worker. Registration after Start is ignored, and so
// is an enabled worker without a positive interval.
func (s *Scheduler) RegisterWorker(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.log.Warnw("Cannot register worker after scheduler has started", "worker", w.Name())
		return
	}
	if w.Enabled() && w.Interval() <= 0 {
		s.log.Errorw("Worker interval must be positive, not registering", "worker", w.Name(), "interval", w.Interval())
		return
	}

	s.workers = append(s.workers, w)
	s.log.Infow("Worker registered", "worker", w.Name(), "interval", w.Interval())
}

// Start launches every enabled worker
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.Wrap(errors.ErrInternal, "scheduler already started")
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	workers := append([]Worker(nil), s.workers...)
	s.mu.Unlock()

	running := 0
	for _, w := range workers {
		if !w.Enabled() {
			s.log.Infow("Skipping disabled worker", "worker", w.Name())
			continue
		}
		running++
		s.wg.Add(1)
		go s.runWorker(w)
	}

	s.log.Infow("Worker scheduler started", "workers", running)
	return nil
}

// Stop cancels the workers and waits for in-flight iterations to finish
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.Wrap(errors.ErrInternal, "scheduler not started")
	}
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
		s.log.Info("All workers stopped")
	case <-time.After(s.stopTimeout):
		err = errors.Wrapf(errors.ErrTimeout, "workers still running after %s", s.stopTimeout)
	}

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	return err
}

func (s *Scheduler) runWorker(w Worker) {
	defer s.wg.Done()

	ticker := time.NewTicker(w.Interval())
	defer ticker.Stop()

	// First iteration runs immediately
	s.execute(w)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.execute(w)
		}
	}
}

// execute runs one iteration, recovering panics and recording the outcome
func (s *Scheduler) execute(w Worker) {
	start := time.Now()
	var err error

	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("worker panicked: %v", r)
		}
		took := time.Since(start)
		metrics.RecordWorkerRun(w.Name(), took, err)
		if rec, ok := w.(healthRecorder); ok {
			if err != nil {
				rec.RecordError(err, took)
			} else {
				rec.RecordRun(took)
			}
		}
		if err != nil {
			s.log.Errorw("Worker iteration failed", "worker", w.Name(), "error", err, "duration", took)
		}
	}()

	err = w.Run(s.ctx)
}

// Workers returns the registered workers
func (s *Scheduler) Workers() []Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Worker(nil), s.workers...)
}

// IsRunning reports whether Start has been called without a matching Stop
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
