package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greencart/internal/dashboard"
	"greencart/pkg/errors"
)

type mockWorker struct {
	*BaseWorker
	runCount int32
	runFunc  func(ctx context.Context) error
}

func newMockWorker(name string, interval time.Duration, enabled bool) *mockWorker {
	return &mockWorker{
		BaseWorker: NewBaseWorker(name, interval, enabled),
		runFunc:    func(ctx context.Context) error { return nil },
	}
}

func (m *mockWorker) Run(ctx context.Context) error {
	atomic.AddInt32(&m.runCount, 1)
	if m.runFunc != nil {
		return m.runFunc(ctx)
	}
	return nil
}

func (m *mockWorker) runs() int {
	return int(atomic.LoadInt32(&m.runCount))
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler := NewScheduler(time.Second)

	worker := newMockWorker("test-worker", 100*time.Millisecond, true)
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.IsRunning())

	time.Sleep(250 * time.Millisecond)

	require.NoError(t, scheduler.Stop())
	assert.False(t, scheduler.IsRunning())

	// immediate run plus at least one tick
	assert.GreaterOrEqual(t, worker.runs(), 2)
	assert.GreaterOrEqual(t, worker.Health().RunCount, int64(2))
}

func TestScheduler_DisabledWorker(t *testing.T) {
	scheduler := NewScheduler(time.Second)

	enabled := newMockWorker("enabled-worker", 100*time.Millisecond, true)
	disabled := newMockWorker("disabled-worker", 100*time.Millisecond, false)
	scheduler.RegisterWorker(enabled)
	scheduler.RegisterWorker(disabled)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.Greater(t, enabled.runs(), 0)
	assert.Equal(t, 0, disabled.runs())
}

func TestScheduler_RecordsErrorsAndPanics(t *testing.T) {
	scheduler := NewScheduler(time.Second)

	failing := newMockWorker("failing", time.Hour, true)
	failing.runFunc = func(context.Context) error { return errors.New("boom") }
	panicking := newMockWorker("panicking", time.Hour, true)
	panicking.runFunc = func(context.Context) error { panic("nil map") }

	scheduler.RegisterWorker(failing)
	scheduler.RegisterWorker(panicking)

	require.NoError(t, scheduler.Start(context.Background()))
	require.Eventually(t, func() bool {
		return failing.Health().ErrorCount == 1 && panicking.Health().ErrorCount == 1
	}, time.Second, 10*time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.EqualError(t, failing.Health().LastError, "boom")
	assert.Contains(t, panicking.Health().LastError.Error(), "nil map")
}

func TestScheduler_StopTimeout(t *testing.T) {
	scheduler := NewScheduler(50 * time.Millisecond)

	release := make(chan struct{})
	defer close(release)
	stuck := newMockWorker("stuck", time.Hour, true)
	stuck.runFunc = func(context.Context) error {
		<-release
		return nil
	}
	scheduler.RegisterWorker(stuck)

	require.NoError(t, scheduler.Start(context.Background()))
	require.Eventually(t, func() bool { return stuck.runs() == 1 }, time.Second, 5*time.Millisecond)

	err := scheduler.Stop()
	assert.ErrorIs(t, err, errors.ErrTimeout)
}

func TestScheduler_CannotStartTwice(t *testing.T) {
	scheduler := NewScheduler(time.Second)
	scheduler.RegisterWorker(newMockWorker("test-worker", 100*time.Millisecond, true))

	require.NoError(t, scheduler.Start(context.Background()))
	assert.Error(t, scheduler.Start(context.Background()))
	require.NoError(t, scheduler.Stop())

	assert.Error(t, scheduler.Stop())
}

func TestScheduler_RegisterAfterStartIgnored(t *testing.T) {
	scheduler := NewScheduler(time.Second)
	scheduler.RegisterWorker(newMockWorker("worker-1", time.Hour, true))

	require.NoError(t, scheduler.Start(context.Background()))
	scheduler.RegisterWorker(newMockWorker("worker-2", time.Hour, true))
	require.NoError(t, scheduler.Stop())

	workers := scheduler.Workers()
	require.Len(t, workers, 1)
	assert.Equal(t, "worker-1", workers[0].Name())
}

func TestScheduler_RejectsNonPositiveInterval(t *testing.T) {
	scheduler := NewScheduler(time.Second)
	scheduler.RegisterWorker(newMockWorker("zero", 0, true))
	scheduler.RegisterWorker(newMockWorker("negative", -time.Second, true))
	scheduler.RegisterWorker(newMockWorker("off", 0, false))

	workers := scheduler.Workers()
	require.Len(t, workers, 1)
	assert.Equal(t, "off", workers[0].Name())

	require.NoError(t, scheduler.Start(context.Background()))
	require.NoError(t, scheduler.Stop())
}

type stubSource struct {
	stats, charts int32
	err           error
}

func (s *stubSource) Stats(context.Context) (*dashboard.Stats, error) {
	atomic.AddInt32(&s.stats, 1)
	return &dashboard.Stats{}, s.err
}

func (s *stubSource) Charts(context.Context) (*dashboard.Charts, error) {
	atomic.AddInt32(&s.charts, 1)
	return &dashboard.Charts{}, nil
}

func TestDashboardWarmer(t *testing.T) {
	src := &stubSource{}
	w := NewDashboardWarmer(src, time.Minute, true)

	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, int32(1), src.stats)
	assert.Equal(t, int32(1), src.charts)
	assert.Equal(t, "dashboard_warmer", w.Name())

	src.err = errors.New("db down")
	err := w.Run(context.Background())
	assert.ErrorContains(t, err, "warm dashboard stats")
	assert.Equal(t, int32(1), src.charts)
}
