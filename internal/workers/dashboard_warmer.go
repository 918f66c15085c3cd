package workers

import (
	"context"
	"time"

	"greencart/internal/dashboard"
	"greencart/pkg/errors"
)

// DashboardSource computes dashboard payloads, caching them as a side effect
type DashboardSource interface {
	Stats(ctx context.Context) (*dashboard.Stats, error)
	Charts(ctx context.Context) (*dashboard.Charts, error)
}

// DashboardWarmer keeps the dashboard cache populated so manager requests
// rarely pay for the aggregate queries
type DashboardWarmer struct {
	*BaseWorker
	source DashboardSource
}

// NewDashboardWarmer refreshes source every interval
func NewDashboardWarmer(source DashboardSource, interval time.Duration, enabled bool) *DashboardWarmer {
	return &DashboardWarmer{
		BaseWorker: NewBaseWorker("dashboard_warmer", interval, enabled),
		source:     source,
	}
}

// Run computes stats and charts once
func (w *DashboardWarmer) Run(ctx context.Context) error {
	if _, err := w.source.Stats(ctx); err != nil {
		return errors.Wrap(err, "warm dashboard stats")
	}
	if _, err := w.source.Charts(ctx); err != nil {
		return errors.Wrap(err, "warm dashboard charts")
	}
	return nil
}
