package simulation_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greencart/internal/domain/driver"
	"greencart/internal/domain/order"
	"greencart/internal/domain/route"
	"greencart/internal/domain/simulation"
	"greencart/internal/events"
	"greencart/internal/testsupport/fakes"
	"greencart/pkg/errors"
)

type capturePublisher struct {
	events []*events.SimulationCompleted
}

func (p *capturePublisher) PublishSimulationCompleted(_ context.Context, e *events.SimulationCompleted) error {
	p.events = append(p.events, e)
	return nil
}

type countingCache struct {
	invalidations int
}

func (c *countingCache) Invalidate(context.Context) error {
	c.invalidations++
	return nil
}

type fixture struct {
	store     *fakes.Store
	svc       *simulation.Service
	publisher *capturePublisher
	cache     *countingCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := fakes.NewStore()
	f := &fixture{store: store, publisher: &capturePublisher{}, cache: &countingCache{}}
	f.svc = simulation.NewService(
		store.Simulations(),
		store.Drivers(),
		store.Orders(),
		store.Routes(),
		f.publisher,
		f.cache,
	)
	return f
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.Drivers().CreateBatch(ctx, []*driver.Driver{
		{Name: "Amit", ShiftHours: 8, PastWeekHours: driver.Hours{6, 7, 8}},
		{Name: "Priya", ShiftHours: 8, PastWeekHours: driver.Hours{7, 6}},
	}))
	rt := &route.Route{RouteID: 1, DistanceKM: 10, TrafficLevel: route.TrafficLow, BaseTimeMin: 30}
	require.NoError(t, f.store.Routes().Create(ctx, rt))
	for i := 1; i <= 4; i++ {
		require.NoError(t, f.store.Orders().Create(ctx, &order.Order{
			OrderID: i, ValueRs: 600, RouteID: rt.ID, DeliveryTime: "00:30",
		}))
	}
}

var validInput = simulation.Input{AvailableDrivers: 2, RouteStartTime: "9:00", MaxHoursPerDay: 8}

func TestService_RunStoresAndNotifies(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	userID := uuid.New()

	res, err := f.svc.Run(context.Background(), userID, validInput)
	require.NoError(t, err)

	assert.Equal(t, "09:00", res.RouteStartTime)
	assert.Equal(t, userID, res.UserID)
	assert.Equal(t, 4, res.OnTimeDeliveries)
	assert.Equal(t, 0, res.LateDeliveries)
	// 4 * (600 - 50 fuel)
	assert.Equal(t, "2200.00", res.TotalProfit.StringFixed(2))
	assert.Equal(t, "100.00", res.EfficiencyScore.StringFixed(2))

	stored, err := f.svc.Get(context.Background(), userID, res.SimulationID)
	require.NoError(t, err)
	assert.Equal(t, res.SimulationID, stored.SimulationID)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, res.SimulationID, f.publisher.events[0].SimulationID)
	assert.Equal(t, "2200.00", f.publisher.events[0].TotalProfit)
	assert.Equal(t, 1, f.cache.invalidations)
}

func TestService_RunErrors(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t)
	_, err := f.svc.Run(ctx, uuid.Nil, validInput)
	assert.ErrorIs(t, err, errors.ErrUnauthorized)

	_, err = f.svc.Run(ctx, uuid.New(), validInput)
	assert.ErrorIs(t, err, errors.ErrNoDrivers)

	f.seed(t)
	_, err = f.svc.Run(ctx, uuid.New(), simulation.Input{AvailableDrivers: 3, RouteStartTime: "25:00", MaxHoursPerDay: 0})
	var verr *errors.ValidationError
	require.True(t, errors.As(err, &verr))

	boom := errors.New("disk full")
	f.store.FailOn("simulations.Create", boom)
	_, err = f.svc.Run(ctx, uuid.New(), validInput)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, f.publisher.events)
	assert.Zero(t, f.cache.invalidations)
}

func TestService_HistoryIsPerUser(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	var last *simulation.Result
	for i := 0; i < 3; i++ {
		res, err := f.svc.Run(ctx, alice, validInput)
		require.NoError(t, err)
		last = res
	}
	_, err := f.svc.Run(ctx, bob, validInput)
	require.NoError(t, err)

	page, err := f.svc.History(ctx, alice, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Results, 2)

	page2, err := f.svc.History(ctx, alice, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page2.Results, 1)

	defaults, err := f.svc.History(ctx, alice, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, defaults.Page)
	assert.Equal(t, 10, defaults.PageSize)

	_, err = f.svc.Get(ctx, bob, last.SimulationID)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = f.svc.Get(ctx, alice, "")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}
