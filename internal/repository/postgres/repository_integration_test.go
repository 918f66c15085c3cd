package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greencart/internal/domain/driver"
	"greencart/internal/domain/order"
	"greencart/internal/domain/route"
	"greencart/internal/domain/simulation"
	"greencart/internal/domain/user"
	"greencart/internal/testsupport"
	"greencart/internal/testsupport/seeds"
	"greencart/pkg/errors"
)

func TestDriverRepository_CRUD(t *testing.T) {
	helper := testsupport.NewTestPostgres(t)
	repo := NewDriverRepository(helper.Tx())
	ctx := context.Background()

	d := &driver.Driver{Name: testsupport.UniqueDriverName(), ShiftHours: 7, PastWeekHours: driver.Hours{6, 7, 8, 9, 6, 7, 9}}
	require.NoError(t, repo.Create(ctx, d))
	require.NotZero(t, d.ID)

	got, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Name, got.Name)
	assert.Equal(t, driver.Hours{6, 7, 8, 9, 6, 7, 9}, got.PastWeekHours)
	assert.True(t, got.IsOverworked())

	got.ShiftHours = 4
	require.NoError(t, repo.Update(ctx, got))
	again, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, again.ShiftHours)

	require.NoError(t, repo.Delete(ctx, d.ID))
	_, err = repo.GetByID(ctx, d.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, d.ID), errors.ErrNotFound))
}

func TestDriverRepository_Search(t *testing.T) {
	helper := testsupport.NewTestPostgres(t)
	s := seeds.New(helper.Tx())
	repo := NewDriverRepository(helper.Tx())

	name := testsupport.UniqueName("Searchable")
	s.Driver().WithName(name).MustInsert()
	s.Driver().MustInsert()

	found, err := repo.List(context.Background(), driver.Filter{Search: name[:len(name)-1]})
	require.NoError(t, err)
	require.NotEmpty(t, found)
	assert.Equal(t, name, found[0].Name)
}

func TestRouteRepository_FilterAndCount(t *testing.T) {
	helper := testsupport.NewTestPostgres(t)
	s := seeds.New(helper.Tx())
	repo := NewRouteRepository(helper.Tx())
	ctx := context.Background()

	before, err := repo.CountByTraffic(ctx, route.TrafficHigh)
	require.NoError(t, err)

	high := s.Route().WithTraffic(route.TrafficHigh).WithDistance(12).MustInsert()
	s.Route().WithTraffic(route.TrafficLow).MustInsert()

	after, err := repo.CountByTraffic(ctx, route.TrafficHigh)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	byID, err := repo.GetByRouteID(ctx, high.RouteID)
	require.NoError(t, err)
	assert.Equal(t, high.ID, byID.ID)
	assert.Equal(t, 84, byID.TotalFuelCost())

	list, err := repo.List(ctx, route.Filter{TrafficLevel: route.TrafficHigh})
	require.NoError(t, err)
	for _, r := range list {
		assert.Equal(t, route.TrafficHigh, r.TrafficLevel)
	}
}

func TestRouteRepository_DuplicateRouteID(t *testing.T) {
	helper := testsupport.NewTestPostgres(t)
	repo := NewRouteRepository(helper.Tx())
	ctx := context.Background()

	id := testsupport.UniqueRouteID()
	require.NoError(t, repo.Create(ctx, &route.Route{RouteID: id, DistanceKM: 5, TrafficLevel: route.TrafficLow, BaseTimeMin: 20}))

	err := repo.Create(ctx, &route.Route{RouteID: id, DistanceKM: 6, TrafficLevel: route.TrafficLow, BaseTimeMin: 25})
	assert.True(t, errors.Is(err, errors.ErrAlreadyExists))
}

func TestOrderRepository_FiltersAndCascade(t *testing.T) {
	helper := testsupport.NewTestPostgres(t)
	s := seeds.New(helper.Tx())
	orders := NewOrderRepository(helper.Tx())
	routes := NewRouteRepository(helper.Tx())
	ctx := context.Background()

	fleet := s.Fleet().WithDrivers(1).WithOrders(3).MustBuild()
	assigned := s.Order().WithRoute(fleet.Route.ID).AssignedTo(fleet.Drivers[0].ID).MustInsert()

	routeID := fleet.Route.RouteID
	onRoute, err := orders.List(ctx, order.Filter{RouteID: &routeID})
	require.NoError(t, err)
	assert.Len(t, onRoute, 4)
	for i := 1; i < len(onRoute); i++ {
		assert.Less(t, onRoute[i-1].OrderID, onRoute[i].OrderID)
	}

	driverID := fleet.Drivers[0].ID
	byDriver, err := orders.List(ctx, order.Filter{DriverID: &driverID})
	require.NoError(t, err)
	require.Len(t, byDriver, 1)
	assert.Equal(t, assigned.OrderID, byDriver[0].OrderID)

	counts, err := orders.CountByRoute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, counts[fleet.Route.ID])

	require.NoError(t, routes.Delete(ctx, fleet.Route.ID))
	_, err = orders.GetByID(ctx, assigned.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestUserRepository_CreateIfAbsent(t *testing.T) {
	helper := testsupport.NewTestPostgres(t)
	repo := NewUserRepository(helper.Tx())
	ctx := context.Background()

	existing := seeds.New(helper.Tx()).User().AsStaff().MustInsert()

	now := time.Now()
	created, err := repo.CreateIfAbsent(ctx, &user.User{
		ID:        uuid.New(),
		Username:  existing.Username,
		Email:     "other@test.local",
		Role:      user.RoleManager,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := repo.GetByUsername(ctx, existing.Username)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)
	assert.True(t, got.IsStaff)
}

func TestSimulationRepository_History(t *testing.T) {
	helper := testsupport.NewTestPostgres(t)
	repo := NewSimulationRepository(helper.Tx())
	ctx := context.Background()

	owner := seeds.New(helper.Tx()).User().MustInsert()
	res := &simulation.Result{
		SimulationID:     simulation.NewSimulationID(),
		UserID:           owner.ID,
		AvailableDrivers: 2,
		RouteStartTime:   "09:00",
		MaxHoursPerDay:   8,
		TotalProfit:      decimal.NewFromInt(1500),
		EfficiencyScore:  decimal.NewFromInt(100),
		OnTimeDeliveries: 3,
		FuelBreakdown:    simulation.NewFuelBreakdown(),
	}
	require.NoError(t, repo.Create(ctx, res))

	got, err := repo.GetBySimulationID(ctx, res.SimulationID, owner.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1500).Equal(got.TotalProfit))

	_, err = repo.GetBySimulationID(ctx, res.SimulationID, uuid.New())
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	count, err := repo.CountByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
