package simulation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"greencart/internal/domain/driver"
	"greencart/internal/domain/order"
	"greencart/internal/domain/route"
	"greencart/internal/events"
	"greencart/internal/metrics"
	"greencart/pkg/errors"
	"greencart/pkg/logger"
)

// EventPublisher is the subset of events.Publisher the service needs
type EventPublisher interface {
	PublishSimulationCompleted(ctx context.Context, event *events.SimulationCompleted) error
}

// CacheInvalidator drops cached dashboard data after a new run is stored
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service runs simulations against stored data and keeps their history.
type Service struct {
	results   Repository
	drivers   driver.Repository
	orders    order.Repository
	routes    route.Repository
	publisher EventPublisher
	cache     CacheInvalidator
	log       *logger.Logger
}

// NewService constructs a simulation service. publisher and cache may be nil.
func NewService(
	results Repository,
	drivers driver.Repository,
	orders order.Repository,
	routes route.Repository,
	publisher EventPublisher,
	cache CacheInvalidator,
) *Service {
	return &Service{
		results:   results,
		drivers:   drivers,
		orders:    orders,
		routes:    routes,
		publisher: publisher,
		cache:     cache,
		log:       logger.Get().With("component", "simulation"),
	}
}

// Run validates the input, simulates every order and stores the result for userID.
func (s *Service) Run(ctx context.Context, userID uuid.UUID, in Input) (*Result, error) {
	if userID == uuid.Nil {
		return nil, errors.ErrUnauthorized
	}

	drivers, err := s.drivers.ListForSimulation(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load drivers")
	}
	if len(drivers) == 0 {
		return nil, errors.ErrNoDrivers
	}
	if err := in.Validate(len(drivers)); err != nil {
		return nil, err
	}

	orders, err := s.orders.List(ctx, order.Filter{})
	if err != nil {
		return nil, errors.Wrap(err, "load orders")
	}
	routes, err := s.routes.List(ctx, route.Filter{})
	if err != nil {
		return nil, errors.Wrap(err, "load routes")
	}
	byID := make(map[int64]*route.Route, len(routes))
	for _, r := range routes {
		byID[r.ID] = r
	}

	started := time.Now()
	outcome, err := Run(in, drivers, orders, byID)
	if err != nil {
		metrics.RecordSimulation(time.Since(started), 0, err)
		return nil, err
	}
	metrics.RecordSimulation(time.Since(started), outcome.EfficiencyScore.InexactFloat64(), nil)

	result := NewResult(userID, in, outcome)
	if err := s.results.Create(ctx, result); err != nil {
		return nil, errors.Wrap(err, "save simulation")
	}

	s.log.Infow("Simulation completed",
		"simulation_id", result.SimulationID,
		"user_id", userID,
		"drivers", in.AvailableDrivers,
		"orders", outcome.Summary.TotalOrders,
		"total_profit", result.TotalProfit.String(),
		"efficiency", result.EfficiencyScore.String(),
		"took", time.Since(started),
	)

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.log.Warnw("Failed to invalidate dashboard cache", "error", err)
		}
	}
	if s.publisher != nil {
		evt := &events.SimulationCompleted{
			BaseEvent:        events.NewBaseEvent(events.TypeSimulationCompleted, "simulation", userID.String()),
			SimulationID:     result.SimulationID,
			TotalProfit:      result.TotalProfit.StringFixed(2),
			EfficiencyScore:  result.EfficiencyScore.StringFixed(2),
			OnTimeDeliveries: result.OnTimeDeliveries,
			LateDeliveries:   result.LateDeliveries,
		}
		if err := s.publisher.PublishSimulationCompleted(ctx, evt); err != nil {
			s.log.Warnw("Failed to publish simulation event", "simulation_id", result.SimulationID, "error", err)
		}
	}

	return result, nil
}

// Get returns one of the user's runs
func (s *Service) Get(ctx context.Context, userID uuid.UUID, simulationID string) (*Result, error) {
	if simulationID == "" {
		return nil, errors.ErrInvalidInput
	}
	res, err := s.results.GetBySimulationID(ctx, simulationID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get simulation")
	}
	return res, nil
}

// History is one page of a user's runs
type History struct {
	Results    []*Result `json:"results"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// History returns a page of the user's runs, newest first. Pages start at 1.
func (s *Service) History(ctx context.Context, userID uuid.UUID, page, pageSize int) (*History, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	total, err := s.results.CountByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "count simulations")
	}
	results, err := s.results.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, errors.Wrap(err, "list simulations")
	}

	return &History{
		Results:    results,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}
