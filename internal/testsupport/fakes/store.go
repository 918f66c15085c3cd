// Package fakes provides in-memory implementations of the domain
// repositories for unit tests.
package fakes

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"greencart/internal/domain/driver"
	"greencart/internal/domain/order"
	"greencart/internal/domain/route"
	"greencart/internal/domain/simulation"
	"greencart/internal/domain/user"
)

// Store holds every table in memory. All repositories handed out by a Store
// share its data, so deleting a route removes its orders the way the
// foreign key does.
type Store struct {
	mu sync.Mutex

	users       map[uuid.UUID]*user.User
	drivers     map[int64]*driver.Driver
	routes      map[int64]*route.Route
	orders      map[int64]*order.Order
	simulations []*simulation.Result
	nextID      int64

	failures map[string]error

	// Now stamps created rows. Defaults to time.Now.
	Now func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:    make(map[uuid.UUID]*user.User),
		drivers:  make(map[int64]*driver.Driver),
		routes:   make(map[int64]*route.Route),
		orders:   make(map[int64]*order.Order),
		failures: make(map[string]error),
		Now:      time.Now,
	}
}

// FailOn makes the operation named "<table>.<Method>" return err,
// e.g. FailOn("orders.CreateBatch", boom).
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *Store) fail(op string) error {
	return s.failures[op]
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Users() *UserRepository             { return &UserRepository{s: s} }
func (s *Store) Drivers() *DriverRepository         { return &DriverRepository{s: s} }
func (s *Store) Routes() *RouteRepository           { return &RouteRepository{s: s} }
func (s *Store) Orders() *OrderRepository           { return &OrderRepository{s: s} }
func (s *Store) Simulations() *SimulationRepository { return &SimulationRepository{s: s} }

// WithinTx runs fn and restores the previous contents if it fails
func (s *Store) WithinTx(_ context.Context, fn func() error) error {
	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	if err := fn(); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

type snapshot struct {
	users       map[uuid.UUID]user.User
	drivers     map[int64]driver.Driver
	routes      map[int64]route.Route
	orders      map[int64]order.Order
	simulations []*simulation.Result
	nextID      int64
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		users:       make(map[uuid.UUID]user.User, len(s.users)),
		drivers:     make(map[int64]driver.Driver, len(s.drivers)),
		routes:      make(map[int64]route.Route, len(s.routes)),
		orders:      make(map[int64]order.Order, len(s.orders)),
		simulations: append([]*simulation.Result(nil), s.simulations...),
		nextID:      s.nextID,
	}
	for k, v := range s.users {
		snap.users[k] = *v
	}
	for k, v := range s.drivers {
		snap.drivers[k] = *v
	}
	for k, v := range s.routes {
		snap.routes[k] = *v
	}
	for k, v := range s.orders {
		snap.orders[k] = *v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.users = make(map[uuid.UUID]*user.User, len(snap.users))
	for k, v := range snap.users {
		s.users[k] = &v
	}
	s.drivers = make(map[int64]*driver.Driver, len(snap.drivers))
	for k, v := range snap.drivers {
		s.drivers[k] = &v
	}
	s.routes = make(map[int64]*route.Route, len(snap.routes))
	for k, v := range snap.routes {
		s.routes[k] = &v
	}
	s.orders = make(map[int64]*order.Order, len(snap.orders))
	for k, v := range snap.orders {
		s.orders[k] = &v
	}
	s.simulations = snap.simulations
	s.nextID = snap.nextID
}
