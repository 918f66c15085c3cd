package fakes

import (
	"context"
	"sort"

	"greencart/internal/domain/order"
	"greencart/pkg/errors"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository is an in-memory order.Repository
type OrderRepository struct {
	s *Store
}

func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("orders.Create"); err != nil {
		return err
	}
	return r.insert(o)
}

func (r *OrderRepository) CreateBatch(_ context.Context, orders []*order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("orders.CreateBatch"); err != nil {
		return err
	}
	for _, o := range orders {
		if err := r.insert(o); err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderRepository) insert(o *order.Order) error {
	if _, ok := r.s.routes[o.RouteID]; !ok {
		return errors.Wrapf(errors.ErrInvalidInput, "route %d does not exist", o.RouteID)
	}
	for _, existing := range r.s.orders {
		if existing.OrderID == o.OrderID {
			return errors.Wrap(errors.ErrAlreadyExists, "order already exists")
		}
	}
	o.ID = r.s.id()
	o.CreatedAt = r.s.Now()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	r.s.orders[o.ID] = &cp
	return nil
}

func (r *OrderRepository) GetByID(_ context.Context, id int64) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, errors.Wrap(errors.ErrNotFound, "order not found")
	}
	cp := *o
	if o.AssignedDriverID != nil {
		id := *o.AssignedDriverID
		cp.AssignedDriverID = &id
	}
	return &cp, nil
}

func (r *OrderRepository) List(_ context.Context, filter order.Filter) ([]*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*order.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		if filter.RouteID != nil {
			rt, ok := r.s.routes[o.RouteID]
			if !ok || rt.RouteID != *filter.RouteID {
				continue
			}
		}
		if filter.DriverID != nil && (o.AssignedDriverID == nil || *o.AssignedDriverID != *filter.DriverID) {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out, nil
}

func (r *OrderRepository) Update(_ context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[o.ID]; !ok {
		return errors.Wrap(errors.ErrNotFound, "order not found")
	}
	o.UpdatedAt = r.s.Now()
	cp := *o
	r.s.orders[o.ID] = &cp
	return nil
}

func (r *OrderRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[id]; !ok {
		return errors.Wrap(errors.ErrNotFound, "order not found")
	}
	delete(r.s.orders, id)
	return nil
}

func (r *OrderRepository) DeleteAll(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("orders.DeleteAll"); err != nil {
		return 0, err
	}
	n := int64(len(r.s.orders))
	r.s.orders = make(map[int64]*order.Order)
	return n, nil
}

func (r *OrderRepository) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.orders), nil
}

func (r *OrderRepository) CountByRoute(_ context.Context) (map[int64]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := make(map[int64]int)
	for _, o := range r.s.orders {
		counts[o.RouteID]++
	}
	return counts, nil
}
