package fakes

import (
	"context"
	"sort"

	"greencart/internal/domain/route"
	"greencart/pkg/errors"
)

var _ route.Repository = (*RouteRepository)(nil)

// RouteRepository is an in-memory route.Repository
type RouteRepository struct {
	s *Store
}

func (r *RouteRepository) Create(_ context.Context, rt *route.Route) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("routes.Create"); err != nil {
		return err
	}
	return r.insert(rt)
}

func (r *RouteRepository) CreateBatch(_ context.Context, routes []*route.Route) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("routes.CreateBatch"); err != nil {
		return err
	}
	for _, rt := range routes {
		if err := r.insert(rt); err != nil {
			return err
		}
	}
	return nil
}

func (r *RouteRepository) insert(rt *route.Route) error {
	for _, existing := range r.s.routes {
		if existing.RouteID == rt.RouteID {
			return errors.Wrap(errors.ErrAlreadyExists, "route already exists")
		}
	}
	rt.ID = r.s.id()
	rt.CreatedAt = r.s.Now()
	rt.UpdatedAt = rt.CreatedAt
	cp := *rt
	r.s.routes[rt.ID] = &cp
	return nil
}

func (r *RouteRepository) GetByID(_ context.Context, id int64) (*route.Route, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rt, ok := r.s.routes[id]
	if !ok {
		return nil, errors.Wrap(errors.ErrNotFound, "route not found")
	}
	cp := *rt
	return &cp, nil
}

func (r *RouteRepository) GetByRouteID(_ context.Context, routeID int) (*route.Route, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rt := range r.s.routes {
		if rt.RouteID == routeID {
			cp := *rt
			return &cp, nil
		}
	}
	return nil, errors.Wrap(errors.ErrNotFound, "route not found")
}

func (r *RouteRepository) List(_ context.Context, filter route.Filter) ([]*route.Route, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*route.Route, 0, len(r.s.routes))
	for _, rt := range r.s.routes {
		if filter.TrafficLevel != "" && rt.TrafficLevel != filter.TrafficLevel {
			continue
		}
		cp := *rt
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RouteID < out[j].RouteID })
	return out, nil
}

func (r *RouteRepository) Update(_ context.Context, rt *route.Route) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.routes[rt.ID]; !ok {
		return errors.Wrap(errors.ErrNotFound, "route not found")
	}
	rt.UpdatedAt = r.s.Now()
	cp := *rt
	r.s.routes[rt.ID] = &cp
	return nil
}

func (r *RouteRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.routes[id]; !ok {
		return errors.Wrap(errors.ErrNotFound, "route not found")
	}
	delete(r.s.routes, id)
	r.cascade(id)
	return nil
}

func (r *RouteRepository) DeleteAll(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("routes.DeleteAll"); err != nil {
		return 0, err
	}
	n := int64(len(r.s.routes))
	for id := range r.s.routes {
		r.cascade(id)
	}
	r.s.routes = make(map[int64]*route.Route)
	return n, nil
}

func (r *RouteRepository) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.routes), nil
}

func (r *RouteRepository) CountByTraffic(_ context.Context, level route.TrafficLevel) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, rt := range r.s.routes {
		if rt.TrafficLevel == level {
			n++
		}
	}
	return n, nil
}

// cascade mirrors ON DELETE CASCADE on orders.route_id
func (r *RouteRepository) cascade(routeID int64) {
	for id, o := range r.s.orders {
		if o.RouteID == routeID {
			delete(r.s.orders, id)
		}
	}
}
