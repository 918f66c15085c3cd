package fakes

import (
	"context"
	"sort"
	"strings"

	"greencart/internal/domain/driver"
	"greencart/pkg/errors"
)

var _ driver.Repository = (*DriverRepository)(nil)

// DriverRepository is an in-memory driver.Repository
type DriverRepository struct {
	s *Store
}

func (r *DriverRepository) Create(_ context.Context, d *driver.Driver) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("drivers.Create"); err != nil {
		return err
	}
	r.insert(d)
	return nil
}

func (r *DriverRepository) CreateBatch(_ context.Context, drivers []*driver.Driver) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("drivers.CreateBatch"); err != nil {
		return err
	}
	for _, d := range drivers {
		r.insert(d)
	}
	return nil
}

func (r *DriverRepository) insert(d *driver.Driver) {
	d.ID = r.s.id()
	d.CreatedAt = r.s.Now()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	r.s.drivers[d.ID] = &cp
}

func (r *DriverRepository) GetByID(_ context.Context, id int64) (*driver.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.drivers[id]
	if !ok {
		return nil, errors.Wrap(errors.ErrNotFound, "driver not found")
	}
	cp := *d
	cp.PastWeekHours = append(driver.Hours(nil), d.PastWeekHours...)
	return &cp, nil
}

func (r *DriverRepository) List(_ context.Context, filter driver.Filter) ([]*driver.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*driver.Driver, 0, len(r.s.drivers))
	needle := strings.ToLower(filter.Search)
	for _, d := range r.s.drivers {
		if needle != "" && !strings.Contains(strings.ToLower(d.Name), needle) {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *DriverRepository) ListForSimulation(_ context.Context) ([]*driver.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*driver.Driver, 0, len(r.s.drivers))
	for _, d := range r.s.drivers {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *DriverRepository) Update(_ context.Context, d *driver.Driver) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.drivers[d.ID]; !ok {
		return errors.Wrap(errors.ErrNotFound, "driver not found")
	}
	d.UpdatedAt = r.s.Now()
	cp := *d
	r.s.drivers[d.ID] = &cp
	return nil
}

func (r *DriverRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.drivers[id]; !ok {
		return errors.Wrap(errors.ErrNotFound, "driver not found")
	}
	delete(r.s.drivers, id)
	r.unassign(id)
	return nil
}

func (r *DriverRepository) DeleteAll(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("drivers.DeleteAll"); err != nil {
		return 0, err
	}
	n := int64(len(r.s.drivers))
	for id := range r.s.drivers {
		r.unassign(id)
	}
	r.s.drivers = make(map[int64]*driver.Driver)
	return n, nil
}

func (r *DriverRepository) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("drivers.Count"); err != nil {
		return 0, err
	}
	return len(r.s.drivers), nil
}

// unassign mirrors ON DELETE SET NULL
func (r *DriverRepository) unassign(driverID int64) {
	for _, o := range r.s.orders {
		if o.AssignedDriverID != nil && *o.AssignedDriverID == driverID {
			o.AssignedDriverID = nil
		}
	}
}
