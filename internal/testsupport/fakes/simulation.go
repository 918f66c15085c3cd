package fakes

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"greencart/internal/domain/simulation"
	"greencart/pkg/errors"
)

var _ simulation.Repository = (*SimulationRepository)(nil)

// SimulationRepository is an in-memory simulation.Repository
type SimulationRepository struct {
	s *Store
}

func (r *SimulationRepository) Create(_ context.Context, res *simulation.Result) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("simulations.Create"); err != nil {
		return err
	}
	for _, existing := range r.s.simulations {
		if existing.SimulationID == res.SimulationID {
			return errors.Wrap(errors.ErrAlreadyExists, "simulation already exists")
		}
	}
	res.ID = r.s.id()
	res.CreatedAt = r.s.Now()
	cp := *res
	r.s.simulations = append(r.s.simulations, &cp)
	return nil
}

func (r *SimulationRepository) GetBySimulationID(_ context.Context, simulationID string, userID uuid.UUID) (*simulation.Result, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, res := range r.s.simulations {
		if res.SimulationID == simulationID && res.UserID == userID {
			cp := *res
			return &cp, nil
		}
	}
	return nil, errors.Wrap(errors.ErrNotFound, "simulation not found")
}

func (r *SimulationRepository) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*simulation.Result, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*simulation.Result
	for _, res := range r.newestFirst() {
		if res.UserID == userID {
			out = append(out, res)
		}
	}
	return page(out, limit, offset), nil
}

func (r *SimulationRepository) CountByUser(_ context.Context, userID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, res := range r.s.simulations {
		if res.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *SimulationRepository) Recent(_ context.Context, limit int) ([]*simulation.Result, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return page(r.newestFirst(), limit, 0), nil
}

func (r *SimulationRepository) Totals(_ context.Context) (*simulation.Totals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := &simulation.Totals{AverageEfficiency: decimal.Zero, TotalProfit: decimal.Zero}
	effSum := decimal.Zero
	for _, res := range r.s.simulations {
		t.Simulations++
		t.TotalProfit = t.TotalProfit.Add(res.TotalProfit)
		t.OnTime += res.OnTimeDeliveries
		t.Late += res.LateDeliveries
		effSum = effSum.Add(res.EfficiencyScore)
	}
	if t.Simulations > 0 {
		t.AverageEfficiency = effSum.Div(decimal.NewFromInt(int64(t.Simulations))).Round(2)
	}
	return t, nil
}

func (r *SimulationRepository) DailySince(_ context.Context, since time.Time) ([]simulation.DailyPoint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	type agg struct {
		profit decimal.Decimal
		eff    decimal.Decimal
		n      int64
	}
	days := make(map[time.Time]*agg)
	for _, res := range r.s.simulations {
		if res.CreatedAt.Before(since) {
			continue
		}
		day := truncateDay(res.CreatedAt)
		a, ok := days[day]
		if !ok {
			a = &agg{profit: decimal.Zero, eff: decimal.Zero}
			days[day] = a
		}
		a.profit = a.profit.Add(res.TotalProfit)
		a.eff = a.eff.Add(res.EfficiencyScore)
		a.n++
	}

	out := make([]simulation.DailyPoint, 0, len(days))
	for day, a := range days {
		out = append(out, simulation.DailyPoint{
			Day:        day,
			Profit:     a.profit,
			Efficiency: a.eff.Div(decimal.NewFromInt(a.n)).Round(2),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func (r *SimulationRepository) newestFirst() []*simulation.Result {
	out := make([]*simulation.Result, 0, len(r.s.simulations))
	for _, res := range r.s.simulations {
		cp := *res
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
