package api

import (
	"net/http"
	"strconv"

	"greencart/internal/domain/driver"
	"greencart/internal/domain/order"
	"greencart/internal/domain/route"
	"greencart/pkg/errors"
)

// Drivers

func (h *handlers) listDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.deps.Drivers.List(r.Context(), driver.Filter{Search: r.URL.Query().Get("search")})
	if err != nil {
		writeError(r.Context(), w, h.log, "failed to list drivers", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(drivers))
}

func (h *handlers) createDriver(w http.ResponseWriter, r *http.Request) {
	var d driver.Driver
	if err := decodeJSON(r, &d); err != nil {
		writeError(r.Context(), w, h.log, "invalid driver", err)
		return
	}
	d.ID = 0
	if err := d.Validate(); err != nil {
		writeError(r.Context(), w, h.log, "invalid driver", err)
		return
	}
	if err := h.deps.Drivers.Create(r.Context(), &d); err != nil {
		writeError(r.Context(), w, h.log, "failed to create driver", err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *handlers) getDriver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, h.log, "invalid driver id", err)
		return
	}
	d, err := h.deps.Drivers.GetByID(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, h.log, "failed to fetch driver", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handlers) updateDriver(w http.ResponseWriter, r *http.Request) {
	h.saveDriver(w, r, false)
}

func (h *handlers) patchDriver(w http.ResponseWriter, r *http.Request) {
	h.saveDriver(w, r, true)
}

// saveDriver handles PUT (full body) and PATCH (body applied onto the
// stored driver)
func (h *handlers) saveDriver(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, h.log, "invalid driver id", err)
		return
	}
	d := &driver.Driver{}
	if partial {
		if d, err = h.deps.Drivers.GetByID(r.Context(), id); err != nil {
			writeError(r.Context(), w, h.log, "failed to fetch driver", err)
			return
		}
	}
	if err := decodeJSON(r, d); err != nil {
		writeError(r.Context(), w, h.log, "invalid driver", err)
		return
	}
	d.ID = id
	if err := d.Validate(); err != nil {
		writeError(r.Context(), w, h.log, "invalid driver", err)
		return
	}
	if err := h.deps.Drivers.Update(r.Context(), d); err != nil {
		writeError(r.Context(), w, h.log, "failed to update driver", err)
		return
	}
	h.getDriver(w, r)
}

func (h *handlers) deleteDriver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, h.log, "invalid driver id", err)
		return
	}
	if err := h.deps.Drivers.Delete(r.Context(), id); err != nil {
		writeError(r.Context(), w, h.log, "failed to delete driver", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Routes

func (h *handlers) listRoutes(w http.ResponseWriter, r *http.Request) {
	var filter route.Filter
	if raw := r.URL.Query().Get("traffic_level"); raw != "" {
		level, err := route.ParseTrafficLevel(raw)
		if err != nil {
			writeError(r.Context(), w, h.log, "invalid traffic level",
				errors.NewValidationError("traffic_level", "must be Low, Medium or High", raw))
			return
		}
		filter.TrafficLevel = level
	}

	routes, err := h.deps.Routes.List(r.Context(), filter)
	if err != nil {
		writeError(r.Context(), w, h.log, "failed to list routes", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(routes))
}

func (h *handlers) createRoute(w http.ResponseWriter, r *http.Request) {
	var rt route.Route
	if err := decodeJSON(r, &rt); err != nil {
		writeError(r.Context(), w, h.log, "invalid route", err)
		return
	}
	rt.ID = 0
	if !h.normalizeRoute(w, r, &rt) {
		return
	}
	if err := h.deps.Routes.Create(r.Context(), &rt); err != nil {
		writeError(r.Context(), w, h.log, "failed to create route", err)
		return
	}
	writeJSON(w, http.StatusCreated, rt)
}

func (h *handlers) getRoute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, h.log, "invalid route id", err)
		return
	}
	rt, err := h.deps.Routes.GetByID(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, h.log, "failed to fetch route", err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (h *handlers) updateRoute(w http.ResponseWriter, r *http.Request) {
	h.saveRoute(w, r, false)
}

func (h *handlers) patchRoute(w http.ResponseWriter, r *http.Request) {
	h.saveRoute(w, r, true)
}

func (h *handlers) saveRoute(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, h.log, "invalid route id", err)
		return
	}
	rt := &route.Route{}
	if partial {
		if rt, err = h.deps.Routes.GetByID(r.Context(), id); err != nil {
			writeError(r.Context(), w, h.log, "failed to fetch route", err)
			return
		}
	}
	if err := decodeJSON(r, rt); err != nil {
		writeError(r.Context(), w, h.log, "invalid route", err)
		return
	}
	rt.ID = id
	if !h.normalizeRoute(w, r, rt) {
		return
	}
	if err := h.deps.Routes.Update(r.Context(), rt); err != nil {
		writeError(r.Context(), w, h.log, "failed to update route", err)
		return
	}
	h.getRoute(w, r)
}

func (h *handlers) deleteRoute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, h.log, "invalid route id", err)
		return
	}
	if err := h.deps.Routes.Delete(r.Context(), id); err != nil {
		writeError(r.Context(), w, h.log, "failed to delete route", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// normalizeRoute validates rt and canonicalizes its traffic level casing.
// It writes the error response and returns false when rt is invalid.
func (h *handlers) normalizeRoute(w http.ResponseWriter, r *http.Request, rt *route.Route) bool {
	if err := rt.Validate(); err != nil {
		writeError(r.Context(), w, h.log, "invalid route", err)
		return false
	}
	rt.TrafficLevel, _ = route.ParseTrafficLevel(string(rt.TrafficLevel))
	return true
}

// Orders

func (h *handlers) listOrders(w http.ResponseWriter, r *http.Request) {
	var filter order.Filter
	q := r.URL.Query()
	if raw := q.Get("route_id"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(r.Context(), w, h.log, "invalid route filter",
				errors.NewValidationError("route_id", "must be an integer", raw))
			return
		}
		filter.RouteID = &v
	}
	if raw := q.Get("driver_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(r.Context(), w, h.log, "invalid driver filter",
				errors.NewValidationError("driver_id", "must be an integer", raw))
			return
		}
		filter.DriverID = &v
	}

	orders, err := h.deps.Orders.List(r.Context(), filter)
	if err != nil {
		writeError(r.Context(), w, h.log, "failed to list orders", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(orders))
}

func (h *handlers) createOrder(w http.ResponseWriter, r *http.Request) {
	var o order.Order
	if err := decodeJSON(r, &o); err != nil {
		writeError(r.Context(), w, h.log, "invalid order", err)
		return
	}
	o.ID = 0
	if !h.validateOrder(w, r, &o) {
		return
	}
	if err := h.deps.Orders.Create(r.Context(), &o); err != nil {
		writeError(r.Context(), w, h.log, "failed to create order", err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *handlers) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, h.log, "invalid order id", err)
		return
	}
	o, err := h.deps.Orders.GetByID(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, h.log, "failed to fetch order", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *handlers) updateOrder(w http.ResponseWriter, r *http.Request) {
	h.saveOrder(w, r, false)
}

func (h *handlers) patchOrder(w http.ResponseWriter, r *http.Request) {
	h.saveOrder(w, r, true)
}

func (h *handlers) saveOrder(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, h.log, "invalid order id", err)
		return
	}
	o := &order.Order{}
	if partial {
		if o, err = h.deps.Orders.GetByID(r.Context(), id); err != nil {
			writeError(r.Context(), w, h.log, "failed to fetch order", err)
			return
		}
	}
	if err := decodeJSON(r, o); err != nil {
		writeError(r.Context(), w, h.log, "invalid order", err)
		return
	}
	o.ID = id
	if !h.validateOrder(w, r, o) {
		return
	}
	if err := h.deps.Orders.Update(r.Context(), o); err != nil {
		writeError(r.Context(), w, h.log, "failed to update order", err)
		return
	}
	h.getOrder(w, r)
}

func (h *handlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, h.log, "invalid order id", err)
		return
	}
	if err := h.deps.Orders.Delete(r.Context(), id); err != nil {
		writeError(r.Context(), w, h.log, "failed to delete order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// validateOrder checks field ranges and that the referenced route and driver
// exist. It writes the error response and returns false when o is invalid.
func (h *handlers) validateOrder(w http.ResponseWriter, r *http.Request, o *order.Order) bool {
	if err := o.Validate(); err != nil {
		writeError(r.Context(), w, h.log, "invalid order", err)
		return false
	}

	var errs errors.MultiError
	if _, err := h.deps.Routes.GetByID(r.Context(), o.RouteID); err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			writeError(r.Context(), w, h.log, "failed to check route", err)
			return false
		}
		errs.Add(errors.NewValidationError("route", "route does not exist", o.RouteID))
	}
	if o.AssignedDriverID != nil {
		if _, err := h.deps.Drivers.GetByID(r.Context(), *o.AssignedDriverID); err != nil {
			if !errors.Is(err, errors.ErrNotFound) {
				writeError(r.Context(), w, h.log, "failed to check driver", err)
				return false
			}
			errs.Add(errors.NewValidationError("assigned_driver", "driver does not exist", *o.AssignedDriverID))
		}
	}
	if err := errs.ToError(); err != nil {
		writeError(r.Context(), w, h.log, "invalid order", err)
		return false
	}
	return true
}

// nonNil keeps empty listings encoded as [] rather than null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
