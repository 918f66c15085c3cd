package dataload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"greencart/internal/domain/driver"
	"greencart/internal/domain/order"
	"greencart/internal/domain/route"
	"greencart/internal/events"
	"greencart/internal/metrics"
	"greencart/pkg/errors"
	"greencart/pkg/logger"
)

// Repos are the repositories a load writes through
type Repos struct {
	Drivers driver.Repository
	Routes  route.Repository
	Orders  order.Repository
}

// TxFunc runs fn with repositories bound to a single transaction.
// An error returned by fn rolls the transaction back.
type TxFunc func(ctx context.Context, fn func(Repos) error) error

// EventPublisher is the subset of events.Publisher the loader needs
type EventPublisher interface {
	PublishDataLoaded(ctx context.Context, event *events.DataLoaded) error
}

// Result summarizes one load
type Result struct {
	DriversLoaded int      `json:"drivers_loaded"`
	RoutesLoaded  int      `json:"routes_loaded"`
	OrdersLoaded  int      `json:"orders_loaded"`
	Errors        []string `json:"errors"`
}

// Loader replaces drivers, routes and orders with the contents of CSV files
type Loader struct {
	dir       string
	tx        TxFunc
	publisher EventPublisher
	log       *logger.Logger
}

// NewLoader creates a loader reading from dir. publisher may be nil.
func NewLoader(dir string, tx TxFunc, publisher EventPublisher) *Loader {
	return &Loader{
		dir:       dir,
		tx:        tx,
		publisher: publisher,
		log:       logger.Get().With("component", "dataload"),
	}
}

// Dir returns the directory the loader reads from
func (l *Loader) Dir() string {
	return l.dir
}

// Load reads drivers.csv, routes.csv and orders.csv from the data directory.
//
// Each file is optional, and so is the directory itself. A present file
// replaces every existing row of its kind; replacing routes also removes
// their orders. Malformed rows are skipped and reported in Result.Errors. All writes happen in one
// transaction, so a database error leaves the previous data untouched.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	info, err := os.Stat(l.dir)
	if os.IsNotExist(err) {
		l.log.Warnw("No data files found", "dir", l.dir)
		return &Result{Errors: []string{}}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "data directory %s", l.dir)
	}
	if !info.IsDir() {
		return nil, errors.Newf("data directory %s is not a directory", l.dir)
	}

	res := &Result{Errors: []string{}}
	started := time.Now()

	drivers, haveDrivers, err := parseDrivers(filepath.Join(l.dir, DriversFile), res)
	if err != nil {
		return nil, err
	}
	routes, haveRoutes, err := parseRoutes(filepath.Join(l.dir, RoutesFile), res)
	if err != nil {
		return nil, err
	}
	orders, haveOrders, err := parseOrders(filepath.Join(l.dir, OrdersFile), res)
	if err != nil {
		return nil, err
	}

	if !haveDrivers && !haveRoutes && !haveOrders {
		l.log.Warnw("No data files found", "dir", l.dir)
		return res, nil
	}

	var loadedOrders []*order.Order
	err = l.tx(ctx, func(repos Repos) error {
		if haveOrders {
			if _, err := repos.Orders.DeleteAll(ctx); err != nil {
				return errors.Wrap(err, "clear orders")
			}
		}
		if haveRoutes {
			if _, err := repos.Routes.DeleteAll(ctx); err != nil {
				return errors.Wrap(err, "clear routes")
			}
		}
		if haveDrivers {
			if _, err := repos.Drivers.DeleteAll(ctx); err != nil {
				return errors.Wrap(err, "clear drivers")
			}
			if err := repos.Drivers.CreateBatch(ctx, drivers); err != nil {
				return errors.Wrap(err, "insert drivers")
			}
		}
		if haveRoutes {
			if err := repos.Routes.CreateBatch(ctx, routes); err != nil {
				return errors.Wrap(err, "insert routes")
			}
		}
		if haveOrders {
			stored, err := repos.Routes.List(ctx, route.Filter{})
			if err != nil {
				return errors.Wrap(err, "list routes")
			}
			loadedOrders = resolveRoutes(orders, stored, res)
			if err := repos.Orders.CreateBatch(ctx, loadedOrders); err != nil {
				return errors.Wrap(err, "insert orders")
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "load initial data")
	}

	res.DriversLoaded = len(drivers)
	res.RoutesLoaded = len(routes)
	res.OrdersLoaded = len(loadedOrders)

	l.log.Infow("Initial data loaded",
		"drivers", res.DriversLoaded,
		"routes", res.RoutesLoaded,
		"orders", res.OrdersLoaded,
		"row_errors", len(res.Errors),
		"took", time.Since(started),
	)
	for _, rowErr := range res.Errors {
		l.log.Warnw("Skipped data row", "error", rowErr)
	}
	metrics.RecordDataLoad("drivers", res.DriversLoaded, 0)
	metrics.RecordDataLoad("routes", res.RoutesLoaded, 0)
	metrics.RecordDataLoad("orders", res.OrdersLoaded, 0)
	metrics.RecordDataLoad("rows", 0, len(res.Errors))

	if l.publisher != nil {
		evt := &events.DataLoaded{
			BaseEvent:     events.NewBaseEvent(events.TypeDataLoaded, "dataload", ""),
			DriversLoaded: res.DriversLoaded,
			RoutesLoaded:  res.RoutesLoaded,
			OrdersLoaded:  res.OrdersLoaded,
			Errors:        append([]string(nil), res.Errors...),
		}
		if err := l.publisher.PublishDataLoaded(ctx, evt); err != nil {
			l.log.Warnw("Failed to publish data loaded event", "error", err)
		}
	}

	return res, nil
}

// pendingOrder is a parsed order row still keyed by the business route id
type pendingOrder struct {
	order   *order.Order
	routeID int
}

func resolveRoutes(pending []pendingOrder, stored []*route.Route, res *Result) []*order.Order {
	byRouteID := make(map[int]*route.Route, len(stored))
	for _, r := range stored {
		byRouteID[r.RouteID] = r
	}

	out := make([]*order.Order, 0, len(pending))
	for _, p := range pending {
		r, ok := byRouteID[p.routeID]
		if !ok {
			res.Errors = append(res.Errors, fmt.Sprintf("route %d not found for order %d", p.routeID, p.order.OrderID))
			continue
		}
		p.order.RouteID = r.ID
		out = append(out, p.order)
	}
	return out
}

func parseDrivers(path string, res *Result) ([]*driver.Driver, bool, error) {
	records, ok, err := readOptional(path, DriverHeaders, res)
	if !ok || err != nil {
		return nil, ok, err
	}

	drivers := make([]*driver.Driver, 0, len(records))
	for _, rec := range records {
		d, err := driverFromRecord(rec)
		if err != nil {
			res.Errors = append(res.Errors, rowError(DriversFile, rec, err))
			continue
		}
		drivers = append(drivers, d)
	}
	return drivers, true, nil
}

func driverFromRecord(rec record) (*driver.Driver, error) {
	shift, err := strconv.Atoi(rec.get("shift_hours"))
	if err != nil {
		return nil, fmt.Errorf("invalid shift_hours %q", rec.get("shift_hours"))
	}
	hours, err := driver.ParseHours(rec.get("past_week_hours"))
	if err != nil {
		return nil, err
	}
	d := &driver.Driver{
		Name:          rec.get("name"),
		ShiftHours:    shift,
		PastWeekHours: hours,
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func parseRoutes(path string, res *Result) ([]*route.Route, bool, error) {
	records, ok, err := readOptional(path, RouteHeaders, res)
	if !ok || err != nil {
		return nil, ok, err
	}

	seen := make(map[int]bool, len(records))
	routes := make([]*route.Route, 0, len(records))
	for _, rec := range records {
		r, err := routeFromRecord(rec)
		if err == nil && seen[r.RouteID] {
			err = fmt.Errorf("duplicate route_id %d", r.RouteID)
		}
		if err != nil {
			res.Errors = append(res.Errors, rowError(RoutesFile, rec, err))
			continue
		}
		seen[r.RouteID] = true
		routes = append(routes, r)
	}
	return routes, true, nil
}

func routeFromRecord(rec record) (*route.Route, error) {
	ints, err := atoiFields(rec, "route_id", "distance_km", "base_time_min")
	if err != nil {
		return nil, err
	}
	level, err := route.ParseTrafficLevel(rec.get("traffic_level"))
	if err != nil {
		return nil, err
	}
	r := &route.Route{
		RouteID:      ints[0],
		DistanceKM:   ints[1],
		TrafficLevel: level,
		BaseTimeMin:  ints[2],
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func parseOrders(path string, res *Result) ([]pendingOrder, bool, error) {
	records, ok, err := readOptional(path, OrderHeaders, res)
	if !ok || err != nil {
		return nil, ok, err
	}

	seen := make(map[int]bool, len(records))
	orders := make([]pendingOrder, 0, len(records))
	for _, rec := range records {
		p, err := orderFromRecord(rec)
		if err == nil && seen[p.order.OrderID] {
			err = fmt.Errorf("duplicate order_id %d", p.order.OrderID)
		}
		if err != nil {
			res.Errors = append(res.Errors, rowError(OrdersFile, rec, err))
			continue
		}
		seen[p.order.OrderID] = true
		orders = append(orders, p)
	}
	return orders, true, nil
}

func orderFromRecord(rec record) (pendingOrder, error) {
	ints, err := atoiFields(rec, "order_id", "value_rs", "route_id")
	if err != nil {
		return pendingOrder{}, err
	}
	o := &order.Order{
		OrderID:      ints[0],
		ValueRs:      ints[1],
		DeliveryTime: rec.get("delivery_time"),
		// placeholder until the route row id is known
		RouteID: -1,
	}
	if err := o.Validate(); err != nil {
		return pendingOrder{}, err
	}
	return pendingOrder{order: o, routeID: ints[2]}, nil
}

// readOptional returns ok=false when the file does not exist. Extra header
// columns are noted in res.Errors; missing ones fail the read.
func readOptional(path string, headers []string, res *Result) ([]record, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, false, nil
	}
	var herr *HeaderError
	if err := ValidateHeaders(path, headers); errors.As(err, &herr) && len(herr.Missing) == 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: extra headers ignored: %s", filepath.Base(path), strings.Join(herr.Extra, ", ")))
	}
	records, err := readRecords(path, headers)
	if err != nil {
		return nil, true, err
	}
	return records, true, nil
}

func atoiFields(rec record, names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		v, err := strconv.Atoi(rec.get(name))
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", name, rec.get(name))
		}
		out[i] = v
	}
	return out, nil
}

func rowError(file string, rec record, err error) string {
	return fmt.Sprintf("%s line %d %s: %v", file, rec.line, rec, err)
}
