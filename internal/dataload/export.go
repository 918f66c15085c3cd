package dataload

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"greencart/internal/domain/driver"
	"greencart/internal/domain/order"
	"greencart/internal/domain/route"
	"greencart/pkg/errors"
)

// Export writes the current drivers, routes and orders to timestamped CSV
// files in dir using the same layout Load reads. It returns the created paths.
func Export(ctx context.Context, repos Repos, dir string, at time.Time) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create export directory %s", dir)
	}
	stamp := at.UTC().Format("20060102_150405")

	drivers, err := repos.Drivers.List(ctx, driver.Filter{})
	if err != nil {
		return nil, errors.Wrap(err, "list drivers")
	}
	routes, err := repos.Routes.List(ctx, route.Filter{})
	if err != nil {
		return nil, errors.Wrap(err, "list routes")
	}
	orders, err := repos.Orders.List(ctx, order.Filter{})
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}

	byID := make(map[int64]*route.Route, len(routes))
	for _, r := range routes {
		byID[r.ID] = r
	}

	var files []string

	driverRows := make([][]string, 0, len(drivers))
	for _, d := range drivers {
		driverRows = append(driverRows, []string{d.Name, strconv.Itoa(d.ShiftHours), driver.FormatHours(d.PastWeekHours)})
	}
	path, err := writeCSV(dir, "drivers_export_"+stamp+".csv", DriverHeaders, driverRows)
	if err != nil {
		return files, err
	}
	files = append(files, path)

	routeRows := make([][]string, 0, len(routes))
	for _, r := range routes {
		routeRows = append(routeRows, []string{
			strconv.Itoa(r.RouteID),
			strconv.Itoa(r.DistanceKM),
			string(r.TrafficLevel),
			strconv.Itoa(r.BaseTimeMin),
		})
	}
	path, err = writeCSV(dir, "routes_export_"+stamp+".csv", RouteHeaders, routeRows)
	if err != nil {
		return files, err
	}
	files = append(files, path)

	orderRows := make([][]string, 0, len(orders))
	for _, o := range orders {
		r, ok := byID[o.RouteID]
		if !ok {
			return files, errors.Newf("order %d references unknown route row %d", o.OrderID, o.RouteID)
		}
		orderRows = append(orderRows, []string{
			strconv.Itoa(o.OrderID),
			strconv.Itoa(o.ValueRs),
			strconv.Itoa(r.RouteID),
			o.DeliveryTime,
		})
	}
	path, err = writeCSV(dir, "orders_export_"+stamp+".csv", OrderHeaders, orderRows)
	if err != nil {
		return files, err
	}
	files = append(files, path)

	return files, nil
}

func writeCSV(dir, name string, header []string, rows [][]string) (string, error) {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, f.Close()
}
