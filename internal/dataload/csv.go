package dataload

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// File names and their expected headers
const (
	DriversFile = "drivers.csv"
	RoutesFile  = "routes.csv"
	OrdersFile  = "orders.csv"
)

var (
	DriverHeaders = []string{"name", "shift_hours", "past_week_hours"}
	RouteHeaders  = []string{"route_id", "distance_km", "traffic_level", "base_time_min"}
	OrderHeaders  = []string{"order_id", "value_rs", "route_id", "delivery_time"}
)

// HeaderError lists the differences between a file's header row and the expected one
type HeaderError struct {
	Path    string
	Missing []string
	Extra   []string
}

func (e *HeaderError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing headers: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "extra headers: "+strings.Join(e.Extra, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Path, strings.Join(parts, "; "))
}

// ValidateHeaders checks the first row of the CSV file at path.
// Missing headers make the file unusable; extra headers are reported
// as well. A nil return means the header row matches exactly.
func ValidateHeaders(path string, expected []string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	headers, err := csv.NewReader(f).Read()
	if err == io.EOF {
		return &HeaderError{Path: path, Missing: append([]string(nil), expected...)}
	}
	if err != nil {
		return fmt.Errorf("%s: read header: %w", path, err)
	}
	if herr := diffHeaders(path, headers, expected); herr != nil {
		return herr
	}
	return nil
}

// diffHeaders returns nil when got and expected hold the same names
func diffHeaders(path string, got, expected []string) *HeaderError {
	have := make(map[string]bool, len(got))
	for _, h := range got {
		have[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = true
	}
	want := make(map[string]bool, len(expected))
	for _, h := range expected {
		want[h] = true
	}

	herr := &HeaderError{Path: path}
	for _, h := range expected {
		if !have[h] {
			herr.Missing = append(herr.Missing, h)
		}
	}
	for h := range have {
		if !want[h] {
			herr.Extra = append(herr.Extra, h)
		}
	}
	sort.Strings(herr.Extra)

	if len(herr.Missing) == 0 && len(herr.Extra) == 0 {
		return nil
	}
	return herr
}

// record is one data row keyed by header name
type record struct {
	line   int
	fields map[string]string
}

func (r record) get(name string) string {
	return strings.TrimSpace(r.fields[name])
}

func (r record) String() string {
	keys := make([]string, 0, len(r.fields))
	for k := range r.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+r.fields[k])
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// readRecords parses a CSV file with a header row. Only missing headers are
// fatal; extra columns are ignored.
func readRecords(path string, expected []string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	headers, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(headers[i], "\ufeff"))
	}
	if herr := diffHeaders(path, headers, expected); herr != nil && len(herr.Missing) > 0 {
		return nil, herr
	}

	var out []record
	line := 1
	for {
		row, err := r.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		if isBlank(row) {
			continue
		}
		fields := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				fields[h] = row[i]
			}
		}
		out = append(out, record{line: line, fields: fields})
	}
	return out, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
