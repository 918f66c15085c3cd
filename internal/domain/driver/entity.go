package driver

import (
	sqldriver "database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"greencart/pkg/errors"
)

// OverworkThreshold is the number of hours worked yesterday above which a
// driver counts as fatigued.
const OverworkThreshold = 8

// MaxHistoryDays bounds the past-week hours history.
const MaxHistoryDays = 7

// Hours is a driver's daily work history, oldest first. Stored as JSONB.
type Hours []int

// Value implements sqldriver.Valuer
func (h Hours) Value() (sqldriver.Value, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int(h))
}

// Scan implements sql.Scanner
func (h *Hours) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*h = Hours{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan hours: unsupported type %T", src)
	}
	var out []int
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("scan hours: %w", err)
	}
	*h = out
	return nil
}

// Driver represents a delivery driver
type Driver struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	ShiftHours    int       `db:"shift_hours" json:"shift_hours"`
	PastWeekHours Hours     `db:"past_week_hours" json:"past_week_hours"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// AverageWeeklyHours returns the mean of the recorded daily hours
func (d *Driver) AverageWeeklyHours() float64 {
	if len(d.PastWeekHours) == 0 {
		return 0
	}
	total := 0
	for _, h := range d.PastWeekHours {
		total += h
	}
	return float64(total) / float64(len(d.PastWeekHours))
}

// IsOverworked reports whether the driver worked more than eight hours yesterday
func (d *Driver) IsOverworked() bool {
	if len(d.PastWeekHours) == 0 {
		return false
	}
	return d.PastWeekHours[len(d.PastWeekHours)-1] > OverworkThreshold
}

// Validate checks field ranges
func (d *Driver) Validate() error {
	var errs errors.MultiError
	if strings.TrimSpace(d.Name) == "" {
		errs.Add(errors.NewValidationError("name", "required", d.Name))
	}
	if len(d.Name) > 100 {
		errs.Add(errors.NewValidationError("name", "at most 100 characters", len(d.Name)))
	}
	if d.ShiftHours < 1 || d.ShiftHours > 12 {
		errs.Add(errors.NewValidationError("shift_hours", "must be between 1 and 12", d.ShiftHours))
	}
	if len(d.PastWeekHours) > MaxHistoryDays {
		errs.Add(errors.NewValidationError("past_week_hours", "cannot have more than 7 entries", len(d.PastWeekHours)))
	}
	for _, h := range d.PastWeekHours {
		if h < 0 || h > 24 {
			errs.Add(errors.NewValidationError("past_week_hours", "each hour must be between 0 and 24", h))
			break
		}
	}
	return errs.ToError()
}

// ParseHours parses a pipe separated history such as "6|8|7|9". Blank
// segments are ignored.
func ParseHours(raw string) (Hours, error) {
	hours := Hours{}
	for _, part := range strings.Split(raw, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid hours %q: %w", part, err)
		}
		hours = append(hours, h)
	}
	return hours, nil
}

// FormatHours is the inverse of ParseHours
func FormatHours(h Hours) string {
	parts := make([]string, len(h))
	for i, v := range h {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, "|")
}
