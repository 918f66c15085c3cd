package noop

import (
	"context"
	"sync"

	"greencart/pkg/errors"
)

var (
	_ errors.Tracker = (*Tracker)(nil)
	_ errors.Tracker = (*Recorder)(nil)
)

// Tracker discards everything. Used when error tracking is disabled.
type Tracker struct{}

// New creates a new no-op tracker
func New() *Tracker {
	return &Tracker{}
}

func (t *Tracker) CaptureError(context.Context, error, map[string]string) error { return nil }

func (t *Tracker) Flush(context.Context) error { return nil }

// Captured is one report kept by a Recorder
type Captured struct {
	Err    error
	UserID string
	Tags   map[string]string
}

// Recorder keeps reports in memory instead of sending them anywhere.
// Tests use it to assert on what would have reached Sentry.
type Recorder struct {
	mu       sync.Mutex
	captured []Captured
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// CaptureError records err with its tags and the context user
func (r *Recorder) CaptureError(ctx context.Context, err error, tags map[string]string) error {
	user, _ := errors.UserIDFromContext(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captured = append(r.captured, Captured{Err: err, UserID: user, Tags: tags})
	return nil
}

func (r *Recorder) Flush(context.Context) error { return nil }

// Captured returns a copy of everything recorded so far
func (r *Recorder) Captured() []Captured {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Captured, len(r.captured))
	copy(out, r.captured)
	return out
}
