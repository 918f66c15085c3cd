package sentry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"greencart/pkg/errors"
)

var _ errors.Tracker = (*Tracker)(nil)

// Options configures the Sentry client
type Options struct {
	DSN          string
	Environment  string
	Release      string
	FlushTimeout time.Duration
}

// Tracker reports errors to Sentry
type Tracker struct {
	hub          *sentry.Hub
	flushTimeout time.Duration
}

// New initializes the Sentry client and returns a tracker bound to its hub
func New(opts Options) (*Tracker, error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Environment:      opts.Environment,
		Release:          opts.Release,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init sentry")
	}

	timeout := opts.FlushTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Tracker{hub: sentry.CurrentHub(), flushTimeout: timeout}, nil
}

// CaptureError sends err to Sentry on a cloned hub so tags never leak
// between reports
func (t *Tracker) CaptureError(ctx context.Context, err error, tags map[string]string) error {
	hub := t.hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetTags(tags)
		if userID, ok := errors.UserIDFromContext(ctx); ok {
			scope.SetUser(sentry.User{ID: userID})
		}
	})
	hub.CaptureException(err)
	return nil
}

// Flush waits for pending events, bounded by ctx and the configured timeout
func (t *Tracker) Flush(ctx context.Context) error {
	timeout := t.flushTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if !t.hub.Flush(timeout) {
		return errors.Wrap(errors.ErrTimeout, "sentry flush")
	}
	return nil
}
