package errors

import "context"

// Tracker reports failures to an external service such as Sentry. Step
// failures in the deploy pipeline and logged errors both go through it.
type Tracker interface {
	// CaptureError reports err tagged with tags. The user stored by
	// WithUserID, if any, is attached to the report.
	CaptureError(ctx context.Context, err error, tags map[string]string) error

	// Flush blocks until queued reports are delivered or ctx expires
	Flush(ctx context.Context) error
}

type userIDKey struct{}

// WithUserID attaches the authenticated user to ctx so reports carry it
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the user set by WithUserID
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}
