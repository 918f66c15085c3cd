package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greencart/pkg/errors"
	"greencart/pkg/logger"
)

func ok() Checker { return CheckerFunc(func(context.Context) error { return nil }) }

func failing() Checker {
	return CheckerFunc(func(context.Context) error { return errors.ErrUnavailable })
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) HealthStatus {
	t.Helper()
	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return status
}

func TestHandleReadiness(t *testing.T) {
	tests := []struct {
		name     string
		postgres Checker
		redis    Checker
		wantCode int
		want     string
	}{
		{"all healthy", ok(), ok(), http.StatusOK, "healthy"},
		{"optional down", ok(), failing(), http.StatusOK, "healthy"},
		{"required down", failing(), ok(), http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(logger.Nop(), "greencart", "test").
				Register("postgres", tt.postgres, true).
				Register("redis", tt.redis, false)

			rec := httptest.NewRecorder()
			h.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			status := decode(t, rec)
			assert.Equal(t, tt.want, status.Status)
			assert.Len(t, status.Checks, 2)
		})
	}
}

func TestHandleHealth(t *testing.T) {
	h := New(logger.Nop(), "greencart", "test").
		Register("postgres", ok(), true).
		Register("redis", failing(), false)

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	status := decode(t, rec)
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "greencart", status.Service)
	assert.Equal(t, errors.ErrUnavailable.Error(), status.Checks["redis"].Error)

	h = New(logger.Nop(), "greencart", "test").Register("postgres", failing(), true)
	rec = httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleLiveness(t *testing.T) {
	rec := httptest.NewRecorder()
	New(logger.Nop(), "greencart", "test").HandleLiveness(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
