package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gatewayRequest struct {
	method string
	path   string
	body   []byte
}

// fakeGateway accepts pushes the way a Pushgateway does and keeps them
func fakeGateway(t *testing.T) (*httptest.Server, func() []gatewayRequest) {
	t.Helper()
	var (
		mu  sync.Mutex
		got []gatewayRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = append(got, gatewayRequest{method: r.Method, path: r.URL.Path, body: body})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []gatewayRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]gatewayRequest(nil), got...)
	}
}

func TestPushDeploy_SendsDeployCollectors(t *testing.T) {
	srv, requests := fakeGateway(t)

	RecordDeployStep("migrate", "ok", 150*time.Millisecond)
	RecordDeployRun(true)
	RecordDataLoad("drivers", 10, 0)

	require.NoError(t, PushDeploy(context.Background(), srv.URL, "greencart_deploy"))

	got := requests()
	require.Len(t, got, 1)
	assert.Equal(t, http.MethodPut, got[0].method)
	assert.Equal(t, "/metrics/job/greencart_deploy", got[0].path)
	assert.Contains(t, string(got[0].body), "greencart_deploy_steps_total")
	assert.Contains(t, string(got[0].body), "greencart_deploy_runs_total")
	assert.Contains(t, string(got[0].body), "greencart_dataload_rows_total")
}

func TestPushDeploy_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	assert.Error(t, PushDeploy(context.Background(), srv.URL, "greencart_deploy"))
}
