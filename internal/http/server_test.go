package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/logging"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/mcp"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/telemetry"
)

type fakeHealth telemetry.HealthStatus

func (f fakeHealth) Health() telemetry.HealthStatus { return telemetry.HealthStatus(f) }

func testRegistry(t *testing.T) *mcp.Registry {
	t.Helper()
	ok := func(context.Context, mcp.Args) (*mcp.Result, error) { return mcp.TextResult("ok"), nil }
	reg, err := mcp.NewBuilder().
		AddTool(&mcp.Tool{Name: "list_patients", InputSchema: mcp.Object(nil), Handler: ok, Category: mcp.CategoryPatients}).
		AddTool(&mcp.Tool{Name: "get_patient", InputSchema: mcp.Object(nil), Handler: ok, Category: mcp.CategoryPatients}).
		AddTool(&mcp.Tool{Name: "list_taxes", InputSchema: mcp.Object(nil), Handler: ok, Category: mcp.CategoryBilling}).
		AddTool(&mcp.Tool{Name: "ping", InputSchema: mcp.Object(nil), Handler: ok}).
		Build()
	require.NoError(t, err)
	return reg
}

func serve(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestNewServer(t *testing.T) {
	t.Run("defaults when config is nil", func(t *testing.T) {
		s, err := NewServer(logging.Nop(), nil)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9091", s.config.Addr)
		assert.Positive(t, s.config.ShutdownTimeout)
	})

	t.Run("logger required", func(t *testing.T) {
		_, err := NewServer(nil, nil)
		assert.ErrorContains(t, err, "logger is required")
	})
}

func TestHandleHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		s, err := NewServer(logging.Nop(), &Config{Version: "1.2.3"})
		require.NoError(t, err)

		rec := serve(t, s, http.MethodGet, "/health")
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "1.2.3", resp.Version)
		assert.Nil(t, resp.Telemetry)
	})

	t.Run("degraded telemetry", func(t *testing.T) {
		s, err := NewServer(logging.Nop(), nil, WithTelemetry(fakeHealth{Healthy: true, Degraded: true}))
		require.NoError(t, err)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(serve(t, s, http.MethodGet, "/health").Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		require.NotNil(t, resp.Telemetry)
		assert.True(t, resp.Telemetry.Degraded)
	})
}

func TestHandleStatus(t *testing.T) {
	t.Run("counts tools", func(t *testing.T) {
		s, err := NewServer(logging.Nop(), nil, WithRegistry(testRegistry(t)))
		require.NoError(t, err)

		var resp StatusResponse
		require.NoError(t, json.Unmarshal(serve(t, s, http.MethodGet, "/status").Body.Bytes(), &resp))
		assert.Equal(t, 4, resp.Tools)
		assert.Equal(t, map[string]int{"patients": 2, "billing": 1, "uncategorized": 1}, resp.Counts)
	})

	t.Run("not mounted without registry", func(t *testing.T) {
		s, err := NewServer(logging.Nop(), nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, serve(t, s, http.MethodGet, "/status").Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "cliniko_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	s, err := NewServer(logging.Nop(), nil, WithGatherer(reg))
	require.NoError(t, err)

	rec := serve(t, s, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cliniko_test_total 1")
}

func TestMCPHandlerMounted(t *testing.T) {
	var gotMethod, gotRequestID string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotRequestID = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusAccepted)
	})
	s, err := NewServer(logging.Nop(), nil, WithMCPHandler(h))
	require.NoError(t, err)

	rec := serve(t, s, http.MethodPost, "/mcp")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), gotRequestID)
	assert.NotEmpty(t, gotRequestID)
}

func TestRequestLogging(t *testing.T) {
	logger := logging.NewTestLogger()
	s, err := NewServer(logger.Logger, nil)
	require.NoError(t, err)

	serve(t, s, http.MethodGet, "/health")

	entries := logger.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].ContextMap()["uri"].(string), "/health"))
}

func TestCountByCategory_NilRegistry(t *testing.T) {
	assert.Empty(t, CountByCategory(nil))
}
