package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proasset-api/internal/service"
	appErrors "github.com/noah-isme/proasset-api/pkg/errors"
)

type fakeProbe struct {
	pingErr  error
	readyErr error
}

func (f *fakeProbe) Ping(context.Context) error {
	return f.pingErr
}

func (f *fakeProbe) Ready(context.Context) (service.ReadinessReport, error) {
	report := service.ReadinessReport{Status: "ready", Checks: map[string]string{"postgres": "ok"}}
	if f.readyErr != nil {
		report.Status = "degraded"
		report.Checks["postgres"] = f.readyErr.Error()
	}
	return report, f.readyErr
}

func TestMetricsHandlerPing(t *testing.T) {
	handler := NewMetricsHandler(nil, &fakeProbe{})
	c, rec := newTestContext(http.MethodGet, "/system/ping", nil, nil)

	handler.Ping(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	decodeEnvelope(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsHandlerPingUnavailable(t *testing.T) {
	err := appErrors.Wrap(errors.New("dial tcp"), appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "database unreachable")
	handler := NewMetricsHandler(nil, &fakeProbe{pingErr: err})
	c, rec := newTestContext(http.MethodGet, "/system/ping", nil, nil)

	handler.Ping(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	handler := NewMetricsHandler(nil, &fakeProbe{readyErr: errors.New("connection refused")})
	c, rec := newTestContext(http.MethodGet, "/ready", nil, nil)

	handler.Ready(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestMetricsHandlerPrometheusDisabled(t *testing.T) {
	handler := NewMetricsHandler(nil, &fakeProbe{})
	c, _ := newTestContext(http.MethodGet, "/metrics", nil, nil)

	handler.Prometheus(c)

	assert.Equal(t, http.StatusServiceUnavailable, c.Writer.Status())
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	handler := NewMetricsHandler(metrics.Handler(), &fakeProbe{})
	c, rec := newTestContext(http.MethodGet, "/metrics", nil, nil)

	handler.Prometheus(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# HELP")
}
