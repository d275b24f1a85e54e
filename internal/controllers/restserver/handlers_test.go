package restserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/chrissnell/fracgrad/internal/log"
	"github.com/chrissnell/fracgrad/internal/service"
	"github.com/chrissnell/fracgrad/pkg/config"
	"github.com/chrissnell/fracgrad/pkg/responseformat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := zap.NewNop().Sugar()
	ctrl, err := NewController(ctx, &sync.WaitGroup{}, config.RESTServerData{}, service.NewCalculator(config.CalculationData{}, logger), logger)
	require.NoError(t, err)
	return ctrl
}

func post(t *testing.T, h http.Handler, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const exactTrendBody = `{"water-deep-layer": 1000, "deep-interval-data": 50, "observed-transit-time": [200, 190, 180, 170, 160]}`

func TestNewControllerDefaults(t *testing.T) {
	ctrl := newTestController(t)
	assert.Equal(t, "0.0.0.0:8080", ctrl.Addr())
	assert.False(t, ctrl.TLSEnabled())
}

func TestCalculateJSON(t *testing.T) {
	ctrl := newTestController(t)

	for _, path := range []string{"/calculation", "/api/v1/calculation"} {
		rec := post(t, ctrl.Handler(), path, "application/json", []byte(exactTrendBody))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		for _, key := range []string{"x-porePressureGradient", "x-overBurdenGradient", "x-fractureGradient", "x-transitTime", "y-deep"} {
			series, ok := resp[key].([]any)
			require.True(t, ok, "missing %s", key)
			assert.Len(t, series, 5, key)
		}
		assert.Equal(t, []any{-1050.0, -1100.0, -1150.0, -1200.0, -1250.0}, resp["y-deep"])
		assert.Equal(t, "offshore", resp["rig-type"])

		table, ok := resp["x-normalTransitTime-y-deep"].([]any)
		require.True(t, ok)
		assert.Len(t, table, 2)

		assert.Equal(t, resp["calculation-id"], rec.Header().Get(calculationIDHeader))
	}
}

func TestCalculateMsgPack(t *testing.T) {
	ctrl := newTestController(t)

	body, err := msgpack.Marshal(map[string]any{
		"water-deep-layer":      0,
		"deep-interval-data":    100,
		"observed-transit-time": []int{200, 190, 180, 170},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/calculation?format=msgpack", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/x-msgpack")
	rec := httptest.NewRecorder()
	ctrl.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-msgpack", rec.Header().Get("Content-Type"))

	var resp service.Response
	dec := msgpack.NewDecoder(rec.Body)
	dec.SetCustomStructTag("json")
	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, "onshore", resp.RigType)
	assert.Equal(t, 4, resp.TrendLine.AcceptedSamples)
}

func TestCalculateErrors(t *testing.T) {
	ctrl := newTestController(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "malformed json", body: `{"water-deep-layer":`, status: http.StatusBadRequest},
		{name: "empty transit times", body: `{"water-deep-layer": 0, "deep-interval-data": 50, "observed-transit-time": []}`, status: http.StatusBadRequest},
		{name: "missing interval", body: `{"water-deep-layer": 0, "observed-transit-time": [100, 90]}`, status: http.StatusBadRequest},
		{name: "negative water depth", body: `{"water-deep-layer": -1, "deep-interval-data": 50, "observed-transit-time": [100, 90]}`, status: http.StatusBadRequest},
		{name: "single sample", body: `{"water-deep-layer": 0, "deep-interval-data": 50, "observed-transit-time": [100]}`, status: http.StatusUnprocessableEntity},
		{name: "identical transit times", body: `{"water-deep-layer": 0, "deep-interval-data": 50, "observed-transit-time": [150, 150, 150, 150]}`, status: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, ctrl.Handler(), "/calculation", "application/json", []byte(tt.body))
			assert.Equal(t, tt.status, rec.Code)

			var resp responseformat.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Status)
			assert.NotEmpty(t, resp.Details)
		})
	}
}

func TestHealthAndCORS(t *testing.T) {
	ctrl := newTestController(t)

	rec := httptest.NewRecorder()
	ctrl.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	ctrl.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/calculation", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestSettings(t *testing.T) {
	ctrl := newTestController(t)

	rec := httptest.NewRecorder()
	ctrl.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var settings config.CalculationData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	assert.Equal(t, config.DefaultAcceptanceThresholdPct, settings.AcceptanceThresholdPct)
	assert.Equal(t, config.DefaultMaxSamples, settings.MaxSamples)
}

func TestRequestsAreLogged(t *testing.T) {
	ctrl := newTestController(t)
	before := log.GetHTTPLogBuffer().Len()

	post(t, ctrl.Handler(), "/calculation", "application/json", []byte(exactTrendBody))

	entries := log.GetHTTPLogBuffer().GetEntries(1)
	require.Len(t, entries, 1)
	assert.Equal(t, "/calculation", entries[0].Fields["path"])
	assert.Equal(t, http.StatusOK, entries[0].Fields["status"])
	assert.NotEmpty(t, entries[0].Fields["calculation_id"])
	assert.GreaterOrEqual(t, log.GetHTTPLogBuffer().Len(), before)
}
