package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KazeAsh/guardianseat/internal/db"
	"github.com/KazeAsh/guardianseat/internal/monitor"
	"github.com/KazeAsh/guardianseat/internal/monitoring"
	"github.com/KazeAsh/guardianseat/internal/radar"
	"github.com/KazeAsh/guardianseat/internal/risk"
)

type testEnv struct {
	server *Server
	store  *db.DB
	mon    *monitor.Monitor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	processor, err := radar.NewProcessor(radar.DefaultConfig())
	require.NoError(t, err)
	assessor := risk.NewAssessor()
	store, err := db.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	mon := monitor.New(processor, assessor, store, nil, monitor.Options{})
	return &testEnv{
		server: NewServer(processor, assessor, store, mon),
		store:  store,
		mon:    mon,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.server.ServeMux().ServeHTTP(rec, req)
	return rec
}

// analyzeBody builds a window whose phase carries a breathing modulation.
func analyzeBody(breathingHz float64) map[string]interface{} {
	const fs = 100.0
	n := int(fs * 30)
	re := make([]float64, n)
	im := make([]float64, n)
	for i := range re {
		phi := 2.4 * math.Sin(2*math.Pi*breathingHz*float64(i)/fs)
		re[i] = math.Cos(phi)
		im[i] = math.Sin(phi)
	}
	temp := 42.0
	return map[string]interface{}{
		"iq_real":     re,
		"iq_imag":     im,
		"sample_rate": fs,
		"vehicle": map[string]interface{}{
			"temperature_c": temp,
			"door_state":    risk.DoorClosed,
			"engine_state":  risk.EngineOff,
		},
		"environment": map[string]interface{}{
			"temperature_c": 35.0,
			"humidity":      75.0,
			"weather":       "Clear",
			"local_hour":    14,
		},
		"elapsed_minutes": 30.0,
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/analyze", analyzeBody(0.3))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Scan       radar.Analysis  `json:"scan"`
		Assessment risk.Assessment `json:"assessment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Scan.VitalSigns.Detected)
	assert.InDelta(t, 18, resp.Scan.VitalSigns.BreathingRateBPM, 1)
	assert.GreaterOrEqual(t, resp.Assessment.TotalRisk, 0.6,
		"sealed hot cabin with an occupant is at least HIGH")

	// The synchronous path persists like the monitoring loop does.
	recs, err := env.store.ListAssessments(10)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestAnalyzeRejectsBadPayloads(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/analyze", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = env.do(t, http.MethodPost, "/analyze", map[string]interface{}{
		"iq_real": []float64{1, 2}, "iq_imag": []float64{1}, "sample_rate": 100,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/analyze", map[string]interface{}{
		"iq_real": []float64{}, "iq_imag": []float64{}, "sample_rate": 100,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/analyze", map[string]interface{}{
		"iq_real": []float64{1}, "iq_imag": []float64{1}, "sample_rate": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/analyze", map[string]interface{}{
		"unknown_field": true,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")
}

func TestSensorsEndpointFeedsDwellTracker(t *testing.T) {
	env := newTestEnv(t)
	temp := 30.0
	rec := env.do(t, http.MethodPost, "/sensors", risk.VehicleState{
		TemperatureC: &temp,
		DoorState:    risk.DoorClosed,
		EngineState:  risk.EngineOff,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	vehicle, ok := env.mon.Tracker().Vehicle()
	require.True(t, ok)
	assert.Equal(t, risk.DoorClosed, vehicle.DoorState)

	var count int
	require.NoError(t, env.store.QueryRow(`SELECT COUNT(*) FROM sensor_readings`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, true, status["monitoring"])
	_, hasScan := status["scan"]
	assert.False(t, hasScan, "no window processed yet")

	// After a window completes, the status carries the latest result.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	published := make(chan struct{}, 1)
	env.mon.OnResult = func(monitor.Result) { published <- struct{}{} }
	go func() { _ = env.mon.Run(ctx) }()

	buf, err := radar.NewSampleBuffer(make([]complex128, 500), 100)
	require.NoError(t, err)
	env.mon.Submit(buf)
	select {
	case <-published:
	case <-time.After(5 * time.Second):
		t.Fatal("window never completed")
	}

	rec = env.do(t, http.MethodGet, "/status", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	_, hasScan = status["scan"]
	assert.True(t, hasScan)
	_, hasAssessment := status["assessment"]
	assert.True(t, hasAssessment)
}

func TestAssessmentsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodPost, "/analyze", analyzeBody(0.3))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/assessments?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Count       int                   `json:"count"`
		Assessments []db.AssessmentRecord `json:"assessments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)

	rec = env.do(t, http.MethodGet, "/assessments?limit=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAlertEndpoints(t *testing.T) {
	env := newTestEnv(t)
	id, err := env.store.InsertAlert("HIGH", "possible child in vehicle")
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/alerts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Count  int              `json:"count"`
		Alerts []db.AlertRecord `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.False(t, resp.Alerts[0].Acknowledged)

	rec = env.do(t, http.MethodPost, "/alerts/ack", map[string]string{"alert_id": id})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/alerts?unacked=true", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Count)

	rec = env.do(t, http.MethodPost, "/alerts/ack", map[string]string{"alert_id": "no-such-id"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/alerts/ack", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestSpectrumDebugPage(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/spectrum", nil)
	rec := httptest.NewRecorder()
	env.server.DebugMux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code, "no window yet")

	// Complete one window, then the page renders.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	published := make(chan struct{}, 1)
	env.mon.OnResult = func(monitor.Result) { published <- struct{}{} }
	go func() { _ = env.mon.Run(ctx) }()

	buf, err := radar.NewSampleBuffer(make([]complex128, 500), 100)
	require.NoError(t, err)
	env.mon.Submit(buf)
	select {
	case <-published:
	case <-time.After(5 * time.Second):
		t.Fatal("window never completed")
	}

	rec = httptest.NewRecorder()
	env.server.DebugMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/spectrum", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Breathing band")
	assert.Contains(t, rec.Body.String(), "Heartbeat band",
		"both band charts render with their rate/confidence subtitles")
}

func TestLoggingMiddlewarePassesThrough(t *testing.T) {
	var logged string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		logged = fmt.Sprintf(format, v...)
	})
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, logged, "418")
	assert.Contains(t, logged, "/brew")
}
