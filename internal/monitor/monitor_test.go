package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KazeAsh/guardianseat/internal/monitoring"
	"github.com/KazeAsh/guardianseat/internal/radar"
	"github.com/KazeAsh/guardianseat/internal/risk"
)

type fakeStore struct {
	mu      sync.Mutex
	results []Result
	alerts  []string
}

func (s *fakeStore) RecordResult(scan radar.Analysis, assessment risk.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, Result{Scan: scan, Assessment: assessment})
	return nil
}

func (s *fakeStore) InsertAlert(level, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, level)
	return "alert-1", nil
}

func (s *fakeStore) counts() (results, alerts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results), len(s.alerts)
}

type fixedEnv struct {
	env risk.Environment
}

func (f fixedEnv) Current(context.Context) risk.Environment { return f.env }

func newTestMonitor(t *testing.T, store Store, opts Options) *Monitor {
	t.Helper()
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	processor, err := radar.NewProcessor(radar.DefaultConfig())
	require.NoError(t, err)
	env := fixedEnv{env: risk.Environment{TemperatureC: 35, Humidity: 75, Weather: "Clear", LocalHour: 14}}
	return New(processor, risk.NewAssessor(), store, env, opts)
}

// runMonitor starts the worker and returns a channel of published results
// plus a stop function.
func runMonitor(t *testing.T, m *Monitor) (<-chan Result, func()) {
	t.Helper()
	results := make(chan Result, 16)
	m.OnResult = func(res Result) { results <- res }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Run(ctx)
	}()
	return results, func() {
		cancel()
		<-done
	}
}

func TestMonitorProcessesSubmittedWindow(t *testing.T) {
	store := &fakeStore{}
	m := newTestMonitor(t, store, Options{})
	results, stop := runMonitor(t, m)
	defer stop()

	buf, err := radar.NewSampleBuffer(make([]complex128, 500), 100)
	require.NoError(t, err)
	m.Submit(buf)

	select {
	case res := <-results:
		assert.False(t, res.Scan.VitalSigns.Detected, "silent window carries no vitals")
		assert.NotZero(t, res.Assessment.Timestamp)
	case <-time.After(5 * time.Second):
		t.Fatal("no result published")
	}

	latest, ok := m.Latest()
	assert.True(t, ok)
	assert.False(t, latest.Scan.VitalSigns.Detected)

	nResults, _ := store.counts()
	assert.Equal(t, 1, nResults)
}

func alertFloor(l risk.Level) *risk.Level { return &l }

func TestMonitorRaisesAlertAboveFloor(t *testing.T) {
	store := &fakeStore{}
	// A sealed hot cabin with hot clear weather scores MODERATE even with
	// no vitals; a LOW floor must raise an alert for it.
	m := newTestMonitor(t, store, Options{AlertLevel: alertFloor(risk.LevelLow)})
	temp := 45.0
	m.Tracker().Update(risk.VehicleState{
		TemperatureC: &temp,
		DoorState:    risk.DoorClosed,
		EngineState:  risk.EngineOff,
	})

	results, stop := runMonitor(t, m)
	defer stop()

	buf, err := radar.NewSampleBuffer(make([]complex128, 500), 100)
	require.NoError(t, err)
	m.Submit(buf)

	select {
	case res := <-results:
		assert.GreaterOrEqual(t, res.Assessment.Level, risk.LevelLow)
	case <-time.After(5 * time.Second):
		t.Fatal("no result published")
	}

	_, nAlerts := store.counts()
	assert.Equal(t, 1, nAlerts)
}

func TestMonitorAlertFloorSafeAlertsOnEveryWindow(t *testing.T) {
	store := &fakeStore{}
	// An explicit SAFE floor means alert on everything; it must not be
	// mistaken for "unset" and promoted to the HIGH default.
	m := newTestMonitor(t, store, Options{AlertLevel: alertFloor(risk.LevelSafe)})
	results, stop := runMonitor(t, m)
	defer stop()

	buf, err := radar.NewSampleBuffer(make([]complex128, 500), 100)
	require.NoError(t, err)
	m.Submit(buf)

	select {
	case res := <-results:
		assert.Equal(t, risk.LevelSafe, res.Assessment.Level, "quiet window scores SAFE")
	case <-time.After(5 * time.Second):
		t.Fatal("no result published")
	}

	_, nAlerts := store.counts()
	assert.Equal(t, 1, nAlerts, "SAFE window still clears the SAFE floor")
}

func TestMonitorDefaultAlertFloorIsHigh(t *testing.T) {
	store := &fakeStore{}
	m := newTestMonitor(t, store, Options{})
	results, stop := runMonitor(t, m)
	defer stop()

	buf, err := radar.NewSampleBuffer(make([]complex128, 500), 100)
	require.NoError(t, err)
	m.Submit(buf)

	select {
	case <-results:
	case <-time.After(5 * time.Second):
		t.Fatal("no result published")
	}

	_, nAlerts := store.counts()
	assert.Zero(t, nAlerts, "a SAFE window stays below the default HIGH floor")
}

func TestMonitorSkipsFailedWindow(t *testing.T) {
	store := &fakeStore{}
	m := newTestMonitor(t, store, Options{})
	results, stop := runMonitor(t, m)
	defer stop()

	// Rate mismatch fails inside the pipeline; the loop must skip it and
	// stay alive for the next window.
	bad, err := radar.NewSampleBuffer(make([]complex128, 100), 50)
	require.NoError(t, err)
	m.Submit(bad)

	good, err := radar.NewSampleBuffer(make([]complex128, 500), 100)
	require.NoError(t, err)
	m.Submit(good)

	select {
	case <-results:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not survive the failed window")
	}
	nResults, _ := store.counts()
	assert.Equal(t, 1, nResults, "only the good window persisted")
}

func TestMonitorEnforcesWindowBudget(t *testing.T) {
	store := &fakeStore{}
	m := newTestMonitor(t, store, Options{WindowBudget: time.Nanosecond})
	results, stop := runMonitor(t, m)
	defer stop()

	buf, err := radar.NewSampleBuffer(make([]complex128, 500), 100)
	require.NoError(t, err)
	m.Submit(buf)

	select {
	case <-results:
		t.Fatal("overrun window must not publish")
	case <-time.After(300 * time.Millisecond):
	}

	_, ok := m.Latest()
	assert.False(t, ok)
	nResults, _ := store.counts()
	assert.Zero(t, nResults)
}
