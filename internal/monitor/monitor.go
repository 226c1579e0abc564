package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/KazeAsh/guardianseat/internal/monitoring"
	"github.com/KazeAsh/guardianseat/internal/radar"
	"github.com/KazeAsh/guardianseat/internal/risk"
)

// ErrWindowTimeout marks a pipeline invocation that exceeded its wall-clock
// budget. The window is abandoned; the next one proceeds normally.
var ErrWindowTimeout = errors.New("monitor: window processing exceeded budget")

// Store is the slice of the persistence layer the monitor needs.
type Store interface {
	RecordResult(scan radar.Analysis, assessment risk.Assessment) error
	InsertAlert(level, message string) (string, error)
}

// EnvironmentSource supplies the current outdoor reading. Implementations
// should return a cached or fallback reading rather than blocking the loop.
type EnvironmentSource interface {
	Current(ctx context.Context) risk.Environment
}

// Result pairs one pipeline output with its fused assessment.
type Result struct {
	Scan       radar.Analysis
	Assessment risk.Assessment
}

// Options configures a Monitor.
type Options struct {
	QueueCapacity int           // windows buffered ahead of the worker; default 2
	WindowBudget  time.Duration // wall-clock budget per window; default 5s

	// AlertLevel is the minimum level that raises an alert. Nil means HIGH;
	// a pointer so an explicit SAFE (alert on every window) is expressible.
	AlertLevel *risk.Level
}

// Monitor owns the processing worker. Exactly one producer feeds Submit and
// exactly one worker consumes; results are fanned out through Latest and the
// optional OnResult hook.
type Monitor struct {
	processor  *radar.Processor
	assessor   *risk.Assessor
	queue      *WindowQueue
	tracker    *DwellTracker
	store      Store
	envSource  EnvironmentSource
	opts       Options
	alertLevel risk.Level

	// OnResult, when set before Run, is invoked on the worker goroutine
	// after each persisted result.
	OnResult func(Result)

	mu     sync.Mutex
	latest *Result
}

// New assembles a monitor. store and envSource may be nil in tools that only
// want the processing loop.
func New(processor *radar.Processor, assessor *risk.Assessor, store Store, envSource EnvironmentSource, opts Options) *Monitor {
	if opts.QueueCapacity == 0 {
		opts.QueueCapacity = 2
	}
	if opts.WindowBudget == 0 {
		opts.WindowBudget = 5 * time.Second
	}
	alertLevel := risk.LevelHigh
	if opts.AlertLevel != nil {
		alertLevel = *opts.AlertLevel
	}
	return &Monitor{
		processor:  processor,
		assessor:   assessor,
		queue:      NewWindowQueue(opts.QueueCapacity),
		tracker:    NewDwellTracker(),
		store:      store,
		envSource:  envSource,
		opts:       opts,
		alertLevel: alertLevel,
	}
}

// Tracker exposes the dwell tracker so ingestion paths can feed it.
func (m *Monitor) Tracker() *DwellTracker { return m.tracker }

// Submit hands a captured window to the worker, dropping the oldest queued
// window under backpressure.
func (m *Monitor) Submit(buf *radar.SampleBuffer) {
	if m.queue.Push(buf) {
		monitoring.Logf("monitor: dropped oldest queued window (backpressure)")
	}
}

// Latest returns the most recent result, if any window has completed.
func (m *Monitor) Latest() (Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latest == nil {
		return Result{}, false
	}
	return *m.latest, true
}

// Run consumes windows until the context is cancelled. A window that fails
// or overruns its budget is logged and skipped; it never blocks the next
// window. Run returns the context error on shutdown.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		buf, err := m.queue.Pop(ctx)
		if err != nil {
			return err
		}
		res, err := m.processWindow(ctx, buf)
		if err != nil {
			monitoring.Logf("monitor: window failed: %v", err)
			continue
		}
		m.publish(res)
	}
}

// processWindow runs one pipeline invocation under the configured budget and
// fuses the outcome. No partial-window state survives a timeout: the result
// of an overrun invocation is discarded on arrival.
func (m *Monitor) processWindow(ctx context.Context, buf *radar.SampleBuffer) (Result, error) {
	type outcome struct {
		scan radar.Analysis
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		scan, err := m.processor.Process(buf)
		done <- outcome{scan, err}
	}()

	timer := time.NewTimer(m.opts.WindowBudget)
	defer timer.Stop()

	var scan radar.Analysis
	select {
	case out := <-done:
		if out.err != nil {
			return Result{}, out.err
		}
		scan = out.scan
	case <-timer.C:
		return Result{}, ErrWindowTimeout
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	vehicle, _ := m.tracker.Vehicle()
	var env risk.Environment
	if m.envSource != nil {
		env = m.envSource.Current(ctx)
	}
	assessment := m.assessor.Assess(risk.Input{
		Scan:           scan,
		Vehicle:        vehicle,
		Environment:    env,
		ElapsedMinutes: m.tracker.ElapsedMinutes(),
	})
	return Result{Scan: scan, Assessment: assessment}, nil
}

// publish persists the result, raises an alert when the level clears the
// configured floor, updates the latest snapshot and fires the hook.
func (m *Monitor) publish(res Result) {
	if m.store != nil {
		if err := m.store.RecordResult(res.Scan, res.Assessment); err != nil {
			monitoring.Logf("monitor: failed to persist result: %v", err)
		}
		if res.Assessment.Level >= m.alertLevel {
			id, err := m.store.InsertAlert(res.Assessment.Level.String(), res.Assessment.Summary)
			if err != nil {
				monitoring.Logf("monitor: failed to raise alert: %v", err)
			} else {
				monitoring.Logf("monitor: raised %s alert %s", res.Assessment.Level, id)
			}
		}
	}

	m.mu.Lock()
	m.latest = &res
	m.mu.Unlock()

	if m.OnResult != nil {
		m.OnResult(res)
	}
}
