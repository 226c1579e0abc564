package monitor

import (
	"sync"
	"time"

	"github.com/KazeAsh/guardianseat/internal/risk"
)

// DwellTracker derives the elapsed-dwell-time input of the risk engine from
// the stream of vehicle readings. The clock starts when the vehicle enters
// the unattended configuration (engine off, doors closed) and resets as soon
// as it leaves it.
type DwellTracker struct {
	mu      sync.Mutex
	now     func() time.Time
	active  bool
	started time.Time
	last    risk.VehicleState
	hasLast bool
}

// NewDwellTracker creates a tracker on the wall clock.
func NewDwellTracker() *DwellTracker {
	return &DwellTracker{now: time.Now}
}

// NewDwellTrackerAt creates a tracker on a supplied clock, for tests.
func NewDwellTrackerAt(now func() time.Time) *DwellTracker {
	return &DwellTracker{now: now}
}

// Update records a vehicle reading and advances the dwell state machine.
func (t *DwellTracker) Update(v risk.VehicleState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = v
	t.hasLast = true

	parked := v.EngineState == risk.EngineOff && v.DoorState == risk.DoorClosed
	switch {
	case parked && !t.active:
		t.active = true
		t.started = t.now()
	case !parked:
		t.active = false
	}
}

// ElapsedMinutes reports how long the vehicle has been in the unattended
// configuration, or 0 when it is not.
func (t *DwellTracker) ElapsedMinutes() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return 0
	}
	return t.now().Sub(t.started).Minutes()
}

// Vehicle returns the most recent reading and whether one has been seen.
func (t *DwellTracker) Vehicle() (risk.VehicleState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last, t.hasLast
}
