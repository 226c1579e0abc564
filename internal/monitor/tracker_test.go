package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/KazeAsh/guardianseat/internal/risk"
)

// fakeClock is an advanceable clock for dwell tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func reading(door, engine string) risk.VehicleState {
	return risk.VehicleState{DoorState: door, EngineState: engine}
}

func TestDwellTrackerStartsOnParked(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 7, 14, 12, 0, 0, 0, time.UTC)}
	tr := NewDwellTrackerAt(clock.now)

	assert.Zero(t, tr.ElapsedMinutes(), "no readings yet")

	tr.Update(reading(risk.DoorClosed, risk.EngineOn))
	clock.advance(5 * time.Minute)
	assert.Zero(t, tr.ElapsedMinutes(), "engine running does not start the clock")

	tr.Update(reading(risk.DoorClosed, risk.EngineOff))
	clock.advance(12 * time.Minute)
	assert.InDelta(t, 12, tr.ElapsedMinutes(), 1e-9)
}

func TestDwellTrackerResetsOnDoorOpen(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 7, 14, 12, 0, 0, 0, time.UTC)}
	tr := NewDwellTrackerAt(clock.now)

	tr.Update(reading(risk.DoorClosed, risk.EngineOff))
	clock.advance(20 * time.Minute)
	assert.InDelta(t, 20, tr.ElapsedMinutes(), 1e-9)

	tr.Update(reading(risk.DoorOpen, risk.EngineOff))
	assert.Zero(t, tr.ElapsedMinutes(), "opening a door ends the dwell")

	// Re-entering the parked configuration restarts from zero.
	tr.Update(reading(risk.DoorClosed, risk.EngineOff))
	clock.advance(3 * time.Minute)
	assert.InDelta(t, 3, tr.ElapsedMinutes(), 1e-9)
}

func TestDwellTrackerKeepsClockAcrossRepeatReadings(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 7, 14, 12, 0, 0, 0, time.UTC)}
	tr := NewDwellTrackerAt(clock.now)

	tr.Update(reading(risk.DoorClosed, risk.EngineOff))
	clock.advance(10 * time.Minute)
	tr.Update(reading(risk.DoorClosed, risk.EngineOff))
	clock.advance(10 * time.Minute)
	assert.InDelta(t, 20, tr.ElapsedMinutes(), 1e-9,
		"repeat parked readings do not restart the clock")
}

func TestDwellTrackerVehicleSnapshot(t *testing.T) {
	tr := NewDwellTracker()
	_, ok := tr.Vehicle()
	assert.False(t, ok)

	tr.Update(reading(risk.DoorClosed, risk.EngineOff))
	v, ok := tr.Vehicle()
	assert.True(t, ok)
	assert.Equal(t, risk.DoorClosed, v.DoorState)
}
