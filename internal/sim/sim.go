// Package sim generates synthetic radar IQ windows and vehicle-sensor
// scenarios. It exists for dev mode, the guardiansim tool and the test
// suite; nothing in the production pipeline depends on it.
package sim

import (
	"math"
	"math/rand"

	"github.com/KazeAsh/guardianseat/internal/radar"
	"github.com/KazeAsh/guardianseat/internal/risk"
)

// MovementLevel describes how active the simulated occupant is.
type MovementLevel string

const (
	MovementSleeping MovementLevel = "sleeping"
	MovementLow      MovementLevel = "low"
	MovementMedium   MovementLevel = "medium"
	MovementHigh     MovementLevel = "high"
)

// Generator produces IQ windows with a fixed sampling rate and duration.
// Not safe for concurrent use; each goroutine should own its own Generator.
type Generator struct {
	sampleRate float64
	duration   float64 // seconds per window
	rng        *rand.Rand

	// Cabin reflection model: the dominant static return plus low-frequency
	// seat-frame vibration.
	seatVibrationHz  float64
	seatVibrationAmp float64
	noiseStdDev      float64
}

// NewGenerator seeds a generator. Pass a fixed seed for reproducible frames.
func NewGenerator(sampleRate, durationSec float64, seed int64) *Generator {
	return &Generator{
		sampleRate:       sampleRate,
		duration:         durationSec,
		rng:              rand.New(rand.NewSource(seed)),
		seatVibrationHz:  10,
		seatVibrationAmp: 0.5,
		noiseStdDev:      0.05,
	}
}

// FrameOptions selects what the simulated radar sees.
type FrameOptions struct {
	HasChild    bool
	Movement    MovementLevel
	BreathingHz float64 // 0 means pick randomly in the child range
	HeartbeatHz float64 // 0 means pick randomly in the child range
}

// Frame synthesizes one analysis window: static cabin reflections, optional
// child vital-sign phase modulation with a heartbeat harmonic, activity
// bursts per movement level, and gaussian IQ noise.
func (g *Generator) Frame(opts FrameOptions) *radar.SampleBuffer {
	n := int(g.duration * g.sampleRate)
	dt := 1 / g.sampleRate

	sig := make([]float64, n)
	for i := range sig {
		t := float64(i) * dt
		sig[i] = g.seatVibrationAmp * math.Sin(2*math.Pi*g.seatVibrationHz*t)
	}

	if opts.HasChild {
		breathingHz := opts.BreathingHz
		if breathingHz == 0 {
			breathingHz = g.rng.Float64()*0.2 + 0.3 // 18-30 breaths/min
		}
		heartbeatHz := opts.HeartbeatHz
		if heartbeatHz == 0 {
			heartbeatHz = g.rng.Float64()*0.7 + 1.3 // 78-120 BPM
		}
		breathPhase := g.rng.Float64() * 2 * math.Pi
		for i := range sig {
			t := float64(i) * dt
			sig[i] += 0.02 * math.Sin(2*math.Pi*breathingHz*t+breathPhase)
			sig[i] += 0.3 * math.Sin(2*math.Pi*heartbeatHz*t)
			sig[i] += 0.1 * math.Sin(2*math.Pi*2*heartbeatHz*t) // first harmonic
		}
		g.addMovement(sig, opts.Movement)
	}

	iq := make([]complex128, n)
	for i, v := range sig {
		iq[i] = complex(v+g.rng.NormFloat64()*g.noiseStdDev,
			g.rng.NormFloat64()*g.noiseStdDev)
	}
	buf, _ := radar.NewSampleBuffer(iq, g.sampleRate)
	return buf
}

// addMovement injects broadband jitter plus position-shift bursts sized to
// the activity level.
func (g *Generator) addMovement(sig []float64, level MovementLevel) {
	n := len(sig)
	dt := 1 / g.sampleRate

	jitter := map[MovementLevel]float64{
		MovementSleeping: 0.005,
		MovementLow:      0.015,
		MovementMedium:   0.04,
		MovementHigh:     0.08,
	}[level]
	for i := range sig {
		sig[i] += jitter * g.rng.NormFloat64()
	}

	type burst struct {
		minGap, maxGap int // samples between bursts
		length         int // samples per burst
		amp, freqHz    float64
	}
	var b burst
	switch level {
	case MovementLow:
		b = burst{500, 1000, 50, 0.02, 0.5}
	case MovementMedium:
		b = burst{300, 500, 100, 0.06, 1.5}
	case MovementHigh:
		b = burst{100, 300, 150, 0.1, 2.5}
	default:
		return
	}
	for i := 0; i < n; i += b.minGap + g.rng.Intn(b.maxGap-b.minGap) {
		for j := 0; j < b.length && i+j < n; j++ {
			sig[i+j] += b.amp * math.Sin(2*math.Pi*b.freqHz*float64(j)*dt)
		}
	}
}

// Scenario models the reference parked-car timeline: ten minutes of driving,
// twenty minutes parked with the child left inside, then the adult returns.
type Scenario struct {
	baseTempC float64
	rng       *rand.Rand
}

// NewScenario seeds the vehicle-sensor timeline.
func NewScenario(seed int64) *Scenario {
	rng := rand.New(rand.NewSource(seed))
	return &Scenario{
		baseTempC: 18 + rng.Float64()*6, // comfortable running temperature
		rng:       rng,
	}
}

// VehicleAt returns the vehicle reading at the given minute of the timeline.
// While parked the cabin heats at the expected closed-car rate.
func (s *Scenario) VehicleAt(minute int) risk.VehicleState {
	temp := s.baseTempC
	door := risk.DoorClosed
	engine := risk.EngineOn
	seat := 15.0 // child seat occupied throughout

	if minute >= 10 && minute < 30 {
		engine = risk.EngineOff
		temp = s.baseTempC + float64(minute-10)*0.5
	}
	return risk.VehicleState{
		TemperatureC:   &temp,
		DoorState:      door,
		EngineState:    engine,
		SeatPressureKg: &seat,
	}
}
