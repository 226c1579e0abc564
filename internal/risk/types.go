// Package risk implements the multi-factor fusion engine that turns one
// radar analysis plus vehicle and environment telemetry into a bounded risk
// score, a discrete level, anomaly findings and recommended actions. Every
// function in this package is pure: assessments are built fresh per call and
// never mutated afterwards.
package risk

import (
	"encoding/json"
	"time"

	"github.com/KazeAsh/guardianseat/internal/radar"
)

// DoorState and EngineState values as reported by the vehicle bus. An empty
// string means the sensor reading is missing; missing readings are never an
// error, they only lower assessment confidence.
const (
	DoorOpen   = "open"
	DoorClosed = "closed"
	EngineOn   = "on"
	EngineOff  = "off"
)

// VehicleState is one reading from the vehicle's own sensors. Optional
// fields are pointers so absence is distinguishable from zero.
type VehicleState struct {
	TemperatureC   *float64 `json:"temperature_c,omitempty"`
	DoorState      string   `json:"door_state,omitempty"`
	EngineState    string   `json:"engine_state,omitempty"`
	SeatPressureKg *float64 `json:"seat_pressure_kg,omitempty"`
	CO2PPM         *float64 `json:"co2_ppm,omitempty"`
	HumidityPct    *float64 `json:"humidity_percent,omitempty"`
}

// sensorCompleteness counts how many of the three core vehicle sensors are
// present, out of three.
func (v VehicleState) sensorCompleteness() float64 {
	n := 0
	if v.TemperatureC != nil {
		n++
	}
	if v.DoorState != "" {
		n++
	}
	if v.EngineState != "" {
		n++
	}
	return float64(n) / 3
}

// cabinTemperature returns the cabin reading, defaulting to a mild 25 °C
// when the sensor is absent (matching the scoring defaults).
func (v VehicleState) cabinTemperature() float64 {
	if v.TemperatureC == nil {
		return 25
	}
	return *v.TemperatureC
}

// Environment is one outdoor reading from the weather collaborator.
// LocalHour is the hour-of-day at the vehicle's location, 0-23.
type Environment struct {
	TemperatureC float64 `json:"temperature_c"`
	Humidity     float64 `json:"humidity"`
	Weather      string  `json:"weather"`
	City         string  `json:"city"`
	LocalHour    int     `json:"local_hour"`
}

// Level is the discrete risk classification. Levels are ordered: comparisons
// with < and > follow severity.
type Level int

const (
	LevelSafe Level = iota
	LevelLow
	LevelModerate
	LevelHigh
	LevelCritical
)

var levelNames = map[Level]string{
	LevelSafe:     "SAFE",
	LevelLow:      "LOW",
	LevelModerate: "MODERATE",
	LevelHigh:     "HIGH",
	LevelCritical: "CRITICAL",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return "UNKNOWN"
}

// MarshalJSON renders the level as its name so API payloads stay readable.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts the level name. Unknown names fall back to SAFE.
func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if lvl, ok := ParseLevel(s); ok {
		*l = lvl
	} else {
		*l = LevelSafe
	}
	return nil
}

// ParseLevel maps a level name back to its Level.
func ParseLevel(s string) (Level, bool) {
	for lvl, name := range levelNames {
		if name == s {
			return lvl, true
		}
	}
	return LevelSafe, false
}

// Severity grades an anomaly finding.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Anomaly is one independent statistical finding. The list order in an
// Assessment is detection order and carries no further meaning.
type Anomaly struct {
	Type          string   `json:"type"`
	Severity      Severity `json:"severity"`
	Value         float64  `json:"value"`
	ExpectedRange string   `json:"expected_range,omitempty"`
	Description   string   `json:"description"`
}

// Components holds the five independent risk scores, each clamped to [0,1].
type Components struct {
	Temperature   float64 `json:"temperature_risk"`
	TimeElapsed   float64 `json:"time_risk"`
	VitalSigns    float64 `json:"vital_signs_risk"`
	Environmental float64 `json:"environmental_risk"`
	VehicleState  float64 `json:"vehicle_state_risk"`
}

// Assessment is the externally visible result of one fusion pass. Created
// fresh on every call; the caller owns its lifetime.
type Assessment struct {
	Components Components `json:"risk_components"`
	TotalRisk  float64    `json:"total_risk"`
	Level      Level      `json:"risk_level"`
	Confidence float64    `json:"confidence"`
	Anomalies  []Anomaly  `json:"anomalies_detected"`
	Actions    []string   `json:"recommended_actions"`
	Summary    string     `json:"assessment_summary"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Input bundles everything one fusion pass consumes.
type Input struct {
	Scan           radar.Analysis
	Vehicle        VehicleState
	Environment    Environment
	ElapsedMinutes float64
}
