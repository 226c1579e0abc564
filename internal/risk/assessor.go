package risk

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/KazeAsh/guardianseat/internal/radar"
)

// Scoring thresholds. These are hand-tuned empirical values carried over
// from field calibration; the component formulas below depend on their exact
// magnitudes, so change them together or not at all.
const (
	tempDangerC  = 40.0 // cabin temperature giving full temperature risk
	tempWarningC = 26.0 // cabin temperature where the ramp starts

	timeCriticalMin = 30.0 // dwell minutes giving full time risk
	timeWarningMin  = 10.0 // dwell minutes where the ramp starts

	childHRMinBPM = 80.0
	childHRMaxBPM = 120.0
)

// Component weights. They sum to 1.0 so the weighted total stays bounded.
const (
	weightTemperature  = 0.25
	weightTimeElapsed  = 0.20
	weightVitalSigns   = 0.25
	weightEnvironment  = 0.15
	weightVehicleState = 0.15
)

// Statistical baselines for anomaly detection. Fixed constants, not fitted:
// no training corpus exists for this deployment, so the values are the
// accepted pediatric reference ranges.
const (
	childHRMeanBPM     = 100.0
	childHRStdBPM      = 10.0
	childBRMeanBPM     = 25.0
	childBRStdBPM      = 5.0
	tempRiseRatePerMin = 0.5  // expected °C/min in a closed hot car
	tempRiseBaselineC  = 25.0 // assumed cabin temperature at dwell start
)

// Assessor is the fusion engine. It is stateless; one instance serves any
// number of concurrent assessments.
type Assessor struct {
	now func() time.Time
}

// NewAssessor returns a fusion engine using the wall clock for timestamps.
func NewAssessor() *Assessor {
	return &Assessor{now: time.Now}
}

// newAssessorAt pins the clock; used by tests.
func newAssessorAt(now func() time.Time) *Assessor {
	return &Assessor{now: now}
}

// Assess fuses one radar analysis with vehicle and environment telemetry
// into a complete risk assessment. The five component scores, the anomaly
// scan and the confidence computation are independent pure functions of the
// input; their evaluation order does not matter.
func (a *Assessor) Assess(in Input) Assessment {
	comps := Components{
		Temperature:   temperatureRisk(in.Vehicle.cabinTemperature()),
		TimeElapsed:   timeRisk(in.ElapsedMinutes),
		VitalSigns:    vitalSignsRisk(in.Scan.VitalSigns),
		Environmental: environmentalRisk(in.Environment),
		VehicleState:  vehicleStateRisk(in.Vehicle),
	}

	total := clamp01(comps.Temperature*weightTemperature +
		comps.TimeElapsed*weightTimeElapsed +
		comps.VitalSigns*weightVitalSigns +
		comps.Environmental*weightEnvironment +
		comps.VehicleState*weightVehicleState)

	level := levelFor(total)

	out := Assessment{
		Components: comps,
		TotalRisk:  total,
		Level:      level,
		Confidence: confidence(in.Scan, in.Vehicle),
		Anomalies:  detectAnomalies(in),
		Actions:    recommendedActions(level, in),
		Timestamp:  a.now().UTC(),
	}
	out.Summary = summarize(out, in)
	return out
}

// temperatureRisk ramps linearly from the warning threshold to the danger
// threshold and saturates beyond it.
func temperatureRisk(tempC float64) float64 {
	switch {
	case tempC >= tempDangerC:
		return 1
	case tempC >= tempWarningC:
		return (tempC - tempWarningC) / (tempDangerC - tempWarningC)
	default:
		return 0
	}
}

// timeRisk ramps linearly over the dwell window.
func timeRisk(minutes float64) float64 {
	switch {
	case minutes >= timeCriticalMin:
		return 1
	case minutes >= timeWarningMin:
		return (minutes - timeWarningMin) / (timeCriticalMin - timeWarningMin)
	default:
		return 0
	}
}

// vitalSignsRisk scores the danger implied by the vital-sign estimate. No
// detected vital signs means a likely unoccupied vehicle and zero risk.
// Otherwise the score accumulates uncertainty and unexpected-pattern
// penalties: a plausible child heart rate with shaky confidence is the
// highest-stakes case.
func vitalSignsRisk(vs radar.VitalSignEstimate) float64 {
	if !vs.Detected {
		return 0
	}

	var score float64
	hr := vs.HeartRateBPM
	br := vs.BreathingRateBPM
	hc := vs.HeartConfidence
	bc := vs.BreathingConfidence

	if hr >= childHRMinBPM && hr <= childHRMaxBPM {
		if hc < 0.5 {
			score += 0.3 // plausible child, uncertain reading
		}
	} else if hr > 0 {
		score += 0.2 // unexpected heart-rate pattern
	}

	if br >= 20 && br <= 30 {
		if bc < 0.5 {
			score += 0.2
		}
	} else if br > 0 {
		score += 0.1
	}

	score += (1 - (hc+bc)/2) * 0.5
	return clamp01(score)
}

// environmentalRisk accumulates outdoor contributions: heat, humidity that
// blocks evaporative cooling, direct sun, and the midday window.
func environmentalRisk(env Environment) float64 {
	var score float64
	switch {
	case env.TemperatureC > 30:
		score += 0.3
	case env.TemperatureC > 25:
		score += 0.1
	}
	if env.Humidity > 70 {
		score += 0.2
	}
	if w := strings.ToLower(env.Weather); strings.Contains(w, "clear") || strings.Contains(w, "sunny") {
		score += 0.2
	}
	if env.LocalHour >= 12 && env.LocalHour <= 16 {
		score += 0.2
	}
	return clamp01(score)
}

// vehicleStateRisk scores the entrapment configuration. Engine off and
// doors closed each contribute; both together add an extra term because that
// combination is what turns a parked car into a sealed oven.
func vehicleStateRisk(v VehicleState) float64 {
	var score float64
	if v.EngineState == EngineOff {
		score += 0.4
	}
	if v.DoorState == DoorClosed {
		score += 0.4
	}
	if v.EngineState == EngineOff && v.DoorState == DoorClosed {
		score += 0.2
	}
	return clamp01(score)
}

// levelFor maps the weighted total onto the discrete scale. Boundaries are
// inclusive on the upper side: exactly 0.8 is CRITICAL.
func levelFor(total float64) Level {
	switch {
	case total >= 0.8:
		return LevelCritical
	case total >= 0.6:
		return LevelHigh
	case total >= 0.4:
		return LevelModerate
	case total >= 0.2:
		return LevelLow
	default:
		return LevelSafe
	}
}

// confidence scores how much to trust the assessment itself: signal quality
// times vehicle-sensor completeness times average vital-sign confidence. The
// vital-sign factor is floored at 0.3 so a single weak reading cannot zero
// out trust in an otherwise strong signal.
func confidence(scan radar.Analysis, vehicle VehicleState) float64 {
	c := scan.Quality.OverallQuality
	c *= vehicle.sensorCompleteness()
	c *= math.Max(0.3, (scan.VitalSigns.HeartConfidence+scan.VitalSigns.BreathingConfidence)/2)
	return c
}

// summarize renders the one-line human-readable verdict.
func summarize(out Assessment, in Input) string {
	temp := in.Vehicle.cabinTemperature()
	switch out.Level {
	case LevelCritical:
		return fmt.Sprintf("CRITICAL RISK: child detected in vehicle for %.0f min at %.1f°C. Heart rate: %.1f BPM. Immediate action required.",
			in.ElapsedMinutes, temp, in.Scan.VitalSigns.HeartRateBPM)
	case LevelHigh:
		return fmt.Sprintf("HIGH RISK: possible child in vehicle for %.0f min. Temperature: %.1f°C. Urgent attention needed.",
			in.ElapsedMinutes, temp)
	case LevelModerate:
		return fmt.Sprintf("MODERATE RISK: vehicle occupied for %.0f min. Temperature: %.1f°C. Monitor closely.",
			in.ElapsedMinutes, temp)
	case LevelLow:
		return fmt.Sprintf("LOW RISK: vehicle conditions normal. Time elapsed: %.0f min, temperature: %.1f°C.",
			in.ElapsedMinutes, temp)
	default:
		return "SAFE: no significant risk detected. Monitoring normal conditions."
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
