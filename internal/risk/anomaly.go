package risk

import (
	"fmt"
	"math"
)

// detectAnomalies runs the independent statistical checks over one input.
// Findings are appended in detection order; the order carries no meaning.
func detectAnomalies(in Input) []Anomaly {
	var anomalies []Anomaly

	vs := in.Scan.VitalSigns
	if vs.Detected {
		// Heart rate against the child baseline, only when the rate is in
		// the plausible child range at all.
		if vs.HeartRateBPM >= childHRMinBPM && vs.HeartRateBPM <= childHRMaxBPM {
			z := math.Abs(vs.HeartRateBPM-childHRMeanBPM) / childHRStdBPM
			if z > 2 {
				severity := SeverityMedium
				if z > 3 {
					severity = SeverityHigh
				}
				anomalies = append(anomalies, Anomaly{
					Type:          "abnormal_heart_rate",
					Severity:      severity,
					Value:         vs.HeartRateBPM,
					ExpectedRange: fmt.Sprintf("%.0f-%.0f BPM", childHRMinBPM, childHRMaxBPM),
					Description:   fmt.Sprintf("Heart rate %.1f BPM is statistically unusual", vs.HeartRateBPM),
				})
			}
		}

		// Breathing rate against the child baseline, within the plausible
		// 10-40 window.
		if vs.BreathingRateBPM >= 10 && vs.BreathingRateBPM <= 40 {
			z := math.Abs(vs.BreathingRateBPM-childBRMeanBPM) / childBRStdBPM
			if z > 2 {
				anomalies = append(anomalies, Anomaly{
					Type:          "abnormal_breathing",
					Severity:      SeverityMedium,
					Value:         vs.BreathingRateBPM,
					ExpectedRange: "20-30 breaths/min",
					Description:   fmt.Sprintf("Breathing rate %.1f BPM is unusual", vs.BreathingRateBPM),
				})
			}
		}
	}

	// Temperature rising faster than the expected closed-car rate. The
	// expected rise assumes a fixed start at tempRiseBaselineC regardless of
	// history; an inherited simplification, kept as-is.
	temp := in.Vehicle.cabinTemperature()
	if temp > 30 && in.ElapsedMinutes > 10 {
		expectedRise := in.ElapsedMinutes * tempRiseRatePerMin
		actualRise := temp - tempRiseBaselineC
		if actualRise > expectedRise*1.5 {
			anomalies = append(anomalies, Anomaly{
				Type:     "rapid_temperature_rise",
				Severity: SeverityHigh,
				Value:    temp,
				Description: fmt.Sprintf("Temperature rising faster than expected: %.1f°C in %.0f min",
					actualRise, in.ElapsedMinutes),
			})
		}
	}

	if in.Scan.Quality.OverallQuality < 0.3 {
		anomalies = append(anomalies, Anomaly{
			Type:        "poor_signal_quality",
			Severity:    SeverityMedium,
			Value:       in.Scan.Quality.OverallQuality,
			Description: "Low radar signal quality - may affect vital sign detection",
		})
	}

	// By fifteen minutes parked, a sleeping occupant should be still;
	// movement then is itself a finding.
	if in.Scan.Motion.HasMotionArtifact && in.ElapsedMinutes > 15 {
		anomalies = append(anomalies, Anomaly{
			Type:        "unexpected_movement",
			Severity:    SeverityLow,
			Value:       in.Scan.Motion.MovementIndex,
			Description: "Movement detected in stationary vehicle",
		})
	}

	return anomalies
}
