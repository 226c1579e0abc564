package radar

// MotionSeverity buckets the movement index into coarse levels for
// downstream reporting.
type MotionSeverity string

const (
	MotionLow    MotionSeverity = "low"
	MotionMedium MotionSeverity = "medium"
	MotionHigh   MotionSeverity = "high"
)

// Motion-artifact thresholds on the movement index. Gross body movement
// swamps the sub-millimetre phase displacements the vital-sign bands rely
// on, so windows above the artifact threshold should be treated with
// suspicion by consumers.
const (
	motionArtifactThreshold = 0.1
	motionHighThreshold     = 0.2
)

// MotionAssessment reports short-time amplitude variability on the raw
// (unconditioned) window.
type MotionAssessment struct {
	MovementIndex     float64        `json:"movement_index"`
	HasMotionArtifact bool           `json:"has_motion_artifact"`
	Severity          MotionSeverity `json:"movement_severity"`
}

// assessMotion computes the mean absolute successive difference of the raw
// amplitude sequence. The raw buffer is used on purpose: preconditioning
// normalizes amplitude and would hide exactly the variability measured here.
func assessMotion(magnitudes []float64) MotionAssessment {
	var index float64
	if len(magnitudes) > 1 {
		var sum float64
		for i := 1; i < len(magnitudes); i++ {
			d := magnitudes[i] - magnitudes[i-1]
			if d < 0 {
				d = -d
			}
			sum += d
		}
		index = sum / float64(len(magnitudes)-1)
	}

	m := MotionAssessment{
		MovementIndex:     index,
		HasMotionArtifact: index > motionArtifactThreshold,
		Severity:          MotionLow,
	}
	switch {
	case index > motionHighThreshold:
		m.Severity = MotionHigh
	case index > motionArtifactThreshold:
		m.Severity = MotionMedium
	}
	return m
}
