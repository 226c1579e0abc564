package radar

// OccupantType is the heuristic occupant classification derived from the
// detected heart-rate range.
type OccupantType string

const (
	OccupantChild   OccupantType = "child"
	OccupantAdult   OccupantType = "adult"
	OccupantUnknown OccupantType = "unknown"
)

// VitalSignEstimate is the result of peak detection in the breathing and
// heartbeat spectra. When neither band clears its detection threshold,
// Detected is false and the occupant type is unknown.
type VitalSignEstimate struct {
	BreathingRateBPM    float64      `json:"breathing_rate_bpm"`
	HeartRateBPM        float64      `json:"heart_rate_bpm"`
	BreathingConfidence float64      `json:"breathing_confidence"`
	HeartConfidence     float64      `json:"heartbeat_confidence"`
	Detected            bool         `json:"vital_signs_detected"`
	OccupantType        OccupantType `json:"occupant_type"`
	TypeConfidence      float64      `json:"type_confidence"`
}

// detectRate searches the spectrum for the dominant peak inside the given
// physiological band and returns the rate in beats (or breaths) per minute
// together with a confidence score. Confidence compares the in-band peak to
// the strongest bin anywhere in the spectrum, so out-of-band energy (motion,
// residual clutter) suppresses it. A band with no bins reports 0/0.
func detectRate(spec Spectrum, lowHz, highHz float64) (bpm, confidence float64) {
	idx := spec.Peak(lowHz, highHz)
	if idx < 0 {
		return 0, 0
	}
	bpm = spec.Freqs[idx] * 60
	if max := spec.MaxPower(); max > 0 {
		confidence = spec.Power[idx] / max
		if confidence > 1 {
			confidence = 1
		}
	}
	return bpm, confidence
}

// estimateVitals combines both band detections into a single estimate and
// applies the occupant-type heuristic. The child/adult split is a fixed
// threshold on heart rate (children run faster), not a trained classifier;
// it exists to bias downstream risk scoring, not to identify people.
func (p *Processor) estimateVitals(breathing, heartbeat Spectrum) VitalSignEstimate {
	est := VitalSignEstimate{OccupantType: OccupantUnknown}

	est.BreathingRateBPM, est.BreathingConfidence = detectRate(breathing, p.breathingLowHz, p.breathingHighHz)
	est.HeartRateBPM, est.HeartConfidence = detectRate(heartbeat, p.heartbeatLowHz, p.heartbeatHighHz)

	est.Detected = est.BreathingConfidence > p.breathingThreshold ||
		est.HeartConfidence > p.heartbeatThreshold

	switch {
	case est.HeartRateBPM > 100:
		est.OccupantType = OccupantChild
		est.TypeConfidence = clamp01((est.HeartRateBPM - 100) / 20)
	case est.HeartRateBPM > 0:
		est.OccupantType = OccupantAdult
		est.TypeConfidence = clamp01((100 - est.HeartRateBPM) / 40)
	}
	if !est.Detected {
		est.OccupantType = OccupantUnknown
		est.TypeConfidence = 0
	}
	return est
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
