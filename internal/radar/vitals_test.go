package radar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// bandSpectrum builds a spectrum with a single dominant line at peakHz.
func bandSpectrum(peakHz, peakPower float64) Spectrum {
	spec := Spectrum{
		Power: make([]float64, 512),
		Freqs: make([]float64, 512),
	}
	bin := 0
	for i := range spec.Freqs {
		spec.Freqs[i] = float64(i) * 100.0 / 1024
		spec.Power[i] = 0.01
		if spec.Freqs[i] <= peakHz {
			bin = i
		}
	}
	spec.Power[bin] = peakPower
	return spec
}

func TestDetectRate(t *testing.T) {
	spec := bandSpectrum(1.5, 10)
	bpm, conf := detectRate(spec, 0.8, 3.0)
	assert.InDelta(t, 90, bpm, 6)
	assert.InDelta(t, 1.0, conf, 1e-9, "peak bin is the global max")

	bpm, conf = detectRate(spec, 60, 80)
	assert.Zero(t, bpm, "band beyond the spectrum")
	assert.Zero(t, conf)
}

func TestDetectRateZeroSpectrum(t *testing.T) {
	spec := Spectrum{Power: make([]float64, 8), Freqs: []float64{0, 1, 2, 3, 4, 5, 6, 7}}
	_, conf := detectRate(spec, 1, 5)
	assert.Zero(t, conf, "zero power yields zero confidence")
}

func TestEstimateVitalsClassifiesChild(t *testing.T) {
	p := testProcessor(t)
	// Heart line at 1.9 Hz -> ~114 BPM, inside the child band.
	est := p.estimateVitals(bandSpectrum(0.4, 10), bandSpectrum(1.9, 10))

	assert.True(t, est.Detected)
	assert.Equal(t, OccupantChild, est.OccupantType)
	assert.Greater(t, est.HeartRateBPM, 100.0)
	assert.Greater(t, est.TypeConfidence, 0.0)
	assert.LessOrEqual(t, est.TypeConfidence, 1.0)
}

func TestEstimateVitalsClassifiesAdult(t *testing.T) {
	p := testProcessor(t)
	// Heart line at 1.1 Hz -> ~66 BPM.
	est := p.estimateVitals(bandSpectrum(0.3, 10), bandSpectrum(1.1, 10))

	assert.True(t, est.Detected)
	assert.Equal(t, OccupantAdult, est.OccupantType)
	assert.Less(t, est.HeartRateBPM, 100.0)
}

func TestEstimateVitalsNoDetectionResetsType(t *testing.T) {
	p := testProcessor(t)
	// Both bands carry only flat noise: in-band peak equals the noise
	// floor, but a strong out-of-band line drags confidence to ~0.
	breathing := bandSpectrum(5, 1000)
	heartbeat := bandSpectrum(10, 1000)
	est := p.estimateVitals(breathing, heartbeat)

	assert.False(t, est.Detected)
	assert.Equal(t, OccupantUnknown, est.OccupantType)
	assert.Zero(t, est.TypeConfidence)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-2))
	assert.Equal(t, 0.5, clamp01(0.5))
	assert.Equal(t, 1.0, clamp01(3))
}
