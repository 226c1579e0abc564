package radar

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// QualityMetrics scores how trustworthy the current window's vital-sign
// estimate is. SNR values are floored at zero; purity values and the overall
// score live in [0,1].
type QualityMetrics struct {
	BreathingSNRdB  float64 `json:"breathing_snr_db"`
	HeartbeatSNRdB  float64 `json:"heartbeat_snr_db"`
	BreathingPurity float64 `json:"breathing_spectral_purity"`
	HeartbeatPurity float64 `json:"heartbeat_spectral_purity"`
	OverallQuality  float64 `json:"overall_quality"`
}

// assessQuality computes per-band SNR and spectral purity, then folds the
// four figures into a single overall score. SNR contributions are scaled by
// 20 dB so an excellent band saturates its quarter of the score.
func assessQuality(breathing, heartbeat FilteredSignal, breathingSpec, heartbeatSpec Spectrum) QualityMetrics {
	q := QualityMetrics{
		BreathingSNRdB:  estimateSNR(breathing.Samples),
		HeartbeatSNRdB:  estimateSNR(heartbeat.Samples),
		BreathingPurity: spectralPurity(breathingSpec.Power),
		HeartbeatPurity: spectralPurity(heartbeatSpec.Power),
	}
	q.OverallQuality = (q.BreathingSNRdB/20 + q.HeartbeatSNRdB/20 + q.BreathingPurity + q.HeartbeatPurity) / 4
	return q
}

// estimateSNR compares total signal power against the variance of the
// residual left after subtracting a 5-sample median-filtered copy. The median
// filter tracks the physiological waveform while rejecting impulsive noise,
// so the residual approximates the noise floor. Returns 0 when the residual
// carries no power.
func estimateSNR(sig []float64) float64 {
	if len(sig) == 0 {
		return 0
	}
	var signalPower float64
	for _, v := range sig {
		signalPower += v * v
	}
	signalPower /= float64(len(sig))

	smoothed := medianFilter(sig, 5)
	residual := make([]float64, len(sig))
	for i := range sig {
		residual[i] = sig[i] - smoothed[i]
	}
	mean := stat.Mean(residual, nil)
	var noisePower float64
	for _, v := range residual {
		d := v - mean
		noisePower += d * d
	}
	noisePower /= float64(len(residual))

	if noisePower <= 0 {
		return 0
	}
	snr := 10 * math.Log10(signalPower/noisePower)
	if snr < 0 {
		return 0
	}
	return snr
}

// medianFilter applies a centred running median of the given odd window
// length, treating samples beyond the edges as zero.
func medianFilter(sig []float64, window int) []float64 {
	out := make([]float64, len(sig))
	half := window / 2
	buf := make([]float64, 0, window)
	for i := range sig {
		buf = buf[:0]
		for j := i - half; j <= i+half; j++ {
			if j >= 0 && j < len(sig) {
				buf = append(buf, sig[j])
			} else {
				buf = append(buf, 0)
			}
		}
		sort.Float64s(buf)
		out[i] = buf[len(buf)/2]
	}
	return out
}

// spectralPurity measures how concentrated a power spectrum is around its
// dominant bins: 1 means a single clean line, 0 means noise-like spread.
// Defined via the Shannon entropy of the normalized spectrum relative to the
// maximum entropy for that length. A zero-sum spectrum scores 0.
func spectralPurity(power []float64) float64 {
	if len(power) == 0 {
		return 0
	}
	var sum float64
	for _, p := range power {
		sum += p
	}
	if sum == 0 {
		return 0
	}
	var entropy float64
	for _, p := range power {
		norm := p / sum
		entropy -= norm * math.Log2(norm+1e-10)
	}
	maxEntropy := math.Log2(float64(len(power)))
	if maxEntropy <= 0 {
		return 0
	}
	return clamp01(1 - entropy/maxEntropy)
}
