package radar

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Band identifies which vital-sign band a filtered signal or spectrum
// belongs to.
type Band string

const (
	BandBreathing Band = "breathing"
	BandHeartbeat Band = "heartbeat"
)

// FilteredSignal is a band-limited real sequence derived from the phase
// signal. It is never mutated after creation.
type FilteredSignal struct {
	Band    Band
	Samples []float64
}

// Spectrum holds a one-sided power spectrum with its matching frequency
// axis. Both slices have equal length and cover [0, sampleRate/2), ordered by
// increasing frequency.
type Spectrum struct {
	Power []float64 `json:"power"`
	Freqs []float64 `json:"freqs"`
}

// Peak returns the bin index with maximum power inside [lowHz, highHz], or
// -1 when no bin falls inside the range.
func (s Spectrum) Peak(lowHz, highHz float64) int {
	best := -1
	var bestPower float64
	for i, f := range s.Freqs {
		if f < lowHz || f > highHz {
			continue
		}
		if best == -1 || s.Power[i] > bestPower {
			best = i
			bestPower = s.Power[i]
		}
	}
	return best
}

// MaxPower returns the maximum power over the whole spectrum.
func (s Spectrum) MaxPower() float64 {
	var max float64
	for _, p := range s.Power {
		if p > max {
			max = p
		}
	}
	return max
}

// computeSpectrum windows the signal with a raised-cosine (Hann) taper to
// limit spectral leakage, zero-pads or truncates to the configured transform
// length, and returns the squared-magnitude spectrum over the non-negative
// frequency bins.
func (p *Processor) computeSpectrum(sig []float64) Spectrum {
	n := len(sig)
	padded := make([]float64, p.fftSize)
	limit := n
	if limit > p.fftSize {
		limit = p.fftSize
	}
	for i := 0; i < limit; i++ {
		padded[i] = sig[i] * hann(i, n)
	}

	fft := fourier.NewFFT(p.fftSize)
	coeffs := fft.Coefficients(nil, padded)

	half := p.fftSize / 2
	if half < 1 {
		half = 1
	}
	spec := Spectrum{
		Power: make([]float64, half),
		Freqs: make([]float64, half),
	}
	binWidth := p.sampleRate / float64(p.fftSize)
	for i := 0; i < half; i++ {
		m := cmplx.Abs(coeffs[i])
		spec.Power[i] = m * m
		spec.Freqs[i] = float64(i) * binWidth
	}
	return spec
}

// hann evaluates the symmetric raised-cosine window of length n at index i.
func hann(i, n int) float64 {
	if n <= 1 {
		return 1
	}
	return 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
}
