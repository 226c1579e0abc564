package radar

import (
	"fmt"
	"math"
	"math/cmplx"
)

// biquad is one direct-form-II-transposed second-order section with
// normalized a0 = 1.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// sosChain is a cascade of second-order sections. Chains are stateless;
// filtering allocates fresh state per call so a chain can be shared across
// pipeline invocations.
type sosChain []biquad

// apply runs the cascade over x in a single forward pass.
func (s sosChain) apply(x []float64) []float64 {
	y := make([]float64, len(x))
	copy(y, x)
	for _, q := range s {
		var z1, z2 float64
		for i, v := range y {
			out := q.b0*v + z1
			z1 = q.b1*v - q.a1*out + z2
			z2 = q.b2*v - q.a2*out
			y[i] = out
		}
	}
	return y
}

// applyComplex runs the cascade over a complex sequence. The coefficients are
// real, so the real and imaginary parts filter independently; doing it in one
// pass with complex state avoids splitting the buffer.
func (s sosChain) applyComplex(x []complex128) []complex128 {
	y := make([]complex128, len(x))
	copy(y, x)
	for _, q := range s {
		var z1, z2 complex128
		for i, v := range y {
			out := complex(q.b0, 0)*v + z1
			z1 = complex(q.b1, 0)*v - complex(q.a1, 0)*out + z2
			z2 = complex(q.b2, 0)*v - complex(q.a2, 0)*out
			y[i] = out
		}
	}
	return y
}

// applyZeroPhase filters forward, then backward, cancelling the phase delay
// of the cascade. Peak timing in the output is therefore aligned with the
// input, at the cost of squaring the magnitude response.
func (s sosChain) applyZeroPhase(x []float64) []float64 {
	y := s.apply(x)
	reverse(y)
	y = s.apply(y)
	reverse(y)
	return y
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}

// newButterworthBandpass designs an order-N Butterworth bandpass (2N poles)
// for the given edge frequencies, returning N second-order sections. The
// design follows the classic analog-prototype route: Butterworth lowpass
// poles, lowpass-to-bandpass transform, bilinear transform with frequency
// pre-warping, then conjugate-pair grouping into biquads.
func newButterworthBandpass(order int, lowHz, highHz, sampleRate float64) (sosChain, error) {
	if order < 1 {
		return nil, fmt.Errorf("radar: bandpass order must be at least 1, got %d", order)
	}
	nyquist := sampleRate / 2
	if lowHz <= 0 || highHz <= lowHz || highHz >= nyquist {
		return nil, fmt.Errorf("radar: bandpass edges %.3g-%.3g Hz invalid for fs=%.3g Hz", lowHz, highHz, sampleRate)
	}

	// Analog Butterworth lowpass prototype: poles evenly spaced on the left
	// half of the unit circle, no finite zeros, unit gain.
	poles := make([]complex128, order)
	for k := 1; k <= order; k++ {
		theta := math.Pi * float64(2*k-1-order) / float64(2*order)
		poles[k-1] = -cmplx.Exp(complex(0, theta))
	}

	// Pre-warp the band edges so the bilinear transform lands them exactly.
	fs2 := 2 * sampleRate
	w1 := fs2 * math.Tan(math.Pi*lowHz/sampleRate)
	w2 := fs2 * math.Tan(math.Pi*highHz/sampleRate)
	bw := w2 - w1
	w0 := math.Sqrt(w1 * w2)

	// Lowpass-to-bandpass: each prototype pole splits into a conjugate pair
	// around the centre frequency; N zeros appear at s=0.
	bpPoles := make([]complex128, 0, 2*order)
	for _, p := range poles {
		ps := p * complex(bw/2, 0)
		d := cmplx.Sqrt(ps*ps - complex(w0*w0, 0))
		bpPoles = append(bpPoles, ps+d, ps-d)
	}
	gain := math.Pow(bw, float64(order))

	// Bilinear transform. The N analog zeros at s=0 map to z=+1; the N
	// excess poles contribute zeros at z=-1.
	digPoles := make([]complex128, len(bpPoles))
	num := complex(1, 0)
	den := complex(1, 0)
	for i, p := range bpPoles {
		digPoles[i] = (complex(fs2, 0) + p) / (complex(fs2, 0) - p)
		den *= complex(fs2, 0) - p
	}
	for i := 0; i < order; i++ {
		num *= complex(fs2, 0) // analog zeros at s=0: (fs2 - 0)
	}
	digGain := gain * real(num/den)

	// Group conjugate pole pairs into sections. Each section takes one zero
	// at +1 and one at -1, i.e. numerator (z^2 - 1).
	sections := make(sosChain, 0, order)
	used := make([]bool, len(digPoles))
	first := true
	for i, p := range digPoles {
		if used[i] || imag(p) < 0 {
			continue
		}
		used[i] = true
		// Find the conjugate partner (or the nearest real pole for the
		// degenerate all-real case, which Butterworth bandpass never
		// produces for order >= 1 with distinct edges).
		partner := cmplx.Conj(p)
		for j := i + 1; j < len(digPoles); j++ {
			if !used[j] && cmplx.Abs(digPoles[j]-partner) < 1e-9 {
				used[j] = true
				break
			}
		}
		q := biquad{
			b0: 1, b1: 0, b2: -1,
			a1: -2 * real(p),
			a2: real(p)*real(p) + imag(p)*imag(p),
		}
		if first {
			q.b0 *= digGain
			q.b2 *= digGain
			first = false
		}
		sections = append(sections, q)
	}
	if len(sections) != order {
		return nil, fmt.Errorf("radar: bandpass design produced %d sections, want %d", len(sections), order)
	}
	return sections, nil
}

// newNotch builds a single-section notch (band-reject) filter centred on
// centerHz with the given quality factor, using the RBJ cookbook formulas.
// At Q=30 the reject width is roughly centerHz/30 Hz. When the centre sits at
// the Nyquist frequency the section degenerates to a near-identity, which is
// the desired behaviour for low-rate captures that cannot contain the
// interference in the first place.
func newNotch(centerHz, q, sampleRate float64) sosChain {
	w := 2 * math.Pi * centerHz / sampleRate
	alpha := math.Sin(w) / (2 * q)
	cosw := math.Cos(w)
	a0 := 1 + alpha
	return sosChain{{
		b0: 1 / a0,
		b1: -2 * cosw / a0,
		b2: 1 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}}
}
