package radar

import "math/cmplx"

// precondition removes the static contributions that would otherwise swamp
// the phase signal: the DC bias from stationary cabin reflections, narrowband
// powerline pickup, and amplitude scale. The output has the same length as
// the input; an all-zero window passes through as all zeros.
func (p *Processor) precondition(iq []complex128) []complex128 {
	out := make([]complex128, len(iq))
	if len(iq) == 0 {
		return out
	}

	// DC removal: subtract the complex mean.
	var mean complex128
	for _, s := range iq {
		mean += s
	}
	mean /= complex(float64(len(iq)), 0)
	for i, s := range iq {
		out[i] = s - mean
	}

	// Powerline rejection.
	out = p.notch.applyComplex(out)

	// Peak-normalize. Skipped when the window is numerically silent so we
	// never divide by zero.
	var maxMag float64
	for _, s := range out {
		if m := cmplx.Abs(s); m > maxMag {
			maxMag = m
		}
	}
	if maxMag > 0 {
		for i, s := range out {
			out[i] = s / complex(maxMag, 0)
		}
	}
	return out
}
