package radar

import (
	"math"
	"math/cmplx"
)

// extractPhase converts a conditioned IQ sequence into the unwrapped,
// detrended phase sequence that carries the micro-motion information.
// Vital signs modulate the target range by fractions of a wavelength, which
// shows up as small phase variations riding on a linear range drift; the
// drift is removed so the band filters see only the physiological component.
func extractPhase(iq []complex128) []float64 {
	phase := make([]float64, len(iq))
	for i, s := range iq {
		phase[i] = cmplx.Phase(s)
	}
	unwrapInPlace(phase)
	return detrend(phase)
}

// unwrapInPlace removes the artificial ±2π discontinuities the principal-value
// angle introduces, by shifting each sample so no step between neighbours
// exceeds π.
func unwrapInPlace(phase []float64) {
	var offset float64
	for i := 1; i < len(phase); i++ {
		d := phase[i] + offset - phase[i-1]
		for d > math.Pi {
			offset -= 2 * math.Pi
			d -= 2 * math.Pi
		}
		for d < -math.Pi {
			offset += 2 * math.Pi
			d += 2 * math.Pi
		}
		phase[i] += offset
	}
}

// detrend subtracts the least-squares linear fit from x and returns the
// residual. Inputs shorter than two samples are returned as copies unchanged.
func detrend(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	if n < 2 {
		copy(out, x)
		return out
	}
	// Fit y = a + b*i by ordinary least squares over the sample index.
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range x {
		fi := float64(i)
		sumX += fi
		sumY += v
		sumXY += fi * v
		sumXX += fi * fi
	}
	fn := float64(n)
	den := fn*sumXX - sumX*sumX
	var a, b float64
	if den != 0 {
		b = (fn*sumXY - sumX*sumY) / den
		a = (sumY - b*sumX) / fn
	} else {
		a = sumY / fn
	}
	for i, v := range x {
		out[i] = v - (a + b*float64(i))
	}
	return out
}
