// Package radar implements the in-cabin mmWave vital-sign extraction
// pipeline: IQ preconditioning, phase extraction, band filtering, spectral
// analysis, rate estimation, signal-quality scoring and motion-artifact
// detection. Every stage is a pure transformation over immutable inputs; a
// single Processor invocation owns all intermediate state.
package radar

import (
	"errors"
	"fmt"
	"math/cmplx"
)

var (
	// ErrInvalidSampleRate indicates a non-positive sampling rate. This is
	// caller misuse, not a sensor-quality condition.
	ErrInvalidSampleRate = errors.New("radar: sampling rate must be positive")

	// ErrInvalidFFTSize indicates a transform length below 1.
	ErrInvalidFFTSize = errors.New("radar: fft size must be at least 1")

	// ErrLengthMismatch indicates a sequence-length mismatch between
	// pipeline stages. Stages always preserve length, so hitting this means
	// a buffer was mutated mid-flight.
	ErrLengthMismatch = errors.New("radar: sequence length mismatch between pipeline stages")
)

// SampleBuffer holds one analysis window of complex IQ samples at a fixed
// sampling rate. Buffers are captured once and never mutated; the pipeline
// invocation that receives one is its sole owner.
type SampleBuffer struct {
	IQ         []complex128
	SampleRate float64
}

// NewSampleBuffer validates the sampling rate and wraps the given samples.
// The slice is not copied; callers hand over ownership.
func NewSampleBuffer(iq []complex128, sampleRate float64) (*SampleBuffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidSampleRate, sampleRate)
	}
	return &SampleBuffer{IQ: iq, SampleRate: sampleRate}, nil
}

// Len returns the number of samples in the window.
func (b *SampleBuffer) Len() int { return len(b.IQ) }

// Magnitudes returns the per-sample amplitude of the raw IQ sequence.
func (b *SampleBuffer) Magnitudes() []float64 {
	mags := make([]float64, len(b.IQ))
	for i, s := range b.IQ {
		mags[i] = cmplx.Abs(s)
	}
	return mags
}
