package radar

import (
	"fmt"
	"time"
)

// Config carries the tunable parameters of the extraction pipeline. The zero
// value is not usable; start from DefaultConfig.
type Config struct {
	SampleRate float64 // Hz
	FFTSize    int     // transform length for spectral analysis

	// Physiological band edges (Hz).
	BreathingLowHz  float64
	BreathingHighHz float64
	HeartbeatLowHz  float64
	HeartbeatHighHz float64

	// Detection thresholds on band confidence.
	BreathingThreshold float64
	HeartbeatThreshold float64

	// Powerline interference rejection.
	NotchHz float64
	NotchQ  float64
}

// DefaultConfig returns the tuning used in production captures: 100 Hz IQ
// windows, 1024-point transforms, breathing 0.1-0.5 Hz (6-30 breaths/min),
// heartbeat 0.8-3.0 Hz (48-180 BPM), 50 Hz notch with a ~2 Hz reject width.
func DefaultConfig() Config {
	return Config{
		SampleRate:         100,
		FFTSize:            1024,
		BreathingLowHz:     0.1,
		BreathingHighHz:    0.5,
		HeartbeatLowHz:     0.8,
		HeartbeatHighHz:    3.0,
		BreathingThreshold: 0.1,
		HeartbeatThreshold: 0.05,
		NotchHz:            50,
		NotchQ:             30,
	}
}

// Analysis bundles everything one pipeline invocation produces. Consumers
// (the risk engine, the API layer) receive it by value and own its lifetime.
type Analysis struct {
	VitalSigns VitalSignEstimate `json:"vital_signs"`
	Quality    QualityMetrics    `json:"quality_metrics"`
	Motion     MotionAssessment  `json:"motion_artifact"`

	BreathingSpectrum Spectrum `json:"-"`
	HeartbeatSpectrum Spectrum `json:"-"`

	Timestamp time.Time `json:"timestamp"`
}

// Processor runs the full extraction pipeline over one SampleBuffer at a
// time. It holds only immutable filter coefficients, so a single Processor
// is safe for use from multiple goroutines.
type Processor struct {
	sampleRate float64
	fftSize    int

	breathingLowHz  float64
	breathingHighHz float64
	heartbeatLowHz  float64
	heartbeatHighHz float64

	breathingThreshold float64
	heartbeatThreshold float64

	notch        sosChain
	breathingSOS sosChain
	heartbeatSOS sosChain
}

// NewProcessor validates the configuration and designs the filter bank.
func NewProcessor(cfg Config) (*Processor, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidSampleRate, cfg.SampleRate)
	}
	if cfg.FFTSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFFTSize, cfg.FFTSize)
	}

	p := &Processor{
		sampleRate:         cfg.SampleRate,
		fftSize:            cfg.FFTSize,
		breathingLowHz:     cfg.BreathingLowHz,
		breathingHighHz:    cfg.BreathingHighHz,
		heartbeatLowHz:     cfg.HeartbeatLowHz,
		heartbeatHighHz:    cfg.HeartbeatHighHz,
		breathingThreshold: cfg.BreathingThreshold,
		heartbeatThreshold: cfg.HeartbeatThreshold,
	}
	p.notch = newNotch(cfg.NotchHz, cfg.NotchQ, cfg.SampleRate)

	var err error
	if p.breathingSOS, err = newButterworthBandpass(4, cfg.BreathingLowHz, cfg.BreathingHighHz, cfg.SampleRate); err != nil {
		return nil, fmt.Errorf("breathing band: %w", err)
	}
	if p.heartbeatSOS, err = newButterworthBandpass(4, cfg.HeartbeatLowHz, cfg.HeartbeatHighHz, cfg.SampleRate); err != nil {
		return nil, fmt.Errorf("heartbeat band: %w", err)
	}
	return p, nil
}

// SampleRate reports the sampling rate the processor was designed for.
func (p *Processor) SampleRate() float64 { return p.sampleRate }

// Process runs the complete pipeline over one window. Degenerate input
// (empty or all-zero buffers) is not an error: it flows through and yields
// zero rates and confidences. The only failures are caller misuse: a buffer
// captured at a different rate than the processor was designed for, or a
// length invariant broken between stages.
func (p *Processor) Process(buf *SampleBuffer) (Analysis, error) {
	if buf.SampleRate <= 0 {
		return Analysis{}, fmt.Errorf("%w: got %v", ErrInvalidSampleRate, buf.SampleRate)
	}
	if buf.SampleRate != p.sampleRate {
		return Analysis{}, fmt.Errorf("radar: buffer rate %v Hz does not match processor rate %v Hz",
			buf.SampleRate, p.sampleRate)
	}

	conditioned := p.precondition(buf.IQ)
	phase := extractPhase(conditioned)
	if len(phase) != buf.Len() {
		return Analysis{}, fmt.Errorf("%w: phase %d vs buffer %d", ErrLengthMismatch, len(phase), buf.Len())
	}

	breathing := p.filterBand(phase, BandBreathing)
	heartbeat := p.filterBand(phase, BandHeartbeat)
	if len(breathing.Samples) != len(phase) || len(heartbeat.Samples) != len(phase) {
		return Analysis{}, fmt.Errorf("%w: band outputs %d/%d vs phase %d",
			ErrLengthMismatch, len(breathing.Samples), len(heartbeat.Samples), len(phase))
	}

	breathingSpec := p.computeSpectrum(breathing.Samples)
	heartbeatSpec := p.computeSpectrum(heartbeat.Samples)

	return Analysis{
		VitalSigns:        p.estimateVitals(breathingSpec, heartbeatSpec),
		Quality:           assessQuality(breathing, heartbeat, breathingSpec, heartbeatSpec),
		Motion:            assessMotion(buf.Magnitudes()),
		BreathingSpectrum: breathingSpec,
		HeartbeatSpectrum: heartbeatSpec,
		Timestamp:         time.Now().UTC(),
	}, nil
}

// filterBand applies one branch of the filter bank zero-phase (forward then
// backward) so peak timing is not shifted relative to the phase signal, then
// strips any residual linear trend the band edges let through.
func (p *Processor) filterBand(phase []float64, band Band) FilteredSignal {
	sos := p.breathingSOS
	if band == BandHeartbeat {
		sos = p.heartbeatSOS
	}
	return FilteredSignal{
		Band:    band,
		Samples: detrend(sos.applyZeroPhase(phase)),
	}
}
