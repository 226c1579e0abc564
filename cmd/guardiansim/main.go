// Command guardiansim exercises the pipeline offline: it synthesizes IQ
// windows and a parked-car vehicle timeline, runs them through the processor
// and risk engine, prints the results as JSON, and optionally saves spectrum
// and phase plots for filter tuning.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/KazeAsh/guardianseat/internal/radar"
	"github.com/KazeAsh/guardianseat/internal/risk"
	"github.com/KazeAsh/guardianseat/internal/sim"
)

var (
	seed     = flag.Int64("seed", 42, "RNG seed for reproducible runs")
	minutes  = flag.Int("minutes", 30, "Scenario length in minutes")
	step     = flag.Int("step", 5, "Minutes between analysis windows")
	noChild  = flag.Bool("no-child", false, "Simulate an empty cabin")
	movement = flag.String("movement", "low", "Occupant movement: sleeping, low, medium, high")
	plotDir  = flag.String("plots", "", "Directory for spectrum/phase PNG plots (empty disables)")
)

// timelineEntry is one window's output on the JSON stream.
type timelineEntry struct {
	Minute     int               `json:"minute"`
	Vehicle    risk.VehicleState `json:"vehicle"`
	Scan       radar.Analysis    `json:"scan"`
	Assessment risk.Assessment   `json:"assessment"`
}

func main() {
	flag.Parse()
	if *step < 1 {
		log.Fatal("step must be at least one minute")
	}

	cfg := radar.DefaultConfig()
	processor, err := radar.NewProcessor(cfg)
	if err != nil {
		log.Fatalf("failed to build processor: %v", err)
	}
	assessor := risk.NewAssessor()
	gen := sim.NewGenerator(cfg.SampleRate, 30, *seed)
	scenario := sim.NewScenario(*seed)
	tracker := newDwellClock()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	for minute := 0; minute <= *minutes; minute += *step {
		vehicle := scenario.VehicleAt(minute)
		tracker.observe(minute, vehicle)

		buf := gen.Frame(sim.FrameOptions{
			HasChild: !*noChild,
			Movement: sim.MovementLevel(*movement),
		})
		scan, err := processor.Process(buf)
		if err != nil {
			log.Fatalf("minute %d: pipeline failed: %v", minute, err)
		}
		assessment := assessor.Assess(risk.Input{
			Scan:           scan,
			Vehicle:        vehicle,
			Environment:    risk.Environment{TemperatureC: 32, Humidity: 40, Weather: "Clear", LocalHour: 14},
			ElapsedMinutes: tracker.elapsed(minute),
		})

		if err := enc.Encode(timelineEntry{
			Minute:     minute,
			Vehicle:    vehicle,
			Scan:       scan,
			Assessment: assessment,
		}); err != nil {
			log.Fatalf("failed to encode result: %v", err)
		}

		if *plotDir != "" {
			if err := savePlots(*plotDir, minute, scan); err != nil {
				log.Fatalf("minute %d: failed to save plots: %v", minute, err)
			}
		}
	}
}

// dwellClock replays the tracker's state machine on scenario time instead of
// the wall clock.
type dwellClock struct {
	active  bool
	started int
}

func newDwellClock() *dwellClock { return &dwellClock{} }

func (c *dwellClock) observe(minute int, v risk.VehicleState) {
	parked := v.EngineState == risk.EngineOff && v.DoorState == risk.DoorClosed
	switch {
	case parked && !c.active:
		c.active = true
		c.started = minute
	case !parked:
		c.active = false
	}
}

func (c *dwellClock) elapsed(minute int) float64 {
	if !c.active {
		return 0
	}
	return float64(minute - c.started)
}

// savePlots writes the two band spectra of one window as PNG line plots.
func savePlots(dir string, minute int, scan radar.Analysis) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := saveSpectrum(dir, minute, "breathing", scan.BreathingSpectrum, 1.0); err != nil {
		return err
	}
	return saveSpectrum(dir, minute, "heartbeat", scan.HeartbeatSpectrum, 4.0)
}

func saveSpectrum(dir string, minute int, band string, spec radar.Spectrum, maxHz float64) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Minute %d - %s band spectrum", minute, band)
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Label.Text = "Power"

	pts := make(plotter.XYs, 0, len(spec.Freqs))
	for i, f := range spec.Freqs {
		if f > maxHz {
			break
		}
		pts = append(pts, plotter.XY{X: f, Y: spec.Power[i]})
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	p.Add(line)

	file := filepath.Join(dir, fmt.Sprintf("min_%02d_%s.png", minute, band))
	return p.Save(10*vg.Inch, 4*vg.Inch, file)
}
