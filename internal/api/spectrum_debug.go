package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/KazeAsh/guardianseat/internal/httputil"
	"github.com/KazeAsh/guardianseat/internal/radar"
)

// DebugMux returns the debug routes. These render HTML, carry no auth, and
// exist to eyeball the band spectra without a frontend.
func (s *Server) DebugMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/spectrum", s.handleSpectrumDebug)
	return mux
}

// handleSpectrumDebug renders the most recent breathing and heartbeat power
// spectra as line charts. Query params:
//   - max_hz (optional; default 5) upper frequency bound on the x axis
func (s *Server) handleSpectrumDebug(w http.ResponseWriter, r *http.Request) {
	if s.mon == nil {
		httputil.NotFound(w, "monitoring loop not running")
		return
	}
	res, ok := s.mon.Latest()
	if !ok {
		httputil.NotFound(w, "no completed analysis window yet")
		return
	}

	maxHz := 5.0
	if q := r.URL.Query().Get("max_hz"); q != "" {
		if v, err := strconv.ParseFloat(q, 64); err == nil && v > 0 {
			maxHz = v
		}
	}

	page := components.NewPage()
	page.AddCharts(
		spectrumChart("Breathing band", res.Scan.BreathingSpectrum, maxHz,
			fmt.Sprintf("rate=%.1f BPM conf=%.2f", res.Scan.VitalSigns.BreathingRateBPM, res.Scan.VitalSigns.BreathingConfidence)),
		spectrumChart("Heartbeat band", res.Scan.HeartbeatSpectrum, maxHz,
			fmt.Sprintf("rate=%.1f BPM conf=%.2f", res.Scan.VitalSigns.HeartRateBPM, res.Scan.VitalSigns.HeartConfidence)),
	)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// spectrumChart builds one power-vs-frequency line chart, truncated at maxHz
// so the flat tail of the spectrum does not dwarf the physiological bands.
func spectrumChart(title string, spec radar.Spectrum, maxHz float64, subtitle string) *charts.Line {
	xs := make([]string, 0, len(spec.Freqs))
	ys := make([]opts.LineData, 0, len(spec.Freqs))
	for i, f := range spec.Freqs {
		if f > maxHz {
			break
		}
		xs = append(xs, fmt.Sprintf("%.3f", f))
		ys = append(ys, opts.LineData{Value: spec.Power[i]})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Band Spectra", Theme: "dark", Width: "1100px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Hz", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "power"}),
	)
	line.SetXAxis(xs)
	line.AddSeries("power", ys, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}
