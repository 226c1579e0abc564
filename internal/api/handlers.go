package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/KazeAsh/guardianseat/internal/httputil"
	"github.com/KazeAsh/guardianseat/internal/monitoring"
	"github.com/KazeAsh/guardianseat/internal/radar"
	"github.com/KazeAsh/guardianseat/internal/risk"
)

// analyzeRequest is one complete analysis window pushed by a client: raw IQ
// split into real/imag arrays plus the context the risk engine needs.
type analyzeRequest struct {
	IQReal         []float64         `json:"iq_real"`
	IQImag         []float64         `json:"iq_imag"`
	SampleRate     float64           `json:"sample_rate"`
	Vehicle        risk.VehicleState `json:"vehicle"`
	Environment    risk.Environment  `json:"environment"`
	ElapsedMinutes float64           `json:"elapsed_minutes"`
}

type analyzeResponse struct {
	Scan       radar.Analysis  `json:"scan"`
	Assessment risk.Assessment `json:"assessment"`
}

// handleAnalyze runs the full pipeline synchronously over one posted window
// and returns the analysis and fused assessment. The result is persisted
// like any monitored window.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req analyzeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if len(req.IQReal) != len(req.IQImag) {
		httputil.BadRequest(w, "iq_real and iq_imag must have equal length")
		return
	}
	if len(req.IQReal) == 0 {
		httputil.BadRequest(w, "empty IQ window")
		return
	}

	iq := make([]complex128, len(req.IQReal))
	for i := range req.IQReal {
		iq[i] = complex(req.IQReal[i], req.IQImag[i])
	}
	buf, err := radar.NewSampleBuffer(iq, req.SampleRate)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	scan, err := s.processor.Process(buf)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	assessment := s.assessor.Assess(risk.Input{
		Scan:           scan,
		Vehicle:        req.Vehicle,
		Environment:    req.Environment,
		ElapsedMinutes: req.ElapsedMinutes,
	})

	if s.store != nil {
		if err := s.store.RecordResult(scan, assessment); err != nil {
			monitoring.Logf("api: failed to persist analysis: %v", err)
		}
	}
	httputil.WriteJSONOK(w, analyzeResponse{Scan: scan, Assessment: assessment})
}

// handleSensors ingests one vehicle reading: it advances the dwell tracker
// and appends the reading to the history log.
func (s *Server) handleSensors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var v risk.VehicleState
	if err := httputil.DecodeJSON(r, &v); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	var elapsed float64
	if s.mon != nil {
		s.mon.Tracker().Update(v)
		elapsed = s.mon.Tracker().ElapsedMinutes()
	}
	if s.store != nil {
		if err := s.store.RecordSensorReading(v); err != nil {
			monitoring.Logf("api: failed to persist sensor reading: %v", err)
		}
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"status":          "ok",
		"elapsed_minutes": elapsed,
	})
}

// handleStatus reports the most recent monitoring result plus the current
// dwell state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.mon == nil {
		httputil.NotFound(w, "monitoring loop not running")
		return
	}

	out := map[string]interface{}{
		"monitoring":      true,
		"elapsed_minutes": s.mon.Tracker().ElapsedMinutes(),
	}
	if vehicle, ok := s.mon.Tracker().Vehicle(); ok {
		out["vehicle"] = vehicle
	}
	if res, ok := s.mon.Latest(); ok {
		out["scan"] = res.Scan
		out["assessment"] = res.Assessment
	}
	httputil.WriteJSONOK(w, out)
}

// handleAssessments lists stored assessments, newest first. ?limit=N caps
// the page size (default 50).
func (s *Server) handleAssessments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.NotFound(w, "no history store configured")
		return
	}

	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v <= 0 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = v
	}
	recs, err := s.store.ListAssessments(limit)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"count":       len(recs),
		"assessments": recs,
	})
}

// handleAlerts lists alerts. ?unacked=true filters out acknowledged ones.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.NotFound(w, "no history store configured")
		return
	}

	unackedOnly := r.URL.Query().Get("unacked") == "true"
	recs, err := s.store.ListAlerts(unackedOnly)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"count":  len(recs),
		"alerts": recs,
	})
}

// handleAlertAck marks one alert acknowledged.
func (s *Server) handleAlertAck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.NotFound(w, "no history store configured")
		return
	}

	var req struct {
		AlertID string `json:"alert_id"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.AlertID == "" {
		httputil.BadRequest(w, "alert_id is required")
		return
	}
	if err := s.store.AcknowledgeAlert(req.AlertID); err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"status": "acknowledged", "alert_id": req.AlertID})
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
