// Package api exposes the monitoring system over HTTP: synchronous window
// analysis, vehicle-sensor ingestion, status, assessment history, alert
// management and a debug spectrum page. The core pipeline stays transport
// agnostic; this package owns all serialization.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/KazeAsh/guardianseat/internal/db"
	"github.com/KazeAsh/guardianseat/internal/monitor"
	"github.com/KazeAsh/guardianseat/internal/monitoring"
	"github.com/KazeAsh/guardianseat/internal/radar"
	"github.com/KazeAsh/guardianseat/internal/risk"
)

// ANSI escape codes for the request log.
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// Server holds the handler dependencies.
type Server struct {
	processor *radar.Processor
	assessor  *risk.Assessor
	store     *db.DB
	mon       *monitor.Monitor
}

// NewServer wires the API against the shared processor, assessor, store and
// monitor. mon may be nil in tools that only expose the analyze endpoint.
func NewServer(processor *radar.Processor, assessor *risk.Assessor, store *db.DB, mon *monitor.Monitor) *Server {
	return &Server{
		processor: processor,
		assessor:  assessor,
		store:     store,
		mon:       mon,
	}
}

// ServeMux returns the API routes. Mount under /api (the debug page
// registers under /debug).
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", s.handleAnalyze)
	mux.HandleFunc("/sensors", s.handleSensors)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/assessments", s.handleAssessments)
	mux.HandleFunc("/alerts", s.handleAlerts)
	mux.HandleFunc("/alerts/ack", s.handleAlertAck)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status, and duration for every
// request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}
