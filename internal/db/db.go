// Package db persists monitoring history: per-window radar analyses, risk
// assessments and raised alerts. It is the durable replacement for the
// in-process history the dashboard reads; the core pipeline never touches
// it.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/KazeAsh/guardianseat/internal/radar"
	"github.com/KazeAsh/guardianseat/internal/risk"
)

// DB wraps the sqlite handle with the monitoring-history schema.
type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the history database at path. Use ":memory:" for
// tests.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS assessments (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			total_risk        DOUBLE NOT NULL,
			risk_level        TEXT NOT NULL,
			confidence        DOUBLE NOT NULL,
			heart_rate_bpm    DOUBLE,
			breathing_rate_bpm DOUBLE,
			vitals_detected   BOOLEAN,
			overall_quality   DOUBLE,
			scan_json         TEXT NOT NULL,
			assessment_json   TEXT NOT NULL,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS alerts (
			alert_id          TEXT PRIMARY KEY,
			level             TEXT NOT NULL,
			message           TEXT NOT NULL,
			acknowledged      BOOLEAN DEFAULT 0,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS sensor_readings (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			reading_json      TEXT NOT NULL,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

// RecordResult stores one window's analysis together with its fused
// assessment. Key figures are denormalized into columns for querying; the
// full records ride along as JSON.
func (db *DB) RecordResult(scan radar.Analysis, assessment risk.Assessment) error {
	scanJSON, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("failed to marshal scan: %w", err)
	}
	assessmentJSON, err := json.Marshal(assessment)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment: %w", err)
	}
	_, err = db.Exec(
		`INSERT INTO assessments (
			total_risk, risk_level, confidence,
			heart_rate_bpm, breathing_rate_bpm, vitals_detected, overall_quality,
			scan_json, assessment_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		assessment.TotalRisk, assessment.Level.String(), assessment.Confidence,
		scan.VitalSigns.HeartRateBPM, scan.VitalSigns.BreathingRateBPM,
		scan.VitalSigns.Detected, scan.Quality.OverallQuality,
		string(scanJSON), string(assessmentJSON),
	)
	return err
}

// AssessmentRecord is one stored assessment row.
type AssessmentRecord struct {
	ID         int64           `json:"id"`
	TotalRisk  float64         `json:"total_risk"`
	RiskLevel  string          `json:"risk_level"`
	Confidence float64         `json:"confidence"`
	Scan       json.RawMessage `json:"scan"`
	Assessment json.RawMessage `json:"assessment"`
	Timestamp  time.Time       `json:"timestamp"`
}

// ListAssessments returns the most recent rows, newest first.
func (db *DB) ListAssessments(limit int) ([]AssessmentRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(
		`SELECT id, total_risk, risk_level, confidence, scan_json, assessment_json, timestamp
		 FROM assessments ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AssessmentRecord
	for rows.Next() {
		var rec AssessmentRecord
		var scanJSON, assessmentJSON string
		if err := rows.Scan(&rec.ID, &rec.TotalRisk, &rec.RiskLevel, &rec.Confidence,
			&scanJSON, &assessmentJSON, &rec.Timestamp); err != nil {
			return nil, err
		}
		rec.Scan = json.RawMessage(scanJSON)
		rec.Assessment = json.RawMessage(assessmentJSON)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LatestAssessment returns the newest stored assessment, or sql.ErrNoRows.
func (db *DB) LatestAssessment() (AssessmentRecord, error) {
	recs, err := db.ListAssessments(1)
	if err != nil {
		return AssessmentRecord{}, err
	}
	if len(recs) == 0 {
		return AssessmentRecord{}, sql.ErrNoRows
	}
	return recs[0], nil
}

// InsertAlert raises a new alert and returns its id.
func (db *DB) InsertAlert(level, message string) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO alerts (alert_id, level, message) VALUES (?, ?, ?)`,
		id, level, message)
	if err != nil {
		return "", err
	}
	return id, nil
}

// AlertRecord is one stored alert row.
type AlertRecord struct {
	ID           string    `json:"alert_id"`
	Level        string    `json:"level"`
	Message      string    `json:"message"`
	Acknowledged bool      `json:"acknowledged"`
	Timestamp    time.Time `json:"timestamp"`
}

// ListAlerts returns alerts newest first. When unackedOnly is set,
// acknowledged alerts are filtered out.
func (db *DB) ListAlerts(unackedOnly bool) ([]AlertRecord, error) {
	q := `SELECT alert_id, level, message, acknowledged, timestamp FROM alerts`
	if unackedOnly {
		q += ` WHERE acknowledged = 0`
	}
	q += ` ORDER BY timestamp DESC`

	rows, err := db.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AlertRecord
	for rows.Next() {
		var rec AlertRecord
		if err := rows.Scan(&rec.ID, &rec.Level, &rec.Message, &rec.Acknowledged, &rec.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// AcknowledgeAlert marks an alert handled. Unknown ids are an error so
// callers notice stale dashboards.
func (db *DB) AcknowledgeAlert(id string) error {
	res, err := db.Exec(`UPDATE alerts SET acknowledged = 1 WHERE alert_id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no alert with id %s", id)
	}
	return nil
}

// RecordSensorReading appends one vehicle reading to the history log.
func (db *DB) RecordSensorReading(v risk.VehicleState) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}
	_, err = db.Exec(`INSERT INTO sensor_readings (reading_json) VALUES (?)`, string(payload))
	return err
}
