// Package config loads the daemon's tuning file. The JSON schema uses
// pointer fields so a file only has to name the values it overrides; the
// rest fall through to the defaults baked into the binary.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/KazeAsh/guardianseat/internal/radar"
)

// TuningConfig mirrors the on-disk JSON. Nil fields mean "use the default".
type TuningConfig struct {
	// Radar pipeline params
	SampleRateHz       *float64 `json:"sample_rate_hz,omitempty"`
	FFTSize            *int     `json:"fft_size,omitempty"`
	WindowSeconds      *float64 `json:"window_seconds,omitempty"`
	BreathingLowHz     *float64 `json:"breathing_low_hz,omitempty"`
	BreathingHighHz    *float64 `json:"breathing_high_hz,omitempty"`
	HeartbeatLowHz     *float64 `json:"heartbeat_low_hz,omitempty"`
	HeartbeatHighHz    *float64 `json:"heartbeat_high_hz,omitempty"`
	BreathingThreshold *float64 `json:"breathing_threshold,omitempty"`
	HeartbeatThreshold *float64 `json:"heartbeat_threshold,omitempty"`
	NotchHz            *float64 `json:"notch_hz,omitempty"`
	NotchQ             *float64 `json:"notch_q,omitempty"`

	// Monitor params
	QueueCapacity  *int    `json:"queue_capacity,omitempty"`
	WindowBudget   *string `json:"window_budget,omitempty"` // duration string like "5s"
	AlertLevelName *string `json:"alert_level,omitempty"`

	// Service params
	Listen      *string `json:"listen,omitempty"`
	DBPath      *string `json:"db_path,omitempty"`
	WeatherKey  *string `json:"weather_api_key,omitempty"`
	WeatherCity *string `json:"weather_city,omitempty"`
}

// Runtime is the fully resolved configuration the daemon runs on.
type Runtime struct {
	Radar         radar.Config
	WindowSeconds float64
	QueueCapacity int
	WindowBudget  time.Duration
	AlertLevel    string
	Listen        string
	DBPath        string
	WeatherKey    string
	WeatherCity   string
}

// Defaults returns the built-in runtime configuration.
func Defaults() Runtime {
	return Runtime{
		Radar:         radar.DefaultConfig(),
		WindowSeconds: 30,
		QueueCapacity: 2,
		WindowBudget:  5 * time.Second,
		AlertLevel:    "HIGH",
		Listen:        ":8080",
		DBPath:        "guardianseat.db",
		WeatherCity:   "Tokyo",
	}
}

// Load reads the tuning file at path and applies it over the defaults. An
// empty path skips loading and returns the defaults; a named file that
// cannot be read or parsed is an error.
func Load(path string) (Runtime, error) {
	rt := Defaults()
	if path == "" {
		return rt, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rt, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var tc TuningConfig
	if err := json.Unmarshal(data, &tc); err != nil {
		return rt, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return apply(rt, tc)
}

// apply overlays the non-nil tuning fields onto rt.
func apply(rt Runtime, tc TuningConfig) (Runtime, error) {
	if tc.SampleRateHz != nil {
		rt.Radar.SampleRate = *tc.SampleRateHz
	}
	if tc.FFTSize != nil {
		rt.Radar.FFTSize = *tc.FFTSize
	}
	if tc.WindowSeconds != nil {
		rt.WindowSeconds = *tc.WindowSeconds
	}
	if tc.BreathingLowHz != nil {
		rt.Radar.BreathingLowHz = *tc.BreathingLowHz
	}
	if tc.BreathingHighHz != nil {
		rt.Radar.BreathingHighHz = *tc.BreathingHighHz
	}
	if tc.HeartbeatLowHz != nil {
		rt.Radar.HeartbeatLowHz = *tc.HeartbeatLowHz
	}
	if tc.HeartbeatHighHz != nil {
		rt.Radar.HeartbeatHighHz = *tc.HeartbeatHighHz
	}
	if tc.BreathingThreshold != nil {
		rt.Radar.BreathingThreshold = *tc.BreathingThreshold
	}
	if tc.HeartbeatThreshold != nil {
		rt.Radar.HeartbeatThreshold = *tc.HeartbeatThreshold
	}
	if tc.NotchHz != nil {
		rt.Radar.NotchHz = *tc.NotchHz
	}
	if tc.NotchQ != nil {
		rt.Radar.NotchQ = *tc.NotchQ
	}
	if tc.QueueCapacity != nil {
		rt.QueueCapacity = *tc.QueueCapacity
	}
	if tc.WindowBudget != nil {
		d, err := time.ParseDuration(*tc.WindowBudget)
		if err != nil {
			return rt, fmt.Errorf("invalid window_budget %q: %w", *tc.WindowBudget, err)
		}
		rt.WindowBudget = d
	}
	if tc.AlertLevelName != nil {
		rt.AlertLevel = *tc.AlertLevelName
	}
	if tc.Listen != nil {
		rt.Listen = *tc.Listen
	}
	if tc.DBPath != nil {
		rt.DBPath = *tc.DBPath
	}
	if tc.WeatherKey != nil {
		rt.WeatherKey = *tc.WeatherKey
	}
	if tc.WeatherCity != nil {
		rt.WeatherCity = *tc.WeatherCity
	}
	return rt, nil
}
