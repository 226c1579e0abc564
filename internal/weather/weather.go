// Package weather fetches the outdoor environment reading that feeds the
// risk engine. It wraps the OpenWeatherMap current-weather endpoint and
// degrades to a cached or static reading when the service is unreachable:
// the monitoring loop must keep assessing with stale weather rather than
// stall.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/KazeAsh/guardianseat/internal/monitoring"
	"github.com/KazeAsh/guardianseat/internal/risk"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Client polls current weather for a fixed city. Safe for concurrent use.
type Client struct {
	apiKey  string
	city    string
	baseURL string
	http    *http.Client

	mu     sync.Mutex
	cached risk.Environment
	hasOne bool
}

// NewClient builds a client for the given city. An empty apiKey is allowed;
// Current then always serves the fallback reading, which keeps dev mode
// working without credentials.
func NewClient(apiKey, city string) *Client {
	return &Client{
		apiKey:  apiKey,
		city:    city,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Fallback is the reading served before the first successful fetch: mild,
// overcast, outside the midday window. It deliberately contributes no
// environmental risk so missing weather data never inflates a score.
func Fallback(city string) risk.Environment {
	return risk.Environment{
		TemperatureC: 22,
		Humidity:     50,
		Weather:      "Clouds",
		City:         city,
		LocalHour:    time.Now().Hour(),
	}
}

// Current returns the freshest reading available: a live fetch when the API
// is configured and reachable, otherwise the last good reading, otherwise
// the fallback. It never returns an error; failures are logged and
// absorbed.
func (c *Client) Current(ctx context.Context) risk.Environment {
	if c.apiKey != "" {
		env, err := c.Fetch(ctx)
		if err == nil {
			return env
		}
		monitoring.Logf("weather: fetch failed, using cached reading: %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasOne {
		cached := c.cached
		cached.LocalHour = time.Now().Hour()
		return cached
	}
	return Fallback(c.city)
}

// owmResponse is the slice of the OpenWeatherMap payload we consume.
type owmResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	Name     string `json:"name"`
	Timezone int    `json:"timezone"` // shift from UTC in seconds
}

// Fetch performs one API call and updates the cache on success.
func (c *Client) Fetch(ctx context.Context) (risk.Environment, error) {
	q := url.Values{}
	q.Set("q", c.city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return risk.Environment{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return risk.Environment{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return risk.Environment{}, fmt.Errorf("weather: unexpected status %d", resp.StatusCode)
	}

	var body owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return risk.Environment{}, fmt.Errorf("weather: decode response: %w", err)
	}

	env := risk.Environment{
		TemperatureC: body.Main.Temp,
		Humidity:     body.Main.Humidity,
		City:         body.Name,
		LocalHour:    time.Now().UTC().Add(time.Duration(body.Timezone) * time.Second).Hour(),
	}
	if len(body.Weather) > 0 {
		env.Weather = body.Weather[0].Main
	}
	if env.City == "" {
		env.City = c.city
	}

	c.mu.Lock()
	c.cached = env
	c.hasOne = true
	c.mu.Unlock()
	return env, nil
}
