// Package forecast publishes the daily Sendai pressure-pain forecast
// thread: open-meteo data, deterministic classification, a generated body
// with a deterministic fallback, and a banner-headed reply chain.
package forecast

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

const defaultWeatherURL = "https://api.open-meteo.com/v1/forecast"

// hourLayout is open-meteo's local-time format.
const hourLayout = "2006-01-02T15:04"

// Sample is one hourly weather observation.
type Sample struct {
	Time     time.Time
	Pressure float64 // surface pressure, hPa
	Temp     float64 // °C
	Humidity float64 // %
	DewPoint float64 // °C
}

// Hourly is a fetched forecast window.
type Hourly struct {
	Samples []Sample
}

// Closest returns the sample nearest to target. Errors when the window is
// empty.
func (h *Hourly) Closest(target time.Time) (Sample, error) {
	if h == nil || len(h.Samples) == 0 {
		return Sample{}, fmt.Errorf("weather data is empty")
	}
	best := h.Samples[0]
	bestDiff := math.Abs(best.Time.Sub(target).Seconds())
	for _, s := range h.Samples[1:] {
		diff := math.Abs(s.Time.Sub(target).Seconds())
		if diff < bestDiff {
			best = s
			bestDiff = diff
		}
	}
	return best, nil
}

// WeatherClient fetches hourly forecasts from open-meteo.
type WeatherClient struct {
	client  *http.Client
	baseURL string
}

// NewWeatherClient builds a client; httpClient may be nil.
func NewWeatherClient(httpClient *http.Client) *WeatherClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &WeatherClient{client: httpClient, baseURL: defaultWeatherURL}
}

// Fetch retrieves two days of hourly pressure, temperature, humidity and dew
// point for the coordinates. Hours with missing pressure or temperature are
// skipped rather than zero-filled.
func (w *WeatherClient) Fetch(ctx context.Context, lat, lon float64, loc *time.Location) (*Hourly, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("hourly", "surface_pressure,temperature_2m,relative_humidity_2m,dewpoint_2m")
	q.Set("timezone", loc.String())
	q.Set("forecast_days", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch weather: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch weather: read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch weather: status %d: %s", resp.StatusCode, body)
	}

	times := gjson.GetBytes(body, "hourly.time").Array()
	pressures := gjson.GetBytes(body, "hourly.surface_pressure").Array()
	temps := gjson.GetBytes(body, "hourly.temperature_2m").Array()
	hums := gjson.GetBytes(body, "hourly.relative_humidity_2m").Array()
	dews := gjson.GetBytes(body, "hourly.dewpoint_2m").Array()

	hourly := &Hourly{}
	for i, tv := range times {
		if i >= len(pressures) || i >= len(temps) {
			break
		}
		// open-meteo reports gaps as null
		if pressures[i].Type == gjson.Null || temps[i].Type == gjson.Null {
			continue
		}
		ts, err := time.ParseInLocation(hourLayout, tv.String(), loc)
		if err != nil {
			continue
		}
		s := Sample{
			Time:     ts,
			Pressure: pressures[i].Float(),
			Temp:     temps[i].Float(),
		}
		if i < len(hums) && hums[i].Type != gjson.Null {
			s.Humidity = hums[i].Float()
		}
		if i < len(dews) && dews[i].Type != gjson.Null {
			s.DewPoint = dews[i].Float()
		}
		hourly.Samples = append(hourly.Samples, s)
	}
	if len(hourly.Samples) == 0 {
		return nil, fmt.Errorf("fetch weather: no usable samples")
	}
	return hourly, nil
}
