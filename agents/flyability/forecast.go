package flyability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"flyticker/internal/models"
	"flyticker/shared/config"

	"github.com/sony/gobreaker"
)

// ErrNoData is the fetcher's single failure sentinel: transport errors and
// malformed or empty responses all collapse into it. The fetcher never
// retries; the caller decides what a failed fetch cycle means.
var ErrNoData = errors.New("no forecast data available")

// hourlyParams is the fixed parameter set requested from both models.
var hourlyParams = []string{
	"temperature_2m",
	"wind_speed_10m",
	"wind_direction_10m",
	"wind_gusts_10m",
	"cloud_base",
	"cloud_cover",
	"cloud_cover_low",
	"cloud_cover_mid",
	"cloud_cover_high",
	"precipitation",
	"precipitation_probability",
	"sunshine_duration",
	"cape",
}

// pressureLevels are the standard upper-air levels requested when the
// upper-air extension is enabled, in hPa.
var pressureLevels = []int{950, 925, 900, 850, 800, 700}

var pressureLevelParams = []string{
	"geopotential_height",
	"wind_speed",
	"wind_direction",
	"temperature",
}

// upperAirParams returns the flattened per-level parameter names, e.g.
// "wind_speed_850hPa".
func upperAirParams() []string {
	params := make([]string, 0, len(pressureLevels)*len(pressureLevelParams))
	for _, p := range pressureLevelParams {
		for _, level := range pressureLevels {
			params = append(params, fmt.Sprintf("%s_%dhPa", p, level))
		}
	}
	return params
}

// ForecastClient fetches hourly forecasts from the Open-Meteo style API and
// merges the high-resolution primary model with the wide-coverage fallback.
type ForecastClient struct {
	cfg     *config.ForecastConfig
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewForecastClient(cfg *config.ForecastConfig) *ForecastClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "forecast-api",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &ForecastClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout(),
		},
		circuit: cb,
	}
}

// modelSeries is one model's raw response: a shared time array plus one
// same-length value array per parameter. Ragged arrays are tolerated; any
// index out of range reads as nil.
type modelSeries struct {
	times  []string
	params map[string][]*float64
}

func (m *modelSeries) valueAt(param string, i int) *float64 {
	values := m.params[param]
	if i < 0 || i >= len(values) {
		return nil
	}
	return values[i]
}

func (m *modelSeries) recordAt(i int, params []string) models.HourlyRecord {
	record := make(models.HourlyRecord, len(params))
	for _, p := range params {
		record[p] = m.valueAt(p, i)
	}
	return record
}

// FetchSite fetches the full forecast horizon for the site and returns the
// merged hourly series wrapped with the location metadata.
func (f *ForecastClient) FetchSite(ctx context.Context, site models.LocationProfile) (models.SiteWeather, error) {
	primaryParams := hourlyParams
	if f.cfg.UpperAir {
		primaryParams = append(append([]string{}, hourlyParams...), upperAirParams()...)
	}

	log.Printf("Fetching %s forecast for %s...", f.cfg.PrimaryModel, site.Name)
	primary, err := f.fetchModel(ctx, site, f.cfg.PrimaryModel, primaryParams)
	if err != nil {
		return models.SiteWeather{}, fmt.Errorf("%w: primary model: %v", ErrNoData, err)
	}

	var hourly models.HourlySeries
	if f.cfg.FallbackModel != "" {
		log.Printf("Fetching %s fallback forecast for %s...", f.cfg.FallbackModel, site.Name)
		fallback, err := f.fetchModel(ctx, site, f.cfg.FallbackModel, hourlyParams)
		if err != nil {
			return models.SiteWeather{}, fmt.Errorf("%w: fallback model: %v", ErrNoData, err)
		}
		if len(fallback.times) == 0 {
			return models.SiteWeather{}, fmt.Errorf("%w: fallback model returned no timestamps", ErrNoData)
		}
		hourly = mergeHourly(primary, fallback, hourlyParams)
		log.Printf("Hybrid merge complete: %d timestamps for %s", len(hourly), site.Name)
	} else {
		if len(primary.times) == 0 {
			return models.SiteWeather{}, fmt.Errorf("%w: model returned no timestamps", ErrNoData)
		}
		hourly = make(models.HourlySeries, len(primary.times))
		for i, ts := range primary.times {
			hourly[ts] = primary.recordAt(i, hourlyParams)
		}
	}

	weather := models.SiteWeather{
		Latitude:       site.Latitude,
		Longitude:      site.Longitude,
		HourlyData:     hourly,
		SiteType:       site.SiteType,
		FlyingRegion:   site.FlyingRegion,
		WindDirections: site.WindDirections,
		Remarks:        site.Remarks,
	}
	if f.cfg.UpperAir {
		weather.PressureLevelData = extractUpperAir(primary)
	}
	return weather, nil
}

// mergeHourly implements the hybrid merge. The fallback model defines the
// canonical timestamp set; for timestamps the primary also covers, non-null
// primary values win. Timestamps only in the primary are dropped.
func mergeHourly(primary, fallback *modelSeries, params []string) models.HourlySeries {
	merged := make(models.HourlySeries, len(fallback.times))
	for i, ts := range fallback.times {
		merged[ts] = fallback.recordAt(i, params)
	}

	for i, ts := range primary.times {
		record, ok := merged[ts]
		if !ok {
			continue
		}
		for _, p := range params {
			if v := primary.valueAt(p, i); v != nil {
				record[p] = v
			}
		}
	}
	return merged
}

// extractUpperAir zips the flattened pressure-level parameters from the
// primary model into a timestamp-keyed series.
func extractUpperAir(primary *modelSeries) models.PressureLevelSeries {
	params := upperAirParams()
	series := make(models.PressureLevelSeries, len(primary.times))
	for i, ts := range primary.times {
		record := make(models.HourlyRecord, len(params))
		empty := true
		for _, p := range params {
			v := primary.valueAt(p, i)
			record[p] = v
			if v != nil {
				empty = false
			}
		}
		if !empty {
			series[ts] = record
		}
	}
	return series
}

func (f *ForecastClient) fetchModel(ctx context.Context, site models.LocationProfile, model string, params []string) (*modelSeries, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(site.Latitude, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(site.Longitude, 'f', 4, 64))
	values.Set("models", model)
	values.Set("hourly", strings.Join(params, ","))
	values.Set("forecast_days", strconv.Itoa(f.cfg.Days))
	values.Set("timezone", f.cfg.Timezone)

	reqURL := fmt.Sprintf("%s?%s", f.cfg.APIURL, values.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create forecast request: %w", err)
	}

	result, err := f.circuit.Execute(func() (interface{}, error) {
		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch forecast data: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("forecast API returned status %d", resp.StatusCode)
		}

		var payload struct {
			Hourly map[string]json.RawMessage `json:"hourly"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("failed to decode forecast response: %w", err)
		}
		return parseHourly(payload.Hourly, params)
	})
	if err != nil {
		return nil, err
	}

	series, ok := result.(*modelSeries)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return series, nil
}

// parseHourly turns the ragged per-parameter arrays into a modelSeries.
// Missing parameter arrays are tolerated; they read as all-null.
func parseHourly(hourly map[string]json.RawMessage, params []string) (*modelSeries, error) {
	series := &modelSeries{
		params: make(map[string][]*float64, len(params)),
	}

	if raw, ok := hourly["time"]; ok {
		if err := json.Unmarshal(raw, &series.times); err != nil {
			return nil, fmt.Errorf("failed to parse time array: %w", err)
		}
	}

	for _, p := range params {
		raw, ok := hourly[p]
		if !ok {
			continue
		}
		var values []*float64
		if err := json.Unmarshal(raw, &values); err != nil {
			log.Printf("Warning: failed to parse %s array, treating as missing: %v", p, err)
			continue
		}
		series.params[p] = values
	}

	return series, nil
}
