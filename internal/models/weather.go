package models

import "sort"

// HourlyRecord holds one timestamp's weather state as a mapping from
// parameter name (e.g. "temperature_2m", "cape") to a nullable value.
// A nil entry means the forecast model reported no value for that parameter.
type HourlyRecord map[string]*float64

// HourlySeries maps ISO-8601 hour timestamps ("2006-01-02T15:04") to their
// records. Timestamps are unique; consumers sort keys before iterating.
type HourlySeries map[string]HourlyRecord

// PressureLevelSeries holds optional upper-air data keyed by timestamp. Each
// record uses flattened parameter names such as "wind_speed_850hPa" or
// "geopotential_height_700hPa", mirroring the persisted file format.
type PressureLevelSeries map[string]HourlyRecord

// SortedTimestamps returns the series' timestamps in chronological order.
// ISO-8601 strings at fixed precision sort lexicographically.
func (s HourlySeries) SortedTimestamps() []string {
	keys := make([]string, 0, len(s))
	for ts := range s {
		keys = append(keys, ts)
	}
	sort.Strings(keys)
	return keys
}

// SortedTimestamps returns the upper-air timestamps in chronological order.
func (p PressureLevelSeries) SortedTimestamps() []string {
	keys := make([]string, 0, len(p))
	for ts := range p {
		keys = append(keys, ts)
	}
	sort.Strings(keys)
	return keys
}

// SiteWeather is one site's entry in the persisted weather file: coordinates,
// the merged hourly series, optional upper-air data and the descriptive site
// fields carried over from the launch site registry.
type SiteWeather struct {
	Latitude          float64             `json:"latitude"`
	Longitude         float64             `json:"longitude"`
	HourlyData        HourlySeries        `json:"hourly_data"`
	PressureLevelData PressureLevelSeries `json:"pressure_level_data,omitempty"`
	SiteType          string              `json:"typ,omitempty"`
	FlyingRegion      string              `json:"fluggebiet,omitempty"`
	WindDirections    string              `json:"windrichtung,omitempty"`
	Remarks           string              `json:"bemerkung,omitempty"`
}

// WeatherFile is the on-disk weather document, keyed by site name.
type WeatherFile map[string]SiteWeather

// DayWindow is an hourly series restricted to one calendar date and to the
// configured flight-hour range. A day with no qualifying hours is represented
// as a window with an empty Hours map, never omitted.
type DayWindow struct {
	Date           string              `json:"date"` // YYYY-MM-DD
	Hours          HourlySeries        `json:"hours"`
	PressureLevels PressureLevelSeries `json:"pressure_levels,omitempty"`
}
