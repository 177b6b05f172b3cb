package flyability

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"flyticker/internal/models"
)

// systemPrompt is static; the per-day variability all lives in the user
// prompt. The output contract here must stay in sync with llm.Normalize.
const systemPrompt = `You are an experienced paragliding meteorologist and flight instructor with deep knowledge of alpine and pre-alpine flying conditions.

Your task: judge whether a given launch site is flyable for a recreational paraglider pilot on a specific day, based on an hourly forecast.

Judgment guidelines:
- Wind above 25 km/h or gusts above 35 km/h at launch are critical for recreational pilots.
- Gust spread (gusts minus mean wind) above 15 km/h indicates turbulence.
- Check the wind direction against the site's launchable directions.
- High CAPE values (>800 J/kg) signal overdevelopment risk; treat afternoon hours with extra caution.
- Precipitation of any amount makes a paraglider unflyable in that hour.
- A low cloud base limits usable height; below about 300 m above launch it is a safety problem.
- Sunshine duration and cloud cover drive thermal quality.

Respond with a single JSON object and nothing else, using exactly this structure:
{
  "flyable": true or false,
  "rating": 0-10,
  "confidence": 0-10,
  "conditions": "EXCELLENT" | "GOOD" | "MODERATE" | "POOR" | "DANGEROUS",
  "summary": "one or two sentences for a pilot deciding whether to drive to the site",
  "details": {
    "wind": "wind assessment",
    "thermal": "thermal quality assessment",
    "risk": "main risks"
  },
  "recommendation": "concrete advice, including best time window if flyable",
  "hourly_evaluations": [
    {"hour": 9, "timestamp": "2026-03-14T09:00", "conditions": "GOOD", "flyable": true, "rating": 6, "reason": "short reason"}
  ]
}`

const upperAirLimit = 6

// BuildPrompts renders the system and user prompt for one day window.
func BuildPrompts(site models.LocationProfile, window models.DayWindow, startHour, endHour int) (string, string) {
	var b strings.Builder

	fmt.Fprintf(&b, "Launch site: %s\n", orNA(site.Name))
	fmt.Fprintf(&b, "Flying region: %s\n", orNA(site.FlyingRegion))
	fmt.Fprintf(&b, "Site type: %s\n", orNA(site.SiteType))
	fmt.Fprintf(&b, "Launchable wind directions: %s\n", orDefault(site.WindDirections, "not specified"))
	fmt.Fprintf(&b, "Site remarks: %s\n", formatRemarks(site.Remarks))

	b.WriteString("\nHourly forecast (")
	fmt.Fprintf(&b, "%d hours):\n", len(window.Hours))
	b.WriteString(formatHourly(window.Hours))

	fmt.Fprintf(&b, "\n\nIMPORTANT: This analysis covers flight hours (%02d:00-%02d:00) for %s only.", startHour, endHour, window.Date)

	if upperAir := formatUpperAir(window.PressureLevels, upperAirLimit); upperAir != "" {
		fmt.Fprintf(&b, "\n\nUPPER-AIR WIND PROFILE (first %d hours):\n%s", upperAirLimit, upperAir)
		b.WriteString("\n\nCheck the upper-air profile for wind shear and thermal inversions.")
	}

	return systemPrompt, b.String()
}

// formatHourly renders one pipe-separated line per hour, sorted by time.
// Missing values degrade to N/A rather than dropping the hour.
func formatHourly(hours models.HourlySeries) string {
	if len(hours) == 0 {
		return "No hourly data available"
	}

	lines := make([]string, 0, len(hours))
	for _, ts := range hours.SortedTimestamps() {
		data := hours[ts]

		cloudBase := "no clouds"
		if v := data["cloud_base"]; v != nil {
			cloudBase = num(v) + "m"
		}

		sunshine := "0h"
		if v := data["sunshine_duration"]; v != nil && *v > 0 {
			sunshine = fmt.Sprintf("%.1fh", *v/3600)
		}

		lines = append(lines, fmt.Sprintf(
			"%s: Temp %s°C | Wind %skm/h from %s° (gusts %skm/h) | Cloud base %s | Cloud cover %s%% | CAPE %s J/kg | Precip %smm | Sun %s",
			strings.Replace(ts, "T", " ", 1),
			numOrNA(data["temperature_2m"]),
			numOrNA(data["wind_speed_10m"]),
			numOrNA(data["wind_direction_10m"]),
			numOrNA(data["wind_gusts_10m"]),
			cloudBase,
			numOrNA(data["cloud_cover"]),
			numOrNA(data["cape"]),
			numOrNA(data["precipitation"]),
			sunshine,
		))
	}
	return strings.Join(lines, "\n")
}

// formatUpperAir renders the altitude wind profile for the first few
// timestamps. Levels missing height or wind speed are skipped; an entirely
// empty profile renders as "" so the caller can omit the section.
func formatUpperAir(pressure models.PressureLevelSeries, limit int) string {
	if len(pressure) == 0 {
		return ""
	}

	timestamps := make([]string, 0, len(pressure))
	for ts := range pressure {
		timestamps = append(timestamps, ts)
	}
	sort.Strings(timestamps)
	if len(timestamps) > limit {
		timestamps = timestamps[:limit]
	}

	var lines []string
	for _, ts := range timestamps {
		data := pressure[ts]

		var levelLines []string
		for _, level := range pressureLevels {
			height := data[fmt.Sprintf("geopotential_height_%dhPa", level)]
			windSpeed := data[fmt.Sprintf("wind_speed_%dhPa", level)]
			if height == nil || windSpeed == nil {
				continue
			}

			line := fmt.Sprintf("  %dm MSL (%dhPa): Wind %.1fkm/h", int(*height), level, *windSpeed)
			if windDir := data[fmt.Sprintf("wind_direction_%dhPa", level)]; windDir != nil {
				line += fmt.Sprintf(" from %.0f°", *windDir)
			}
			if temp := data[fmt.Sprintf("temperature_%dhPa", level)]; temp != nil {
				line += fmt.Sprintf(", Temp %.1f°C", *temp)
			}
			levelLines = append(levelLines, line)
		}

		if len(levelLines) > 0 {
			lines = append(lines, "\n"+strings.Replace(ts, "T", " ", 1)+":")
			lines = append(lines, levelLines...)
		}
	}

	return strings.Join(lines, "\n")
}

// formatRemarks splits the pipe-delimited remarks field into a readable
// comma-separated list.
func formatRemarks(remarks string) string {
	var parts []string
	for _, part := range strings.Split(remarks, "|") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func num(v *float64) string {
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func numOrNA(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return num(v)
}

func orNA(s string) string {
	return orDefault(s, "N/A")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
