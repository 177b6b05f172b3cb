package flyability

import (
	"log"
	"time"

	"flyticker/internal/models"
)

// timestampLayout matches the API's local-time hourly timestamps.
const timestampLayout = "2006-01-02T15:04"

// SplitDays groups the merged hourly series into calendar days and keeps
// only the hours inside the flight window [startHour, endHour). Days whose
// window ends up empty are kept so callers can tell "no flyable hours" from
// "no forecast". Pressure-level data is grouped by day but never filtered
// by hour; the upper-air profile stays useful for context either way.
func SplitDays(hourly models.HourlySeries, pressure models.PressureLevelSeries, startHour, endHour int) map[string]models.DayWindow {
	days := make(map[string]models.DayWindow)

	for _, ts := range hourly.SortedTimestamps() {
		parsed, err := time.Parse(timestampLayout, ts)
		if err != nil {
			log.Printf("Warning: skipping unparsable timestamp %q: %v", ts, err)
			continue
		}

		date := parsed.Format("2006-01-02")
		window, ok := days[date]
		if !ok {
			window = models.DayWindow{
				Date:  date,
				Hours: make(models.HourlySeries),
			}
		}
		if h := parsed.Hour(); h >= startHour && h < endHour {
			window.Hours[ts] = hourly[ts]
		}
		days[date] = window
	}

	for ts, record := range pressure {
		parsed, err := time.Parse(timestampLayout, ts)
		if err != nil {
			log.Printf("Warning: skipping unparsable upper-air timestamp %q: %v", ts, err)
			continue
		}

		date := parsed.Format("2006-01-02")
		window, ok := days[date]
		if !ok {
			// Upper-air data outside the surface series still gets a day.
			window = models.DayWindow{
				Date:  date,
				Hours: make(models.HourlySeries),
			}
		}
		if window.PressureLevels == nil {
			window.PressureLevels = make(models.PressureLevelSeries)
		}
		window.PressureLevels[ts] = record
		days[date] = window
	}

	return days
}
