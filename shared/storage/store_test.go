package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"flyticker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func sampleBatch() models.EvaluationBatch {
	return models.EvaluationBatch{
		LastUpdated: "2026-03-14T08:00:00Z",
		Location:    "Uetliberg",
		Evaluations: []models.Verdict{
			{
				Flyable:    true,
				Rating:     7,
				Confidence: 8,
				Conditions: models.ConditionsGood,
				Summary:    "Solid spring day.",
				Details: models.VerdictDetails{
					Wind:    "NE 10-15 km/h",
					Thermal: "moderate from noon",
					Risk:    "crowded landing zone",
				},
				Recommendation:    "Launch before 15:00.",
				HourlyEvaluations: []models.HourlyEvaluation{},
				Date:              "2026-03-14",
				Location:          "Uetliberg",
			},
			{
				Flyable:           false,
				Conditions:        models.ConditionsPoor,
				Summary:           "Front moving in.",
				Details:           models.VerdictDetails{Wind: models.NotAvailable, Thermal: models.NotAvailable, Risk: "gust front"},
				Recommendation:    "Stay grounded.",
				HourlyEvaluations: []models.HourlyEvaluation{},
				Date:              "2026-03-15",
				Location:          "Uetliberg",
			},
		},
	}
}

func TestEvaluationsRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir(), "")

	batch := sampleBatch()
	require.NoError(t, store.SaveEvaluations(batch))

	loaded, err := store.LoadEvaluations()
	require.NoError(t, err)

	// Content and order survive the file round trip.
	assert.Equal(t, batch, loaded)
}

func TestLoadEvaluationsMissing(t *testing.T) {
	store := NewStore(t.TempDir(), "")

	_, err := store.LoadEvaluations()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadEvaluationsCorruptFileIsRecoverable(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "evaluations.json"), []byte("{torn write"), 0644))

	store := NewStore(dataDir, "")
	_, err := store.LoadEvaluations()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadWeatherPrefersEphemeralDir(t *testing.T) {
	dataDir := t.TempDir()
	ephemeralDir := t.TempDir()
	store := NewStore(dataDir, ephemeralDir)

	local := models.WeatherFile{"Uetliberg": {Latitude: 47.35, Longitude: 8.49, HourlyData: models.HourlySeries{
		"2026-03-14T09:00": {"temperature_2m": f(5)},
	}}}
	ephemeral := models.WeatherFile{"Uetliberg": {Latitude: 47.35, Longitude: 8.49, HourlyData: models.HourlySeries{
		"2026-03-14T09:00": {"temperature_2m": f(9)},
	}}}

	require.NoError(t, writeJSON(filepath.Join(dataDir, "weather.json"), local))
	require.NoError(t, writeJSON(filepath.Join(ephemeralDir, "weather.json"), ephemeral))

	loaded, err := store.LoadWeather()
	require.NoError(t, err)
	assert.Equal(t, 9.0, *loaded["Uetliberg"].HourlyData["2026-03-14T09:00"]["temperature_2m"])
}

func TestSaveWeatherToCreatesParentDirs(t *testing.T) {
	store := NewStore(t.TempDir(), "")
	path := filepath.Join(t.TempDir(), "nested", "deeper", "weather.json")

	doc := models.WeatherFile{"Uetliberg": {HourlyData: models.HourlySeries{}}}
	require.NoError(t, store.SaveWeatherTo(path, doc))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestWeatherCacheFreshness(t *testing.T) {
	cache := NewWeatherCache(5 * time.Minute)

	current := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	_, ok := cache.Get()
	assert.False(t, ok, "empty cache must miss")

	cache.Put(models.SiteWeather{Latitude: 47.35})

	got, ok := cache.Get()
	require.True(t, ok)
	assert.Equal(t, 47.35, got.Latitude)

	current = current.Add(4 * time.Minute)
	_, ok = cache.Get()
	assert.True(t, ok, "entry younger than TTL must hit")

	current = current.Add(2 * time.Minute)
	_, ok = cache.Get()
	assert.False(t, ok, "entry older than TTL must miss")
}
