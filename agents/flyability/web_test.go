package flyability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"flyticker/internal/models"
	"flyticker/shared/email"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func webFixture(t *testing.T, forecastURL string) (*WebServer, *Availability) {
	t.Helper()
	svc, _ := availabilityFixture(t, forecastURL, okEvaluator())
	server := NewWebServer(svc.config, svc, email.NewNotifier(&svc.config.Email))
	return server, svc
}

func getJSON(t *testing.T, handler http.Handler, method, path string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestAPIWeatherChartShapes(t *testing.T) {
	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hourly": map[string]any{
				"time":                      []string{"2026-03-14T07:00", "2026-03-14T10:00", "2026-03-15T12:00"},
				"wind_speed_10m":            []*float64{f(8), f(12), f(15)},
				"wind_direction_10m":        []*float64{f(300), f(320), f(330)},
				"wind_gusts_10m":            []*float64{f(12), f(18), nil},
				"precipitation":             []*float64{f(0), f(0.2), f(0)},
				"precipitation_probability": []*float64{f(5), f(30), nil},
				"cape":                      []*float64{f(50), f(200), f(400)},
				"cloud_base":                []*float64{nil, f(1500), f(1800)},
			},
		})
	}))
	defer forecast.Close()

	server, _ := webFixture(t, forecast.URL)
	code, body := getJSON(t, server.Router(), http.MethodGet, "/api/weather")

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []any{"2026-03-14", "2026-03-15"}, body["dates"])
	// 07:00 is outside the 09:00-18:00 flight window.
	assert.Equal(t, 2.0, body["total_hours"])

	days := body["days"].(map[string]any)
	day := days["2026-03-14"].(map[string]any)

	wind := day["wind"].([]any)
	require.Len(t, wind, 1)
	point := wind[0].(map[string]any)
	assert.Equal(t, 12.0, point["speed"])
	assert.Equal(t, 18.0, point["gusts"])
	assert.Equal(t, 320.0, point["direction"])
	assert.Equal(t, "2026-03-14T10:00:00", point["time"])

	// Null cloud base drops the point from that series only.
	assert.Len(t, day["cloudbase"].([]any), 1)
	assert.Len(t, day["thermik"].([]any), 1)

	// Missing gusts fall back to the mean wind speed.
	day15 := days["2026-03-15"].(map[string]any)
	wind15 := day15["wind"].([]any)[0].(map[string]any)
	assert.Equal(t, 15.0, wind15["gusts"])
}

func TestAPIEvaluationGroupsByDate(t *testing.T) {
	server, svc := webFixture(t, "http://unused.invalid")
	require.NoError(t, svc.store.SaveEvaluations(models.EvaluationBatch{
		Location: "Uetliberg",
		Evaluations: []models.Verdict{
			{Date: "2026-03-14", Conditions: models.ConditionsGood, HourlyEvaluations: []models.HourlyEvaluation{}},
			{Date: "2026-03-15", Conditions: models.ConditionsPoor, HourlyEvaluations: []models.HourlyEvaluation{}},
		},
	}))

	code, body := getJSON(t, server.Router(), http.MethodGet, "/api/evaluation")

	require.Equal(t, http.StatusOK, code)
	evaluations := body["evaluations"].(map[string]any)
	require.Len(t, evaluations, 2)
	day := evaluations["2026-03-14"].(map[string]any)
	assert.Equal(t, "GOOD", day["conditions"])
}

func TestAPIEvaluationNotFound(t *testing.T) {
	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer forecast.Close()

	server, _ := webFixture(t, forecast.URL)
	code, body := getJSON(t, server.Router(), http.MethodGet, "/api/evaluation")

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, false, body["success"])
}

func TestAPIEmailConfigRedacted(t *testing.T) {
	server, svc := webFixture(t, "http://unused.invalid")
	svc.config.Email.Password = "secret"

	code, body := getJSON(t, server.Router(), http.MethodGet, "/api/email-config")

	require.Equal(t, http.StatusOK, code)
	cfg := body["config"].(map[string]any)
	configured := cfg["configured_fields"].(map[string]any)
	assert.Equal(t, "********", configured["EMAIL_PASSWORD"])
}

func TestAPITestEmailUnconfigured(t *testing.T) {
	server, _ := webFixture(t, "http://unused.invalid")

	code, body := getJSON(t, server.Router(), http.MethodPost, "/api/test-email")

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body, "config_status")
}
