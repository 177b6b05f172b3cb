package flyability

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"flyticker/internal/models"
	"flyticker/shared/config"
	"flyticker/shared/email"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// WebServer serves the dashboard JSON API. Rendering happens client-side;
// these endpoints only hand out chart-ready data and evaluation verdicts.
type WebServer struct {
	config       *config.Config
	availability *Availability
	notifier     *email.Notifier
}

func NewWebServer(cfg *config.Config, availability *Availability, notifier *email.Notifier) *WebServer {
	return &WebServer{
		config:       cfg,
		availability: availability,
		notifier:     notifier,
	}
}

func (s *WebServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/weather", s.handleWeather)
	r.Get("/api/evaluation", s.handleEvaluation)
	r.Get("/api/email-config", s.handleEmailConfig)
	r.Post("/api/test-email", s.handleTestEmail)

	return r
}

func (s *WebServer) Start() {
	addr := fmt.Sprintf(":%d", s.config.Web.Port)
	log.Printf("Web API starting on %s", addr)
	go func() {
		if err := http.ListenAndServe(addr, s.Router()); err != nil {
			log.Printf("Web server error: %v", err)
		}
	}()
}

// Chart point shapes match what the timeline frontend consumes.
type windPoint struct {
	Time      string  `json:"time"`
	Speed     float64 `json:"speed"`
	Gusts     float64 `json:"gusts"`
	Direction float64 `json:"direction"`
}

type precipitationPoint struct {
	Time        string  `json:"time"`
	Amount      float64 `json:"amount"`
	Probability float64 `json:"probability"`
}

type thermalPoint struct {
	Time string  `json:"time"`
	Cape float64 `json:"cape"`
}

type cloudBasePoint struct {
	Time   string  `json:"time"`
	Height float64 `json:"height"`
}

type chartData struct {
	Wind          []windPoint          `json:"wind"`
	Precipitation []precipitationPoint `json:"precipitation"`
	Thermal       []thermalPoint       `json:"thermik"`
	CloudBase     []cloudBasePoint     `json:"cloudbase"`
}

func (s *WebServer) handleWeather(w http.ResponseWriter, r *http.Request) {
	weather, err := s.availability.SiteWeather(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	start := s.config.Forecast.FlightHoursStart
	end := s.config.Forecast.FlightHoursEnd
	days := SplitDays(weather.HourlyData, nil, start, end)

	formatted := make(map[string]chartData, len(days))
	dates := make([]string, 0, len(days))
	totalHours := 0
	for date, window := range days {
		formatted[date] = formatChartData(window.Hours)
		dates = append(dates, date)
		totalHours += len(window.Hours)
	}
	sort.Strings(dates)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"location": models.LocationProfile{
			Name:           s.config.Site.Name,
			Latitude:       weather.Latitude,
			Longitude:      weather.Longitude,
			SiteType:       weather.SiteType,
			FlyingRegion:   weather.FlyingRegion,
			WindDirections: weather.WindDirections,
			Remarks:        weather.Remarks,
		},
		"flight_hours": map[string]int{"start": start, "end": end},
		"days":         formatted,
		"dates":        dates,
		"total_hours":  totalHours,
	})
}

// formatChartData turns a day's hourly records into per-chart series.
// Points missing their leading value are dropped from that series only.
func formatChartData(hours models.HourlySeries) chartData {
	data := chartData{
		Wind:          []windPoint{},
		Precipitation: []precipitationPoint{},
		Thermal:       []thermalPoint{},
		CloudBase:     []cloudBasePoint{},
	}

	for _, ts := range hours.SortedTimestamps() {
		parsed, err := time.Parse(timestampLayout, ts)
		if err != nil {
			continue
		}
		timeStr := parsed.Format("2006-01-02T15:04:05")
		record := hours[ts]

		speed := record["wind_speed_10m"]
		direction := record["wind_direction_10m"]
		if speed != nil && direction != nil {
			gusts := *speed
			if g := record["wind_gusts_10m"]; g != nil {
				gusts = *g
			}
			data.Wind = append(data.Wind, windPoint{Time: timeStr, Speed: *speed, Gusts: gusts, Direction: *direction})
		}

		if precip := record["precipitation"]; precip != nil {
			probability := 0.0
			if p := record["precipitation_probability"]; p != nil {
				probability = *p
			}
			data.Precipitation = append(data.Precipitation, precipitationPoint{Time: timeStr, Amount: *precip, Probability: probability})
		}

		if cape := record["cape"]; cape != nil {
			data.Thermal = append(data.Thermal, thermalPoint{Time: timeStr, Cape: *cape})
		}

		if base := record["cloud_base"]; base != nil {
			data.CloudBase = append(data.CloudBase, cloudBasePoint{Time: timeStr, Height: *base})
		}
	}

	return data
}

func (s *WebServer) handleEvaluation(w http.ResponseWriter, r *http.Request) {
	batch, err := s.availability.Evaluations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(batch.Evaluations) == 0 {
		writeError(w, http.StatusNotFound, "no evaluation available")
		return
	}

	byDate := make(map[string]models.Verdict, len(batch.Evaluations))
	for _, verdict := range batch.Evaluations {
		if verdict.Date != "" {
			byDate[verdict.Date] = verdict
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"evaluations": byDate,
	})
}

func (s *WebServer) handleEmailConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"config":  s.notifier.CheckConfiguration(),
	})
}

func (s *WebServer) handleTestEmail(w http.ResponseWriter, r *http.Request) {
	if !s.notifier.Enabled() {
		report := s.notifier.CheckConfiguration()
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success":       false,
			"error":         "email configuration incomplete",
			"config_status": report,
		})
		return
	}

	batch, err := s.availability.Evaluations(r.Context())
	if err != nil || len(batch.Evaluations) == 0 {
		writeError(w, http.StatusNotFound, "no evaluation data available, run an analysis first")
		return
	}

	if _, err := s.notifier.SendTestAlert(batch); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to send test email: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("test email sent to %s", s.config.Email.Recipient),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}
