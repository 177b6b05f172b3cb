package flyability

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"flyticker/internal/models"
	"flyticker/shared/config"
	"flyticker/shared/email"
	"flyticker/shared/llm"
	"flyticker/shared/monitoring"
	"flyticker/shared/scheduler"
	"flyticker/shared/storage"

	"github.com/google/uuid"
)

// Evaluator produces one verdict from a prompt pair.
type Evaluator interface {
	Evaluate(ctx context.Context, systemPrompt, userPrompt string) (models.Verdict, error)
}

// Notifier delivers the consolidated batch alert.
type Notifier interface {
	Enabled() bool
	SendBatchAlert(batch models.EvaluationBatch, forceSend bool) (bool, error)
}

// FlyMetrics represents the metrics collected during one evaluation run
type FlyMetrics struct {
	WeatherFetched bool `json:"weather_fetched"`
	DaysEvaluated  int  `json:"days_evaluated"`
	DaysFailed     int  `json:"days_failed"`
	EmailSent      bool `json:"email_sent"`
}

// GetSummary implements the scheduler.Metrics interface
func (m FlyMetrics) GetSummary() string {
	summary := fmt.Sprintf("evaluated %d days", m.DaysEvaluated)
	if m.DaysFailed > 0 {
		summary += fmt.Sprintf(" (%d failed)", m.DaysFailed)
	}
	if m.EmailSent {
		summary += ", email sent"
	}
	return summary
}

// FlyabilityAgent implements the scheduler.Agent interface
type FlyabilityAgent struct {
	config    *config.Config
	forecast  *ForecastClient
	evaluator Evaluator
	notifier  Notifier
	store     *storage.Store
	monitor   *monitoring.Monitor
	now       func() time.Time
}

func NewFlyabilityAgent(cfg *config.Config, monitor *monitoring.Monitor) *FlyabilityAgent {
	return &FlyabilityAgent{
		config:  cfg,
		monitor: monitor,
		now:     time.Now,
	}
}

func (a *FlyabilityAgent) Name() string {
	return "Flyability Agent"
}

func (a *FlyabilityAgent) Initialize() error {
	log.Printf("Initializing %s...", a.Name())

	if a.forecast == nil {
		a.forecast = NewForecastClient(&a.config.Forecast)
		log.Println("Forecast client initialized")
	}
	if a.evaluator == nil {
		a.evaluator = llm.NewClient(&a.config.LLM)
		log.Println("LLM client initialized")
	}
	if a.notifier == nil {
		a.notifier = email.NewNotifier(&a.config.Email)
	}
	if a.store == nil {
		a.store = storage.NewStore(a.config.Storage.DataDir, a.config.Storage.EphemeralDir)
	}

	log.Printf("Configured for %s (%.4f, %.4f), %d forecast days",
		a.config.Site.Name,
		a.config.Site.Latitude,
		a.config.Site.Longitude,
		a.config.Forecast.Days)

	return nil
}

func (a *FlyabilityAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := a.now()
	metrics := FlyMetrics{}
	status := monitoring.RunStatus{
		RunID:     uuid.NewString(),
		Timestamp: startTime.Format(time.RFC3339),
		Steps:     map[string]monitoring.StepStatus{},
		Errors:    []string{},
	}
	defer func() {
		status.DurationSeconds = a.now().Sub(startTime).Seconds()
		a.monitor.SetRunStatus(status)
	}()

	// Fetch forecast
	log.Printf("Fetching forecast for %s...", a.config.Site.Name)
	weather, err := a.forecast.FetchSite(ctx, a.config.Site)
	if err != nil {
		status.Steps["fetch"] = monitoring.StepStatus{Error: err.Error()}
		status.Errors = append(status.Errors, err.Error())
		if events != nil && events.OnCriticalFailure != nil {
			events.OnCriticalFailure(fmt.Errorf("failed to fetch forecast: %w", err), a.now().Sub(startTime))
		}
		return fmt.Errorf("failed to fetch forecast: %w", err)
	}
	metrics.WeatherFetched = true
	status.Steps["fetch"] = monitoring.StepStatus{
		Success: true,
		Message: fmt.Sprintf("%d hourly timestamps", len(weather.HourlyData)),
	}

	// Persist the raw forecast so the dashboard can serve it without another
	// upstream call. Failure here degrades the dashboard, not the run.
	doc := models.WeatherFile{a.config.Site.Name: weather}
	if err := a.store.SaveWeather(doc); err != nil {
		log.Printf("Warning: failed to persist weather data: %v", err)
		if events != nil && events.OnPartialFailure != nil {
			events.OnPartialFailure(fmt.Errorf("failed to persist weather data: %w", err), a.now().Sub(startTime))
		}
	}

	// Evaluate each day
	batch := a.evaluateDays(ctx, weather, &metrics, &status)

	if err := a.store.SaveEvaluations(batch); err != nil {
		log.Printf("Warning: failed to persist evaluations: %v", err)
		status.Errors = append(status.Errors, fmt.Sprintf("persist evaluations: %v", err))
		if events != nil && events.OnPartialFailure != nil {
			events.OnPartialFailure(fmt.Errorf("failed to persist evaluations: %w", err), a.now().Sub(startTime))
		}
	}

	// Consolidated notification covering the whole batch
	if a.notifier.Enabled() {
		sent, err := a.notifier.SendBatchAlert(batch, true)
		if err != nil {
			log.Printf("Warning: failed to send notification email: %v", err)
			status.Steps["notify"] = monitoring.StepStatus{Error: err.Error()}
			status.Errors = append(status.Errors, fmt.Sprintf("notify: %v", err))
			if events != nil && events.OnPartialFailure != nil {
				events.OnPartialFailure(fmt.Errorf("failed to send notification: %w", err), a.now().Sub(startTime))
			}
		} else {
			metrics.EmailSent = sent
			status.Steps["notify"] = monitoring.StepStatus{Success: true, Message: "consolidated email sent"}
			log.Println("Consolidated notification email sent")
		}
	} else {
		log.Println("Email notifier not configured, skipping notification")
		status.Steps["notify"] = monitoring.StepStatus{Success: true, Message: "notifier not configured, skipped"}
	}

	status.Success = true
	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, a.now().Sub(startTime))
	}
	return nil
}

// EvaluateNow runs the full pipeline synchronously, for on-demand refreshes
// from the dashboard read path.
func (a *FlyabilityAgent) EvaluateNow(ctx context.Context) error {
	if err := a.Initialize(); err != nil {
		return err
	}
	return a.RunOnce(ctx, nil)
}

// evaluateDays turns the fetched series into one verdict per target day. A
// single day's LLM failure yields a synthetic DANGEROUS verdict; the batch
// always completes.
func (a *FlyabilityAgent) evaluateDays(ctx context.Context, weather models.SiteWeather, metrics *FlyMetrics, status *monitoring.RunStatus) models.EvaluationBatch {
	days := SplitDays(weather.HourlyData, weather.PressureLevelData,
		a.config.Forecast.FlightHoursStart, a.config.Forecast.FlightHoursEnd)

	dates := make([]string, 0, len(days))
	for date := range days {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	if len(dates) > a.config.Forecast.Days {
		dates = dates[:a.config.Forecast.Days]
	}

	site := a.config.Site
	verdicts := make([]models.Verdict, 0, len(dates))

	for _, date := range dates {
		window := days[date]
		log.Printf("Evaluating %s (%d flight-window hours)...", date, len(window.Hours))

		systemPrompt, userPrompt := BuildPrompts(site, window,
			a.config.Forecast.FlightHoursStart, a.config.Forecast.FlightHoursEnd)

		verdict, err := a.evaluator.Evaluate(ctx, systemPrompt, userPrompt)
		if err != nil {
			log.Printf("Evaluation failed for %s: %v", date, err)
			metrics.DaysFailed++
			status.Errors = append(status.Errors, fmt.Sprintf("%s: %v", date, err))
			verdict = syntheticFailureVerdict(err)
		}

		verdict.Date = date
		verdict.Location = site.Name
		verdict.Timestamp = a.now().Format(time.RFC3339)
		verdicts = append(verdicts, verdict)
		metrics.DaysEvaluated++
	}

	status.Steps["evaluate"] = monitoring.StepStatus{
		Success: metrics.DaysFailed < len(dates) || len(dates) == 0,
		Message: fmt.Sprintf("%d days evaluated, %d failed", metrics.DaysEvaluated, metrics.DaysFailed),
	}

	return models.EvaluationBatch{
		LastUpdated: a.now().Format(time.RFC3339),
		Location:    site.Name,
		Evaluations: verdicts,
	}
}

// syntheticFailureVerdict stands in for a day whose evaluation failed so the
// rest of the batch still goes out.
func syntheticFailureVerdict(err error) models.Verdict {
	return models.Verdict{
		Flyable:    false,
		Rating:     0,
		Confidence: 0,
		Conditions: models.ConditionsDangerous,
		Summary:    fmt.Sprintf("Error: %v", err),
		Details: models.VerdictDetails{
			Wind:    models.NotAvailable,
			Thermal: models.NotAvailable,
			Risk:    fmt.Sprintf("System error: %v", err),
		},
		Recommendation:    "Do not fly: the forecast evaluation failed.",
		HourlyEvaluations: []models.HourlyEvaluation{},
	}
}
