package email

import (
	"strings"
	"testing"

	"flyticker/internal/models"
	"flyticker/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullConfig() *config.EmailConfig {
	return &config.EmailConfig{
		SMTPServer: "smtp.example.com",
		SMTPPort:   587,
		Sender:     "bot@example.com",
		Password:   "app-password",
		Recipient:  "pilot@example.com",
	}
}

func twoDayBatch() models.EvaluationBatch {
	return models.EvaluationBatch{
		LastUpdated: "2026-03-14T07:00:00Z",
		Location:    "Uetliberg",
		Evaluations: []models.Verdict{
			{
				Date:       "2026-03-14",
				Conditions: models.ConditionsPoor,
				Rating:     2,
				Confidence: 7,
				Summary:    "Gusty front passage.",
				Details:    models.VerdictDetails{Wind: "W 30 km/h", Thermal: "none", Risk: "gusts"},
			},
			{
				Date:           "2026-03-15",
				Conditions:     models.ConditionsGood,
				Rating:         7,
				Confidence:     8,
				Summary:        "Classic NW day.",
				Details:        models.VerdictDetails{Wind: "NW 12 km/h", Thermal: "good from 11:00", Risk: "crowding"},
				Recommendation: "Launch around noon.",
			},
		},
	}
}

func TestEnabledRequiresAllFields(t *testing.T) {
	cfg := fullConfig()
	assert.True(t, NewNotifier(cfg).Enabled())

	cfg.Password = ""
	assert.False(t, NewNotifier(cfg).Enabled())
}

func TestCheckConfigurationRedactsPassword(t *testing.T) {
	report := NewNotifier(fullConfig()).CheckConfiguration()

	assert.True(t, report.Enabled)
	assert.Empty(t, report.MissingFields)
	assert.Equal(t, "********", report.ConfiguredFields["EMAIL_PASSWORD"])
	assert.Equal(t, "smtp.example.com", report.ConfiguredFields["EMAIL_SMTP_SERVER"])
}

func TestCheckConfigurationListsMissingFields(t *testing.T) {
	cfg := fullConfig()
	cfg.Recipient = ""
	cfg.SMTPServer = ""

	report := NewNotifier(cfg).CheckConfiguration()

	assert.False(t, report.Enabled)
	assert.ElementsMatch(t, []string{"EMAIL_RECIPIENT", "EMAIL_SMTP_SERVER"}, report.MissingFields)
}

func TestSendBatchAlertUnconfigured(t *testing.T) {
	sent, err := NewNotifier(&config.EmailConfig{}).SendBatchAlert(twoDayBatch(), true)

	assert.False(t, sent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestSendBatchAlertSkipsWithoutFlyableDay(t *testing.T) {
	batch := twoDayBatch()
	batch.Evaluations[1].Conditions = models.ConditionsModerate

	// No flyable day and no force: skipped before any SMTP dial.
	sent, err := NewNotifier(fullConfig()).SendBatchAlert(batch, false)

	assert.False(t, sent)
	assert.NoError(t, err)
}

func TestSendBatchAlertEmptyBatch(t *testing.T) {
	sent, err := NewNotifier(fullConfig()).SendBatchAlert(models.EvaluationBatch{}, true)

	assert.False(t, sent)
	assert.Error(t, err)
}

func TestBatchSubjectPicksBestDay(t *testing.T) {
	subject := NewNotifier(fullConfig()).batchSubject(twoDayBatch())

	assert.Contains(t, subject, "GOOD on 2026-03-15")
	assert.Contains(t, subject, "rating 7/10")
	assert.True(t, strings.HasPrefix(subject, "✅"))
}

func TestBatchBodyRendersEveryDay(t *testing.T) {
	body, err := NewNotifier(fullConfig()).batchBody(twoDayBatch())
	require.NoError(t, err)

	assert.Contains(t, body, "2026-03-14")
	assert.Contains(t, body, "2026-03-15")
	assert.Contains(t, body, "Classic NW day.")
	assert.Contains(t, body, "Launch around noon.")
	assert.Contains(t, body, "Uetliberg")
}
