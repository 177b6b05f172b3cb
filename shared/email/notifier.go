package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"flyticker/internal/models"
	"flyticker/shared/config"
)

// Notifier sends flyability alerts over SMTP. It is safe to construct with
// an incomplete config; sends then fail with a descriptive error instead of
// panicking, so a missing mail setup never takes down the pipeline.
type Notifier struct {
	config *config.EmailConfig
}

func NewNotifier(cfg *config.EmailConfig) *Notifier {
	return &Notifier{
		config: cfg,
	}
}

// ConfigReport describes the notifier setup for the dashboard, with the
// password redacted.
type ConfigReport struct {
	Enabled          bool              `json:"enabled"`
	MissingFields    []string          `json:"missing_fields"`
	ConfiguredFields map[string]string `json:"configured_fields"`
}

func (n *Notifier) Enabled() bool {
	c := n.config
	return c.SMTPServer != "" && c.Sender != "" && c.Password != "" && c.Recipient != ""
}

// CheckConfiguration reports which SMTP fields are set, redacting secrets.
func (n *Notifier) CheckConfiguration() ConfigReport {
	report := ConfigReport{
		Enabled:          n.Enabled(),
		MissingFields:    []string{},
		ConfiguredFields: map[string]string{},
	}

	fields := []struct {
		name   string
		value  string
		secret bool
	}{
		{"EMAIL_SMTP_SERVER", n.config.SMTPServer, false},
		{"EMAIL_SMTP_PORT", fmt.Sprintf("%d", n.config.SMTPPort), false},
		{"EMAIL_SENDER", n.config.Sender, false},
		{"EMAIL_PASSWORD", n.config.Password, true},
		{"EMAIL_RECIPIENT", n.config.Recipient, false},
	}
	for _, field := range fields {
		if field.value == "" || field.value == "0" {
			report.MissingFields = append(report.MissingFields, field.name)
			continue
		}
		if field.secret {
			report.ConfiguredFields[field.name] = "********"
		} else {
			report.ConfiguredFields[field.name] = field.value
		}
	}
	return report
}

// SendBatchAlert sends one consolidated email covering every evaluated day.
// Without forceSend it only fires when at least one day is EXCELLENT or
// GOOD. Returns whether a mail went out; a skip is not an error.
func (n *Notifier) SendBatchAlert(batch models.EvaluationBatch, forceSend bool) (bool, error) {
	if !n.Enabled() {
		return false, fmt.Errorf("email notifier not configured (missing: %s)",
			strings.Join(n.CheckConfiguration().MissingFields, ", "))
	}
	if len(batch.Evaluations) == 0 {
		return false, fmt.Errorf("no evaluations to report")
	}

	if !forceSend && !hasFlyableDay(batch) {
		return false, nil
	}

	subject := n.batchSubject(batch)
	body, err := n.batchBody(batch)
	if err != nil {
		return false, fmt.Errorf("failed to render email body: %w", err)
	}

	if err := n.sendViaSMTP(subject, body); err != nil {
		return false, err
	}
	return true, nil
}

// SendTestAlert sends the most recent verdict regardless of conditions.
func (n *Notifier) SendTestAlert(batch models.EvaluationBatch) (bool, error) {
	return n.SendBatchAlert(batch, true)
}

func hasFlyableDay(batch models.EvaluationBatch) bool {
	for _, v := range batch.Evaluations {
		if v.Conditions == models.ConditionsExcellent || v.Conditions == models.ConditionsGood {
			return true
		}
	}
	return false
}

func (n *Notifier) batchSubject(batch models.EvaluationBatch) string {
	best := batch.Evaluations[0]
	for _, v := range batch.Evaluations[1:] {
		if v.Rating > best.Rating {
			best = v
		}
	}

	icon := "❌"
	if best.Conditions == models.ConditionsExcellent || best.Conditions == models.ConditionsGood {
		icon = "✅"
	} else if best.Conditions == models.ConditionsModerate {
		icon = "⚠️"
	}

	return fmt.Sprintf("%s Flyability %s: %s on %s (rating %d/10)",
		icon, batch.Location, best.Conditions, best.Date, best.Rating)
}

var batchTemplate = template.Must(template.New("batch").Funcs(template.FuncMap{
	"conditionColor": conditionColor,
}).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; max-width: 640px; margin: 0 auto; color: #1f2937;">
  <h2 style="border-bottom: 2px solid #e5e7eb; padding-bottom: 8px;">Flyability forecast for {{.Location}}</h2>
  {{range .Evaluations}}
  <div style="margin: 16px 0; padding: 12px 16px; border-radius: 8px; background: {{conditionColor .Conditions}};">
    <h3 style="margin: 0 0 4px 0;">{{.Date}} &mdash; {{.Conditions}} ({{.Rating}}/10, confidence {{.Confidence}}/10)</h3>
    <p style="margin: 4px 0;">{{.Summary}}</p>
    <ul style="margin: 4px 0; padding-left: 20px;">
      <li><strong>Wind:</strong> {{.Details.Wind}}</li>
      <li><strong>Thermals:</strong> {{.Details.Thermal}}</li>
      <li><strong>Risks:</strong> {{.Details.Risk}}</li>
    </ul>
    <p style="margin: 4px 0;"><em>{{.Recommendation}}</em></p>
  </div>
  {{end}}
  <p style="color: #6b7280; font-size: 12px;">Generated {{.LastUpdated}}</p>
</body>
</html>`))

func conditionColor(conditions string) string {
	switch conditions {
	case models.ConditionsExcellent, models.ConditionsGood:
		return "#dcfce7"
	case models.ConditionsModerate:
		return "#fef9c3"
	case models.ConditionsPoor:
		return "#fee2e2"
	case models.ConditionsDangerous:
		return "#fecaca"
	default:
		return "#f3f4f6"
	}
}

func (n *Notifier) batchBody(batch models.EvaluationBatch) (string, error) {
	if batch.LastUpdated == "" {
		batch.LastUpdated = time.Now().Format(time.RFC3339)
	}

	var buf bytes.Buffer
	if err := batchTemplate.Execute(&buf, batch); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (n *Notifier) sendViaSMTP(subject, body string) error {
	auth := smtp.PlainAuth("", n.config.Sender, n.config.Password, n.config.SMTPServer)

	to := []string{n.config.Recipient}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, n.config.Recipient, n.config.Sender, subject, body))

	addr := fmt.Sprintf("%s:%d", n.config.SMTPServer, n.config.SMTPPort)
	return smtp.SendMail(addr, auth, n.config.Sender, to, msg)
}
