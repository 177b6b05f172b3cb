package flyability

import (
	"fmt"
	"strings"

	"flyticker/internal/models"
)

// FormatReport renders a verdict batch as a plain-text terminal report,
// one block per day. No ANSI codes; the output also reads fine in logs.
func FormatReport(batch models.EvaluationBatch, startHour, endHour int) string {
	blocks := make([]string, 0, len(batch.Evaluations))
	for _, verdict := range batch.Evaluations {
		blocks = append(blocks, formatVerdict(verdict, startHour, endHour))
	}
	return strings.Join(blocks, "\n\n")
}

func formatVerdict(v models.Verdict, startHour, endHour int) string {
	rule := strings.Repeat("━", 65)

	flyable := "NOT FLYABLE"
	if v.Flyable {
		flyable = "FLYABLE"
	}

	stars := strings.Repeat("⭐", min(v.Rating, 10))
	if stars == "" {
		stars = "-"
	}
	confidenceBar := strings.Repeat("█", min(v.Confidence, 10)) + strings.Repeat("░", 10-min(v.Confidence, 10))

	var b strings.Builder
	fmt.Fprintf(&b, "🪂 %s", v.Location)
	if v.Date != "" {
		fmt.Fprintf(&b, " — %s (%02d:00-%02d:00)", v.Date, startHour, endHour)
	}
	b.WriteString("\n")
	if v.Timestamp != "" {
		fmt.Fprintf(&b, "Analyzed: %s\n", v.Timestamp)
	}
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "%s %s - %s\n", conditionIcon(v.Conditions), flyable, v.Conditions)
	fmt.Fprintf(&b, "Rating:     %s (%d/10)\n", stars, v.Rating)
	fmt.Fprintf(&b, "Confidence: %s (%d/10)\n", confidenceBar, v.Confidence)
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Summary: %s\n", v.Summary)
	fmt.Fprintf(&b, "Wind:    %s\n", v.Details.Wind)
	fmt.Fprintf(&b, "Thermal: %s\n", v.Details.Thermal)
	fmt.Fprintf(&b, "Risks:   %s\n", v.Details.Risk)
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Recommendation: %s", v.Recommendation)

	return b.String()
}

func conditionIcon(conditions string) string {
	switch conditions {
	case models.ConditionsExcellent, models.ConditionsGood:
		return "✅"
	case models.ConditionsModerate:
		return "⚠️"
	case models.ConditionsPoor:
		return "❌"
	case models.ConditionsDangerous:
		return "🚫"
	default:
		return "❓"
	}
}
